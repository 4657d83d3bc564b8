package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalBool(t *testing.T) {
	signals := map[string]any{
		"cpu_usage":    92.5,
		"memory_usage": 40,
		"service":      "api",
	}

	scenarios := map[string]struct {
		expression string
		expected   bool
	}{
		"numeric comparison":   {"cpu_usage > 90", true},
		"negative comparison":  {"memory_usage > 90", false},
		"string equality":      {`service == "api"`, true},
		"compound condition":   {`cpu_usage > 90 && service == "api"`, true},
		"dollar binding":       {`$.cpu_usage > 90`, true},
		"missing signal falsy": {"typeof disk_usage !== 'undefined' && disk_usage > 10", false},
	}
	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			got, err := EvalBool(scenario.expression, signals)
			require.NoError(t, err)
			require.Equal(t, scenario.expected, got)
		})
	}
}

func TestEvalBoolErrors(t *testing.T) {
	_, err := EvalBool("", nil)
	require.Error(t, err)

	_, err = EvalBool("cpu_usage >>> >", map[string]any{"cpu_usage": 10})
	require.Error(t, err)
}

func TestEvalObject(t *testing.T) {
	out, err := EvalObject(`$.doubled = $.value * 2; $.flag = true;`, map[string]any{"value": 21})
	require.NoError(t, err)
	require.Equal(t, float64(42), out["doubled"])
	require.Equal(t, true, out["flag"])
	require.Equal(t, float64(21), out["value"])
}

func TestEvalObjectError(t *testing.T) {
	_, err := EvalObject("this is not javascript", map[string]any{})
	require.Error(t, err)
}
