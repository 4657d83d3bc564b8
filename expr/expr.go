package expr

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// EvalBool evaluates a javascript predicate against named signals.
// Every signal is bound as a top-level variable and the whole map is
// additionally bound as $. Evaluation is pure; the vm is discarded
// after each call.
func EvalBool(expression string, signals map[string]any) (bool, error) {
	if len(expression) == 0 {
		return false, fmt.Errorf("expression can not be empty")
	}
	vm := goja.New()
	for k, v := range signals {
		if err := vm.Set(k, v); err != nil {
			return false, err
		}
	}
	if err := vm.Set("$", signals); err != nil {
		return false, err
	}
	val, err := vm.RunString(expression)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression %w", err)
	}
	return val.ToBoolean(), nil
}

// EvalObject runs a javascript snippet with $ bound to the data map and
// returns the final value of $ as a map.
func EvalObject(expression string, data map[string]any) (map[string]any, error) {
	if len(expression) == 0 {
		return nil, fmt.Errorf("expression can not be empty")
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("var $ = %s;\n%s", encoded, expression)
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return nil, err
	}
	return output, nil
}
