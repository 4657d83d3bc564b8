package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveParams(t *testing.T) {
	runData := map[string]any{
		"input": map[string]any{
			"service": "billing",
			"count":   3,
		},
		"step1": map[string]any{
			"host": "node-7",
		},
	}

	params := map[string]any{
		"target":  "{$.input.service}",
		"message": "restarting {$.input.service} on {$.step1.host}",
		"count":   7,
		"nested": map[string]any{
			"host": "{$.step1.host}",
		},
		"list": []any{"{$.input.service}", "static"},
	}

	resolved := ResolveParams(runData, params)
	require.Equal(t, "billing", resolved["target"])
	require.Equal(t, "restarting billing on node-7", resolved["message"])
	require.Equal(t, 7, resolved["count"])
	require.Equal(t, map[string]any{"host": "node-7"}, resolved["nested"])
	require.Equal(t, []any{"billing", "static"}, resolved["list"])
}

func TestResolveParamsUnknownPathLeftAsIs(t *testing.T) {
	resolved := ResolveParams(map[string]any{}, map[string]any{
		"target": "{$.missing.path}",
	})
	require.Equal(t, "{$.missing.path}", resolved["target"])
}

func TestResolveParamsNonPathBracesUntouched(t *testing.T) {
	resolved := ResolveParams(map[string]any{}, map[string]any{
		"template": "literal {braces} stay",
	})
	require.Equal(t, "literal {braces} stay", resolved["template"])
}
