package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenRe = regexp.MustCompile(`{(.*?)}`)

// ResolveParams substitutes {$.path} tokens in params with values
// looked up from the run-scoped data map. Non-string values and
// strings without tokens pass through unchanged.
func ResolveParams(runData map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	for k, v := range params {
		output[k] = resolveValue(runData, v)
	}
	return output
}

func resolveValue(runData map[string]any, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any)
		for k, inner := range val {
			out[k] = resolveValue(runData, inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, inner := range val {
			out = append(out, resolveValue(runData, inner))
		}
		return out
	case string:
		return resolveString(runData, val)
	default:
		return v
	}
}

func resolveString(runData map[string]any, s string) string {
	tokens := tokenRe.FindAllString(s, -1)
	for _, token := range tokens {
		path := strings.TrimSuffix(strings.TrimPrefix(token, "{"), "}")
		if !strings.HasPrefix(path, "$") {
			continue
		}
		value, err := jsonpath.JsonPathLookup(runData, path)
		if err != nil {
			continue
		}
		s = strings.ReplaceAll(s, token, fmt.Sprintf("%v", value))
	}
	return s
}
