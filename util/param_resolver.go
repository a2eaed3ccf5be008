package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// LookupPath reads a dotted path from the flattened context map.
func LookupPath(data map[string]any, path string) (any, bool) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$.")
	if path == "" {
		return nil, false
	}
	value, err := jsonpath.JsonPathLookup(data, "$."+path)
	if err != nil {
		return nil, false
	}
	return value, true
}

// ResolveParams deep-copies params, replacing {{ path.to.value }} placeholders
// with values from the execution context. A string that is exactly one
// placeholder keeps the raw value (maps and numbers survive); placeholders
// embedded in longer strings render with %v; unresolved placeholders are left
// verbatim.
func ResolveParams(ec *model.ExecutionContext, params map[string]any) map[string]any {
	data := ec.AsMap()
	output := make(map[string]any, len(params))
	resolveParams(data, params, output)
	return output
}

func resolveParams(data map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch tv := v.(type) {
		case map[string]any:
			out := make(map[string]any, len(tv))
			output[k] = out
			resolveParams(data, tv, out)
		case []any:
			output[k] = resolveList(data, tv)
		case string:
			output[k] = resolveString(data, tv)
		default:
			output[k] = v
		}
	}
}

func resolveList(data map[string]any, list []any) []any {
	output := make([]any, 0, len(list))
	for _, v := range list {
		switch tv := v.(type) {
		case map[string]any:
			out := make(map[string]any, len(tv))
			resolveParams(data, tv, out)
			output = append(output, out)
		case []any:
			output = append(output, resolveList(data, tv))
		case string:
			output = append(output, resolveString(data, tv))
		default:
			output = append(output, v)
		}
	}
	return output
}

func resolveString(data map[string]any, s string) any {
	tokens := placeholderRe.FindAllStringSubmatch(s, -1)
	if len(tokens) == 0 {
		return s
	}
	if len(tokens) == 1 && strings.TrimSpace(s) == tokens[0][0] {
		if value, ok := LookupPath(data, tokens[0][1]); ok {
			return value
		}
		return s
	}
	out := s
	for _, tok := range tokens {
		value, ok := LookupPath(data, tok[1])
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, tok[0], fmt.Sprintf("%v", value))
	}
	return out
}
