package main

import (
	"fmt"
	"strings"
)

// parseParams turns repeated --param key=value flags into report params.
// Values stay strings; the report definition coerces them by field type.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("param %q given more than once", key)
		}
		params[key] = value
	}
	return params, nil
}
