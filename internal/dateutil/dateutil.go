// Package dateutil resolves relative date expressions such as "D-1" against a
// reference date.
package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout resolved expressions are rendered with
const DateLayout = "2006-01-02"

var expressionPattern = regexp.MustCompile(`^D([-+][0-9]+)?$`)

func normalize(value string) string {
	return strings.ToUpper(strings.ReplaceAll(value, " ", ""))
}

// IsExpression reports whether value is a date expression StrToDate accepts
func IsExpression(value string) bool {
	return expressionPattern.MatchString(normalize(value))
}

// StrToDate converts "D", "D-n" or "D+n" into reference shifted by n days.
// Spaces and case are ignored; other whitespace makes the value invalid.
func StrToDate(value string, reference time.Time) (time.Time, error) {
	expr := normalize(value)

	match := expressionPattern.FindStringSubmatch(expr)
	if match == nil {
		return time.Time{}, fmt.Errorf("wrong value %q", value)
	}
	if match[1] == "" {
		return reference, nil
	}

	days, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("wrong value %q: %w", value, err)
	}
	return reference.AddDate(0, 0, days), nil
}

// ResolveParams returns a copy of params where every string value holding a
// date expression is replaced by the resolved date in DateLayout.
func ResolveParams(params map[string]any, reference time.Time) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}

	resolved := make(map[string]any, len(params))
	for key, value := range params {
		s, ok := value.(string)
		if !ok || !IsExpression(s) {
			resolved[key] = value
			continue
		}
		d, err := StrToDate(s, reference)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		resolved[key] = d.Format(DateLayout)
	}
	return resolved, nil
}
