package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cuongbtq/onmydesk/internal/dateutil"
)

// Field types
const (
	FieldString = "string"
	FieldInt    = "int"
	FieldFloat  = "float"
	FieldBool   = "bool"
	FieldDate   = "date"
)

// Field describes a param a report accepts
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
	Help     string `json:"help,omitempty"`
}

// ValidateParams checks params against fields and returns a copy with
// defaults applied and values coerced to the field types. Date fields accept
// YYYY-MM-DD or a date expression resolved against reference. Params without
// a field are kept as they are.
func ValidateParams(fields []Field, params Params, reference time.Time) (Params, error) {
	out := make(Params, len(params))
	for k, v := range params {
		out[k] = v
	}

	for _, f := range fields {
		value, ok := out[f.Name]
		if !ok || value == nil || value == "" {
			if f.Default != nil {
				value = f.Default
			} else if f.Required {
				return nil, fmt.Errorf("%w: %s is required", ErrInvalidParam, f.Name)
			} else {
				continue
			}
		}

		coerced, err := coerce(f, value, reference)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParam, f.Name, err)
		}
		out[f.Name] = coerced
	}

	if len(out) == 0 && params == nil {
		return nil, nil
	}
	return out, nil
}

func coerce(f Field, value any, reference time.Time) (any, error) {
	switch f.Type {
	case FieldString, "":
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%v", value), nil
		}
		return s, nil

	case FieldInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("%v is not an integer", v)
			}
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", v)
			}
			return n, nil
		}

	case FieldFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", v)
			}
			return n, nil
		}

	case FieldBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", v)
			}
			return b, nil
		}

	case FieldDate:
		switch v := value.(type) {
		case time.Time:
			return v.Format(dateutil.DateLayout), nil
		case string:
			if dateutil.IsExpression(v) {
				d, err := dateutil.StrToDate(v, reference)
				if err != nil {
					return nil, err
				}
				return d.Format(dateutil.DateLayout), nil
			}
			d, err := time.Parse(dateutil.DateLayout, v)
			if err != nil {
				return nil, fmt.Errorf("%q is not a date", v)
			}
			return d.Format(dateutil.DateLayout), nil
		}

	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}

	return nil, fmt.Errorf("unexpected value %v for type %s", value, f.Type)
}
