package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cuongbtq/onmydesk/internal/dataset"
)

// TimeLayout renders time values in every output
const TimeLayout = "2006-01-02 15:04:05"

// FormatValue renders a dataset value as text
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(TimeLayout)
	case decimal.Decimal:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatRow renders every value of row
func FormatRow(row dataset.Row) []string {
	rec := make([]string, len(row))
	for i, v := range row {
		rec[i] = FormatValue(v)
	}
	return rec
}
