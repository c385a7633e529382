package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrToDate(t *testing.T) {
	reference := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "today", value: "D", want: reference},
		{name: "yesterday", value: "D-1", want: reference.AddDate(0, 0, -1)},
		{name: "in three days", value: "D+3", want: reference.AddDate(0, 0, 3)},
		{name: "lowercase with spaces", value: " d - 10 ", want: reference.AddDate(0, 0, -10)},
		{name: "crosses month", value: "D+20", want: time.Date(2026, time.November, 7, 0, 0, 0, 0, time.UTC)},
		{name: "zero offset", value: "D+0", want: reference},
		{name: "empty", value: "", wantErr: true},
		{name: "missing number", value: "D-", wantErr: true},
		{name: "unknown unit", value: "M-1", wantErr: true},
		{name: "trailing garbage", value: "D-1x", wantErr: true},
		{name: "plain date", value: "2026-10-18", wantErr: true},
		{name: "leading tab", value: "\tD-1", wantErr: true},
		{name: "trailing newline", value: "D-1\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StrToDate(tt.value, reference)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "wrong value")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolveParams(t *testing.T) {
	reference := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	params := map[string]any{
		"start":  "D-7",
		"end":    "d",
		"region": "north",
		"limit":  float64(100),
	}

	resolved, err := ResolveParams(params, reference)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-11", resolved["start"])
	assert.Equal(t, "2026-10-18", resolved["end"])
	assert.Equal(t, "north", resolved["region"])
	assert.Equal(t, float64(100), resolved["limit"])

	// the input is left untouched
	assert.Equal(t, "D-7", params["start"])
}

func TestResolveParams_Nil(t *testing.T) {
	resolved, err := ResolveParams(nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
