package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams(t *testing.T) {
	reference := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	fields := []Field{
		{Name: "start", Type: FieldDate, Required: true},
		{Name: "limit", Type: FieldInt, Default: 100},
		{Name: "ratio", Type: FieldFloat},
		{Name: "detailed", Type: FieldBool},
		{Name: "region", Type: FieldString},
	}

	tests := []struct {
		name    string
		params  Params
		want    Params
		wantErr string
	}{
		{
			name:   "defaults and expressions",
			params: Params{"start": "D-7"},
			want:   Params{"start": "2026-10-11", "limit": int64(100)},
		},
		{
			name: "coercion from json and strings",
			params: Params{
				"start":    "2026-01-31",
				"limit":    float64(5),
				"ratio":    "0.5",
				"detailed": "true",
				"region":   42,
				"extra":    "kept",
			},
			want: Params{
				"start":    "2026-01-31",
				"limit":    int64(5),
				"ratio":    0.5,
				"detailed": true,
				"region":   "42",
				"extra":    "kept",
			},
		},
		{
			name:    "missing required",
			params:  Params{"limit": 1},
			wantErr: "start is required",
		},
		{
			name:    "bad date",
			params:  Params{"start": "31/01/2026"},
			wantErr: "is not a date",
		},
		{
			name:    "fractional int",
			params:  Params{"start": "D", "limit": 1.5},
			wantErr: "is not an integer",
		},
		{
			name:    "bad bool",
			params:  Params{"start": "D", "detailed": "maybe"},
			wantErr: "is not a boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateParams(fields, tt.params, reference)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidParam)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateParams_NoFields(t *testing.T) {
	got, err := ValidateParams(nil, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ValidateParams(nil, Params{"a": 1}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, Params{"a": 1}, got)
}

func TestValidateParams_UnknownType(t *testing.T) {
	_, err := ValidateParams([]Field{{Name: "x", Type: "blob"}}, Params{"x": "1"}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field type")
}
