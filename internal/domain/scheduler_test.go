package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestScheduler_IsDue(t *testing.T) {
	// 2026-10-12 is a Monday
	monday := date(2026, time.October, 12)
	saturday := date(2026, time.October, 17)

	tests := []struct {
		name        string
		periodicity string
		date        time.Time
		want        bool
	}{
		{"daily on monday", PeriodicityDaily, monday, true},
		{"daily on saturday", PeriodicityDaily, saturday, true},
		{"weekdays on monday", PeriodicityWeekdays, monday, true},
		{"weekdays on saturday", PeriodicityWeekdays, saturday, false},
		{"weekends on saturday", PeriodicityWeekends, saturday, true},
		{"weekends on monday", PeriodicityWeekends, monday, false},
		{"monday on monday", PeriodicityMonday, monday, true},
		{"friday on monday", PeriodicityFriday, monday, false},
		{"saturday on saturday", PeriodicitySaturday, saturday, true},
		{"month start on first", PeriodicityMonthStart, date(2026, time.November, 1), true},
		{"month start on second", PeriodicityMonthStart, date(2026, time.November, 2), false},
		{"month end on last day", PeriodicityMonthEnd, date(2026, time.February, 28), true},
		{"month end on leap day", PeriodicityMonthEnd, date(2028, time.February, 29), true},
		{"month end mid month", PeriodicityMonthEnd, date(2026, time.October, 15), false},
		{"unknown periodicity", "hourly", monday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scheduler{Report: "sales.Monthly", Periodicity: tt.periodicity}
			assert.Equal(t, tt.want, s.IsDue(tt.date))
		})
	}
}

func TestValidatePeriodicity(t *testing.T) {
	valid := []string{
		PeriodicityDaily, PeriodicityWeekdays, PeriodicityWeekends,
		PeriodicityMonday, PeriodicitySunday, PeriodicityMonthStart, PeriodicityMonthEnd,
	}
	for _, p := range valid {
		assert.NoError(t, ValidatePeriodicity(p), p)
	}

	err := ValidatePeriodicity("hourly")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPeriodicity)
}

func TestScheduler_Label(t *testing.T) {
	s := &Scheduler{}
	assert.Equal(t, "Scheduler object", s.Label(""))

	s.Report = "sales.Monthly"
	assert.Equal(t, "My Report", s.Label("My Report"))

	s.ID = "42"
	assert.Equal(t, "My Report #42", s.Label("My Report"))
}

func TestScheduler_Params(t *testing.T) {
	s := &Scheduler{}
	require.NoError(t, s.SetParams(map[string]any{"teste": "Alisson"}))

	params, err := s.GetParams()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"teste": "Alisson"}, params)
}
