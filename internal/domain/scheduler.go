package domain

import (
	"database/sql"
	"fmt"
	"time"
)

// Scheduler periodically creates and processes report records
type Scheduler struct {
	ID          string         `db:"id"`
	Report      string         `db:"report"`
	Periodicity string         `db:"periodicity"`
	Params      sql.NullString `db:"params"`
	CreatedBy   sql.NullString `db:"created_by"`
	InsertDate  time.Time      `db:"insert_date"`
	UpdateDate  time.Time      `db:"update_date"`
}

var weekdayPeriodicities = map[string]time.Weekday{
	PeriodicitySunday:    time.Sunday,
	PeriodicityMonday:    time.Monday,
	PeriodicityTuesday:   time.Tuesday,
	PeriodicityWednesday: time.Wednesday,
	PeriodicityThursday:  time.Thursday,
	PeriodicityFriday:    time.Friday,
	PeriodicitySaturday:  time.Saturday,
}

// ValidatePeriodicity returns ErrInvalidPeriodicity for unknown values
func ValidatePeriodicity(periodicity string) error {
	switch periodicity {
	case PeriodicityDaily, PeriodicityWeekdays, PeriodicityWeekends,
		PeriodicityMonthStart, PeriodicityMonthEnd:
		return nil
	}
	if _, ok := weekdayPeriodicities[periodicity]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidPeriodicity, periodicity)
}

// IsDue reports whether the scheduler fires on the given date
func (s *Scheduler) IsDue(date time.Time) bool {
	weekday := date.Weekday()

	switch s.Periodicity {
	case PeriodicityDaily:
		return true
	case PeriodicityWeekdays:
		return weekday != time.Saturday && weekday != time.Sunday
	case PeriodicityWeekends:
		return weekday == time.Saturday || weekday == time.Sunday
	case PeriodicityMonthStart:
		return date.Day() == 1
	case PeriodicityMonthEnd:
		return date.AddDate(0, 0, 1).Day() == 1
	}

	if day, ok := weekdayPeriodicities[s.Periodicity]; ok {
		return weekday == day
	}
	return false
}

// SetParams serializes params into the scheduler
func (s *Scheduler) SetParams(params map[string]any) error {
	encoded, err := encodeParams(params)
	if err != nil {
		return err
	}
	s.Params = encoded
	return nil
}

// GetParams returns the params stored in the scheduler, nil if there are none
func (s *Scheduler) GetParams() (map[string]any, error) {
	return decodeParams(s.Params)
}

// Label renders the scheduler for humans, using the definition name
func (s *Scheduler) Label(name string) string {
	if s.Report == "" {
		return "Scheduler object"
	}
	if s.ID == "" {
		return name
	}
	return fmt.Sprintf("%s #%s", name, s.ID)
}
