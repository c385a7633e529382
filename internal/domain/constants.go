package domain

// Report status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusError      = "error"
)

// ResultsSeparator joins output locations in the results column
const ResultsSeparator = ";"

// Scheduler periodicity constants
const (
	PeriodicityDaily      = "daily"
	PeriodicityWeekdays   = "weekdays"
	PeriodicityWeekends   = "weekends"
	PeriodicityMonday     = "monday"
	PeriodicityTuesday    = "tuesday"
	PeriodicityWednesday  = "wednesday"
	PeriodicityThursday   = "thursday"
	PeriodicityFriday     = "friday"
	PeriodicitySaturday   = "saturday"
	PeriodicitySunday     = "sunday"
	PeriodicityMonthStart = "month_start"
	PeriodicityMonthEnd   = "month_end"
)

// ValidStatuses lists every status a report record can hold
var ValidStatuses = []string{StatusPending, StatusProcessing, StatusProcessed, StatusError}

// IsValidStatus reports whether status is one of ValidStatuses
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}
