package domain

import "time"

// ReportFilter narrows report record listings
type ReportFilter struct {
	Status    string
	Report    string
	CreatedBy string
	PageSize  int
	Cursor    *Cursor
}

// SchedulerFilter narrows scheduler listings
type SchedulerFilter struct {
	Report      string
	Periodicity string
	PageSize    int
	Cursor      *Cursor
}

// Cursor is a keyset pagination position ordered by insert date then id
type Cursor struct {
	InsertDate time.Time
	ID         string
}
