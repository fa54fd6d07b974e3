package model

import (
	"time"

	"github.com/google/uuid"
)

// Availability is a doctor-declared working window: either a weekly recurring
// rule keyed by day-of-week (0=Sunday..6=Saturday) or a one-off rule keyed by
// a specific calendar date. Exactly one of DayOfWeek/SpecificDate is set.
type Availability struct {
	Base
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DayOfWeek       *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	IsRecurring     bool       `db:"is_recurring" json:"is_recurring"`
	SpecificDate    *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	StartTime       string     `db:"start_time" json:"start_time"`
	EndTime         string     `db:"end_time" json:"end_time"`
	IntervalMinutes int        `db:"interval_minutes" json:"interval_minutes"`
}

const DefaultSlotIntervalMinutes = 60

type CreateAvailabilityRequest struct {
	DayOfWeek       *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	IsRecurring     bool   `json:"is_recurring"`
	SpecificDate    string `json:"specific_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time" validate:"required"`
	IntervalMinutes int    `json:"interval_minutes" validate:"omitempty,min=1"`
}
