package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// CanTransitionTo reports whether the status machine permits moving to next.
// Transitions are monotonic: scheduled -> in_progress -> completed, with
// scheduled -> cancelled as the only other edge. Terminal states admit nothing.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusInProgress || next == AppointmentStatusCancelled
	case AppointmentStatusInProgress:
		return next == AppointmentStatusCompleted
	default:
		return false
	}
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a booked consultation. StartTime/EndTime are absolute UTC
// timestamps; Amount is the cost computed from the doctor's hourly rate.
type Appointment struct {
	Base
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	StartTime    time.Time         `db:"start_time" json:"start_time"`
	EndTime      time.Time         `db:"end_time" json:"end_time"`
	DayOfWeek    int               `db:"day_of_week" json:"day_of_week"`
	Reason       string            `db:"reason" json:"reason"`
	Amount       string            `db:"amount" json:"amount"`
	Status       AppointmentStatus `db:"status" json:"current_status"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// BookAppointmentRequest selects one resolved slot. The appointment's
// day-of-week is derived from StartTime on the server, never submitted.
type BookAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Amount    string    `json:"amount" validate:"required"`
}

// BookAppointmentResponse carries the created appointment and the payment
// gateway redirect the client must open to complete payment.
type BookAppointmentResponse struct {
	Appointment      *Appointment `json:"appointment"`
	AuthorizationURL string       `json:"authorization_url"`
}

type UpdateAppointmentStatusRequest struct {
	Status       AppointmentStatus `json:"status" validate:"required"`
	CancelReason *string           `json:"cancel_reason"`
}

type AppointmentFilters struct {
	DoctorID     uuid.UUID
	PatientID    uuid.UUID
	Status       AppointmentStatus
	IntervalDays int
}

// AppointmentGroup is a date-bucketed view of a user's appointments,
// ordered by start time within the day.
type AppointmentGroup struct {
	Date         string         `json:"date"`
	Appointments []*Appointment `json:"appointments"`
}
