package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles patient and doctor accounts
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ListDoctors(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	}

	// AvailabilityRepository is the authoritative store of declared
	// working windows. The resolver treats List output as ground truth
	// per request.
	AvailabilityRepository interface {
		Create(ctx context.Context, availability *model.Availability) error
		Get(ctx context.Context, id uuid.UUID) (*model.Availability, error)
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error)
		ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Availability, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
		CheckConflict(ctx context.Context, doctorID uuid.UUID, startTime, endTime time.Time) (bool, error)
		MarkInProgressDue(ctx context.Context, now time.Time) (int64, error)
		MarkCompletedDue(ctx context.Context, now time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
