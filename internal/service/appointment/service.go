package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository"
	"github.com/carelink/telehealth-api/internal/repository/postgres"
	"github.com/carelink/telehealth-api/internal/schedule"
	"github.com/carelink/telehealth-api/internal/service/notification"
	apperrors "github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/lock"
	"github.com/carelink/telehealth-api/pkg/messaging"
	"github.com/carelink/telehealth-api/pkg/metrics"
	"github.com/carelink/telehealth-api/pkg/payment"
)

type Service struct {
	repo       repository.AppointmentRepository
	availRepo  repository.AvailabilityRepository
	userRepo   repository.UserRepository
	outboxRepo repository.OutboxRepository
	locker     lock.SlotLocker
	gateway    payment.Gateway
	notifSvc   notification.Service
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	availRepo repository.AvailabilityRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	locker lock.SlotLocker,
	gateway payment.Gateway,
	notifSvc notification.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:       repo,
		availRepo:  availRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		locker:     locker,
		gateway:    gateway,
		notifSvc:   notifSvc,
		metrics:    m,
		now:        time.Now,
	}
}

// GetTimeSlots resolves the bookable slots for a doctor on a concrete date.
// The availability rows and the day's appointments are fetched fresh per
// request; the result is derived, never cached server-side.
func (s *Service) GetTimeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.TimeSlot, error) {
	if s.metrics != nil {
		s.metrics.SlotResolutions.Inc()
		timer := prometheus.NewTimer(s.metrics.SlotResolutionTime)
		defer timer.ObserveDuration()
	}

	day := time.Date(date.UTC().Year(), date.UTC().Month(), date.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return s.resolveDay(ctx, doctorID, day)
}

func (s *Service) resolveDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]model.TimeSlot, error) {
	availabilities, err := s.availRepo.ListForDate(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	appointments, err := s.repo.ListForDoctorBetween(ctx, doctorID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	return schedule.ResolveSlots(day, availabilities, appointments), nil
}

// Book converts a slot selection into a scheduled appointment and initiates
// payment. Validation happens before any side effect: the requested interval
// must re-derive to an open slot of the doctor's current schedule. The Redis
// lock plus the repository conflict check plus the unique constraint on
// non-cancelled (doctor_id, start_time) guarantee at most one winner for
// concurrent bookings of the same slot.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req *model.BookAppointmentRequest) (*model.BookAppointmentResponse, error) {
	if err := validateBooking(req, s.now()); err != nil {
		return nil, err
	}

	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, apperrors.NotFound("doctor", err)
	}
	if !doctor.IsDoctor() || doctor.PricePerHour == nil {
		return nil, apperrors.BadRequest("selected user is not a bookable doctor", nil)
	}

	// Recompute the fee server-side; a mismatch means the client priced the
	// slot with stale data.
	amount := schedule.Cost(*doctor.PricePerHour, req.StartTime, req.EndTime)
	if req.Amount != amount {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("amount mismatch: expected %s", amount), nil)
	}

	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	if err := s.checkSlotOpen(ctx, req.DoctorID, day, start, end); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrConflict {
			s.countBooking("conflict")
		}
		return nil, err
	}

	apt := &model.Appointment{
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		StartTime: start,
		EndTime:   end,
		DayOfWeek: int(start.Weekday()),
		Reason:    strings.TrimSpace(req.Reason),
		Amount:    amount,
		Status:    model.AppointmentStatusScheduled,
	}

	err = s.locker.WithSlotLock(ctx, req.DoctorID, req.StartTime, func(lockCtx context.Context) error {
		hasConflict, err := s.repo.CheckConflict(lockCtx, req.DoctorID, apt.StartTime, apt.EndTime)
		if err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if hasConflict {
			return apperrors.Conflict("slot is no longer available", nil)
		}
		return s.repo.Create(lockCtx, apt)
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.countBooking("conflict")
			return nil, apperrors.Conflict("slot is being booked, please retry", err)
		}
		if errors.Is(err, postgres.ErrDuplicateSlot) {
			s.countBooking("conflict")
			return nil, apperrors.Conflict("slot is no longer available", err)
		}
		if _, ok := apperrors.AsAppError(err); ok {
			s.countBooking("conflict")
			return nil, err
		}
		s.countBooking("error")
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.countBooking("success")
	s.enqueueBookingEvents(ctx, apt)
	s.notifyBooking(ctx, doctor, apt)

	// Payment happens after the appointment exists. A gateway failure is a
	// distinct condition: the booking stands, payment was not initiated.
	paymentResp, err := s.gateway.InitializeTransaction(ctx, &payment.InitializeRequest{
		Email:     doctor.Email,
		Amount:    amount,
		Reference: apt.ID.String(),
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PaymentInitFailed.Inc()
		}
		log.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("payment initiation failed after booking")
		return nil, apperrors.PaymentInit(err)
	}

	return &model.BookAppointmentResponse{
		Appointment:      apt,
		AuthorizationURL: paymentResp.AuthorizationURL,
	}, nil
}

func validateBooking(req *model.BookAppointmentRequest, now time.Time) error {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return apperrors.BadRequest("no slot selected", nil)
	}
	if !req.StartTime.Before(req.EndTime) {
		return apperrors.BadRequest("slot start must be before end", nil)
	}
	if !req.StartTime.After(now) {
		return apperrors.BadRequest("slot is in the past", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.BadRequest("reason is required", nil)
	}
	return nil
}

// checkSlotOpen re-derives the doctor's slots for the day and verifies the
// requested interval is exactly one of them and not already booked. A booking
// never creates an interval the resolver would not produce.
func (s *Service) checkSlotOpen(ctx context.Context, doctorID uuid.UUID, day time.Time, start, end time.Time) error {
	slots, err := s.resolveDay(ctx, doctorID, day)
	if err != nil {
		return err
	}

	for _, slot := range slots {
		slotStart, err := schedule.ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		slotEnd, err := schedule.ParseClock(slot.EndTime)
		if err != nil {
			continue
		}
		if day.Add(time.Duration(slotStart)*time.Minute).Equal(start) &&
			day.Add(time.Duration(slotEnd)*time.Minute).Equal(end) {
			if slot.Status == model.SlotStatusBooked {
				return apperrors.Conflict("slot is no longer available", nil)
			}
			return nil
		}
	}
	return apperrors.BadRequest("requested time is not a bookable slot", nil)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("appointment", err)
	}
	return apt, nil
}

// ListGrouped returns the caller's appointments bucketed by calendar date,
// ordered chronologically, each bucket ordered by start time.
func (s *Service) ListGrouped(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentGroup, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	groups := make([]*model.AppointmentGroup, 0)
	var current *model.AppointmentGroup
	for _, apt := range appointments {
		date := apt.StartTime.UTC().Format("2006-01-02")
		if current == nil || current.Date != date {
			current = &model.AppointmentGroup{Date: date}
			groups = append(groups, current)
		}
		current.Appointments = append(current.Appointments, apt)
	}
	return groups, nil
}

// UpdateStatus advances the appointment status machine. Patients may only
// cancel their own appointments; doctors drive the remaining transitions.
func (s *Service) UpdateStatus(ctx context.Context, callerID uuid.UUID, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) error {
	if !req.Status.Valid() {
		return apperrors.BadRequest("invalid status", nil)
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NotFound("appointment", err)
	}

	if apt.PatientID != callerID && apt.DoctorID != callerID {
		return apperrors.Forbidden("appointment belongs to another user")
	}

	if !apt.Status.CanTransitionTo(req.Status) {
		return apperrors.BadRequest(
			fmt.Sprintf("cannot transition from %s to %s", apt.Status, req.Status), nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.CancelReason); err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	// Cancellation frees the slot for other viewers of the same resolution.
	if req.Status == model.AppointmentStatusCancelled {
		s.enqueueInvalidation(ctx, apt)
		s.notifyCancellation(ctx, apt)
	}
	return nil
}

func (s *Service) countBooking(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	if outcome == "conflict" {
		s.metrics.BookingConflicts.Inc()
	}
}

// Outbox enqueues happen after the booking commit; a failed insert loses the
// event, so it is logged loudly rather than silently dropped.
func (s *Service) enqueueBookingEvents(ctx context.Context, apt *model.Appointment) {
	payload, err := json.Marshal(apt)
	if err == nil {
		if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
			EventType: "appointment_created",
			Channel:   messaging.ChannelAppointmentEvents,
			Payload:   payload,
		}); err != nil {
			log.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("appointment_created event not enqueued")
		}
	}
	s.enqueueInvalidation(ctx, apt)
}

func (s *Service) enqueueInvalidation(ctx context.Context, apt *model.Appointment) {
	payload, err := json.Marshal(messaging.SlotInvalidation{
		DoctorID: apt.DoctorID.String(),
		Date:     apt.StartTime.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return
	}
	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: "slots_invalidated",
		Channel:   messaging.ChannelSlotsInvalidated,
		Payload:   payload,
	}); err != nil {
		log.Error().Err(err).Str("doctor_id", apt.DoctorID.String()).Msg("slot invalidation not enqueued")
	}
}

func (s *Service) notifyCancellation(ctx context.Context, apt *model.Appointment) {
	patient, err := s.userRepo.Get(ctx, apt.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to load patient for cancellation notice")
		return
	}
	if err := s.notifSvc.SendCancellation(ctx, patient, apt); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("cancellation notice not sent")
	}
}

func (s *Service) notifyBooking(ctx context.Context, doctor *model.User, apt *model.Appointment) {
	patient, err := s.userRepo.Get(ctx, apt.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to load patient for notification")
		return
	}
	if err := s.notifSvc.SendBookingConfirmation(ctx, patient, doctor, apt); err != nil {
		log.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("booking confirmation not sent")
	}
}
