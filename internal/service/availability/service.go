package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository"
	"github.com/carelink/telehealth-api/internal/schedule"
	"github.com/carelink/telehealth-api/pkg/errors"
	"github.com/carelink/telehealth-api/pkg/messaging"
)

type Service struct {
	repo       repository.AvailabilityRepository
	outboxRepo repository.OutboxRepository
}

func NewService(repo repository.AvailabilityRepository, outboxRepo repository.OutboxRepository) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
	}
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	availabilities, err := s.repo.List(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return availabilities, nil
}

// Add validates and persists one working window. Windows cannot be edited,
// only removed and re-added, so the validation here is the single gate for
// window integrity.
func (s *Service) Add(ctx context.Context, doctorID uuid.UUID, req *model.CreateAvailabilityRequest) (*model.Availability, error) {
	availability, err := s.buildAvailability(doctorID, req)
	if err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, availability); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, availability); err != nil {
		return nil, fmt.Errorf("failed to add availability: %w", err)
	}

	s.enqueueInvalidation(ctx, availability)
	return availability, nil
}

func (s *Service) Remove(ctx context.Context, doctorID, availabilityID uuid.UUID) error {
	availability, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return errors.NotFound("availability", err)
	}
	if availability.DoctorID != doctorID {
		return errors.Forbidden("availability belongs to another doctor")
	}

	if err := s.repo.Delete(ctx, availabilityID); err != nil {
		return fmt.Errorf("failed to remove availability: %w", err)
	}

	s.enqueueInvalidation(ctx, availability)
	return nil
}

func (s *Service) buildAvailability(doctorID uuid.UUID, req *model.CreateAvailabilityRequest) (*model.Availability, error) {
	start, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return nil, errors.BadRequest("invalid start_time", err)
	}
	end, err := schedule.ParseClock(req.EndTime)
	if err != nil {
		return nil, errors.BadRequest("invalid end_time", err)
	}
	if start >= end {
		return nil, errors.BadRequest("start_time must be before end_time", nil)
	}

	interval := req.IntervalMinutes
	if interval == 0 {
		interval = model.DefaultSlotIntervalMinutes
	}
	if interval < 0 {
		return nil, errors.BadRequest("interval_minutes must be positive", nil)
	}

	availability := &model.Availability{
		DoctorID:        doctorID,
		IsRecurring:     req.IsRecurring,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IntervalMinutes: interval,
	}

	// Exactly one of day_of_week (recurring) and specific_date (one-off).
	if req.IsRecurring {
		if req.DayOfWeek == nil {
			return nil, errors.BadRequest("day_of_week is required for recurring availability", nil)
		}
		if req.SpecificDate != "" {
			return nil, errors.BadRequest("specific_date must not be set for recurring availability", nil)
		}
		availability.DayOfWeek = req.DayOfWeek
	} else {
		if req.SpecificDate == "" {
			return nil, errors.BadRequest("specific_date is required for one-off availability", nil)
		}
		date, err := time.ParseInLocation("2006-01-02", req.SpecificDate, time.UTC)
		if err != nil {
			return nil, errors.BadRequest("invalid specific_date", err)
		}
		availability.SpecificDate = &date
	}

	return availability, nil
}

// checkOverlap rejects windows that intersect an existing window that could
// resolve to the same date. Overlaps would otherwise surface as resolver
// anomalies on every request.
func (s *Service) checkOverlap(ctx context.Context, candidate *model.Availability) error {
	existing, err := s.repo.List(ctx, candidate.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}

	cs, _ := schedule.ParseClock(candidate.StartTime)
	ce, _ := schedule.ParseClock(candidate.EndTime)

	for _, a := range existing {
		if !sameRule(candidate, a) {
			continue
		}
		es, err1 := schedule.ParseClock(a.StartTime)
		ee, err2 := schedule.ParseClock(a.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if cs < ee && ce > es {
			return errors.Conflict(
				fmt.Sprintf("window overlaps existing availability %s-%s", a.StartTime, a.EndTime),
				nil,
			)
		}
	}
	return nil
}

func sameRule(a, b *model.Availability) bool {
	if a.IsRecurring != b.IsRecurring {
		return false
	}
	if a.IsRecurring {
		return a.DayOfWeek != nil && b.DayOfWeek != nil && *a.DayOfWeek == *b.DayOfWeek
	}
	if a.SpecificDate == nil || b.SpecificDate == nil {
		return false
	}
	return a.SpecificDate.UTC().Truncate(24 * time.Hour).Equal(b.SpecificDate.UTC().Truncate(24 * time.Hour))
}

// enqueueInvalidation records a slot-cache invalidation in the outbox. For a
// one-off rule the affected date is exact; for a recurring rule the next
// occurrence of its weekday is invalidated, which covers every currently
// resolvable date (resolutions look at most a week ahead).
func (s *Service) enqueueInvalidation(ctx context.Context, availability *model.Availability) {
	var date time.Time
	switch {
	case availability.SpecificDate != nil:
		date = *availability.SpecificDate
	case availability.DayOfWeek != nil:
		date = schedule.UTCDateForWeekday(time.Now(), *availability.DayOfWeek, true)
	default:
		return
	}

	payload, err := json.Marshal(messaging.SlotInvalidation{
		DoctorID: availability.DoctorID.String(),
		Date:     date.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return
	}

	_ = s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: "availability_changed",
		Channel:   messaging.ChannelSlotsInvalidated,
		Payload:   payload,
	})
}
