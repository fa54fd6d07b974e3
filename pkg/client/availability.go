package client

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/model"
)

// AvailabilityEditor keeps a local copy of the doctor's schedule and applies
// edits optimistically: the list updates before the server confirms, and
// snaps back if the call fails. Listing from the server replaces the local
// copy wholesale.
type AvailabilityEditor struct {
	client *Client

	mu   sync.Mutex
	rows []*model.Availability
}

func NewAvailabilityEditor(client *Client) *AvailabilityEditor {
	return &AvailabilityEditor{client: client}
}

// Load fetches the authoritative schedule and resets local state.
func (e *AvailabilityEditor) Load(ctx context.Context) ([]*model.Availability, error) {
	rows, err := e.client.ListAvailabilities(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.rows = rows
	e.mu.Unlock()
	return rows, nil
}

// Rows returns the current local view of the schedule.
func (e *AvailabilityEditor) Rows() []*model.Availability {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*model.Availability, len(e.rows))
	copy(out, e.rows)
	return out
}

// Add inserts a placeholder row immediately, then confirms it against the
// server. On success the placeholder is swapped for the server's row, which
// carries the real ID. On failure the placeholder is removed.
func (e *AvailabilityEditor) Add(ctx context.Context, req *model.CreateAvailabilityRequest) (*model.Availability, error) {
	placeholder := &model.Availability{
		DayOfWeek:       req.DayOfWeek,
		IsRecurring:     req.IsRecurring,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IntervalMinutes: req.IntervalMinutes,
	}

	e.mu.Lock()
	e.rows = append(e.rows, placeholder)
	e.mu.Unlock()

	created, err := e.client.CreateAvailability(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, row := range e.rows {
		if row == placeholder {
			if err != nil {
				e.rows = append(e.rows[:i], e.rows[i+1:]...)
			} else {
				e.rows[i] = created
			}
			break
		}
	}

	if err != nil {
		return nil, err
	}
	return created, nil
}

// Remove drops the row immediately and restores it if the delete fails.
func (e *AvailabilityEditor) Remove(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	var removed *model.Availability
	removedAt := -1
	for i, row := range e.rows {
		if row.ID == id {
			removed = row
			removedAt = i
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	if removed == nil {
		return nil
	}

	if err := e.client.DeleteAvailability(ctx, id); err != nil {
		e.mu.Lock()
		if removedAt > len(e.rows) {
			removedAt = len(e.rows)
		}
		e.rows = append(e.rows[:removedAt], append([]*model.Availability{removed}, e.rows[removedAt:]...)...)
		e.mu.Unlock()
		return err
	}
	return nil
}
