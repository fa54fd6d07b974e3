package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/carelink/telehealth-api/internal/model"
)

const (
	defaultSlotTTL      = 30 * time.Second
	slotCacheGCInterval = time.Minute
)

// SlotSelector drives the slot picker UI state. The user can flip between
// doctors and dates faster than slot requests complete, so every selection
// gets a sequence number and only the response for the newest selection is
// applied. Stale responses still warm the cache, they just never overwrite
// the current view.
type SlotSelector struct {
	client *Client
	cache  *gocache.Cache
	ttl    time.Duration

	mu       sync.Mutex
	seq      uint64
	doctorID uuid.UUID
	date     time.Time
	slots    []model.TimeSlot
}

func NewSlotSelector(client *Client, ttl time.Duration) *SlotSelector {
	if ttl <= 0 {
		ttl = defaultSlotTTL
	}
	return &SlotSelector{
		client: client,
		cache:  gocache.New(ttl, slotCacheGCInterval),
		ttl:    ttl,
	}
}

func slotCacheKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s|%s", doctorID, date.Format("2006-01-02"))
}

// Select makes doctorID/date the current selection and returns its slots.
// Cache hits resolve immediately. On a miss the slots are fetched, and the
// view is updated only if the selection has not moved on in the meantime.
func (s *SlotSelector) Select(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.TimeSlot, error) {
	s.mu.Lock()
	s.seq++
	mySeq := s.seq
	s.doctorID = doctorID
	s.date = date

	key := slotCacheKey(doctorID, date)
	if cached, ok := s.cache.Get(key); ok {
		slots := cached.([]model.TimeSlot)
		s.slots = slots
		s.mu.Unlock()
		return slots, nil
	}
	s.slots = nil
	s.mu.Unlock()

	slots, err := s.client.GetTimeSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, slots, s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == mySeq {
		s.slots = slots
	}
	return slots, nil
}

// Current returns the selection the view reflects right now. Slots are nil
// while a fetch for the current selection is still in flight.
func (s *SlotSelector) Current() (uuid.UUID, time.Time, []model.TimeSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doctorID, s.date, s.slots
}

// Invalidate drops the cached resolution for one doctor/date. Wired to the
// slots.invalidated channel so bookings and schedule edits made elsewhere
// do not serve stale slots here.
func (s *SlotSelector) Invalidate(doctorID uuid.UUID, date time.Time) {
	s.cache.Delete(slotCacheKey(doctorID, date))
}

// Refresh re-fetches the current selection, bypassing the cache. Used after
// this client books a slot itself.
func (s *SlotSelector) Refresh(ctx context.Context) ([]model.TimeSlot, error) {
	s.mu.Lock()
	doctorID, date := s.doctorID, s.date
	s.mu.Unlock()

	s.Invalidate(doctorID, date)
	return s.Select(ctx, doctorID, date)
}
