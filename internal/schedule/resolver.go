package schedule

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelink/telehealth-api/internal/model"
)

// window is a validated availability window in minutes since midnight.
type window struct {
	start, end int
	interval   int
}

// ResolveSlots derives the ordered, discrete time slots for one doctor on one
// concrete date. One-off rules for the exact date override all recurring rules
// for that weekday. Each matching window is partitioned into sub-intervals of
// its slot interval; a trailing remainder shorter than the interval is dropped.
// A slot is marked booked when any non-cancelled appointment intersects it.
//
// The computation is pure over its inputs. Malformed or overlapping windows
// are skipped with a logged anomaly rather than emitted as incorrect slots.
// An empty result means no availability for the date and is not an error.
func ResolveSlots(date time.Time, availabilities []*model.Availability, appointments []*model.Appointment) []model.TimeSlot {
	matched := matchWindows(date, availabilities)

	windows := make([]window, 0, len(matched))
	for _, a := range matched {
		w, ok := validateWindow(a)
		if !ok {
			continue
		}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	slots := make([]model.TimeSlot, 0)
	lastEnd := -1
	for _, w := range windows {
		if w.start < lastEnd {
			log.Warn().
				Time("date", date).
				Str("window_start", FormatClock(w.start)).
				Str("previous_end", FormatClock(lastEnd)).
				Msg("overlapping availability windows, skipping window")
			continue
		}
		for s := w.start; s+w.interval <= w.end; s += w.interval {
			slots = append(slots, model.TimeSlot{
				StartTime: FormatClock(s),
				EndTime:   FormatClock(s + w.interval),
				Status:    model.SlotStatusOpen,
			})
		}
		lastEnd = w.end
	}

	markBooked(date, slots, appointments)
	return slots
}

// matchWindows selects the availability rows that apply to the date. One-off
// rules win: if any rule targets the exact date, recurring rules are ignored.
func matchWindows(date time.Time, availabilities []*model.Availability) []*model.Availability {
	var oneOff, recurring []*model.Availability
	for _, a := range availabilities {
		if !a.IsRecurring {
			if a.SpecificDate != nil && sameDate(*a.SpecificDate, date) {
				oneOff = append(oneOff, a)
			}
			continue
		}
		if a.DayOfWeek != nil && *a.DayOfWeek == int(date.Weekday()) {
			recurring = append(recurring, a)
		}
	}
	if len(oneOff) > 0 {
		return oneOff
	}
	return recurring
}

func validateWindow(a *model.Availability) (window, bool) {
	start, err := ParseClock(a.StartTime)
	if err != nil {
		log.Warn().Err(err).Str("availability_id", a.ID.String()).Msg("malformed availability start time, skipping window")
		return window{}, false
	}
	end, err := ParseClock(a.EndTime)
	if err != nil {
		log.Warn().Err(err).Str("availability_id", a.ID.String()).Msg("malformed availability end time, skipping window")
		return window{}, false
	}
	interval := a.IntervalMinutes
	if interval <= 0 {
		interval = model.DefaultSlotIntervalMinutes
	}
	if start >= end {
		log.Warn().
			Str("availability_id", a.ID.String()).
			Str("start", a.StartTime).
			Str("end", a.EndTime).
			Msg("availability window start not before end, skipping window")
		return window{}, false
	}
	return window{start: start, end: end, interval: interval}, true
}

func markBooked(date time.Time, slots []model.TimeSlot, appointments []*model.Appointment) {
	for i := range slots {
		slotStart := clockOnDate(date, slots[i].StartTime)
		slotEnd := clockOnDate(date, slots[i].EndTime)
		for _, apt := range appointments {
			if apt.Status == model.AppointmentStatusCancelled {
				continue
			}
			if apt.StartTime.Before(slotEnd) && apt.EndTime.After(slotStart) {
				slots[i].Status = model.SlotStatusBooked
				break
			}
		}
	}
}

func clockOnDate(date time.Time, clock string) time.Time {
	minutes, err := ParseClock(clock)
	if err != nil {
		// Slots are produced by FormatClock, so this cannot fail for them.
		return date
	}
	return date.Add(time.Duration(minutes) * time.Minute)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
