package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/telehealth-api/internal/model"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func recurring(dow, interval int, start, end string) *model.Availability {
	a := &model.Availability{
		DayOfWeek:       &dow,
		IsRecurring:     true,
		StartTime:       start,
		EndTime:         end,
		IntervalMinutes: interval,
	}
	a.ID = uuid.New()
	return a
}

func oneOff(date time.Time, interval int, start, end string) *model.Availability {
	a := &model.Availability{
		SpecificDate:    &date,
		StartTime:       start,
		EndTime:         end,
		IntervalMinutes: interval,
	}
	a.ID = uuid.New()
	return a
}

func appointmentAt(day time.Time, startClock, endClock string, status model.AppointmentStatus) *model.Appointment {
	s, _ := ParseClock(startClock)
	e, _ := ParseClock(endClock)
	return &model.Appointment{
		StartTime: day.Add(time.Duration(s) * time.Minute),
		EndTime:   day.Add(time.Duration(e) * time.Minute),
		Status:    status,
	}
}

func TestResolveSlots_MarksBookedSlot(t *testing.T) {
	avail := []*model.Availability{recurring(1, 60, "09:00", "12:00")}
	appts := []*model.Appointment{appointmentAt(monday, "10:00", "11:00", model.AppointmentStatusScheduled)}

	slots := ResolveSlots(monday, avail, appts)

	require.Len(t, slots, 3)
	assert.Equal(t, model.TimeSlot{StartTime: "09:00", EndTime: "10:00", Status: model.SlotStatusOpen}, slots[0])
	assert.Equal(t, model.TimeSlot{StartTime: "10:00", EndTime: "11:00", Status: model.SlotStatusBooked}, slots[1])
	assert.Equal(t, model.TimeSlot{StartTime: "11:00", EndTime: "12:00", Status: model.SlotStatusOpen}, slots[2])
}

func TestResolveSlots_OneOffOverridesRecurring(t *testing.T) {
	avail := []*model.Availability{
		recurring(1, 60, "09:00", "12:00"),
		oneOff(monday, 30, "14:00", "15:00"),
	}

	slots := ResolveSlots(monday, avail, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, "14:00", slots[0].StartTime)
	assert.Equal(t, "14:30", slots[0].EndTime)
	assert.Equal(t, "14:30", slots[1].StartTime)
	assert.Equal(t, "15:00", slots[1].EndTime)
	for _, s := range slots {
		assert.Equal(t, model.SlotStatusOpen, s.Status)
	}
}

func TestResolveSlots_OneOffForOtherDateIgnored(t *testing.T) {
	otherDay := monday.AddDate(0, 0, 7)
	avail := []*model.Availability{
		recurring(1, 60, "09:00", "11:00"),
		oneOff(otherDay, 30, "14:00", "15:00"),
	}

	slots := ResolveSlots(monday, avail, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
}

func TestResolveSlots_DropsPartialTrailingSlot(t *testing.T) {
	avail := []*model.Availability{recurring(1, 60, "09:00", "10:30")}

	slots := ResolveSlots(monday, avail, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:00", slots[0].EndTime)
}

func TestResolveSlots_SlotDurationAlwaysInterval(t *testing.T) {
	avail := []*model.Availability{
		recurring(1, 45, "08:00", "10:05"),
		recurring(1, 30, "13:00", "14:10"),
	}

	for _, s := range ResolveSlots(monday, avail, nil) {
		start, err := ParseClock(s.StartTime)
		require.NoError(t, err)
		end, err := ParseClock(s.EndTime)
		require.NoError(t, err)
		dur := end - start
		assert.Contains(t, []int{30, 45}, dur)
	}
}

func TestResolveSlots_MultipleWindowsAscendingOrder(t *testing.T) {
	avail := []*model.Availability{
		recurring(1, 60, "14:00", "16:00"),
		recurring(1, 60, "09:00", "11:00"),
	}

	slots := ResolveSlots(monday, avail, nil)

	require.Len(t, slots, 4)
	prev := -1
	for _, s := range slots {
		start, _ := ParseClock(s.StartTime)
		assert.Greater(t, start, prev)
		prev = start
	}
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "15:00", slots[3].StartTime)
}

func TestResolveSlots_PartialOverlapMarksBooked(t *testing.T) {
	avail := []*model.Availability{recurring(1, 60, "09:00", "11:00")}
	// 09:30-10:30 touches both slots.
	appts := []*model.Appointment{appointmentAt(monday, "09:30", "10:30", model.AppointmentStatusScheduled)}

	slots := ResolveSlots(monday, avail, appts)

	require.Len(t, slots, 2)
	assert.Equal(t, model.SlotStatusBooked, slots[0].Status)
	assert.Equal(t, model.SlotStatusBooked, slots[1].Status)
}

func TestResolveSlots_CancelledAppointmentLeavesSlotOpen(t *testing.T) {
	avail := []*model.Availability{recurring(1, 60, "09:00", "10:00")}
	appts := []*model.Appointment{appointmentAt(monday, "09:00", "10:00", model.AppointmentStatusCancelled)}

	slots := ResolveSlots(monday, avail, appts)

	require.Len(t, slots, 1)
	assert.Equal(t, model.SlotStatusOpen, slots[0].Status)
}

func TestResolveSlots_SkipsMalformedWindow(t *testing.T) {
	bad := recurring(1, 60, "garbage", "12:00")
	inverted := recurring(1, 60, "15:00", "14:00")
	good := recurring(1, 60, "09:00", "10:00")

	slots := ResolveSlots(monday, []*model.Availability{bad, inverted, good}, nil)

	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].StartTime)
}

func TestResolveSlots_SkipsOverlappingWindow(t *testing.T) {
	avail := []*model.Availability{
		recurring(1, 60, "09:00", "12:00"),
		recurring(1, 60, "11:00", "13:00"),
	}

	slots := ResolveSlots(monday, avail, nil)

	// Only the first window survives; the overlapping one is skipped.
	require.Len(t, slots, 3)
	assert.Equal(t, "11:00", slots[2].StartTime)
}

func TestResolveSlots_NoAvailabilityYieldsEmpty(t *testing.T) {
	slots := ResolveSlots(monday, nil, nil)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestResolveSlots_ZeroIntervalDefaultsToHour(t *testing.T) {
	avail := []*model.Availability{recurring(1, 0, "09:00", "11:00")}

	slots := ResolveSlots(monday, avail, nil)

	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].EndTime)
}

func TestResolveSlots_Idempotent(t *testing.T) {
	avail := []*model.Availability{
		recurring(1, 30, "09:00", "12:00"),
		oneOff(monday.AddDate(0, 0, 14), 60, "10:00", "12:00"),
	}
	appts := []*model.Appointment{appointmentAt(monday, "09:30", "10:00", model.AppointmentStatusScheduled)}

	first := ResolveSlots(monday, avail, appts)
	second := ResolveSlots(monday, avail, appts)

	assert.Equal(t, first, second)
}
