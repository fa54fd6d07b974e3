package model

type SlotStatus string

const (
	SlotStatusOpen   SlotStatus = "open"
	SlotStatusBooked SlotStatus = "booked"
)

// TimeSlot is a derived bookable interval within an availability window.
// Times are "HH:mm" in the doctor's declared schedule. Slots are computed
// fresh on every resolution and never persisted.
type TimeSlot struct {
	StartTime string     `json:"slot_start_time"`
	EndTime   string     `json:"slot_end_time"`
	Status    SlotStatus `json:"slot_status"`
}
