package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channels the scheduling service publishes on. SlotsInvalidated fans out
// after any mutation that changes derived slot state, so cached resolutions
// for the affected doctor/date can be dropped.
const (
	ChannelAppointmentEvents = "appointment.events"
	ChannelSlotsInvalidated  = "slots.invalidated"
)

// SlotInvalidation identifies one doctor/date resolution whose cached slots
// are stale.
type SlotInvalidation struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
}
