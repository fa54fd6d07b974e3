package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCost(t *testing.T) {
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		pricePerHour float64
		duration     time.Duration
		want         string
	}{
		{"two hours", 100, 2 * time.Hour, "200.00"},
		{"thirty minutes", 100, 30 * time.Minute, "50.00"},
		{"ninety minutes", 100, 90 * time.Minute, "150.00"},
		{"sub-minute slot", 100, 30 * time.Second, "0.83"},
		{"fractional rate", 72.50, time.Hour, "72.50"},
		{"rounding up", 99.99, 20 * time.Minute, "33.33"},
		{"zero duration", 100, 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cost(tt.pricePerHour, base, base.Add(tt.duration))
			assert.Equal(t, tt.want, got)
		})
	}
}
