package schedule

import (
	"fmt"
	"math"
	"time"
)

// Cost computes the consultation fee for a booked interval from the doctor's
// hourly rate: rate x duration in milliseconds / 3,600,000, rounded half away
// from zero to two decimals and rendered as a fixed two-decimal string. This
// is the single pricing formula; booking validation compares the client's
// submitted amount against it.
func Cost(pricePerHour float64, start, end time.Time) string {
	ms := end.Sub(start).Milliseconds()
	amount := pricePerHour * float64(ms) / 3_600_000
	return fmt.Sprintf("%.2f", math.Round(amount*100)/100)
}
