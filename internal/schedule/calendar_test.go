package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-06-05 is a Wednesday (weekday 3).
var wednesday = time.Date(2024, 6, 5, 15, 30, 45, 0, time.UTC)

func TestDateForWeekday_SameDayAlwaysToday(t *testing.T) {
	for _, upcoming := range []bool{true, false} {
		got := DateForWeekday(wednesday, 3, upcoming)
		assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), got, "upcoming=%v", upcoming)
	}
}

func TestDateForWeekday(t *testing.T) {
	tests := []struct {
		name      string
		dayOfWeek int
		upcoming  bool
		want      time.Time
	}{
		{"upcoming friday", 5, true, time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)},
		{"upcoming monday wraps to next week", 1, true, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"upcoming sunday wraps to next week", 0, true, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)},
		{"recent monday", 1, false, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"recent friday wraps to last week", 5, false, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)},
		{"recent sunday", 0, false, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateForWeekday(wednesday, tt.dayOfWeek, tt.upcoming)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.dayOfWeek, int(got.Weekday()))

			days := int(got.Sub(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)).Hours() / 24)
			if tt.upcoming {
				assert.GreaterOrEqual(t, days, 1)
				assert.LessOrEqual(t, days, 6)
			} else {
				assert.LessOrEqual(t, days, -1)
				assert.GreaterOrEqual(t, days, -6)
			}
		})
	}
}

func TestUTCDateForWeekday_LocalDriftIgnored(t *testing.T) {
	// 23:30 on Wednesday in UTC-5 is already Thursday in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2024, 6, 5, 23, 30, 0, 0, loc)

	got := UTCDateForWeekday(local, 4, true)
	assert.Equal(t, time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), got, "thursday is today in UTC")

	gotLocal := DateForWeekday(local, 4, true)
	assert.Equal(t, time.Date(2024, 6, 6, 0, 0, 0, 0, loc), gotLocal, "thursday is tomorrow locally")
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"14:30:00", 870, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9:00", 0, true},
		{"garbage", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "00:05", FormatClock(5))
	assert.Equal(t, "23:59", FormatClock(1439))
}
