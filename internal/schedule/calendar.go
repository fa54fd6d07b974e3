package schedule

import (
	"fmt"
	"time"
)

// Day-of-week indices follow time.Weekday: 0=Sunday .. 6=Saturday. The same
// convention is used on the wire, so no translation happens anywhere.

// DateForWeekday maps a day-of-week index to a concrete calendar date in the
// local timezone of now, truncated to midnight. With upcoming=true the result
// is today or the next future occurrence; otherwise today or the most recent
// past occurrence. When dayOfWeek equals today's weekday the result is always
// today, never a wrap to the adjacent week.
func DateForWeekday(now time.Time, dayOfWeek int, upcoming bool) time.Time {
	diff := weekdayOffset(int(now.Weekday()), dayOfWeek, upcoming)
	target := now.AddDate(0, 0, diff)
	return time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
}

// UTCDateForWeekday is DateForWeekday computed entirely over UTC calendar
// fields, so the result agrees with UTC slot boundaries regardless of the
// caller's local offset.
func UTCDateForWeekday(now time.Time, dayOfWeek int, upcoming bool) time.Time {
	utc := now.UTC()
	diff := weekdayOffset(int(utc.Weekday()), dayOfWeek, upcoming)
	target := utc.AddDate(0, 0, diff)
	return time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
}

func weekdayOffset(current, target int, upcoming bool) int {
	diff := target - current
	if diff == 0 {
		return 0
	}
	if upcoming && diff < 0 {
		diff += 7
	}
	if !upcoming && diff > 0 {
		diff -= 7
	}
	return diff
}

// ParseClock parses an "HH:mm" or "HH:mm:ss" time-of-day string into minutes
// since midnight. Seconds, if present, must be zero padded but are ignored.
func ParseClock(s string) (int, error) {
	var h, m, sec int
	switch {
	case len(s) == 5:
		if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
	case len(s) == 8:
		if _, err := fmt.Sscanf(s, "%2d:%2d:%2d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:mm".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
