package timeresolver

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	lastMinuteOfDay = 23*60 + 59
)

// Mode selects how a wall-clock moment is anchored to an instant.
type Mode string

const (
	// ModeLocal interprets moments using the host's ambient local clock.
	ModeLocal Mode = "local"
	// ModeTimezone interprets moments in an explicit supported zone.
	ModeTimezone Mode = "timezone"
)

// ParseMode normalises a stored mode string. Unknown values map to "".
func ParseMode(value string) Mode {
	switch Mode(strings.TrimSpace(value)) {
	case ModeLocal:
		return ModeLocal
	case ModeTimezone:
		return ModeTimezone
	default:
		return ""
	}
}

// Moment is a nominal date and time of day with no zone attached.
type Moment struct {
	Date string
	Time string
}

// ParseDateKey splits a YYYY-MM-DD key into calendar fields.
func ParseDateKey(key string) (year int, month time.Month, day int, ok bool) {
	key = strings.TrimSpace(key)
	if len(key) != len(dateLayout) {
		return 0, 0, 0, false
	}
	parsed, err := time.Parse(dateLayout, key)
	if err != nil {
		return 0, 0, 0, false
	}
	return parsed.Year(), parsed.Month(), parsed.Day(), true
}

// IsValidDateKey reports whether key is a real calendar date in YYYY-MM-DD form.
func IsValidDateKey(key string) bool {
	_, _, _, ok := ParseDateKey(key)
	return ok
}

// AddDays shifts a date key by n calendar days.
func AddDays(key string, n int) (string, bool) {
	year, month, day, ok := ParseDateKey(key)
	if !ok {
		return "", false
	}
	return time.Date(year, month, day+n, 0, 0, 0, 0, time.UTC).Format(dateLayout), true
}

// TimeToMinutes converts an HH:MM key to minutes after midnight.
func TimeToMinutes(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if len(key) != len(timeLayout) || key[2] != ':' {
		return 0, false
	}
	hours, okHours := twoDigits(key[0:2])
	minutes, okMinutes := twoDigits(key[3:5])
	if !okHours || !okMinutes || hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// MinutesToTime formats minutes after midnight as HH:MM, clamped to the day.
func MinutesToTime(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > lastMinuteOfDay {
		minutes = lastMinuteOfDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IsValidTimeRange reports whether end is empty or not earlier than start on
// the same day. Both keys must be well formed when end is present.
func IsValidTimeRange(start, end string) bool {
	if strings.TrimSpace(end) == "" {
		return true
	}
	startMinutes, okStart := TimeToMinutes(start)
	endMinutes, okEnd := TimeToMinutes(end)
	if !okStart || !okEnd {
		return false
	}
	return endMinutes >= startMinutes
}

func twoDigits(value string) (int, bool) {
	if len(value) != 2 {
		return 0, false
	}
	tens, ones := value[0], value[1]
	if tens < '0' || tens > '9' || ones < '0' || ones > '9' {
		return 0, false
	}
	return int(tens-'0')*10 + int(ones-'0'), true
}
