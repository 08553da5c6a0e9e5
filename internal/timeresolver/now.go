package timeresolver

import "time"

// TodayKey returns the date key for now in the given frame.
func TodayKey(frame Frame, now time.Time) string {
	return now.In(frame.Location()).Format(dateLayout)
}

// RoundedNowTime returns the time of day of now in the frame, rounded up to
// the next multiple of stepMinutes and clamped to 23:59. A non-positive step
// is treated as one minute.
func RoundedNowTime(frame Frame, now time.Time, stepMinutes int) string {
	if stepMinutes <= 0 {
		stepMinutes = 1
	}
	local := now.In(frame.Location())
	minutes := local.Hour()*60 + local.Minute()
	rounded := (minutes + stepMinutes - 1) / stepMinutes * stepMinutes
	return MinutesToTime(rounded)
}

// StartInPast reports whether the moment's resolved start precedes now.
// Unresolvable moments are never in the past.
func StartInPast(frame Frame, m Moment, now time.Time) bool {
	start, ok := frame.ToUTC(m)
	if !ok {
		return false
	}
	return start < now.UnixMilli()
}
