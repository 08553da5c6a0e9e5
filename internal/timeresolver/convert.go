package timeresolver

import "time"

// ZonedToUTC returns the instant that renders as m in zone. It reports false
// when m is malformed or zone is not supported.
//
// The offset is only knowable once the instant is known, so the moment is
// first read as if it were UTC, corrected by the zone offset at that guess,
// and corrected once more if the offset differs at the corrected instant.
// The second pass fixes guesses that land across a DST transition.
func ZonedToUTC(m Moment, zone string) (int64, bool) {
	loc, ok := loadLocation(zone)
	if !ok {
		return 0, false
	}
	guess, ok := wallClockAsUTC(m)
	if !ok {
		return 0, false
	}

	offset1 := offsetAt(guess, loc)
	utc1 := guess - offset1
	offset2 := offsetAt(utc1, loc)
	if offset2 != offset1 {
		return guess - offset2, true
	}
	return utc1, true
}

// LocalToUTC reads m on the host's local clock.
func LocalToUTC(m Moment) (int64, bool) {
	year, month, day, ok := ParseDateKey(m.Date)
	if !ok {
		return 0, false
	}
	minutes, ok := TimeToMinutes(m.Time)
	if !ok {
		return 0, false
	}
	return time.Date(year, month, day, minutes/60, minutes%60, 0, 0, time.Local).UnixMilli(), true
}

// UTCToZoned renders an instant as zone-local date and time keys. An
// unsupported zone renders on the host clock.
func UTCToZoned(utcMillis int64, zone string) Moment {
	loc, ok := loadLocation(zone)
	if !ok {
		loc = time.Local
	}
	return momentOf(time.UnixMilli(utcMillis).In(loc))
}

func momentOf(t time.Time) Moment {
	return Moment{Date: t.Format(dateLayout), Time: t.Format(timeLayout)}
}

func wallClockAsUTC(m Moment) (int64, bool) {
	year, month, day, ok := ParseDateKey(m.Date)
	if !ok {
		return 0, false
	}
	minutes, ok := TimeToMinutes(m.Time)
	if !ok {
		return 0, false
	}
	return time.Date(year, month, day, minutes/60, minutes%60, 0, 0, time.UTC).UnixMilli(), true
}

// offsetAt is the zone's UTC offset in milliseconds at the given instant,
// measured by rendering the instant in loc and reading the fields back as UTC.
func offsetAt(utcMillis int64, loc *time.Location) int64 {
	instant := time.UnixMilli(utcMillis).Truncate(time.Second)
	wall := instant.In(loc)
	rendered := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, time.UTC)
	return rendered.UnixMilli() - instant.UnixMilli()
}
