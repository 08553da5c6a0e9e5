package timeresolver

import (
	"sync"
	"time"
)

// locations memoizes loaded zones. Entries are never evicted since the key
// space is bounded by the allow-list.
var locations = struct {
	sync.RWMutex
	byZone map[string]*time.Location
}{byZone: make(map[string]*time.Location)}

func loadLocation(zone string) (*time.Location, bool) {
	zone = NormalizeZone(zone)
	if zone == "" {
		return nil, false
	}

	locations.RLock()
	loc, ok := locations.byZone[zone]
	locations.RUnlock()
	if ok {
		return loc, true
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, false
	}

	locations.Lock()
	defer locations.Unlock()
	if existing, ok := locations.byZone[zone]; ok {
		return existing, true
	}
	locations.byZone[zone] = loc
	return loc, true
}

// Frame is the reference a wall-clock moment is read in: an explicit zone in
// timezone mode, or the host clock otherwise.
type Frame struct {
	Mode Mode
	Zone string
}

// Location resolves the frame. Timezone mode without a supported zone
// degrades to the host clock.
func (f Frame) Location() *time.Location {
	if f.Mode == ModeTimezone {
		if loc, ok := loadLocation(f.Zone); ok {
			return loc
		}
	}
	return time.Local
}

// Zoned reports whether the frame resolves to an explicit supported zone.
func (f Frame) Zoned() bool {
	return f.Mode == ModeTimezone && IsSupportedZone(f.Zone)
}

// ToUTC converts a moment read in this frame to UTC milliseconds.
func (f Frame) ToUTC(m Moment) (int64, bool) {
	if f.Zoned() {
		return ZonedToUTC(m, f.Zone)
	}
	return LocalToUTC(m)
}
