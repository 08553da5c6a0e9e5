package timeresolver

import "strings"

// Source records why a zone was selected.
type Source string

const (
	SourceManual         Source = "manual"
	SourceInferred       Source = "inferred"
	SourceDeviceFallback Source = "deviceFallback"
)

// ParseSource normalises a stored source string. Unknown values map to "".
func ParseSource(value string) Source {
	switch Source(strings.TrimSpace(value)) {
	case SourceManual:
		return SourceManual
	case SourceInferred:
		return SourceInferred
	case SourceDeviceFallback:
		return SourceDeviceFallback
	default:
		return ""
	}
}

// StateInput is everything zone resolution depends on.
type StateInput struct {
	Mode          Mode
	Date          string
	Legs          []Leg
	CurrentZone   string
	CurrentSource Source
	DeviceZone    string
}

// ZoneState is a resolved zone and its provenance.
type ZoneState struct {
	Zone   string `json:"time_zone"`
	Source Source `json:"time_zone_source"`
}

// ResolveZoneState picks the zone for an appointment in priority order:
// a manual choice, the itinerary inference, the previous zone, the device
// zone. Outside timezone mode the state is empty.
func ResolveZoneState(in StateInput) ZoneState {
	if in.Mode != ModeTimezone {
		return ZoneState{}
	}

	current := NormalizeZone(in.CurrentZone)
	source := ParseSource(string(in.CurrentSource))

	if current != "" && source == SourceManual {
		return ZoneState{Zone: current, Source: SourceManual}
	}

	if inferred := InferZoneFromItinerary(in.Legs, in.Date); inferred != "" {
		return ZoneState{Zone: inferred, Source: SourceInferred}
	}

	if current != "" {
		if source == "" {
			source = SourceManual
		}
		return ZoneState{Zone: current, Source: source}
	}

	if device := NormalizeZone(in.DeviceZone); device != "" {
		return ZoneState{Zone: device, Source: SourceDeviceFallback}
	}

	return ZoneState{}
}
