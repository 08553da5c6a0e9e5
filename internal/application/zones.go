package application

import (
	"context"

	"github.com/example/appointment-planner/internal/itinerary"
	"github.com/example/appointment-planner/internal/timeresolver"
)

// ZoneSettings are the host level zone defaults services resolve against.
type ZoneSettings struct {
	// DefaultZone is used when no device zone is known.
	DefaultZone string
	// DeviceZone is the ambient zone of the device; it may be unsupported.
	DeviceZone string
	// NowStepMinutes rounds the minimum start time of a new appointment.
	NowStepMinutes int
}

func (z ZoneSettings) deviceZone() string {
	return timeresolver.NormalizeZone(z.DeviceZone)
}

// fallbackZone is the zone "now" is read in when nothing better is known.
func (z ZoneSettings) fallbackZone() string {
	if zone := z.deviceZone(); zone != "" {
		return zone
	}
	return timeresolver.NormalizeZone(z.DefaultZone)
}

func (z ZoneSettings) frame(mode timeresolver.Mode) timeresolver.Frame {
	return timeresolver.Frame{Mode: mode, Zone: z.fallbackZone()}
}

// PaxReader exposes the cached traveler itineraries.
type PaxReader interface {
	GetPaxState(ctx context.Context) (PaxState, error)
}

// travelerLegs returns the itinerary legs of paxName, or of the selected
// traveler when paxName is empty.
func travelerLegs(ctx context.Context, pax PaxReader, paxName string) ([]timeresolver.Leg, error) {
	if pax == nil {
		return nil, nil
	}
	state, err := pax.GetPaxState(ctx)
	if err != nil {
		return nil, err
	}
	if paxName == "" {
		paxName = state.SelectedPax
	}
	if paxName == "" {
		return nil, nil
	}
	return itinerary.Legs(state.Flights[paxName]), nil
}
