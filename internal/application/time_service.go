package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/timeresolver"
)

// TimeService answers the clock questions of the appointment form.
type TimeService struct {
	preferences PreferenceSource
	pax         PaxReader
	zones       ZoneSettings
	now         func() time.Time
}

// NewTimeService constructs a time service.
func NewTimeService(preferences PreferenceSource, pax PaxReader, zones ZoneSettings, now func() time.Time) *TimeService {
	if now == nil {
		now = time.Now
	}
	return &TimeService{preferences: preferences, pax: pax, zones: zones, now: now}
}

// TimeBounds is today's key and the earliest start a new appointment may use.
type TimeBounds struct {
	Today        string
	Date         string
	MinStartTime string
	Zone         string
}

func (s *TimeService) mode(ctx context.Context, requested timeresolver.Mode) (timeresolver.Mode, error) {
	if mode := timeresolver.ParseMode(string(requested)); mode != "" {
		return mode, nil
	}
	if requested != "" {
		return "", fieldError("time_mode", "time mode must be local or timezone")
	}
	if s.preferences == nil {
		return DefaultPreferences().TimeMode, nil
	}
	prefs, err := s.preferences.Get(ctx)
	if err != nil {
		return "", err
	}
	return prefs.TimeMode, nil
}

// frame reads now in zone when given, else in the device or default zone.
func (s *TimeService) frame(mode timeresolver.Mode, zone string) (timeresolver.Frame, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return s.zones.frame(mode), nil
	}
	if !timeresolver.IsSupportedZone(zone) {
		return timeresolver.Frame{}, fieldError("time_zone", "time zone is not supported")
	}
	return timeresolver.Frame{Mode: mode, Zone: zone}, nil
}

// Today returns today's date key in the frame.
func (s *TimeService) Today(ctx context.Context, mode timeresolver.Mode, zone string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("TimeService is nil")
	}
	mode, err := s.mode(ctx, mode)
	if err != nil {
		return "", err
	}
	frame, err := s.frame(mode, zone)
	if err != nil {
		return "", err
	}
	return timeresolver.TodayKey(frame, s.now()), nil
}

// MinStartTime returns the earliest start for date. Only today is bounded;
// later dates have no minimum.
func (s *TimeService) MinStartTime(ctx context.Context, date string, mode timeresolver.Mode, zone string) (TimeBounds, error) {
	if s == nil {
		return TimeBounds{}, fmt.Errorf("TimeService is nil")
	}
	mode, err := s.mode(ctx, mode)
	if err != nil {
		return TimeBounds{}, err
	}
	frame, err := s.frame(mode, zone)
	if err != nil {
		return TimeBounds{}, err
	}

	now := s.now()
	bounds := TimeBounds{Today: timeresolver.TodayKey(frame, now), Date: strings.TrimSpace(date)}
	if frame.Zoned() {
		bounds.Zone = frame.Zone
	}
	if bounds.Date == "" {
		bounds.Date = bounds.Today
	}
	if !timeresolver.IsValidDateKey(bounds.Date) {
		return TimeBounds{}, fieldError("date", "date must be YYYY-MM-DD")
	}
	if bounds.Date == bounds.Today {
		bounds.MinStartTime = timeresolver.RoundedNowTime(frame, now, s.zones.NowStepMinutes)
	}
	return bounds, nil
}

// SpanPreview is a resolved span with the form level range check.
type SpanPreview struct {
	Span       timeresolver.Span
	ValidRange bool
}

// Span resolves the instants a form would save.
func (s *TimeService) Span(ctx context.Context, params SpanParams) (SpanPreview, error) {
	if s == nil {
		return SpanPreview{}, fmt.Errorf("TimeService is nil")
	}
	mode, err := s.mode(ctx, params.TimeMode)
	if err != nil {
		return SpanPreview{}, err
	}
	return SpanPreview{
		Span: timeresolver.BuildTimeSpan(timeresolver.SpanInput{
			Date:      params.Date,
			StartTime: params.StartTime,
			EndTime:   params.EndTime,
			Mode:      mode,
			Zone:      params.TimeZone,
		}),
		ValidRange: timeresolver.IsValidTimeRange(params.StartTime, params.EndTime),
	}, nil
}

// ZoneState resolves the zone a form should show for a date.
func (s *TimeService) ZoneState(ctx context.Context, params ZoneStateParams) (timeresolver.ZoneState, error) {
	if s == nil {
		return timeresolver.ZoneState{}, fmt.Errorf("TimeService is nil")
	}
	mode, err := s.mode(ctx, params.TimeMode)
	if err != nil {
		return timeresolver.ZoneState{}, err
	}
	legs, err := travelerLegs(ctx, s.pax, strings.TrimSpace(params.PaxName))
	if err != nil {
		return timeresolver.ZoneState{}, err
	}
	return timeresolver.ResolveZoneState(timeresolver.StateInput{
		Mode:          mode,
		Date:          strings.TrimSpace(params.Date),
		Legs:          legs,
		CurrentZone:   params.CurrentZone,
		CurrentSource: params.CurrentSource,
		DeviceZone:    s.zones.deviceZone(),
	}), nil
}

// SupportedZones lists the zones appointments may use.
func (s *TimeService) SupportedZones() []timeresolver.ZoneOption {
	return timeresolver.SupportedZones()
}
