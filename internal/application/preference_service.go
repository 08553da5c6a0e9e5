package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/example/appointment-planner/internal/timeresolver"
)

// PreferenceRepository stores preference values by key.
type PreferenceRepository interface {
	GetPreferences(ctx context.Context) (map[string]string, error)
	SetPreferences(ctx context.Context, values map[string]string) error
}

const (
	preferenceTheme            = "theme"
	preferenceShowPast         = "showPast"
	preferenceTimeMode         = "timeMode"
	preferenceCalendarViewMode = "calendarViewMode"
	preferenceCalendarGridMode = "calendarGridMode"
)

// PreferenceService reads and updates user preferences. Unknown stored values
// read back as defaults.
type PreferenceService struct {
	preferences PreferenceRepository
	logger      *slog.Logger
}

// NewPreferenceService constructs a preference service.
func NewPreferenceService(preferences PreferenceRepository) *PreferenceService {
	return NewPreferenceServiceWithLogger(preferences, nil)
}

// NewPreferenceServiceWithLogger constructs a preference service with a specified logger.
func NewPreferenceServiceWithLogger(preferences PreferenceRepository, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{preferences: preferences, logger: defaultLogger(logger)}
}

func (s *PreferenceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PreferenceService", operation, attrs...)
}

// Get returns the stored preferences.
func (s *PreferenceService) Get(ctx context.Context) (Preferences, error) {
	if s == nil {
		return Preferences{}, fmt.Errorf("PreferenceService is nil")
	}
	if s.preferences == nil {
		return DefaultPreferences(), nil
	}
	values, err := s.preferences.GetPreferences(ctx)
	if err != nil {
		return Preferences{}, err
	}
	return PreferencesFromValues(values), nil
}

// Update applies a patch. Invalid values are rejected rather than normalized.
func (s *PreferenceService) Update(ctx context.Context, patch PreferencesPatch) (prefs Preferences, err error) {
	if s == nil {
		err = fmt.Errorf("PreferenceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update preferences", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "preferences updated", "time_mode", prefs.TimeMode)
	}()

	prefs, err = s.Get(ctx)
	if err != nil {
		return
	}

	vErr := &ValidationError{}
	if patch.Theme != nil {
		if theme, ok := parseTheme(*patch.Theme); ok {
			prefs.Theme = theme
		} else {
			vErr.add("theme", "theme must be system, light, or dark")
		}
	}
	if patch.ShowPast != nil {
		prefs.ShowPast = *patch.ShowPast
	}
	if patch.TimeMode != nil {
		if mode := timeresolver.ParseMode(*patch.TimeMode); mode != "" {
			prefs.TimeMode = mode
		} else {
			vErr.add("time_mode", "time mode must be local or timezone")
		}
	}
	if patch.CalendarViewMode != nil {
		if mode, ok := parseCalendarViewMode(*patch.CalendarViewMode); ok {
			prefs.CalendarViewMode = mode
		} else {
			vErr.add("calendar_view_mode", "calendar view mode must be agenda, week, or month")
		}
	}
	if patch.CalendarGridMode != nil {
		if mode, ok := parseCalendarGridMode(*patch.CalendarGridMode); ok {
			prefs.CalendarGridMode = mode
		} else {
			vErr.add("calendar_grid_mode", "calendar grid mode must be month or week")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.preferences == nil {
		return
	}
	err = s.preferences.SetPreferences(ctx, prefs.Values())
	return
}

// Values flattens preferences into stored key-values.
func (p Preferences) Values() map[string]string {
	return map[string]string{
		preferenceTheme:            string(p.Theme),
		preferenceShowPast:         strconv.FormatBool(p.ShowPast),
		preferenceTimeMode:         string(p.TimeMode),
		preferenceCalendarViewMode: string(p.CalendarViewMode),
		preferenceCalendarGridMode: string(p.CalendarGridMode),
	}
}

// PreferencesFromValues reads stored key-values, falling back to defaults for
// anything missing or unrecognised.
func PreferencesFromValues(values map[string]string) Preferences {
	prefs := DefaultPreferences()
	if theme, ok := parseTheme(values[preferenceTheme]); ok {
		prefs.Theme = theme
	}
	if showPast, err := strconv.ParseBool(strings.TrimSpace(values[preferenceShowPast])); err == nil {
		prefs.ShowPast = showPast
	}
	if mode := timeresolver.ParseMode(values[preferenceTimeMode]); mode != "" {
		prefs.TimeMode = mode
	}
	if mode, ok := parseCalendarViewMode(values[preferenceCalendarViewMode]); ok {
		prefs.CalendarViewMode = mode
	}
	if mode, ok := parseCalendarGridMode(values[preferenceCalendarGridMode]); ok {
		prefs.CalendarGridMode = mode
	}
	return prefs
}

func parseTheme(value string) (Theme, bool) {
	switch theme := Theme(strings.TrimSpace(value)); theme {
	case ThemeSystem, ThemeLight, ThemeDark:
		return theme, true
	}
	return "", false
}

func parseCalendarViewMode(value string) (CalendarViewMode, bool) {
	switch mode := CalendarViewMode(strings.TrimSpace(value)); mode {
	case CalendarViewAgenda, CalendarViewWeek, CalendarViewMonth:
		return mode, true
	}
	return "", false
}

func parseCalendarGridMode(value string) (CalendarGridMode, bool) {
	switch mode := CalendarGridMode(strings.TrimSpace(value)); mode {
	case CalendarGridMonth, CalendarGridWeek:
		return mode, true
	}
	return "", false
}
