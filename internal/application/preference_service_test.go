package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/appointment-planner/internal/timeresolver"
)

func TestPreferencesFromValuesFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	prefs := PreferencesFromValues(map[string]string{
		"theme":            "neon",
		"showPast":         "true",
		"timeMode":         "local",
		"calendarViewMode": "year",
		"calendarGridMode": "week",
	})

	want := Preferences{
		Theme:            ThemeSystem,
		ShowPast:         true,
		TimeMode:         timeresolver.ModeLocal,
		CalendarViewMode: CalendarViewAgenda,
		CalendarGridMode: CalendarGridWeek,
	}
	if prefs != want {
		t.Fatalf("expected %+v, got %+v", want, prefs)
	}
	if PreferencesFromValues(nil) != DefaultPreferences() {
		t.Fatalf("expected defaults for empty store")
	}
}

func TestPreferenceService_Update(t *testing.T) {
	t.Parallel()

	repo := &preferenceRepoStub{}
	svc := NewPreferenceService(repo)
	ctx := context.Background()

	dark, showPast := "dark", true
	prefs, err := svc.Update(ctx, PreferencesPatch{Theme: &dark, ShowPast: &showPast})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if prefs.Theme != ThemeDark || !prefs.ShowPast || prefs.TimeMode != timeresolver.ModeTimezone {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
	if repo.values["theme"] != "dark" || repo.values["showPast"] != "true" {
		t.Fatalf("expected values persisted, got %v", repo.values)
	}

	bad := "sideways"
	_, err = svc.Update(ctx, PreferencesPatch{TimeMode: &bad, CalendarViewMode: &bad})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["time_mode"] == "" || vErr.FieldErrors["calendar_view_mode"] == "" {
		t.Fatalf("expected validation errors, got %v", err)
	}

	stored, err := svc.Get(ctx)
	if err != nil || stored.Theme != ThemeDark {
		t.Fatalf("expected rejected patch to leave store unchanged, got %+v (%v)", stored, err)
	}
}
