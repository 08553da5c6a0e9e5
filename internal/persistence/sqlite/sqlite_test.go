package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/appointment-planner/internal/persistence"
	"github.com/example/appointment-planner/internal/persistence/sqlite/migration"
)

func setupStorageTest(t *testing.T) (*Storage, func()) {
	t.Helper()

	storage, err := Open(migration.InMemoryTestSQLiteConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		storage.Close()
		t.Fatalf("Migrate returned error: %v", err)
	}
	return storage, func() { storage.Close() }
}

func strPtr(v string) *string { return &v }

func millisPtr(v int64) *int64 { return &v }

var referenceTime = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

func createCategory(t *testing.T, storage *Storage, id, name string) persistence.Category {
	t.Helper()

	category := persistence.Category{ID: id, Name: name, Color: "blue", Icon: "briefcase", CreatedAt: referenceTime, UpdatedAt: referenceTime}
	if err := storage.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("CreateCategory(%s) returned error: %v", id, err)
	}
	return category
}

func newAppointment(id, categoryID string, startUTC int64) persistence.Appointment {
	return persistence.Appointment{
		ID:             id,
		Title:          "Meeting " + id,
		Date:           "2026-01-10",
		StartTime:      "09:00",
		CategoryID:     categoryID,
		Status:         "planned",
		TimeMode:       "timezone",
		TimeZone:       strPtr("Europe/London"),
		TimeZoneSource: strPtr("manual"),
		StartUTCMillis: startUTC,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
}

func TestStorage_FileDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "planner.db")
	storage, err := Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer storage.Close()

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestCategoryRepository_CRUD(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()

	created := createCategory(t, storage, "cat-1", "Work")
	createCategory(t, storage, "cat-2", "Family")

	got, err := storage.GetCategory(ctx, "cat-1")
	if err != nil {
		t.Fatalf("GetCategory returned error: %v", err)
	}
	if got.Name != "Work" || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected stored category, got %+v", got)
	}

	list, err := storage.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories returned error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Family" || list[1].Name != "Work" {
		t.Fatalf("expected categories ordered by name, got %+v", list)
	}

	got.Name = "Office"
	got.Color = "teal"
	if err := storage.UpdateCategory(ctx, got); err != nil {
		t.Fatalf("UpdateCategory returned error: %v", err)
	}
	updated, _ := storage.GetCategory(ctx, "cat-1")
	if updated.Name != "Office" || updated.Color != "teal" {
		t.Fatalf("expected update to persist, got %+v", updated)
	}

	if err := storage.DeleteCategory(ctx, "cat-2"); err != nil {
		t.Fatalf("DeleteCategory returned error: %v", err)
	}
	if _, err := storage.GetCategory(ctx, "cat-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := storage.DeleteCategory(ctx, "cat-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestCategoryRepository_Constraints(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()

	createCategory(t, storage, "cat-1", "Work")

	duplicate := persistence.Category{ID: "cat-2", Name: "WORK", Color: "red", Icon: "star"}
	if err := storage.CreateCategory(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for case-insensitive name, got %v", err)
	}

	if err := storage.CreateAppointment(ctx, newAppointment("appt-1", "cat-1", 1000)); err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	if err := storage.DeleteCategory(ctx, "cat-1"); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation deleting used category, got %v", err)
	}
}

func TestAppointmentRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()
	createCategory(t, storage, "cat-1", "Work")

	appointment := newAppointment("appt-1", "cat-1", 1_767_772_800_000)
	appointment.EndTime = strPtr("01:30")
	appointment.EndUTCMillis = millisPtr(1_767_835_800_000)
	appointment.Location = strPtr("Larnaca")
	appointment.SourceKey = strPtr("Alex__2026-01-10__BA100")
	appointment.SourcePax = strPtr("Alex")

	if err := storage.CreateAppointment(ctx, appointment); err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}

	got, err := storage.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment returned error: %v", err)
	}
	if got.EndTime == nil || *got.EndTime != "01:30" {
		t.Fatalf("expected end time 01:30, got %v", got.EndTime)
	}
	if got.EndUTCMillis == nil || *got.EndUTCMillis != 1_767_835_800_000 {
		t.Fatalf("expected end instant to round trip, got %v", got.EndUTCMillis)
	}
	if got.Notes != nil {
		t.Fatalf("expected nil notes, got %q", *got.Notes)
	}
	if got.TimeZone == nil || *got.TimeZone != "Europe/London" || got.TimeMode != "timezone" {
		t.Fatalf("expected zone fields to round trip, got %+v", got)
	}

	got.Title = "Renamed"
	got.Status = "done"
	got.SourceKey = nil
	if err := storage.UpdateAppointment(ctx, got); err != nil {
		t.Fatalf("UpdateAppointment returned error: %v", err)
	}
	updated, _ := storage.GetAppointment(ctx, "appt-1")
	if updated.Title != "Renamed" || updated.Status != "done" {
		t.Fatalf("expected update to persist, got %+v", updated)
	}
	if updated.SourceKey == nil {
		t.Fatalf("expected update to keep the import source key")
	}

	keys, err := storage.ListSourceKeys(ctx)
	if err != nil {
		t.Fatalf("ListSourceKeys returned error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "Alex__2026-01-10__BA100" {
		t.Fatalf("expected one source key, got %v", keys)
	}

	if err := storage.DeleteAppointment(ctx, "appt-1"); err != nil {
		t.Fatalf("DeleteAppointment returned error: %v", err)
	}
	if _, err := storage.GetAppointment(ctx, "appt-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAppointmentRepository_ListFilters(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()
	createCategory(t, storage, "cat-1", "Work")
	createCategory(t, storage, "cat-2", "Family")

	for _, appointment := range []persistence.Appointment{
		newAppointment("c", "cat-1", 3000),
		newAppointment("a", "cat-2", 1000),
		newAppointment("b", "cat-1", 2000),
	} {
		if err := storage.CreateAppointment(ctx, appointment); err != nil {
			t.Fatalf("CreateAppointment(%s) returned error: %v", appointment.ID, err)
		}
	}

	cases := []struct {
		name   string
		filter persistence.AppointmentFilter
		want   []string
	}{
		{name: "all", filter: persistence.AppointmentFilter{}, want: []string{"a", "b", "c"}},
		{name: "from inclusive", filter: persistence.AppointmentFilter{StartsFrom: millisPtr(2000)}, want: []string{"b", "c"}},
		{name: "before exclusive", filter: persistence.AppointmentFilter{StartsBefore: millisPtr(3000)}, want: []string{"a", "b"}},
		{name: "category", filter: persistence.AppointmentFilter{CategoryID: "cat-1"}, want: []string{"b", "c"}},
	}

	for _, tc := range cases {
		got, err := storage.ListAppointments(ctx, tc.filter)
		if err != nil {
			t.Fatalf("%s: ListAppointments returned error: %v", tc.name, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %d appointments", tc.name, tc.want, len(got))
		}
		for i, id := range tc.want {
			if got[i].ID != id {
				t.Fatalf("%s: expected %v at %d, got %s", tc.name, tc.want, i, got[i].ID)
			}
		}
	}
}

func TestAppointmentRepository_Constraints(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()
	createCategory(t, storage, "cat-1", "Work")

	orphan := newAppointment("appt-1", "missing", 1000)
	if err := storage.CreateAppointment(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}

	badStatus := newAppointment("appt-2", "cat-1", 1000)
	badStatus.Status = "maybe"
	if err := storage.CreateAppointment(ctx, badStatus); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	first := newAppointment("appt-3", "cat-1", 1000)
	first.SourceKey = strPtr("Alex__2026-01-10__BA100")
	if err := storage.CreateAppointment(ctx, first); err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	second := newAppointment("appt-4", "cat-1", 1000)
	second.SourceKey = strPtr("Alex__2026-01-10__BA100")
	if err := storage.CreateAppointment(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated source key, got %v", err)
	}

	if err := storage.UpdateAppointment(ctx, newAppointment("ghost", "cat-1", 1000)); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing appointment, got %v", err)
	}
}

func TestPreferenceRepository_Upsert(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()

	if err := storage.SetPreferences(ctx, map[string]string{"theme": "dark", "showPast": "false"}); err != nil {
		t.Fatalf("SetPreferences returned error: %v", err)
	}
	if err := storage.SetPreferences(ctx, map[string]string{"theme": "light"}); err != nil {
		t.Fatalf("SetPreferences returned error: %v", err)
	}

	got, err := storage.GetPreferences(ctx)
	if err != nil {
		t.Fatalf("GetPreferences returned error: %v", err)
	}
	if got["theme"] != "light" || got["showPast"] != "false" {
		t.Fatalf("expected merged preferences, got %v", got)
	}
}

func TestPaxRepository_ReplaceAndSelect(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()

	state, err := storage.GetPaxState(ctx)
	if err != nil {
		t.Fatalf("GetPaxState returned error: %v", err)
	}
	if state.SelectedPax != nil || len(state.PaxNames) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}

	flights := []persistence.PaxFlight{
		{ID: "f2", PaxName: "Alex", FlightDate: "2026-01-12", FlightNumber: "BA300", FromIATA: "ATH", ToIATA: "LHR", DepScheduled: "2026-01-12T09:00", ArrScheduled: "2026-01-12T11:00"},
		{ID: "f1", PaxName: "Alex", FlightDate: "2026-01-10", PNR: strPtr("PNR1"), FlightNumber: "BA100", FromIATA: "LHR", ToIATA: "LCA", DepScheduled: "2026-01-10T08:00", ArrScheduled: "2026-01-10T14:00"},
		{ID: "f3", PaxName: "Bea", FlightDate: "2026-01-11", FlightNumber: "A3600", FromIATA: "ATH", ToIATA: "LCA", DepScheduled: "2026-01-11T10:00", ArrScheduled: "2026-01-11T11:30"},
	}
	if err := storage.ReplacePaxFlights(ctx, []string{"Bea", "Alex"}, flights); err != nil {
		t.Fatalf("ReplacePaxFlights returned error: %v", err)
	}
	if err := storage.SetSelectedPax(ctx, strPtr("Alex")); err != nil {
		t.Fatalf("SetSelectedPax returned error: %v", err)
	}

	alex, err := storage.ListPaxFlights(ctx, "Alex")
	if err != nil {
		t.Fatalf("ListPaxFlights returned error: %v", err)
	}
	if len(alex) != 2 || alex[0].ID != "f1" || alex[1].ID != "f2" {
		t.Fatalf("expected Alex flights in travel order, got %+v", alex)
	}
	if alex[0].PNR == nil || *alex[0].PNR != "PNR1" || alex[1].PNR != nil {
		t.Fatalf("expected optional PNR to round trip, got %+v", alex)
	}

	state, _ = storage.GetPaxState(ctx)
	if state.SelectedPax == nil || *state.SelectedPax != "Alex" {
		t.Fatalf("expected Alex selected, got %v", state.SelectedPax)
	}
	if len(state.PaxNames) != 2 || state.PaxNames[0] != "Alex" || len(state.Flights) != 3 {
		t.Fatalf("unexpected state %+v", state)
	}

	if err := storage.ReplacePaxFlights(ctx, []string{"Bea"}, flights[2:]); err != nil {
		t.Fatalf("second ReplacePaxFlights returned error: %v", err)
	}
	state, _ = storage.GetPaxState(ctx)
	if len(state.PaxNames) != 1 || len(state.Flights) != 1 {
		t.Fatalf("expected caches replaced wholesale, got %+v", state)
	}

	orphan := []persistence.PaxFlight{{ID: "f9", PaxName: "Nobody", FlightDate: "2026-01-11", FlightNumber: "X1", FromIATA: "ATH", ToIATA: "LCA", DepScheduled: "d", ArrScheduled: "a"}}
	if err := storage.ReplacePaxFlights(ctx, []string{"Bea"}, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation for unknown traveler, got %v", err)
	}
	state, _ = storage.GetPaxState(ctx)
	if len(state.Flights) != 1 || state.Flights[0].ID != "f3" {
		t.Fatalf("expected failed replace to roll back, got %+v", state.Flights)
	}
}

func TestStorage_SnapshotReplace(t *testing.T) {
	t.Parallel()

	storage, cleanup := setupStorageTest(t)
	defer cleanup()
	ctx := context.Background()

	createCategory(t, storage, "old", "Old")
	if err := storage.CreateAppointment(ctx, newAppointment("old-appt", "old", 500)); err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}

	snapshot := persistence.Snapshot{
		Categories:   []persistence.Category{{ID: "cat-1", Name: "Work", Color: "blue", Icon: "briefcase", CreatedAt: referenceTime, UpdatedAt: referenceTime}},
		Appointments: []persistence.Appointment{newAppointment("appt-1", "cat-1", 1000)},
		Preferences:  map[string]string{"theme": "dark"},
		Pax: persistence.PaxState{
			SelectedPax: strPtr("Alex"),
			PaxNames:    []string{"Alex"},
			Flights: []persistence.PaxFlight{
				{ID: "f1", PaxName: "Alex", FlightDate: "2026-01-10", FlightNumber: "BA100", FromIATA: "LHR", ToIATA: "LCA", DepScheduled: "2026-01-10T08:00", ArrScheduled: "2026-01-10T14:00"},
			},
		},
	}
	if err := storage.ReplaceSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("ReplaceSnapshot returned error: %v", err)
	}

	loaded, err := storage.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	if len(loaded.Categories) != 1 || loaded.Categories[0].ID != "cat-1" {
		t.Fatalf("expected old categories replaced, got %+v", loaded.Categories)
	}
	if len(loaded.Appointments) != 1 || loaded.Appointments[0].ID != "appt-1" {
		t.Fatalf("expected old appointments replaced, got %+v", loaded.Appointments)
	}
	if loaded.Preferences["theme"] != "dark" || loaded.Pax.SelectedPax == nil || len(loaded.Pax.Flights) != 1 {
		t.Fatalf("unexpected snapshot %+v", loaded)
	}

	broken := snapshot
	broken.Appointments = []persistence.Appointment{newAppointment("appt-2", "missing", 1000)}
	if err := storage.ReplaceSnapshot(ctx, broken); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
	after, _ := storage.LoadSnapshot(ctx)
	if len(after.Appointments) != 1 || after.Appointments[0].ID != "appt-1" {
		t.Fatalf("expected failed replace to keep previous data, got %+v", after.Appointments)
	}
}
