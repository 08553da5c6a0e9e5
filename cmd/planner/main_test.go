package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/config"
	"github.com/example/appointment-planner/internal/testfixtures"
	"github.com/example/appointment-planner/internal/timeresolver"
)

const tripExport = `{"trips": [
  {
    "name": "Paris",
    "records": [
      {"paxNames": ["Alice"], "flightNumber": "BA304", "airline": "British Airways", "pnr": "ABC123",
       "fromIata": "LHR", "toIata": "CDG", "depScheduled": "2026-01-10T08:00", "arrScheduled": "2026-01-10T10:15"},
      {"paxNames": ["Alice", "Bob"], "flightNumber": "BA305", "fromIata": "CDG", "toIata": "LHR",
       "depScheduled": "2026-01-20T18:00", "arrScheduled": "2026-01-20T18:20"}
    ]
  }
]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		DefaultTimeZone: "Europe/London",
		DeviceTimeZone:  "Europe/London",
		NowStepMinutes:  5,
		ShutdownTimeout: time.Second,
	}
}

func newTestPlanner(t *testing.T) *planner {
	t.Helper()
	harness := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return newPlanner(harness.Storage, testConfig(), clock.NowFunc(), discardLogger())
}

func TestPlanner_PersistsThroughSQLite(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t)
	ctx := context.Background()

	categories, err := p.categories.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != len(application.DefaultCategories) {
		t.Fatalf("expected default categories seeded, got %d", len(categories))
	}
	if !strings.HasPrefix(categories[0].ID, "cat_") {
		t.Fatalf("unexpected category id %q", categories[0].ID)
	}

	custom, err := p.categories.CreateCategory(ctx, testfixtures.NewCategoryFixture(testfixtures.WithCategoryName("Travel")).Input())
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if !strings.HasPrefix(custom.ID, "cat_") {
		t.Fatalf("expected generated category id, got %q", custom.ID)
	}

	fixture := testfixtures.NewAppointmentFixture(
		testfixtures.WithAppointmentWindow("2026-01-05", "23:00", "01:00"),
		testfixtures.WithAppointmentZone("Europe/Paris", timeresolver.SourceManual),
		testfixtures.WithAppointmentCategory(custom.ID),
	)
	created, err := p.appointments.CreateAppointment(ctx, fixture.Input())
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if !strings.HasPrefix(created.Appointment.ID, "appt_") {
		t.Fatalf("expected generated appointment id, got %q", created.Appointment.ID)
	}

	stored, err := p.appointments.GetAppointment(ctx, created.Appointment.ID)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	wantStart := time.Date(2026, 1, 5, 22, 0, 0, 0, time.UTC).UnixMilli()
	wantEnd := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC).UnixMilli()
	if stored.StartUTC != wantStart {
		t.Fatalf("expected start %d, got %d", wantStart, stored.StartUTC)
	}
	if stored.EndUTC == nil || *stored.EndUTC != wantEnd {
		t.Fatalf("expected overnight end %d, got %v", wantEnd, stored.EndUTC)
	}
	if stored.TimeZone != "Europe/Paris" || stored.CategoryID != custom.ID {
		t.Fatalf("unexpected stored appointment %+v", stored)
	}
}

func TestPlanner_ImportsFlightsOnce(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t)
	ctx := context.Background()

	if _, err := p.categories.ListCategories(ctx); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	result, err := p.pax.ImportTrips(ctx, []byte(tripExport))
	if err != nil {
		t.Fatalf("import trips: %v", err)
	}
	if result.Flights != 3 {
		t.Fatalf("expected 3 cached flights, got %d", result.Flights)
	}
	if _, err := p.pax.SelectPax(ctx, "Alice"); err != nil {
		t.Fatalf("select pax: %v", err)
	}

	params := application.ImportFlightsParams{PaxName: "Alice", CategoryID: "cat_default_general"}
	first, err := p.pax.ImportFlightsAsAppointments(ctx, params)
	if err != nil {
		t.Fatalf("import flights: %v", err)
	}
	if len(first.Created) != 2 || first.Duplicates != 0 {
		t.Fatalf("expected 2 created appointments, got %d created, %d duplicates", len(first.Created), first.Duplicates)
	}
	second, err := p.pax.ImportFlightsAsAppointments(ctx, params)
	if err != nil {
		t.Fatalf("repeat import: %v", err)
	}
	if len(second.Created) != 0 || second.Duplicates != 2 {
		t.Fatalf("expected repeat import skipped, got %d created, %d duplicates", len(second.Created), second.Duplicates)
	}

	zone, err := p.time.ZoneState(ctx, application.ZoneStateParams{Date: "2026-01-12", TimeMode: timeresolver.ModeTimezone})
	if err != nil {
		t.Fatalf("zone state: %v", err)
	}
	if zone.Zone != "Europe/Paris" || zone.Source != timeresolver.SourceInferred {
		t.Fatalf("expected itinerary inferred Paris, got %+v", zone)
	}
}

func TestPlanner_SnapshotMovesBetweenDatabases(t *testing.T) {
	t.Parallel()

	source := newTestPlanner(t)
	ctx := context.Background()

	if _, err := source.categories.ListCategories(ctx); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	if _, err := source.appointments.CreateAppointment(ctx, testfixtures.NewAppointmentFixture().Input()); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if _, err := source.pax.ImportTrips(ctx, []byte(tripExport)); err != nil {
		t.Fatalf("import trips: %v", err)
	}
	if _, err := source.pax.SelectPax(ctx, "Bob"); err != nil {
		t.Fatalf("select pax: %v", err)
	}

	snapshot, err := source.transfer.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	encoded, err := application.EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := application.DecodeSnapshot(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	target := newTestPlanner(t)
	if _, err := target.transfer.Import(ctx, decoded); err != nil {
		t.Fatalf("import: %v", err)
	}
	copied, err := target.transfer.Export(ctx)
	if err != nil {
		t.Fatalf("export copy: %v", err)
	}
	if len(copied.Categories) != len(snapshot.Categories) || len(copied.Appointments) != 1 {
		t.Fatalf("expected %d categories and 1 appointment, got %d and %d",
			len(snapshot.Categories), len(copied.Categories), len(copied.Appointments))
	}
	if copied.Pax.SelectedPax != "Bob" || len(copied.Pax.Flights["Alice"]) != 2 {
		t.Fatalf("unexpected pax state %+v", copied.Pax)
	}
}

func TestPlanner_HandlerServesHealthAndCategories(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t)
	handler := p.handler(discardLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected categories 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "cat_default_general") {
		t.Fatalf("expected seeded categories in body, got %s", rec.Body.String())
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 5, 10, 2, 0, 0, time.UTC)

	got, err := resolve(resolveOptions{date: "2026-01-10", start: "23:00", end: "01:00", mode: "timezone", zone: "Europe/Paris", step: 5}, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.StartUTC != "2026-01-10T22:00:00Z" || got.EndUTC != "2026-01-11T00:00:00Z" {
		t.Fatalf("unexpected instants %s - %s", got.StartUTC, got.EndUTC)
	}
	if !got.Overnight || got.ValidRange {
		t.Fatalf("expected overnight span outside the same-day range, got %+v", got)
	}
	if got.Today != "2026-01-05" || got.MinStartTime != "11:05" || got.StartInPast {
		t.Fatalf("unexpected clock fields %+v", got)
	}

	cases := []resolveOptions{
		{date: "2026-01-10", start: "09:00", mode: "utc"},
		{date: "2026-01-10", start: "09:00", mode: "timezone", zone: "Mars/Olympus"},
		{date: "10/01/2026", start: "09:00", mode: "timezone", zone: "Europe/Paris"},
		{date: "2026-01-10", start: "9am", mode: "timezone", zone: "Europe/Paris"},
	}
	for _, tc := range cases {
		if _, err := resolve(tc, now); err == nil {
			t.Fatalf("expected error for %+v", tc)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"resolve", "--date", "2026-07-01", "--start", "09:30", "--zone", "Europe/Helsinki"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got resolveOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.StartUTC != "2026-07-01T06:30:00Z" || got.EndUTC != "" {
		t.Fatalf("unexpected output %+v", got)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("s3cret\n"))
	root.SetArgs([]string{"hash-password"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	hash := strings.TrimSpace(out.String())
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", hash)
	}
	if err := application.VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("expected hash to verify: %v", err)
	}
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"export", "--format", "xml"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestImportTripsAndExportCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "planner.db")
	tripsPath := filepath.Join(dir, "trips.json")
	if err := os.WriteFile(tripsPath, []byte(tripExport), 0o644); err != nil {
		t.Fatalf("write trips: %v", err)
	}
	t.Setenv("PLANNER_BASIC_AUTH_USER", "")
	t.Setenv("PLANNER_BASIC_AUTH_HASH", "")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--dsn", dbPath, "import-trips", tripsPath, "--select", "Alice"})
	if err := root.Execute(); err != nil {
		t.Fatalf("import-trips: %v", err)
	}
	if !strings.Contains(out.String(), "travelers: Alice, Bob") || !strings.Contains(out.String(), "selected: Alice") {
		t.Fatalf("unexpected import output %q", out.String())
	}

	exportPath := filepath.Join(dir, "export.json")
	root = newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--dsn", dbPath, "export", "--output", exportPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	snapshot, err := application.DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if snapshot.Pax.SelectedPax != "Alice" || len(snapshot.Pax.Flights["Bob"]) != 1 {
		t.Fatalf("unexpected exported pax state %+v", snapshot.Pax)
	}
}
