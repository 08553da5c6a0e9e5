package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/timeresolver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCategoryService struct {
	categories []application.Category
	created    application.CategoryInput
	err        error
}

func (f *fakeCategoryService) ListCategories(ctx context.Context) ([]application.Category, error) {
	return f.categories, f.err
}

func (f *fakeCategoryService) GetCategory(ctx context.Context, id string) (application.Category, error) {
	for _, category := range f.categories {
		if category.ID == id {
			return category, nil
		}
	}
	return application.Category{}, application.ErrNotFound
}

func (f *fakeCategoryService) CreateCategory(ctx context.Context, input application.CategoryInput) (application.Category, error) {
	f.created = input
	if f.err != nil {
		return application.Category{}, f.err
	}
	return application.Category{ID: "cat-new", Name: input.Name, Color: input.Color, Icon: input.Icon}, nil
}

func (f *fakeCategoryService) UpdateCategory(ctx context.Context, id string, input application.CategoryInput) (application.Category, error) {
	if f.err != nil {
		return application.Category{}, f.err
	}
	return application.Category{ID: id, Name: input.Name, Color: input.Color, Icon: input.Icon}, nil
}

func (f *fakeCategoryService) DeleteCategory(ctx context.Context, id string) error {
	return f.err
}

type fakeAppointmentService struct {
	input      application.AppointmentInput
	listParams application.ListAppointmentsParams
	result     application.AppointmentResult
	deleted    string
	err        error
}

func (f *fakeAppointmentService) CreateAppointment(ctx context.Context, input application.AppointmentInput) (application.AppointmentResult, error) {
	f.input = input
	return f.result, f.err
}

func (f *fakeAppointmentService) UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.AppointmentResult, error) {
	f.input = params.Input
	if f.err != nil {
		return application.AppointmentResult{}, f.err
	}
	result := f.result
	result.Appointment.ID = params.AppointmentID
	return result, nil
}

func (f *fakeAppointmentService) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	if f.err != nil {
		return application.Appointment{}, f.err
	}
	appointment := f.result.Appointment
	appointment.ID = id
	return appointment, nil
}

func (f *fakeAppointmentService) DeleteAppointment(ctx context.Context, id string) error {
	f.deleted = id
	return f.err
}

func (f *fakeAppointmentService) ListAppointments(ctx context.Context, params application.ListAppointmentsParams, categories application.CategoryLister) (application.AppointmentList, error) {
	f.listParams = params
	if f.err != nil {
		return application.AppointmentList{}, f.err
	}
	return application.AppointmentList{Appointments: []application.Appointment{f.result.Appointment}, Today: "2026-01-05"}, nil
}

type fakeTimeService struct {
	spanParams application.SpanParams
	err        error
}

func (f *fakeTimeService) Today(ctx context.Context, mode timeresolver.Mode, zone string) (string, error) {
	return "2026-01-05", f.err
}

func (f *fakeTimeService) MinStartTime(ctx context.Context, date string, mode timeresolver.Mode, zone string) (application.TimeBounds, error) {
	return application.TimeBounds{Today: "2026-01-05", Date: date, MinStartTime: "09:30", Zone: zone}, f.err
}

func (f *fakeTimeService) Span(ctx context.Context, params application.SpanParams) (application.SpanPreview, error) {
	f.spanParams = params
	start, end := int64(1000), int64(2000)
	return application.SpanPreview{Span: timeresolver.Span{StartUTC: &start, EndUTC: &end, Overnight: true}, ValidRange: true}, f.err
}

func (f *fakeTimeService) ZoneState(ctx context.Context, params application.ZoneStateParams) (timeresolver.ZoneState, error) {
	return timeresolver.ZoneState{Zone: "Europe/Paris", Source: timeresolver.SourceInferred}, f.err
}

func (f *fakeTimeService) SupportedZones() []timeresolver.ZoneOption {
	return []timeresolver.ZoneOption{{ID: "Europe/London", Label: "London"}}
}

type fakeTransferService struct {
	imported application.Snapshot
	err      error
}

func (f *fakeTransferService) Export(ctx context.Context) (application.Snapshot, error) {
	return application.Snapshot{
		Version:     1,
		ExportedAt:  time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		Preferences: application.DefaultPreferences(),
	}, f.err
}

func (f *fakeTransferService) Import(ctx context.Context, snapshot application.Snapshot) (application.Snapshot, error) {
	f.imported = snapshot
	return snapshot, f.err
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return payload
}

func TestCategoryHandlers(t *testing.T) {
	t.Parallel()

	t.Run("list returns categories", func(t *testing.T) {
		t.Parallel()

		service := &fakeCategoryService{categories: []application.Category{{ID: "cat-1", Name: "Work", Color: "blue", Icon: "💼"}}}
		router := NewRouter(RouterConfig{Categories: NewCategoryHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		payload := decodeBody[listCategoriesResponse](t, recorder)
		if len(payload.Categories) != 1 || payload.Categories[0].Name != "Work" {
			t.Fatalf("expected one Work category, got %+v", payload.Categories)
		}
	})

	t.Run("create trims input and returns 201", func(t *testing.T) {
		t.Parallel()

		service := &fakeCategoryService{}
		router := NewRouter(RouterConfig{Categories: NewCategoryHandler(service, discardLogger())})

		body := strings.NewReader(`{"name":"  Travel ","color":"teal","icon":"✈"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/categories", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", recorder.Code)
		}
		if service.created.Name != "Travel" {
			t.Fatalf("expected trimmed name, got %q", service.created.Name)
		}
	})

	t.Run("missing category maps to 404", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Categories: NewCategoryHandler(&fakeCategoryService{}, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/categories/missing", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
		payload := decodeBody[errorResponse](t, recorder)
		if payload.ErrorCode != codeNotFound {
			t.Fatalf("expected %s, got %s", codeNotFound, payload.ErrorCode)
		}
	})

	t.Run("category in use maps to 409", func(t *testing.T) {
		t.Parallel()

		service := &fakeCategoryService{err: application.ErrAlreadyExists}
		router := NewRouter(RouterConfig{Categories: NewCategoryHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/api/categories/cat-1", nil))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", recorder.Code)
		}
	})

	t.Run("unsupported method", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Categories: NewCategoryHandler(&fakeCategoryService{}, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPatch, "/api/categories", nil))

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != "GET, POST" {
			t.Fatalf("expected Allow header GET, POST, got %q", allow)
		}
	})
}

func TestAppointmentHandlers(t *testing.T) {
	t.Parallel()

	end := int64(1767609000000)
	appointment := application.Appointment{
		ID:             "appt-1",
		Title:          "Dinner",
		Date:           "2026-01-05",
		StartTime:      "23:00",
		EndTime:        "01:00",
		CategoryID:     "cat-1",
		Status:         application.StatusPlanned,
		TimeMode:       timeresolver.ModeTimezone,
		TimeZone:       "Europe/London",
		TimeZoneSource: timeresolver.SourceManual,
		StartUTC:       1767654000000,
		EndUTC:         &end,
	}

	t.Run("create serializes overnight flag and warnings", func(t *testing.T) {
		t.Parallel()

		service := &fakeAppointmentService{result: application.AppointmentResult{
			Appointment: appointment,
			Warnings:    []application.ConflictWarning{{AppointmentID: "appt-1", WithAppointmentID: "appt-2", Type: "overlap", OverlapMinutes: 30}},
		}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(service, nil, discardLogger())})

		body := strings.NewReader(`{"title":" Dinner ","date":"2026-01-05","start_time":"23:00","end_time":"01:00","category_id":"cat-1","time_mode":"timezone","time_zone":"Europe/London","time_zone_source":"manual"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/appointments", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", recorder.Code)
		}
		if service.input.Title != "Dinner" || service.input.TimeMode != timeresolver.ModeTimezone {
			t.Fatalf("unexpected service input %+v", service.input)
		}
		payload := decodeBody[appointmentResponse](t, recorder)
		if !payload.Appointment.Overnight {
			t.Fatalf("expected overnight appointment")
		}
		if len(payload.Warnings) != 1 || payload.Warnings[0].OverlapMinutes != 30 {
			t.Fatalf("expected one warning with 30 minutes, got %+v", payload.Warnings)
		}
	})

	t.Run("validation errors map to 422 with field details", func(t *testing.T) {
		t.Parallel()

		service := &fakeAppointmentService{err: &application.ValidationError{FieldErrors: map[string]string{"time_zone": "time zone is required"}}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(service, nil, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{"title":"x"}`)))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
		payload := decodeBody[errorResponse](t, recorder)
		if payload.Errors["time_zone"] == "" {
			t.Fatalf("expected time_zone field error, got %+v", payload.Errors)
		}
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(&fakeAppointmentService{}, nil, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/api/appointments/appt-1", strings.NewReader("{")))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})

	t.Run("list converts query parameters to filters", func(t *testing.T) {
		t.Parallel()

		service := &fakeAppointmentService{result: application.AppointmentResult{Appointment: appointment}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(service, nil, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/appointments?q=dinner&category=cat-1&from=2026-01-01&to=not-a-date&show_past=true", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		filters := service.listParams.Filters
		if filters.Search != "dinner" || filters.CategoryID != "cat-1" || filters.DateFrom != "2026-01-01" {
			t.Fatalf("unexpected filters %+v", filters)
		}
		if filters.DateTo != "" {
			t.Fatalf("expected invalid date to be ignored, got %q", filters.DateTo)
		}
		if service.listParams.ShowPast == nil || !*service.listParams.ShowPast {
			t.Fatalf("expected show_past=true to be forwarded")
		}
	})

	t.Run("delete returns 204", func(t *testing.T) {
		t.Parallel()

		service := &fakeAppointmentService{}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(service, nil, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/api/appointments/appt-9", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", recorder.Code)
		}
		if service.deleted != "appt-9" {
			t.Fatalf("expected appt-9 to be deleted, got %q", service.deleted)
		}
	})

	t.Run("nested ids are not routed", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(&fakeAppointmentService{}, nil, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/appointments/a/b", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})
}

func TestTimeHandlers(t *testing.T) {
	t.Parallel()

	t.Run("span forwards form values", func(t *testing.T) {
		t.Parallel()

		service := &fakeTimeService{}
		router := NewRouter(RouterConfig{Time: NewTimeHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/time/span?date=2026-03-29&start_time=23:00&end_time=01:00&time_mode=timezone&time_zone=Europe/London", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if service.spanParams.TimeZone != "Europe/London" || service.spanParams.EndTime != "01:00" {
			t.Fatalf("unexpected span params %+v", service.spanParams)
		}
		payload := decodeBody[spanResponse](t, recorder)
		if !payload.Overnight || !payload.ValidRange || payload.EndUTCMillis == nil || *payload.EndUTCMillis != 2000 {
			t.Fatalf("unexpected span response %+v", payload)
		}
	})

	t.Run("zone state uses wire field names", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Time: NewTimeHandler(&fakeTimeService{}, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/time/zone-state?date=2026-01-12&pax=Alice", nil))

		payload := decodeBody[map[string]string](t, recorder)
		if payload["time_zone"] != "Europe/Paris" || payload["time_zone_source"] != "inferred" {
			t.Fatalf("unexpected zone state %+v", payload)
		}
	})

	t.Run("unsupported zone maps to 422", func(t *testing.T) {
		t.Parallel()

		service := &fakeTimeService{err: &application.ValidationError{FieldErrors: map[string]string{"time_zone": "unsupported time zone"}}}
		router := NewRouter(RouterConfig{Time: NewTimeHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/time/today?time_zone=Mars/Base", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
	})

	t.Run("read only endpoints reject POST", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Time: NewTimeHandler(&fakeTimeService{}, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/time/zones", nil))

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
	})
}

func TestTransferHandlers(t *testing.T) {
	t.Parallel()

	t.Run("export returns a decodable document", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Transfer: NewTransferHandler(&fakeTransferService{}, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/export", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if _, err := application.DecodeSnapshot(recorder.Body.Bytes()); err != nil {
			t.Fatalf("expected exported document to decode, got %v", err)
		}
	})

	t.Run("import rejects malformed documents", func(t *testing.T) {
		t.Parallel()

		service := &fakeTransferService{}
		router := NewRouter(RouterConfig{Transfer: NewTransferHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("{")))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
		if service.imported.Version != 0 {
			t.Fatalf("expected import to be skipped")
		}
	})

	t.Run("service failures map to 500", func(t *testing.T) {
		t.Parallel()

		service := &fakeTransferService{err: errors.New("disk full")}
		router := NewRouter(RouterConfig{Transfer: NewTransferHandler(service, discardLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/export", nil))

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", recorder.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	NewRouter(RouterConfig{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, healthPath, nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
}
