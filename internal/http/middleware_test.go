package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/appointment-planner/internal/application"
)

type fakeCredentialChecker struct {
	enabled  bool
	username string
	password string
}

func (f fakeCredentialChecker) Enabled() bool {
	return f.enabled
}

func (f fakeCredentialChecker) Authenticate(ctx context.Context, username, password string) error {
	if username != f.username || password != f.password {
		return application.ErrInvalidCredentials
	}
	return nil
}

func TestRequireBasicAuth(t *testing.T) {
	t.Parallel()

	checker := fakeCredentialChecker{enabled: true, username: "planner", password: "secret"}

	tests := []struct {
		name           string
		checker        CredentialChecker
		path           string
		username       string
		password       string
		withAuth       bool
		expectedStatus int
	}{
		{name: "missing credentials", checker: checker, path: "/api/appointments", expectedStatus: http.StatusUnauthorized},
		{name: "wrong password", checker: checker, path: "/api/appointments", username: "planner", password: "nope", withAuth: true, expectedStatus: http.StatusUnauthorized},
		{name: "valid credentials", checker: checker, path: "/api/appointments", username: "planner", password: "secret", withAuth: true, expectedStatus: http.StatusOK},
		{name: "health check stays open", checker: checker, path: healthPath, expectedStatus: http.StatusOK},
		{name: "disabled checker passes through", checker: fakeCredentialChecker{}, path: "/api/appointments", expectedStatus: http.StatusOK},
		{name: "nil checker passes through", path: "/api/appointments", expectedStatus: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := RequireBasicAuth(tc.checker, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.withAuth {
				req.SetBasicAuth(tc.username, tc.password)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
			}
			if tc.expectedStatus == http.StatusUnauthorized && recorder.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("expected WWW-Authenticate challenge")
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	var fromContext *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/pax", nil))

	if fromContext == nil {
		t.Fatalf("expected request logger in context")
	}
	output := buf.String()
	for _, want := range []string{"request started", "request completed", "status=418", "path=/api/pax", "request_id=1"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected log output to contain %q, got %s", want, output)
		}
	}
}

func TestHandlerLoggerTagsRequest(t *testing.T) {
	t.Parallel()

	var requestLog, fallbackLog bytes.Buffer
	request := slog.New(slog.NewTextHandler(&requestLog, nil)).With("request_id", 7)
	fallback := slog.New(slog.NewTextHandler(&fallbackLog, nil))

	ctx := ContextWithResourceID(ContextWithLogger(context.Background(), request), "appt_1")
	handlerLogger(ctx, fallback, "AppointmentHandler", "Get").Info("loaded")

	line := requestLog.String()
	for _, want := range []string{"request_id=7", "handler=AppointmentHandler", "operation=Get", "resource_id=appt_1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if fallbackLog.Len() != 0 {
		t.Fatalf("expected request logger to be preferred, fallback got %q", fallbackLog.String())
	}

	handlerLogger(context.Background(), fallback, "CategoryHandler", "").Info("listed")
	if line := fallbackLog.String(); !strings.Contains(line, "handler=CategoryHandler") || strings.Contains(line, "resource_id") || strings.Contains(line, "operation") {
		t.Fatalf("unexpected fallback log %q", line)
	}
}
