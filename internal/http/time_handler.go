package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/timeresolver"
)

type timeService interface {
	Today(ctx context.Context, mode timeresolver.Mode, zone string) (string, error)
	MinStartTime(ctx context.Context, date string, mode timeresolver.Mode, zone string) (application.TimeBounds, error)
	Span(ctx context.Context, params application.SpanParams) (application.SpanPreview, error)
	ZoneState(ctx context.Context, params application.ZoneStateParams) (timeresolver.ZoneState, error)
	SupportedZones() []timeresolver.ZoneOption
}

// TimeHandler answers the clock and zone questions of the appointment form.
// All endpoints take query parameters and are read only.
type TimeHandler struct {
	service   timeService
	responder responder
}

func NewTimeHandler(service timeService, logger *slog.Logger) *TimeHandler {
	return &TimeHandler{service: service, responder: newResponder(logger)}
}

func (h *TimeHandler) Today(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	today, err := h.service.Today(r.Context(), timeresolver.Mode(strings.TrimSpace(query.Get("time_mode"))), query.Get("time_zone"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, todayResponse{Today: today})
}

func (h *TimeHandler) MinStart(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	bounds, err := h.service.MinStartTime(r.Context(), query.Get("date"), timeresolver.Mode(strings.TrimSpace(query.Get("time_mode"))), query.Get("time_zone"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, minStartResponse{
		Today:        bounds.Today,
		Date:         bounds.Date,
		MinStartTime: bounds.MinStartTime,
		TimeZone:     bounds.Zone,
	})
}

func (h *TimeHandler) Span(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	preview, err := h.service.Span(r.Context(), application.SpanParams{
		Date:      strings.TrimSpace(query.Get("date")),
		StartTime: strings.TrimSpace(query.Get("start_time")),
		EndTime:   strings.TrimSpace(query.Get("end_time")),
		TimeMode:  timeresolver.Mode(strings.TrimSpace(query.Get("time_mode"))),
		TimeZone:  strings.TrimSpace(query.Get("time_zone")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spanResponse{
		StartUTCMillis: preview.Span.StartUTC,
		EndUTCMillis:   preview.Span.EndUTC,
		Overnight:      preview.Span.Overnight,
		ValidRange:     preview.ValidRange,
	})
}

func (h *TimeHandler) ZoneState(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	state, err := h.service.ZoneState(r.Context(), application.ZoneStateParams{
		Date:          strings.TrimSpace(query.Get("date")),
		TimeMode:      timeresolver.Mode(strings.TrimSpace(query.Get("time_mode"))),
		CurrentZone:   strings.TrimSpace(query.Get("time_zone")),
		CurrentSource: timeresolver.Source(strings.TrimSpace(query.Get("time_zone_source"))),
		PaxName:       strings.TrimSpace(query.Get("pax")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, state)
}

func (h *TimeHandler) Zones(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, zonesResponse{Zones: h.service.SupportedZones()})
}

type todayResponse struct {
	Today string `json:"today"`
}

type minStartResponse struct {
	Today        string `json:"today"`
	Date         string `json:"date"`
	MinStartTime string `json:"min_start_time,omitempty"`
	TimeZone     string `json:"time_zone,omitempty"`
}

type spanResponse struct {
	StartUTCMillis *int64 `json:"start_utc_ms"`
	EndUTCMillis   *int64 `json:"end_utc_ms"`
	Overnight      bool   `json:"overnight"`
	ValidRange     bool   `json:"valid_range"`
}

type zonesResponse struct {
	Zones []timeresolver.ZoneOption `json:"zones"`
}
