package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/agenda"
	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/ics"
)

type calendarService interface {
	Agenda(ctx context.Context, params application.ListAppointmentsParams, categories application.CategoryLister) ([]application.AgendaDay, application.AppointmentList, error)
	Week(ctx context.Context, date string, showPast *bool) (application.WeekView, error)
	Month(ctx context.Context, year int, month time.Month) (application.MonthView, error)
	ListRange(ctx context.Context, fromMillis, toMillis int64) ([]application.Appointment, error)
}

// CalendarHandler serves the agenda, week, and month views and the iCalendar feed.
type CalendarHandler struct {
	service    calendarService
	categories application.CategoryLister
	now        func() time.Time
	responder  responder
	logger     *slog.Logger
}

func NewCalendarHandler(service calendarService, categories application.CategoryLister, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, categories: categories, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	days, list, err := h.service.Agenda(r.Context(), buildListParams(r.URL.Query()), h.categories)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := agendaResponse{
		Days:          make([]agendaDayDTO, 0, len(days)),
		Warnings:      toWarningDTOs(list.Warnings),
		FiltersActive: list.FiltersActive,
		Today:         list.Today,
	}
	for _, day := range days {
		payload.Days = append(payload.Days, agendaDayDTO{Date: day.Date, Appointments: toAppointmentDTOs(day.Items)})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	view, err := h.service.Week(r.Context(), strings.TrimSpace(query.Get("date")), parseOptionalBool(query.Get("show_past")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekResponse{
		Start:        view.Start,
		End:          view.End,
		Days:         view.Days,
		Appointments: toAppointmentDateMap(view.Appointments),
	})
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	now := h.now()
	year, month := now.Year(), int(now.Month())
	if value := strings.TrimSpace(query.Get("year")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
			return
		}
		year = parsed
	}
	if value := strings.TrimSpace(query.Get("month")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
			return
		}
		month = parsed
	}

	view, err := h.service.Month(r.Context(), year, time.Month(month))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthResponse{
		Year:         view.Year,
		Month:        int(view.Month),
		Days:         view.Days,
		Appointments: toAppointmentDateMap(view.Appointments),
	})
}

// Feed renders appointments starting in [from_ms, to_ms) as text/calendar.
// Without bounds the feed covers thirty days back to a year ahead.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	now := h.now()
	from := now.AddDate(0, 0, -30).UnixMilli()
	to := now.AddDate(1, 0, 0).UnixMilli()
	query := r.URL.Query()
	for _, bound := range []struct {
		key    string
		target *int64
	}{{"from_ms", &from}, {"to_ms", &to}} {
		value := strings.TrimSpace(query.Get(bound.key))
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
			return
		}
		*bound.target = parsed
	}

	appointments, err := h.service.ListRange(r.Context(), from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	names := map[string]string{}
	if h.categories != nil {
		categories, err := h.categories.ListCategories(r.Context())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		for _, category := range categories {
			names[category.ID] = category.Name
		}
	}

	body := ics.Render(ics.Feed{Name: "Appointments", Stamp: now, Categories: names}, appointments)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Feed").ErrorContext(r.Context(), "failed to write calendar feed", "error", err)
	}
}

type agendaResponse struct {
	Days          []agendaDayDTO       `json:"days"`
	Warnings      []conflictWarningDTO `json:"warnings,omitempty"`
	FiltersActive bool                 `json:"filters_active"`
	Today         string               `json:"today"`
}

type agendaDayDTO struct {
	Date         string           `json:"date"`
	Appointments []appointmentDTO `json:"appointments"`
}

type weekResponse struct {
	Start        string                      `json:"start"`
	End          string                      `json:"end"`
	Days         []string                    `json:"days"`
	Appointments map[string][]appointmentDTO `json:"appointments"`
}

type monthResponse struct {
	Year         int                         `json:"year"`
	Month        int                         `json:"month"`
	Days         []agenda.Day                `json:"days"`
	Appointments map[string][]appointmentDTO `json:"appointments"`
}

func toAppointmentDateMap(byDate map[string][]application.Appointment) map[string][]appointmentDTO {
	out := make(map[string][]appointmentDTO, len(byDate))
	for date, appointments := range byDate {
		out[date] = toAppointmentDTOs(appointments)
	}
	return out
}
