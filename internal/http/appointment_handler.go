package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/agenda"
	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/timeresolver"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, input application.AppointmentInput) (application.AppointmentResult, error)
	UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.AppointmentResult, error)
	GetAppointment(ctx context.Context, id string) (application.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams, categories application.CategoryLister) (application.AppointmentList, error)
}

type AppointmentHandler struct {
	service    appointmentService
	categories application.CategoryLister
	responder  responder
	logger     *slog.Logger
}

// NewAppointmentHandler constructs the appointment endpoints. categories is
// used for the category sort order and may be nil.
func NewAppointmentHandler(service appointmentService, categories application.CategoryLister, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, categories: categories, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := buildListParams(r.URL.Query())
	list, err := h.service.ListAppointments(r.Context(), params, h.categories)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{
		Appointments:  toAppointmentDTOs(list.Appointments),
		Warnings:      toWarningDTOs(list.Warnings),
		FiltersActive: list.FiltersActive,
		Today:         list.Today,
	})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	appointment, err := h.service.GetAppointment(r.Context(), appointmentID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	result, err := h.service.CreateAppointment(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", result.Appointment.ID).InfoContext(r.Context(), "appointment created")
	h.renderResult(r.Context(), w, result, http.StatusCreated)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "appointment_id", appointmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "appointment_id", appointmentID)

	result, err := h.service.UpdateAppointment(r.Context(), application.UpdateAppointmentParams{
		AppointmentID: appointmentID,
		Input:         req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment updated")
	h.renderResult(r.Context(), w, result, http.StatusOK)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(appointmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "appointment_id", appointmentID)
	if err := h.service.DeleteAppointment(r.Context(), appointmentID); err != nil {
		logger.ErrorContext(r.Context(), "appointment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) renderResult(ctx context.Context, w http.ResponseWriter, result application.AppointmentResult, status int) {
	h.responder.writeJSON(ctx, w, status, appointmentResponse{
		Appointment: toAppointmentDTO(result.Appointment),
		Warnings:    toWarningDTOs(result.Warnings),
	})
}

type appointmentRequest struct {
	Title          string `json:"title"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	CategoryID     string `json:"category_id"`
	Location       string `json:"location"`
	Notes          string `json:"notes"`
	Status         string `json:"status"`
	TimeMode       string `json:"time_mode"`
	TimeZone       string `json:"time_zone"`
	TimeZoneSource string `json:"time_zone_source"`
}

func (r appointmentRequest) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		Title:          strings.TrimSpace(r.Title),
		Date:           strings.TrimSpace(r.Date),
		StartTime:      strings.TrimSpace(r.StartTime),
		EndTime:        strings.TrimSpace(r.EndTime),
		CategoryID:     strings.TrimSpace(r.CategoryID),
		Location:       r.Location,
		Notes:          r.Notes,
		Status:         application.Status(strings.TrimSpace(r.Status)),
		TimeMode:       timeresolver.Mode(strings.TrimSpace(r.TimeMode)),
		TimeZone:       strings.TrimSpace(r.TimeZone),
		TimeZoneSource: timeresolver.Source(strings.TrimSpace(r.TimeZoneSource)),
	}
}

type appointmentResponse struct {
	Appointment appointmentDTO       `json:"appointment"`
	Warnings    []conflictWarningDTO `json:"warnings,omitempty"`
}

type listAppointmentsResponse struct {
	Appointments  []appointmentDTO     `json:"appointments"`
	Warnings      []conflictWarningDTO `json:"warnings,omitempty"`
	FiltersActive bool                 `json:"filters_active"`
	Today         string               `json:"today"`
}

type appointmentDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time,omitempty"`
	Overnight      bool   `json:"overnight,omitempty"`
	CategoryID     string `json:"category_id"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Status         string `json:"status"`
	TimeMode       string `json:"time_mode"`
	TimeZone       string `json:"time_zone,omitempty"`
	TimeZoneSource string `json:"time_zone_source,omitempty"`
	StartUTCMillis int64  `json:"start_utc_ms"`
	EndUTCMillis   *int64 `json:"end_utc_ms,omitempty"`
	SourceKey      string `json:"source_key,omitempty"`
	SourcePax      string `json:"source_pax,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toAppointmentDTO(appointment application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:             appointment.ID,
		Title:          appointment.Title,
		Date:           appointment.Date,
		StartTime:      appointment.StartTime,
		EndTime:        appointment.EndTime,
		Overnight:      appointment.Overnight(),
		CategoryID:     appointment.CategoryID,
		Location:       appointment.Location,
		Notes:          appointment.Notes,
		Status:         string(appointment.Status),
		TimeMode:       string(appointment.TimeMode),
		TimeZone:       appointment.TimeZone,
		TimeZoneSource: string(appointment.TimeZoneSource),
		StartUTCMillis: appointment.StartUTC,
		EndUTCMillis:   appointment.EndUTC,
		SourceKey:      appointment.SourceKey,
		SourcePax:      appointment.SourcePax,
		CreatedAt:      appointment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      appointment.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAppointmentDTOs(appointments []application.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}

type conflictWarningDTO struct {
	AppointmentID     string `json:"appointment_id"`
	WithAppointmentID string `json:"with_appointment_id"`
	Type              string `json:"type"`
	OverlapMinutes    int    `json:"overlap_minutes"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			AppointmentID:     warning.AppointmentID,
			WithAppointmentID: warning.WithAppointmentID,
			Type:              warning.Type,
			OverlapMinutes:    warning.OverlapMinutes,
		})
	}
	return out
}

func buildListParams(values url.Values) application.ListAppointmentsParams {
	filters := agenda.DefaultFilters()
	filters.Search = strings.TrimSpace(values.Get("q"))
	if category := strings.TrimSpace(values.Get("category")); category != "" {
		filters.CategoryID = category
	}
	if from := strings.TrimSpace(values.Get("from")); timeresolver.IsValidDateKey(from) {
		filters.DateFrom = from
	}
	if to := strings.TrimSpace(values.Get("to")); timeresolver.IsValidDateKey(to) {
		filters.DateTo = to
	}
	filters.Sort = agenda.ParseSortMode(values.Get("sort"))

	return application.ListAppointmentsParams{Filters: filters, ShowPast: parseOptionalBool(values.Get("show_past"))}
}

func parseOptionalBool(value string) *bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &parsed
}
