package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/appointment-planner/internal/application"
)

type preferenceService interface {
	Get(ctx context.Context) (application.Preferences, error)
	Update(ctx context.Context, patch application.PreferencesPatch) (application.Preferences, error)
}

type PreferenceHandler struct {
	service   preferenceService
	responder responder
}

func NewPreferenceHandler(service preferenceService, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{service: service, responder: newResponder(logger)}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	prefs, err := h.service.Get(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferencesResponse{Preferences: toPreferencesDTO(prefs)})
}

// Update applies the fields present in the body and leaves the rest unchanged.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	prefs, err := h.service.Update(r.Context(), application.PreferencesPatch{
		Theme:            req.Theme,
		ShowPast:         req.ShowPast,
		TimeMode:         req.TimeMode,
		CalendarViewMode: req.CalendarViewMode,
		CalendarGridMode: req.CalendarGridMode,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferencesResponse{Preferences: toPreferencesDTO(prefs)})
}

type preferencesRequest struct {
	Theme            *string `json:"theme"`
	ShowPast         *bool   `json:"show_past"`
	TimeMode         *string `json:"time_mode"`
	CalendarViewMode *string `json:"calendar_view_mode"`
	CalendarGridMode *string `json:"calendar_grid_mode"`
}

type preferencesResponse struct {
	Preferences preferencesDTO `json:"preferences"`
}

type preferencesDTO struct {
	Theme            string `json:"theme"`
	ShowPast         bool   `json:"show_past"`
	TimeMode         string `json:"time_mode"`
	CalendarViewMode string `json:"calendar_view_mode"`
	CalendarGridMode string `json:"calendar_grid_mode"`
}

func toPreferencesDTO(prefs application.Preferences) preferencesDTO {
	return preferencesDTO{
		Theme:            string(prefs.Theme),
		ShowPast:         prefs.ShowPast,
		TimeMode:         string(prefs.TimeMode),
		CalendarViewMode: string(prefs.CalendarViewMode),
		CalendarGridMode: string(prefs.CalendarGridMode),
	}
}
