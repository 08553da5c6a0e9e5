package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/appointment-planner/internal/application"
	"github.com/example/appointment-planner/internal/itinerary"
)

// maxTripDocumentBytes bounds trip and snapshot uploads.
const maxTripDocumentBytes = 16 << 20

type paxService interface {
	GetPaxState(ctx context.Context) (application.PaxState, error)
	SelectPax(ctx context.Context, name string) (application.PaxState, error)
	ImportTrips(ctx context.Context, raw []byte) (application.ImportTripsResult, error)
	CountryForDate(ctx context.Context, paxName, date string) (application.PaxCountry, error)
	ImportFlightsAsAppointments(ctx context.Context, params application.ImportFlightsParams) (application.ImportFlightsResult, error)
}

type PaxHandler struct {
	service   paxService
	responder responder
	logger    *slog.Logger
}

func NewPaxHandler(service paxService, logger *slog.Logger) *PaxHandler {
	base := defaultLogger(logger)
	return &PaxHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PaxHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PaxHandler", operation, attrs...)
}

func (h *PaxHandler) State(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	state, err := h.service.GetPaxState(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPaxStateDTO(state))
}

func (h *PaxHandler) Select(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req selectPaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	state, err := h.service.SelectPax(r.Context(), strings.TrimSpace(req.SelectedPax))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPaxStateDTO(state))
}

// Import reads a trip export from the raw request body.
func (h *PaxHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxTripDocumentBytes))
	if err != nil {
		h.log(r.Context(), "Import", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to read trip document", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Import", "bytes", len(raw))
	result, err := h.service.ImportTrips(r.Context(), raw)
	if err != nil {
		logger.ErrorContext(r.Context(), "trip import failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "trips imported", "flight_count", result.Flights)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importTripsResponse{
		Stats:    result.Stats,
		PaxNames: result.PaxNames,
		Flights:  result.Flights,
		Skipped:  result.Skipped,
	})
}

func (h *PaxHandler) Country(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	country, err := h.service.CountryForDate(r.Context(), strings.TrimSpace(query.Get("pax")), strings.TrimSpace(query.Get("date")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, paxCountryDTO{
		PaxName:     country.PaxName,
		Date:        country.Date,
		Known:       country.Known,
		CountryCode: country.Region.Code,
		CountryName: country.Region.Name,
		Flag:        country.Flag,
		TimeZone:    country.TimeZone,
	})
}

func (h *PaxHandler) ImportAppointments(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req importFlightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ImportAppointments", "pax_name", req.PaxName)
	result, err := h.service.ImportFlightsAsAppointments(r.Context(), application.ImportFlightsParams{
		PaxName:    strings.TrimSpace(req.PaxName),
		CategoryID: strings.TrimSpace(req.CategoryID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "flight import failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "flights imported", "created", len(result.Created), "duplicates", result.Duplicates)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importFlightsResponse{
		Created:    toAppointmentDTOs(result.Created),
		Duplicates: result.Duplicates,
	})
}

type selectPaxRequest struct {
	SelectedPax string `json:"selected_pax"`
}

type importFlightsRequest struct {
	PaxName    string `json:"pax_name"`
	CategoryID string `json:"category_id"`
}

type paxStateDTO struct {
	SelectedPax string                        `json:"selected_pax"`
	PaxNames    []string                      `json:"pax_names"`
	Flights     map[string][]itinerary.Flight `json:"flights"`
}

func toPaxStateDTO(state application.PaxState) paxStateDTO {
	dto := paxStateDTO{
		SelectedPax: state.SelectedPax,
		PaxNames:    append([]string{}, state.PaxNames...),
		Flights:     make(map[string][]itinerary.Flight, len(state.Flights)),
	}
	for name, flights := range state.Flights {
		dto.Flights[name] = append([]itinerary.Flight{}, flights...)
	}
	return dto
}

type importTripsResponse struct {
	Stats    itinerary.Stats `json:"stats"`
	PaxNames []string        `json:"pax_names"`
	Flights  int             `json:"flights"`
	Skipped  int             `json:"skipped"`
}

type paxCountryDTO struct {
	PaxName     string `json:"pax_name"`
	Date        string `json:"date"`
	Known       bool   `json:"known"`
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	Flag        string `json:"flag,omitempty"`
	TimeZone    string `json:"time_zone,omitempty"`
}

type importFlightsResponse struct {
	Created    []appointmentDTO `json:"created"`
	Duplicates int              `json:"duplicates"`
}
