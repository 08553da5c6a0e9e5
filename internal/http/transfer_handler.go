package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/appointment-planner/internal/application"
)

type transferService interface {
	Export(ctx context.Context) (application.Snapshot, error)
	Import(ctx context.Context, snapshot application.Snapshot) (application.Snapshot, error)
}

// TransferHandler exports and imports the whole data set as a JSON document.
type TransferHandler struct {
	service   transferService
	responder responder
	logger    *slog.Logger
}

func NewTransferHandler(service transferService, logger *slog.Logger) *TransferHandler {
	base := defaultLogger(logger)
	return &TransferHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snapshot, err := h.service.Export(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	body, err := application.EncodeSnapshot(snapshot)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="planner-export.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		handlerLogger(r.Context(), h.logger, "TransferHandler", "Export").ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxTripDocumentBytes))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	snapshot, err := application.DecodeSnapshot(raw)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	imported, err := h.service.Import(r.Context(), snapshot)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, importSnapshotResponse{
		Categories:   len(imported.Categories),
		Appointments: len(imported.Appointments),
		PaxNames:     len(imported.Pax.PaxNames),
	})
}

type importSnapshotResponse struct {
	Categories   int `json:"categories"`
	Appointments int `json:"appointments"`
	PaxNames     int `json:"pax_names"`
}
