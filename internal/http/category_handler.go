package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/appointment-planner/internal/application"
)

type categoryService interface {
	ListCategories(ctx context.Context) ([]application.Category, error)
	GetCategory(ctx context.Context, id string) (application.Category, error)
	CreateCategory(ctx context.Context, input application.CategoryInput) (application.Category, error)
	UpdateCategory(ctx context.Context, id string, input application.CategoryInput) (application.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CategoryHandler struct {
	service   categoryService
	responder responder
	logger    *slog.Logger
}

func NewCategoryHandler(service categoryService, logger *slog.Logger) *CategoryHandler {
	base := defaultLogger(logger)
	return &CategoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CategoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CategoryHandler", operation, attrs...)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "category list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCategoriesResponse{Categories: toCategoryDTOs(categories)})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	categoryID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(categoryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	category, err := h.service.GetCategory(r.Context(), categoryID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, categoryResponse{Category: toCategoryDTO(category)})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode category request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	category, err := h.service.CreateCategory(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "category creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("category_id", category.ID).InfoContext(r.Context(), "category created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, categoryResponse{Category: toCategoryDTO(category)})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	categoryID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(categoryID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing category id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "category_id", categoryID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode category update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "category_id", categoryID)

	category, err := h.service.UpdateCategory(r.Context(), categoryID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "category update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "category updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, categoryResponse{Category: toCategoryDTO(category)})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	categoryID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(categoryID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing category id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Delete", "category_id", categoryID)
	if err := h.service.DeleteCategory(r.Context(), categoryID); err != nil {
		logger.ErrorContext(r.Context(), "category delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "category deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (r categoryRequest) toInput() application.CategoryInput {
	return application.CategoryInput{
		Name:  strings.TrimSpace(r.Name),
		Color: strings.TrimSpace(r.Color),
		Icon:  strings.TrimSpace(r.Icon),
	}
}

type categoryResponse struct {
	Category categoryDTO `json:"category"`
}

type listCategoriesResponse struct {
	Categories []categoryDTO `json:"categories"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCategoryDTO(category application.Category) categoryDTO {
	return categoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		Icon:      category.Icon,
		CreatedAt: category.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: category.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toCategoryDTOs(categories []application.Category) []categoryDTO {
	out := make([]categoryDTO, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryDTO(category))
	}
	return out
}
