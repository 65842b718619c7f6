package interfaces

import (
	"context"
	"net/http"

	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sirupsen/logrus"
)

type CategoryServiceInterface interface {
	GetCategories(ctx context.Context, kind *domain.TransactionKind) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}

type CategoryHandler struct {
	responder
	service CategoryServiceInterface
}

func NewCategoryHandler(service CategoryServiceInterface, respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) *CategoryHandler {
	if service == nil {
		panic("category service must not be nil")
	}
	return &CategoryHandler{responder: newResponder(respondJSON, respondError, log), service: service}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	var kind *domain.TransactionKind
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := domain.ParseTransactionKind(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid category type")
			return
		}
		kind = &parsed
	}

	categories, err := h.service.GetCategories(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err, "retrieve categories")
		return
	}
	h.success(w, http.StatusOK, "Categories retrieved successfully.", categories)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.owner(w, r); !ok {
		return
	}
	var category domain.Category
	if !h.decode(w, r, &category) {
		return
	}

	if err := h.service.CreateCategory(r.Context(), &category); err != nil {
		h.fail(w, r, err, "create category")
		return
	}
	h.success(w, http.StatusCreated, "Category successfully created.", category)
}
