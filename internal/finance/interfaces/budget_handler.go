package interfaces

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

type BudgetServiceInterface interface {
	CreateBudget(ctx context.Context, owner identity.Owner, budget *domain.Budget) error
	GetBudgets(ctx context.Context, owner identity.Owner, month *domain.Month) ([]domain.Budget, error)
	UpdateBudget(ctx context.Context, owner identity.Owner, budgetID uuid.UUID, patch domain.BudgetPatch) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, owner identity.Owner, budgetID uuid.UUID) error
}

type BudgetHandler struct {
	responder
	service BudgetServiceInterface
}

func NewBudgetHandler(service BudgetServiceInterface, respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) *BudgetHandler {
	if service == nil {
		panic("budget service must not be nil")
	}
	return &BudgetHandler{responder: newResponder(respondJSON, respondError, log), service: service}
}

func (h *BudgetHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var budget domain.Budget
	if !h.decode(w, r, &budget) {
		return
	}

	if err := h.service.CreateBudget(r.Context(), owner, &budget); err != nil {
		h.fail(w, r, err, "create budget")
		return
	}
	h.success(w, http.StatusCreated, "Budget successfully created.", budget)
}

func (h *BudgetHandler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var month *domain.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := domain.ParseMonth(raw)
		if err != nil {
			h.fail(w, r, err, "retrieve budgets")
			return
		}
		month = &parsed
	}

	budgets, err := h.service.GetBudgets(r.Context(), owner, month)
	if err != nil {
		h.fail(w, r, err, "retrieve budgets")
		return
	}
	h.success(w, http.StatusOK, "Budgets retrieved successfully.", budgets)
}

func (h *BudgetHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(w, r, "budgetID", "budget")
	if !ok {
		return
	}
	var patch domain.BudgetPatch
	if !h.decode(w, r, &patch) {
		return
	}

	budget, err := h.service.UpdateBudget(r.Context(), owner, budgetID, patch)
	if err != nil {
		h.fail(w, r, err, "update budget")
		return
	}
	h.success(w, http.StatusOK, "Budget successfully updated.", budget)
}

func (h *BudgetHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(w, r, "budgetID", "budget")
	if !ok {
		return
	}

	if err := h.service.DeleteBudget(r.Context(), owner, budgetID); err != nil {
		h.fail(w, r, err, "delete budget")
		return
	}
	h.success(w, http.StatusOK, "Budget successfully deleted.", nil)
}
