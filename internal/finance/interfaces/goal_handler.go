package interfaces

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type GoalServiceInterface interface {
	CreateGoal(ctx context.Context, owner identity.Owner, goal *domain.Goal) error
	GetGoals(ctx context.Context, owner identity.Owner, activeOnly bool) ([]domain.Goal, error)
	GetGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID, patch domain.GoalPatch) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, owner identity.Owner, goalID uuid.UUID) error
}

type GoalHandler struct {
	responder
	service GoalServiceInterface
}

func NewGoalHandler(service GoalServiceInterface, respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) *GoalHandler {
	if service == nil {
		panic("goal service must not be nil")
	}
	return &GoalHandler{responder: newResponder(respondJSON, respondError, log), service: service}
}

type goalRequest struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *flexibleTime   `json:"deadline"`
	Description   *string         `json:"description"`
}

type goalPatchRequest struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *flexibleTime    `json:"deadline"`
	Description   *string          `json:"description"`
	IsActive      *bool            `json:"is_active"`
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !h.decode(w, r, &req) {
		return
	}

	goal := &domain.Goal{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline.ptr(),
		Description:   req.Description,
	}
	if err := h.service.CreateGoal(r.Context(), owner, goal); err != nil {
		h.fail(w, r, err, "create goal")
		return
	}
	h.success(w, http.StatusCreated, "Goal successfully created.", goal)
}

func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	activeOnly := true
	if raw := r.URL.Query().Get("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid active_only value")
			return
		}
		activeOnly = parsed
	}

	goals, err := h.service.GetGoals(r.Context(), owner, activeOnly)
	if err != nil {
		h.fail(w, r, err, "retrieve goals")
		return
	}
	h.success(w, http.StatusOK, "Goals retrieved successfully.", goals)
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	goalID, ok := h.pathID(w, r, "goalID", "goal")
	if !ok {
		return
	}

	goal, err := h.service.GetGoal(r.Context(), owner, goalID)
	if err != nil {
		h.fail(w, r, err, "retrieve goal")
		return
	}
	h.success(w, http.StatusOK, "Goal retrieved successfully.", goal)
}

func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	goalID, ok := h.pathID(w, r, "goalID", "goal")
	if !ok {
		return
	}
	var req goalPatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	patch := domain.GoalPatch{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline.ptr(),
		Description:   req.Description,
		IsActive:      req.IsActive,
	}
	goal, err := h.service.UpdateGoal(r.Context(), owner, goalID, patch)
	if err != nil {
		h.fail(w, r, err, "update goal")
		return
	}
	h.success(w, http.StatusOK, "Goal successfully updated.", goal)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	goalID, ok := h.pathID(w, r, "goalID", "goal")
	if !ok {
		return
	}

	if err := h.service.DeleteGoal(r.Context(), owner, goalID); err != nil {
		h.fail(w, r, err, "delete goal")
		return
	}
	h.success(w, http.StatusOK, "Goal successfully deleted.", nil)
}
