package interfaces

import (
	"context"
	"net/http"

	"github.com/sebuszqo/BudgetManager/internal/finance/analytics"
	"github.com/sebuszqo/BudgetManager/internal/finance/application"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

const maxTrendMonths = 24

type AnalyticsServiceInterface interface {
	CurrentMonth() domain.Month
	MonthlySummary(ctx context.Context, owner identity.Owner, month domain.Month) (analytics.MonthlySummary, error)
	Trend(ctx context.Context, owner identity.Owner, window int) ([]analytics.TrendPoint, error)
	BudgetAlerts(ctx context.Context, owner identity.Owner, month domain.Month) ([]analytics.BudgetAlert, error)
	Overview(ctx context.Context, owner identity.Owner, window int) (application.Overview, error)
}

type AnalyticsHandler struct {
	responder
	service AnalyticsServiceInterface
}

func NewAnalyticsHandler(service AnalyticsServiceInterface, respondJSON RespondJSONFunc, respondError RespondErrorFunc, log logrus.FieldLogger) *AnalyticsHandler {
	if service == nil {
		panic("analytics service must not be nil")
	}
	return &AnalyticsHandler{responder: newResponder(respondJSON, respondError, log), service: service}
}

func (h *AnalyticsHandler) months(w http.ResponseWriter, r *http.Request) (int, bool) {
	months, err := intQuery(r, "months", analytics.DefaultTrendWindow)
	if err != nil || months < 1 || months > maxTrendMonths {
		h.respondError(w, http.StatusBadRequest, "Months must be a number between 1 and 24")
		return 0, false
	}
	return months, true
}

// GetSummary falls back to the current month when none is given.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	month := h.service.CurrentMonth()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := domain.ParseMonth(raw)
		if err != nil {
			h.fail(w, r, err, "compute summary")
			return
		}
		month = parsed
	}

	summary, err := h.service.MonthlySummary(r.Context(), owner, month)
	if err != nil {
		h.fail(w, r, err, "compute summary")
		return
	}
	h.success(w, http.StatusOK, "Summary computed successfully.", summary)
}

func (h *AnalyticsHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	months, ok := h.months(w, r)
	if !ok {
		return
	}

	trend, err := h.service.Trend(r.Context(), owner, months)
	if err != nil {
		h.fail(w, r, err, "compute trend")
		return
	}
	h.success(w, http.StatusOK, "Trend computed successfully.", trend)
}

// GetBudgetAlerts requires an explicit month; there is no default.
func (h *AnalyticsHandler) GetBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	month, err := domain.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, r, err, "compute budget alerts")
		return
	}

	alerts, err := h.service.BudgetAlerts(r.Context(), owner, month)
	if err != nil {
		h.fail(w, r, err, "compute budget alerts")
		return
	}
	h.success(w, http.StatusOK, "Budget alerts computed successfully.", alerts)
}

func (h *AnalyticsHandler) GetTransactionsAnalytics(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	months, ok := h.months(w, r)
	if !ok {
		return
	}

	overview, err := h.service.Overview(r.Context(), owner, months)
	if err != nil {
		h.fail(w, r, err, "compute analytics")
		return
	}
	h.success(w, http.StatusOK, "Analytics computed successfully.", overview)
}
