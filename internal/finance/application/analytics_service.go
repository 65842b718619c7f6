package application

import (
	"context"

	"github.com/sebuszqo/BudgetManager/internal/finance/analytics"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/sebuszqo/BudgetManager/internal/identity"
	"github.com/sirupsen/logrus"
)

// AnalyticsService loads one snapshot of rows per call and hands it to the engine.
type AnalyticsService struct {
	transactions domain.TransactionRepository
	budgets      domain.BudgetRepository
	log          logrus.FieldLogger
	clock        Clock
}

func NewAnalyticsService(transactions domain.TransactionRepository, budgets domain.BudgetRepository, log logrus.FieldLogger, clock Clock) *AnalyticsService {
	if clock == nil {
		clock = SystemClock
	}
	return &AnalyticsService{transactions: transactions, budgets: budgets, log: log, clock: clock}
}

// CurrentMonth is the month the injected clock is in.
func (s *AnalyticsService) CurrentMonth() domain.Month {
	return domain.MonthOf(s.clock())
}

func (s *AnalyticsService) MonthlySummary(ctx context.Context, owner identity.Owner, month domain.Month) (analytics.MonthlySummary, error) {
	if month.IsZero() {
		return analytics.MonthlySummary{}, financeErrors.ErrMissingMonth
	}
	transactions, err := s.transactions.FindInRange(ctx, owner, month.Start(), month.End(), nil, "")
	if err != nil {
		return analytics.MonthlySummary{}, err
	}
	return analytics.ComputeMonthlySummary(month, transactions), nil
}

// Trend is always anchored at the current month, whatever month the caller is viewing.
func (s *AnalyticsService) Trend(ctx context.Context, owner identity.Owner, window int) ([]analytics.TrendPoint, error) {
	if window < 1 {
		return nil, financeErrors.ErrInvalidWindow
	}
	anchor := s.CurrentMonth()
	from, to := analytics.TrendRange(anchor, window)
	transactions, err := s.transactions.FindInRange(ctx, owner, from, to, nil, "")
	if err != nil {
		return nil, err
	}
	return analytics.ComputeTrend(anchor, window, transactions)
}

func (s *AnalyticsService) BudgetAlerts(ctx context.Context, owner identity.Owner, month domain.Month) ([]analytics.BudgetAlert, error) {
	if month.IsZero() {
		return nil, financeErrors.ErrMissingMonth
	}
	budgets, err := s.budgets.FindByOwner(ctx, owner, &month)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []analytics.BudgetAlert{}, nil
	}
	expense := domain.KindExpense
	transactions, err := s.transactions.FindInRange(ctx, owner, month.Start(), month.End(), &expense, "")
	if err != nil {
		return nil, err
	}
	alerts := analytics.ComputeBudgetAlerts(month, budgets, transactions)

	exceeded := 0
	for _, alert := range alerts {
		if alert.Status == analytics.StatusExceeded {
			exceeded++
		}
	}
	if exceeded > 0 {
		s.log.WithFields(logrus.Fields{
			"user_id":  owner.String(),
			"month":    month.String(),
			"exceeded": exceeded,
		}).Info("budgets exceeded")
	}
	return alerts, nil
}

// Overview is the combined payload: this month's summary plus the trend.
type Overview struct {
	analytics.MonthlySummary
	MonthlyTrends []analytics.TrendPoint `json:"monthly_trends"`
}

func (s *AnalyticsService) Overview(ctx context.Context, owner identity.Owner, window int) (Overview, error) {
	summary, err := s.MonthlySummary(ctx, owner, s.CurrentMonth())
	if err != nil {
		return Overview{}, err
	}
	trend, err := s.Trend(ctx, owner, window)
	if err != nil {
		return Overview{}, err
	}
	return Overview{MonthlySummary: summary, MonthlyTrends: trend}, nil
}
