// Package analytics derives monthly summaries, trends and budget alerts from
// a snapshot of one user's rows. It performs no I/O and keeps no state.
package analytics

import (
	"sort"
	"time"

	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultTrendWindow = 6
	topCategoriesLimit = 5
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(80)
)

type AlertStatus string

const (
	StatusOK       AlertStatus = "ok"
	StatusWarning  AlertStatus = "warning"
	StatusExceeded AlertStatus = "exceeded"
)

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type MonthlySummary struct {
	Month                domain.Month    `json:"month"`
	TotalRevenues        decimal.Decimal `json:"total_revenues"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	Balance              decimal.Decimal `json:"balance"`
	SavingsRate          decimal.Decimal `json:"savings_rate"`
	TopExpenseCategories []CategoryTotal `json:"top_expense_categories"`
}

type TrendPoint struct {
	Month    domain.Month    `json:"month"`
	Revenues decimal.Decimal `json:"revenues"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

type BudgetAlert struct {
	BudgetID     string          `json:"budget_id"`
	Category     string          `json:"category"`
	BudgetAmount decimal.Decimal `json:"budget_amount"`
	SpentAmount  decimal.Decimal `json:"spent_amount"`
	Percentage   decimal.Decimal `json:"percentage"`
	Status       AlertStatus     `json:"status"`
}

type totals struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

func (t totals) balance() decimal.Decimal {
	return t.income.Sub(t.expense)
}

// ComputeMonthlySummary counts only transactions inside month, so callers
// may pass a wider snapshot.
func ComputeMonthlySummary(month domain.Month, transactions []domain.Transaction) MonthlySummary {
	var sums totals
	byCategory := make(map[string]decimal.Decimal)

	for _, tx := range transactions {
		if !month.Contains(tx.OccurredAt) {
			continue
		}
		switch tx.Kind {
		case domain.KindIncome:
			sums.income = sums.income.Add(tx.Amount)
		case domain.KindExpense:
			sums.expense = sums.expense.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}

	return MonthlySummary{
		Month:                month,
		TotalRevenues:        sums.income,
		TotalExpenses:        sums.expense,
		Balance:              sums.balance(),
		SavingsRate:          savingsRate(sums),
		TopExpenseCategories: topCategories(byCategory, topCategoriesLimit),
	}
}

func savingsRate(t totals) decimal.Decimal {
	if !t.income.IsPositive() {
		return decimal.Zero
	}
	return t.balance().Div(t.income).Mul(hundred).Round(2)
}

func topCategories(byCategory map[string]decimal.Decimal, limit int) []CategoryTotal {
	result := make([]CategoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		result = append(result, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].Total.Cmp(result[j].Total); cmp != 0 {
			return cmp > 0
		}
		return result[i].Category < result[j].Category
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// ComputeTrend returns window points starting at anchor and walking back one
// calendar month at a time, most recent first.
func ComputeTrend(anchor domain.Month, window int, transactions []domain.Transaction) ([]TrendPoint, error) {
	if window < 1 {
		return nil, financeErrors.ErrInvalidWindow
	}

	byMonth := make(map[domain.Month]totals, window)
	for _, tx := range transactions {
		key := domain.MonthOf(tx.OccurredAt)
		t := byMonth[key]
		switch tx.Kind {
		case domain.KindIncome:
			t.income = t.income.Add(tx.Amount)
		case domain.KindExpense:
			t.expense = t.expense.Add(tx.Amount)
		}
		byMonth[key] = t
	}

	points := make([]TrendPoint, 0, window)
	for i := 0; i < window; i++ {
		month := anchor.AddMonths(-i)
		t := byMonth[month]
		points = append(points, TrendPoint{
			Month:    month,
			Revenues: t.income,
			Expenses: t.expense,
			Balance:  t.balance(),
		})
	}
	return points, nil
}

// TrendRange is the [from, to) instant range ComputeTrend reads for anchor and window.
func TrendRange(anchor domain.Month, window int) (time.Time, time.Time) {
	return anchor.AddMonths(-(window - 1)).Start(), anchor.End()
}

// ComputeBudgetAlerts yields one alert per budget of month, in input order.
// Categories without a budget never produce an alert.
func ComputeBudgetAlerts(month domain.Month, budgets []domain.Budget, transactions []domain.Transaction) []BudgetAlert {
	spentByCategory := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		if tx.Kind != domain.KindExpense || !month.Contains(tx.OccurredAt) {
			continue
		}
		spentByCategory[tx.Category] = spentByCategory[tx.Category].Add(tx.Amount)
	}

	alerts := make([]BudgetAlert, 0, len(budgets))
	for _, budget := range budgets {
		if budget.Month != month {
			continue
		}
		spent := spentByCategory[budget.Category]
		percentage := Utilisation(spent, budget.Amount)
		alerts = append(alerts, BudgetAlert{
			BudgetID:     budget.ID.String(),
			Category:     budget.Category,
			BudgetAmount: budget.Amount,
			SpentAmount:  spent,
			Percentage:   percentage.Round(2),
			Status:       Classify(percentage),
		})
	}
	return alerts
}

// Utilisation is spent as a percentage of limit, 0 for a non-positive limit.
func Utilisation(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Mul(hundred).Div(limit)
}

// Classify: (100, ∞) exceeded, (80, 100] warning, everything else ok.
func Classify(percentage decimal.Decimal) AlertStatus {
	switch {
	case percentage.GreaterThan(hundred):
		return StatusExceeded
	case percentage.GreaterThan(warningThreshold):
		return StatusWarning
	default:
		return StatusOK
	}
}
