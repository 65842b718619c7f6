package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/BudgetManager/internal/finance/domain"
	financeErrors "github.com/sebuszqo/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march2024 = domain.Month{Year: 2024, Month: time.March}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(kind domain.TransactionKind, category, amount string, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:         uuid.New(),
		Kind:       kind,
		Category:   category,
		Amount:     dec(amount),
		OccurredAt: at,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, what string) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), fmt.Sprintf("expected %s to be %s, got: %s", what, expected, actual))
}

func TestComputeMonthlySummary_IncomeAndExpenses(t *testing.T) {
	transactions := []domain.Transaction{
		tx(domain.KindIncome, "Salaire", "1000", day(2024, time.March, 1)),
		tx(domain.KindExpense, "Nourriture", "250", day(2024, time.March, 5)),
		tx(domain.KindExpense, "Transport", "150", day(2024, time.March, 20)),
		// outside the month
		tx(domain.KindIncome, "Salaire", "999", day(2024, time.February, 29)),
		tx(domain.KindExpense, "Nourriture", "999", day(2024, time.April, 1)),
	}

	summary := ComputeMonthlySummary(march2024, transactions)

	assertDecimal(t, "1000", summary.TotalRevenues, "total revenues")
	assertDecimal(t, "400", summary.TotalExpenses, "total expenses")
	assertDecimal(t, "600", summary.Balance, "balance")
	assertDecimal(t, "60", summary.SavingsRate, "savings rate")
	assert.Equal(t, march2024, summary.Month)
}

func TestComputeMonthlySummary_ZeroIncomeHasZeroSavingsRate(t *testing.T) {
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Loisirs", "50", day(2024, time.March, 10)),
	}

	summary := ComputeMonthlySummary(march2024, transactions)

	assertDecimal(t, "0", summary.TotalRevenues, "total revenues")
	assertDecimal(t, "-50", summary.Balance, "balance")
	assertDecimal(t, "0", summary.SavingsRate, "savings rate")
}

func TestComputeMonthlySummary_BalanceIsExact(t *testing.T) {
	transactions := []domain.Transaction{
		tx(domain.KindIncome, "Salaire", "0.10", day(2024, time.March, 1)),
		tx(domain.KindIncome, "Bonus", "0.20", day(2024, time.March, 2)),
		tx(domain.KindExpense, "Divers", "0.30", day(2024, time.March, 3)),
		tx(domain.KindIncome, "Freelance", "1234567.89", day(2024, time.March, 4)),
		tx(domain.KindExpense, "Logement", "1234567.88", day(2024, time.March, 5)),
	}

	summary := ComputeMonthlySummary(march2024, transactions)

	assert.True(t, summary.TotalRevenues.Sub(summary.TotalExpenses).Equal(summary.Balance))
	assertDecimal(t, "0.01", summary.Balance, "balance")
}

func TestComputeMonthlySummary_EmptyMonth(t *testing.T) {
	summary := ComputeMonthlySummary(march2024, nil)

	assertDecimal(t, "0", summary.Balance, "balance")
	assertDecimal(t, "0", summary.SavingsRate, "savings rate")
	assert.NotNil(t, summary.TopExpenseCategories)
	assert.Empty(t, summary.TopExpenseCategories)
}

func TestComputeMonthlySummary_TopExpenseCategories(t *testing.T) {
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Logement", "800", day(2024, time.March, 1)),
		tx(domain.KindExpense, "Nourriture", "100", day(2024, time.March, 2)),
		tx(domain.KindExpense, "Nourriture", "150", day(2024, time.March, 3)),
		tx(domain.KindExpense, "Transport", "90", day(2024, time.March, 4)),
		tx(domain.KindExpense, "Loisirs", "90", day(2024, time.March, 5)),
		tx(domain.KindExpense, "Communication", "90", day(2024, time.March, 6)),
		tx(domain.KindExpense, "Santé", "40", day(2024, time.March, 7)),
		tx(domain.KindExpense, "Divers", "10", day(2024, time.March, 8)),
		// income never counts toward expense categories
		tx(domain.KindIncome, "Salaire", "5000", day(2024, time.March, 9)),
	}

	summary := ComputeMonthlySummary(march2024, transactions)

	require.Len(t, summary.TopExpenseCategories, 5)
	expected := []CategoryTotal{
		{Category: "Logement", Total: dec("800")},
		{Category: "Nourriture", Total: dec("250")},
		{Category: "Communication", Total: dec("90")},
		{Category: "Loisirs", Total: dec("90")},
		{Category: "Transport", Total: dec("90")},
	}
	for i, want := range expected {
		got := summary.TopExpenseCategories[i]
		assert.Equal(t, want.Category, got.Category, "position %d", i)
		assertDecimal(t, want.Total.String(), got.Total, want.Category)
	}
}

func TestComputeTrend_CalendarMonthsMostRecentFirst(t *testing.T) {
	anchor := domain.MonthOf(time.Date(2024, time.March, 31, 22, 0, 0, 0, time.UTC))
	transactions := []domain.Transaction{
		tx(domain.KindIncome, "Salaire", "1000", day(2024, time.March, 31)),
		tx(domain.KindExpense, "Nourriture", "300", day(2024, time.March, 1)),
		tx(domain.KindIncome, "Salaire", "900", day(2024, time.February, 29)),
		tx(domain.KindExpense, "Logement", "1200", day(2024, time.January, 31)),
		tx(domain.KindIncome, "Bonus", "50", day(2023, time.December, 1)),
		// outside a 4 month window
		tx(domain.KindIncome, "Salaire", "7777", day(2023, time.November, 30)),
	}

	points, err := ComputeTrend(anchor, 4, transactions)
	require.NoError(t, err)
	require.Len(t, points, 4)

	months := make([]string, len(points))
	for i, p := range points {
		months[i] = p.Month.String()
	}
	assert.Equal(t, []string{"2024-03", "2024-02", "2024-01", "2023-12"}, months)

	assertDecimal(t, "700", points[0].Balance, "March balance")
	assertDecimal(t, "900", points[1].Revenues, "February revenues")
	assertDecimal(t, "0", points[1].Expenses, "February expenses")
	assertDecimal(t, "-1200", points[2].Balance, "January balance")
	assertDecimal(t, "50", points[3].Revenues, "December revenues")
}

func TestComputeTrend_RejectsNonPositiveWindow(t *testing.T) {
	for _, window := range []int{0, -1} {
		points, err := ComputeTrend(march2024, window, nil)
		assert.ErrorIs(t, err, financeErrors.ErrInvalidWindow)
		assert.True(t, financeErrors.IsValidationError(err))
		assert.Nil(t, points)
	}
}

func TestComputeTrend_EmptyMonthsAreZero(t *testing.T) {
	points, err := ComputeTrend(march2024, DefaultTrendWindow, nil)
	require.NoError(t, err)
	require.Len(t, points, DefaultTrendWindow)
	for _, p := range points {
		assertDecimal(t, "0", p.Balance, p.Month.String()+" balance")
	}
	assert.Equal(t, "2023-10", points[DefaultTrendWindow-1].Month.String())
}

func TestTrendRange(t *testing.T) {
	from, to := TrendRange(march2024, 6)
	assert.Equal(t, time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), to)
}

func budget(category, amount string, month domain.Month) domain.Budget {
	return domain.Budget{ID: uuid.New(), Category: category, Amount: dec(amount), Month: month}
}

func TestComputeBudgetAlerts_WarningScenario(t *testing.T) {
	budgets := []domain.Budget{budget("Nourriture", "200", march2024)}
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Nourriture", "100", day(2024, time.March, 3)),
		tx(domain.KindExpense, "Nourriture", "80", day(2024, time.March, 17)),
		tx(domain.KindExpense, "Nourriture", "500", day(2024, time.April, 1)),
		tx(domain.KindIncome, "Nourriture", "500", day(2024, time.March, 2)),
	}

	alerts := ComputeBudgetAlerts(march2024, budgets, transactions)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, "Nourriture", alert.Category)
	assert.Equal(t, budgets[0].ID.String(), alert.BudgetID)
	assertDecimal(t, "200", alert.BudgetAmount, "budget amount")
	assertDecimal(t, "180", alert.SpentAmount, "spent amount")
	assertDecimal(t, "90", alert.Percentage, "percentage")
	assert.Equal(t, StatusWarning, alert.Status)
}

func TestComputeBudgetAlerts_StatusBoundaries(t *testing.T) {
	testCases := []struct {
		spent  string
		status AlertStatus
	}{
		{spent: "0", status: StatusOK},
		{spent: "80", status: StatusOK},
		{spent: "80.01", status: StatusWarning},
		{spent: "100", status: StatusWarning},
		{spent: "100.01", status: StatusExceeded},
		{spent: "250", status: StatusExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.spent, func(t *testing.T) {
			budgets := []domain.Budget{budget("Loisirs", "100", march2024)}
			var transactions []domain.Transaction
			if !dec(tc.spent).IsZero() {
				transactions = append(transactions, tx(domain.KindExpense, "Loisirs", tc.spent, day(2024, time.March, 12)))
			}

			alerts := ComputeBudgetAlerts(march2024, budgets, transactions)

			require.Len(t, alerts, 1)
			assert.Equal(t, tc.status, alerts[0].Status)
			assertDecimal(t, tc.spent, alerts[0].Percentage, "percentage")
		})
	}
}

func TestComputeBudgetAlerts_ClassifiesBeforeRounding(t *testing.T) {
	// 100.004 % rounds to 100.00 but is still over budget
	budgets := []domain.Budget{budget("Logement", "250000", march2024)}
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Logement", "250010", day(2024, time.March, 1)),
	}

	alerts := ComputeBudgetAlerts(march2024, budgets, transactions)

	require.Len(t, alerts, 1)
	assertDecimal(t, "100", alerts[0].Percentage, "percentage")
	assert.Equal(t, StatusExceeded, alerts[0].Status)
}

func TestComputeBudgetAlerts_OnePerBudgetOfMonth(t *testing.T) {
	april := march2024.AddMonths(1)
	budgets := []domain.Budget{
		budget("Nourriture", "200", march2024),
		budget("Transport", "50", march2024),
		budget("Nourriture", "300", april),
	}
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Transport", "60", day(2024, time.March, 3)),
		// overspent but without a budget
		tx(domain.KindExpense, "Loisirs", "900", day(2024, time.March, 3)),
	}

	alerts := ComputeBudgetAlerts(march2024, budgets, transactions)

	require.Len(t, alerts, 2)
	assert.Equal(t, "Nourriture", alerts[0].Category)
	assert.Equal(t, StatusOK, alerts[0].Status)
	assertDecimal(t, "0", alerts[0].SpentAmount, "Nourriture spent")
	assert.Equal(t, "Transport", alerts[1].Category)
	assert.Equal(t, StatusExceeded, alerts[1].Status)
	assertDecimal(t, "120", alerts[1].Percentage, "Transport percentage")
}

func TestComputeBudgetAlerts_NoBudgets(t *testing.T) {
	transactions := []domain.Transaction{
		tx(domain.KindExpense, "Nourriture", "10", day(2024, time.March, 3)),
	}

	alerts := ComputeBudgetAlerts(march2024, nil, transactions)

	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestUtilisation_NonPositiveLimit(t *testing.T) {
	assertDecimal(t, "0", Utilisation(dec("10"), decimal.Zero), "utilisation")
	assert.Equal(t, StatusOK, Classify(Utilisation(dec("10"), dec("-5"))))
}
