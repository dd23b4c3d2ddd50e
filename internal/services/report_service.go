package services

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// ReportService is the aggregation engine: stateless, read-only views
// computed from live postings on every call.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// MonthlySummary aggregates one calendar month: totals, net savings,
// per-category breakdowns and current account balances. Expense
// categories that have a budget for the month carry limit and remaining.
func (s *ReportService) MonthlySummary(ctx context.Context, ownerID int64, month, year int) (core.MonthlySummary, error) {
	if month < 1 || month > 12 {
		return core.MonthlySummary{}, core.ErrInvalidMonth
	}
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month+1, 0) // last day of the month

	summary := core.MonthlySummary{Year: year, Month: month}

	incomeTotal, err := s.storage.SumFlow(ctx, ownerID, core.Income, from, to)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	expenseTotal, err := s.storage.SumFlow(ctx, ownerID, core.Expense, from, to)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	summary.TotalIncome = core.Money{Cents: incomeTotal}
	summary.TotalExpense = core.Money{Cents: expenseTotal}
	summary.NetSavings = core.Money{Cents: incomeTotal - expenseTotal}

	summary.IncomeByCategory, err = s.storage.CategoryTotals(ctx, ownerID, core.Income, from, to)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	summary.ExpenseByCategory, err = s.storage.CategoryTotals(ctx, ownerID, core.Expense, from, to)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	// Attach budget limits to the expense rows that have one this month.
	budgets, err := s.storage.ListBudgets(ctx, ownerID, month, year)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}
	limits := make(map[int64]int64, len(budgets))
	for _, b := range budgets {
		limits[b.CategoryID] = b.Limit.Cents
	}
	for i := range summary.ExpenseByCategory {
		ct := &summary.ExpenseByCategory[i]
		if limit, ok := limits[ct.CategoryID]; ok {
			ct.Limit = &core.Money{Cents: limit}
			ct.Remaining = &core.Money{Cents: limit - ct.Total.Cents}
		}
	}

	summary.AccountBalances, err = s.storage.AccountBalances(ctx, ownerID)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	return summary, nil
}

// AnnualSummary aggregates a calendar year. The breakdown always holds
// twelve rows in January-to-December order; months without postings
// report zero totals rather than being omitted.
func (s *ReportService) AnnualSummary(ctx context.Context, ownerID int64, year int) (core.AnnualSummary, error) {
	income, expense, err := s.storage.MonthlyFlowTotals(ctx, ownerID, year)
	if err != nil {
		return core.AnnualSummary{}, fmt.Errorf("annual summary: %w", err)
	}

	summary := core.AnnualSummary{Year: year, Months: make([]core.MonthTotals, 0, 12)}
	var incomeTotal, expenseTotal int64
	for m := 1; m <= 12; m++ {
		summary.Months = append(summary.Months, core.MonthTotals{
			Month:   m,
			Income:  core.Money{Cents: income[m]},
			Expense: core.Money{Cents: expense[m]},
			Savings: core.Money{Cents: income[m] - expense[m]},
		})
		incomeTotal += income[m]
		expenseTotal += expense[m]
	}
	summary.TotalIncome = core.Money{Cents: incomeTotal}
	summary.TotalExpense = core.Money{Cents: expenseTotal}
	summary.NetSavings = core.Money{Cents: incomeTotal - expenseTotal}

	from := core.NewDate(year, 1, 1)
	to := core.NewDate(year, 12, 31)
	summary.IncomeByCategory, err = s.storage.CategoryTotals(ctx, ownerID, core.Income, from, to)
	if err != nil {
		return core.AnnualSummary{}, fmt.Errorf("annual summary: %w", err)
	}
	summary.ExpenseByCategory, err = s.storage.CategoryTotals(ctx, ownerID, core.Expense, from, to)
	if err != nil {
		return core.AnnualSummary{}, fmt.Errorf("annual summary: %w", err)
	}

	return summary, nil
}

// BudgetStatus reports usage of one category's budget for one month.
// A month with no budget yields ErrBudgetNotFound: no budget means no
// status, which is distinct from a fully unspent budget.
func (s *ReportService) BudgetStatus(ctx context.Context, ownerID, categoryID int64, month, year int) (core.BudgetStatus, error) {
	if month < 1 || month > 12 {
		return core.BudgetStatus{}, core.ErrInvalidMonth
	}
	budget, err := s.storage.FindBudget(ctx, ownerID, categoryID, month, year)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	cat, err := s.storage.GetCategory(ctx, ownerID, categoryID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	spent, err := s.storage.SpentForCategory(ctx, ownerID, categoryID, month, year)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("budget status: %w", err)
	}

	ratio := float64(spent) / float64(budget.Limit.Cents)
	return core.BudgetStatus{
		BudgetID:     budget.ID,
		CategoryID:   categoryID,
		CategoryName: cat.Name,
		Month:        month,
		Year:         year,
		Limit:        budget.Limit,
		Spent:        core.Money{Cents: spent},
		Remaining:    core.Money{Cents: budget.Limit.Cents - spent},
		Ratio:        ratio,
		Band:         core.BandFor(ratio),
	}, nil
}
