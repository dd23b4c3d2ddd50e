package core

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

type (
	// Band classifies budget usage for display: green under 75%,
	// yellow from 75% through 100% inclusive, red above 100%.
	Band string

	// CategoryTotal is an amount aggregated by category. Limit and
	// Remaining are set only for expense categories that have a budget
	// in the summarized month.
	CategoryTotal struct {
		CategoryID int64
		Name       string
		Total      Money
		Limit      *Money
		Remaining  *Money
	}

	// AccountBalance is a point-in-time balance for one account.
	AccountBalance struct {
		AccountID int64
		Name      string
		Kind      AccountKind
		Balance   Money
	}

	// MonthlySummary aggregates one owner's postings for a calendar month.
	MonthlySummary struct {
		Year              int
		Month             int // 1-12
		TotalIncome       Money
		TotalExpense      Money
		NetSavings        Money
		IncomeByCategory  []CategoryTotal
		ExpenseByCategory []CategoryTotal
		AccountBalances   []AccountBalance
	}

	// MonthTotals is one row of an annual breakdown.
	MonthTotals struct {
		Month   int // 1-12
		Income  Money
		Expense Money
		Savings Money
	}

	// AnnualSummary aggregates a full calendar year: twelve monthly rows
	// in January-to-December order plus year totals and category totals.
	AnnualSummary struct {
		Year              int
		TotalIncome       Money
		TotalExpense      Money
		NetSavings        Money
		Months            []MonthTotals
		IncomeByCategory  []CategoryTotal
		ExpenseByCategory []CategoryTotal
	}

	// BudgetStatus reports usage of one category budget for one month.
	BudgetStatus struct {
		BudgetID     int64
		CategoryID   int64
		CategoryName string
		Month        int
		Year         int
		Limit        Money
		Spent        Money
		Remaining    Money // negative when over budget
		Ratio        float64
		Band         Band
	}
)

// BandFor maps a spent/limit ratio to its display band. The 75% boundary
// belongs to yellow and the 100% boundary belongs to yellow as well.
func BandFor(ratio float64) Band {
	switch {
	case ratio < 0.75:
		return BandGreen
	case ratio <= 1.0:
		return BandYellow
	default:
		return BandRed
	}
}
