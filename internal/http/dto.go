package http

import (
	"time"

	"bilancio/internal/core"
)

// Request payloads. Amounts arrive as decimal strings so the handlers
// can parse them into cents without floating point on the way in.

type (
	accountRequest struct {
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		BankName       string `json:"bank_name"`
		OpeningBalance string `json:"opening_balance"`
		SetupDate      string `json:"setup_date"`
	}

	categoryRequest struct {
		Name        string `json:"name"`
		Kind        string `json:"kind"`
		Description string `json:"description"`
	}

	postingRequest struct {
		AccountID   int64   `json:"account_id"`
		CategoryID  int64   `json:"category_id"`
		Amount      string  `json:"amount"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		TagIDs      []int64 `json:"tag_ids"`
	}

	tagRequest struct {
		Name string `json:"name"`
	}

	transactionUpdateRequest struct {
		Kind string `json:"kind"`
		postingRequest
	}

	transferRequest struct {
		FromAccountID int64  `json:"from_account_id"`
		ToAccountID   int64  `json:"to_account_id"`
		Amount        string `json:"amount"`
		Date          string `json:"date"`
		Description   string `json:"description"`
	}

	budgetRequest struct {
		CategoryID int64  `json:"category_id"`
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		Limit      string `json:"limit"`
	}

	budgetCopyRequest struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
)

// Response shapes. Amounts leave as decimal strings, mirroring input.

type (
	accountResponse struct {
		ID             int64     `json:"id"`
		Name           string    `json:"name"`
		Kind           string    `json:"kind"`
		BankName       string    `json:"bank_name,omitempty"`
		OpeningBalance string    `json:"opening_balance"`
		Balance        string    `json:"balance"`
		SetupDate      string    `json:"setup_date,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	categoryResponse struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Kind        string `json:"kind"`
		Description string `json:"description,omitempty"`
	}

	tagResponse struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	transactionResponse struct {
		ID          int64         `json:"id"`
		Kind        string        `json:"kind"`
		Amount      string        `json:"amount"`
		CategoryID  int64         `json:"category_id"`
		AccountID   int64         `json:"account_id"`
		Date        string        `json:"date"`
		Description string        `json:"description"`
		Tags        []tagResponse `json:"tags,omitempty"`
	}

	transferResponse struct {
		ID            int64  `json:"id"`
		FromAccountID int64  `json:"from_account_id"`
		ToAccountID   int64  `json:"to_account_id"`
		Amount        string `json:"amount"`
		Date          string `json:"date"`
		Description   string `json:"description,omitempty"`
	}

	budgetResponse struct {
		ID         int64  `json:"id"`
		CategoryID int64  `json:"category_id"`
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		Limit      string `json:"limit"`
	}

	categoryTotalResponse struct {
		CategoryID int64   `json:"category_id"`
		Name       string  `json:"name"`
		Total      string  `json:"total"`
		Limit      *string `json:"limit,omitempty"`
		Remaining  *string `json:"remaining,omitempty"`
	}

	accountBalanceResponse struct {
		AccountID int64  `json:"account_id"`
		Name      string `json:"name"`
		Kind      string `json:"kind"`
		Balance   string `json:"balance"`
	}

	monthlySummaryResponse struct {
		Year              int                      `json:"year"`
		Month             int                      `json:"month"`
		TotalIncome       string                   `json:"total_income"`
		TotalExpense      string                   `json:"total_expense"`
		NetSavings        string                   `json:"net_savings"`
		IncomeByCategory  []categoryTotalResponse  `json:"income_by_category"`
		ExpenseByCategory []categoryTotalResponse  `json:"expense_by_category"`
		AccountBalances   []accountBalanceResponse `json:"account_balances"`
	}

	monthTotalsResponse struct {
		Month   int    `json:"month"`
		Income  string `json:"income"`
		Expense string `json:"expense"`
		Savings string `json:"savings"`
	}

	annualSummaryResponse struct {
		Year              int                     `json:"year"`
		TotalIncome       string                  `json:"total_income"`
		TotalExpense      string                  `json:"total_expense"`
		NetSavings        string                  `json:"net_savings"`
		Months            []monthTotalsResponse   `json:"months"`
		IncomeByCategory  []categoryTotalResponse `json:"income_by_category"`
		ExpenseByCategory []categoryTotalResponse `json:"expense_by_category"`
	}

	budgetStatusResponse struct {
		BudgetID     int64   `json:"budget_id"`
		CategoryID   int64   `json:"category_id"`
		CategoryName string  `json:"category_name"`
		Month        int     `json:"month"`
		Year         int     `json:"year"`
		Limit        string  `json:"limit"`
		Spent        string  `json:"spent"`
		Remaining    string  `json:"remaining"`
		Ratio        float64 `json:"ratio"`
		Band         string  `json:"band"`
	}
)

func toAccountResponse(a core.Account) accountResponse {
	resp := accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		BankName:       a.BankName,
		OpeningBalance: a.Opening.String(),
		Balance:        a.Balance.String(),
		CreatedAt:      a.CreatedAt,
	}
	if !a.SetupDate.IsZero() {
		resp.SetupDate = a.SetupDate.String()
	}
	return resp
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        string(c.Kind),
		Description: c.Description,
	}
}

func toTagResponse(g core.Tag) tagResponse {
	return tagResponse{ID: g.ID, Name: g.Name}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.String(),
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
		Date:        t.Date.String(),
		Description: t.Description,
	}
	for _, g := range t.Tags {
		resp.Tags = append(resp.Tags, toTagResponse(g))
	}
	return resp
}

func toTransferResponse(tr core.Transfer) transferResponse {
	return transferResponse{
		ID:            tr.ID,
		FromAccountID: tr.FromAccountID,
		ToAccountID:   tr.ToAccountID,
		Amount:        tr.Amount.String(),
		Date:          tr.Date.String(),
		Description:   tr.Description,
	}
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Month:      b.Month,
		Year:       b.Year,
		Limit:      b.Limit.String(),
	}
}

func toCategoryTotals(cts []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, len(cts))
	for i, ct := range cts {
		out[i] = categoryTotalResponse{
			CategoryID: ct.CategoryID,
			Name:       ct.Name,
			Total:      ct.Total.String(),
		}
		if ct.Limit != nil {
			lim := ct.Limit.String()
			out[i].Limit = &lim
		}
		if ct.Remaining != nil {
			rem := ct.Remaining.String()
			out[i].Remaining = &rem
		}
	}
	return out
}

func toMonthlySummaryResponse(s core.MonthlySummary) monthlySummaryResponse {
	balances := make([]accountBalanceResponse, len(s.AccountBalances))
	for i, ab := range s.AccountBalances {
		balances[i] = accountBalanceResponse{
			AccountID: ab.AccountID,
			Name:      ab.Name,
			Kind:      string(ab.Kind),
			Balance:   ab.Balance.String(),
		}
	}
	return monthlySummaryResponse{
		Year:              s.Year,
		Month:             s.Month,
		TotalIncome:       s.TotalIncome.String(),
		TotalExpense:      s.TotalExpense.String(),
		NetSavings:        s.NetSavings.String(),
		IncomeByCategory:  toCategoryTotals(s.IncomeByCategory),
		ExpenseByCategory: toCategoryTotals(s.ExpenseByCategory),
		AccountBalances:   balances,
	}
}

func toAnnualSummaryResponse(s core.AnnualSummary) annualSummaryResponse {
	months := make([]monthTotalsResponse, len(s.Months))
	for i, m := range s.Months {
		months[i] = monthTotalsResponse{
			Month:   m.Month,
			Income:  m.Income.String(),
			Expense: m.Expense.String(),
			Savings: m.Savings.String(),
		}
	}
	return annualSummaryResponse{
		Year:              s.Year,
		TotalIncome:       s.TotalIncome.String(),
		TotalExpense:      s.TotalExpense.String(),
		NetSavings:        s.NetSavings.String(),
		Months:            months,
		IncomeByCategory:  toCategoryTotals(s.IncomeByCategory),
		ExpenseByCategory: toCategoryTotals(s.ExpenseByCategory),
	}
}

func toBudgetStatusResponse(st core.BudgetStatus) budgetStatusResponse {
	return budgetStatusResponse{
		BudgetID:     st.BudgetID,
		CategoryID:   st.CategoryID,
		CategoryName: st.CategoryName,
		Month:        st.Month,
		Year:         st.Year,
		Limit:        st.Limit.String(),
		Spent:        st.Spent.String(),
		Remaining:    st.Remaining.String(),
		Ratio:        st.Ratio,
		Band:         string(st.Band),
	}
}
