package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	ledger := services.NewLedgerService(repo, nil)
	t.Cleanup(func() { ledger.Close() })

	srv := NewServer(":0", ledger, services.NewReportService(repo))
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", "1")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func createAccount(t *testing.T, srv *Server, name, opening string) accountResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/accounts", accountRequest{
		Name: name, Kind: "checking", OpeningBalance: opening,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status = %d: %s", rr.Code, rr.Body.String())
	}
	return decode[accountResponse](t, rr)
}

func createCategory(t *testing.T, srv *Server, name, kind string) categoryResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/categories", categoryRequest{Name: name, Kind: kind})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status = %d: %s", rr.Code, rr.Body.String())
	}
	return decode[categoryResponse](t, rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status without header = %d, want 401", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status with malformed header = %d, want 401", rr.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	created := createAccount(t, srv, "Main checking", "1000.00")
	if created.Balance != "1000.00" {
		t.Errorf("initial balance = %s, want 1000.00", created.Balance)
	}

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/accounts/%d", created.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get account status = %d", rr.Code)
	}
	got := decode[accountResponse](t, rr)
	if got.Name != "Main checking" || got.OpeningBalance != "1000.00" {
		t.Errorf("got %+v", got)
	}

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/accounts/%d", created.ID), accountRequest{
		Name: "Renamed", Kind: "checking", BankName: "ACME Bank",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update account status = %d: %s", rr.Code, rr.Body.String())
	}
	updated := decode[accountResponse](t, rr)
	if updated.Name != "Renamed" || updated.BankName != "ACME Bank" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Balance != "1000.00" {
		t.Errorf("balance after descriptive update = %s, want 1000.00", updated.Balance)
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/accounts/%d", created.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete account status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/accounts/%d", created.ID), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get deleted account status = %d, want 404", rr.Code)
	}
}

func TestPostExpenseMovesBalance(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "1000.00")
	category := createCategory(t, srv, "Groceries", "expense")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: category.ID,
		Amount: "150.00", Date: "2024-01-10", Description: "weekly shop",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post expense status = %d: %s", rr.Code, rr.Body.String())
	}
	posted := decode[transactionResponse](t, rr)
	if posted.Amount != "150.00" || posted.Kind != "expense" {
		t.Errorf("posted = %+v", posted)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/accounts/%d", account.ID), nil)
	got := decode[accountResponse](t, rr)
	if got.Balance != "850.00" {
		t.Errorf("balance = %s, want 850.00", got.Balance)
	}
}

func TestPostExpenseValidation(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "0")
	category := createCategory(t, srv, "Groceries", "expense")

	tests := []struct {
		name string
		req  postingRequest
		want int
	}{
		{
			name: "bad amount",
			req: postingRequest{
				AccountID: account.ID, CategoryID: category.ID,
				Amount: "abc", Date: "2024-01-10", Description: "x",
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "negative amount",
			req: postingRequest{
				AccountID: account.ID, CategoryID: category.ID,
				Amount: "-5.00", Date: "2024-01-10", Description: "x",
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			req: postingRequest{
				AccountID: account.ID, CategoryID: category.ID,
				Amount: "5.00", Date: "10/01/2024", Description: "x",
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown account",
			req: postingRequest{
				AccountID: 999, CategoryID: category.ID,
				Amount: "5.00", Date: "2024-01-10", Description: "x",
			},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/expenses", tt.req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestCategoryKindMismatch(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "0")
	salary := createCategory(t, srv, "Salary", "income")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: salary.ID,
		Amount: "5.00", Date: "2024-01-10", Description: "wrong kind",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestTransferEndpoints(t *testing.T) {
	srv := newTestServer(t)

	from := createAccount(t, srv, "Checking", "1000.00")
	to := createAccount(t, srv, "Savings", "0")

	rr := doJSON(t, srv, http.MethodPost, "/transfers", transferRequest{
		FromAccountID: from.ID, ToAccountID: to.ID,
		Amount: "300.00", Date: "2024-01-15",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post transfer status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/accounts/%d", from.ID), nil)
	if got := decode[accountResponse](t, rr); got.Balance != "700.00" {
		t.Errorf("source balance = %s, want 700.00", got.Balance)
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/accounts/%d", to.ID), nil)
	if got := decode[accountResponse](t, rr); got.Balance != "300.00" {
		t.Errorf("destination balance = %s, want 300.00", got.Balance)
	}

	// Same-account transfer fails validation.
	rr = doJSON(t, srv, http.MethodPost, "/transfers", transferRequest{
		FromAccountID: from.ID, ToAccountID: from.ID,
		Amount: "10.00", Date: "2024-01-15",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("same-account transfer status = %d, want 422", rr.Code)
	}
}

func TestDeleteAccountConflict(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "0")
	category := createCategory(t, srv, "Groceries", "expense")

	rr := doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: category.ID,
		Amount: "5.00", Date: "2024-01-10", Description: "x",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post expense status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/accounts/%d", account.ID), nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("delete referenced account status = %d, want 409", rr.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "0")
	category := createCategory(t, srv, "Groceries", "expense")

	rr := doJSON(t, srv, http.MethodPost, "/budgets", budgetRequest{
		CategoryID: category.ID, Month: 1, Year: 2024, Limit: "200.00",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d: %s", rr.Code, rr.Body.String())
	}
	budget := decode[budgetResponse](t, rr)

	// Duplicate for the same month fails as validation.
	rr = doJSON(t, srv, http.MethodPost, "/budgets", budgetRequest{
		CategoryID: category.ID, Month: 1, Year: 2024, Limit: "300.00",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate budget status = %d, want 422", rr.Code)
	}

	// Spend exactly 75% of the limit, then read the status.
	rr = doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: category.ID,
		Amount: "150.00", Date: "2024-01-10", Description: "weekly shop",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post expense status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/reports/budget?category_id=%d&month=1&year=2024", category.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status = %d: %s", rr.Code, rr.Body.String())
	}
	status := decode[budgetStatusResponse](t, rr)
	if status.Band != "yellow" {
		t.Errorf("band = %s, want yellow", status.Band)
	}
	if status.Spent != "150.00" || status.Remaining != "50.00" {
		t.Errorf("spent/remaining = %s/%s, want 150.00/50.00", status.Spent, status.Remaining)
	}

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/budgets/%d", budget.ID), budgetRequest{
		CategoryID: category.ID, Month: 1, Year: 2024, Limit: "500.00",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update budget status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[budgetResponse](t, rr); got.Limit != "500.00" {
		t.Errorf("updated limit = %s, want 500.00", got.Limit)
	}
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "1000.00")
	salary := createCategory(t, srv, "Salary", "income")
	groceries := createCategory(t, srv, "Groceries", "expense")

	rr := doJSON(t, srv, http.MethodPost, "/incomes", postingRequest{
		AccountID: account.ID, CategoryID: salary.ID,
		Amount: "2000.00", Date: "2024-01-05", Description: "salary",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post income status = %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: groceries.ID,
		Amount: "150.00", Date: "2024-01-10", Description: "weekly shop",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post expense status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/reports/monthly?month=1&year=2024", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("monthly report status = %d: %s", rr.Code, rr.Body.String())
	}
	report := decode[monthlySummaryResponse](t, rr)
	if report.TotalIncome != "2000.00" || report.TotalExpense != "150.00" || report.NetSavings != "1850.00" {
		t.Errorf("totals = %s/%s/%s", report.TotalIncome, report.TotalExpense, report.NetSavings)
	}
	if len(report.AccountBalances) != 1 || report.AccountBalances[0].Balance != "2850.00" {
		t.Errorf("account balances = %+v", report.AccountBalances)
	}
}

func TestAnnualReportEndpoint(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "0")
	salary := createCategory(t, srv, "Salary", "income")

	rr := doJSON(t, srv, http.MethodPost, "/incomes", postingRequest{
		AccountID: account.ID, CategoryID: salary.ID,
		Amount: "2000.00", Date: "2024-03-01", Description: "salary",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post income status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/reports/annual?year=2024", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("annual report status = %d: %s", rr.Code, rr.Body.String())
	}
	report := decode[annualSummaryResponse](t, rr)
	if len(report.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(report.Months))
	}
	if report.Months[2].Income != "2000.00" {
		t.Errorf("March income = %s, want 2000.00", report.Months[2].Income)
	}
	if report.Months[0].Income != "0.00" {
		t.Errorf("January income = %s, want 0.00", report.Months[0].Income)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts",
		bytes.NewBufferString(`{"name":"x","kind":"checking","surprise":true}`))
	req.Header.Set("X-User-ID", "1")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown field status = %d, want 422", rr.Code)
	}
}

func TestTagLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/tags", tagRequest{Name: "vacation"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create tag status = %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[tagResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/tags", tagRequest{Name: "vacation"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate tag status = %d, want 422", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/tags/%d", created.ID), tagRequest{Name: "travel"})
	if rr.Code != http.StatusOK {
		t.Fatalf("rename tag status = %d: %s", rr.Code, rr.Body.String())
	}
	if renamed := decode[tagResponse](t, rr); renamed.Name != "travel" {
		t.Errorf("renamed tag = %q, want travel", renamed.Name)
	}

	rr = doJSON(t, srv, http.MethodGet, "/tags", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list tags status = %d", rr.Code)
	}
	if tags := decode[[]tagResponse](t, rr); len(tags) != 1 || tags[0].Name != "travel" {
		t.Errorf("tags = %+v, want only travel", tags)
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/tags/%d", created.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete tag status = %d, want 204", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/tags/%d", created.ID), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("delete missing tag status = %d, want 404", rr.Code)
	}
}

func TestPostingWithTags(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, "Checking", "1000.00")
	groceries := createCategory(t, srv, "Groceries", "expense")

	rr := doJSON(t, srv, http.MethodPost, "/tags", tagRequest{Name: "essential"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create tag status = %d: %s", rr.Code, rr.Body.String())
	}
	tag := decode[tagResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: groceries.ID,
		Amount: "150.00", Date: "2024-01-10", Description: "weekly shop",
		TagIDs: []int64{tag.ID},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post expense status = %d: %s", rr.Code, rr.Body.String())
	}
	posted := decode[transactionResponse](t, rr)
	if len(posted.Tags) != 1 || posted.Tags[0].Name != "essential" {
		t.Fatalf("posting tags = %+v, want essential", posted.Tags)
	}

	// Unknown tag rejects the posting outright.
	rr = doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: groceries.ID,
		Amount: "10.00", Date: "2024-01-11", Description: "bad tag",
		TagIDs: []int64{9999},
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown tag status = %d, want 404", rr.Code)
	}

	// The tag filter narrows the listing.
	rr = doJSON(t, srv, http.MethodPost, "/expenses", postingRequest{
		AccountID: account.ID, CategoryID: groceries.ID,
		Amount: "20.00", Date: "2024-01-12", Description: "untagged",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post untagged expense status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/transactions?tag_id=%d", tag.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list by tag status = %d", rr.Code)
	}
	if listed := decode[[]transactionResponse](t, rr); len(listed) != 1 || listed[0].ID != posted.ID {
		t.Errorf("tag filter returned %d rows, want the tagged posting", len(listed))
	}
}

func TestCopyBudgetsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	groceries := createCategory(t, srv, "Groceries", "expense")
	rent := createCategory(t, srv, "Rent", "expense")

	for _, categoryID := range []int64{groceries.ID, rent.ID} {
		rr := doJSON(t, srv, http.MethodPost, "/budgets", budgetRequest{
			CategoryID: categoryID, Month: 1, Year: 2024, Limit: "200.00",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("create budget status = %d: %s", rr.Code, rr.Body.String())
		}
	}
	rr := doJSON(t, srv, http.MethodPost, "/budgets", budgetRequest{
		CategoryID: rent.ID, Month: 2, Year: 2024, Limit: "950.00",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create february budget status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, "/budgets/copy", budgetCopyRequest{Month: 2, Year: 2024})
	if rr.Code != http.StatusCreated {
		t.Fatalf("copy budgets status = %d: %s", rr.Code, rr.Body.String())
	}
	copied := decode[[]budgetResponse](t, rr)
	if len(copied) != 1 {
		t.Fatalf("copied %d budgets, want 1", len(copied))
	}
	if copied[0].CategoryID != groceries.ID || copied[0].Limit != "200.00" {
		t.Errorf("copied budget = %+v, want groceries at 200.00", copied[0])
	}

	rr = doJSON(t, srv, http.MethodPost, "/budgets/copy", budgetCopyRequest{Month: 13, Year: 2024})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("copy to month 13 status = %d, want 422", rr.Code)
	}
}

func TestMonthFilterRequiresYear(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/transactions?month=5", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("month without year status = %d, want 422", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/transactions?month=5&year=2024", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("month with year status = %d, want 200", rr.Code)
	}
}
