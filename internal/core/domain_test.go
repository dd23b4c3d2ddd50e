package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 1 || d.Day() != 10 {
		t.Errorf("ParseDate = %d-%d-%d, want 2024-1-10", d.Year(), d.Month(), d.Day())
	}
	if d.String() != "2024-01-10" {
		t.Errorf("String() = %q, want 2024-01-10", d.String())
	}

	for _, bad := range []string{"", "10/01/2024", "2024-13-01", "2024-02-30", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestNewDateMonthEnd(t *testing.T) {
	// Day zero of the next month is the last day of that month.
	tests := []struct {
		year, month, want int
	}{
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		d := NewDate(tt.year, tt.month+1, 0)
		if d.Day() != tt.want || d.Month() != tt.month {
			t.Errorf("NewDate(%d, %d, 0) = %s, want last day %d", tt.year, tt.month+1, d, tt.want)
		}
	}
}

func TestAccountValidate(t *testing.T) {
	valid := Account{Name: "Main checking", Kind: Checking}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid account: %v", err)
	}

	tests := []struct {
		name    string
		account Account
		wantErr error
	}{
		{name: "empty name", account: Account{Name: "  ", Kind: Checking}, wantErr: ErrEmptyName},
		{name: "name too long", account: Account{Name: strings.Repeat("x", 101), Kind: Checking}, wantErr: ErrEmptyName},
		{name: "unknown kind", account: Account{Name: "ok", Kind: "bitcoin"}, wantErr: ErrInvalidAccountKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.account.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		Kind:        Expense,
		Amount:      Money{Cents: 1500},
		CategoryID:  1,
		AccountID:   1,
		Date:        NewDate(2024, 1, 10),
		Description: "Groceries",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid transaction: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "bad kind", mutate: func(tr *Transaction) { tr.Kind = "refund" }, wantErr: ErrValidation},
		{name: "zero amount", mutate: func(tr *Transaction) { tr.Amount = Money{} }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(tr *Transaction) { tr.Amount = Money{Cents: -10} }, wantErr: ErrInvalidAmount},
		{name: "missing account", mutate: func(tr *Transaction) { tr.AccountID = 0 }, wantErr: ErrAccountNotFound},
		{name: "missing category", mutate: func(tr *Transaction) { tr.CategoryID = 0 }, wantErr: ErrCategoryNotFound},
		{name: "zero date", mutate: func(tr *Transaction) { tr.Date = Date{} }, wantErr: ErrInvalidDate},
		{name: "empty description", mutate: func(tr *Transaction) { tr.Description = " " }, wantErr: ErrEmptyDescription},
		{name: "description too long", mutate: func(tr *Transaction) { tr.Description = strings.Repeat("x", 201) }, wantErr: ErrDescriptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base
			tt.mutate(&tr)
			if err := tr.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransferValidate(t *testing.T) {
	base := Transfer{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        Money{Cents: 30000},
		Date:          NewDate(2024, 1, 15),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid transfer: %v", err)
	}

	same := base
	same.ToAccountID = same.FromAccountID
	if err := same.Validate(); !errors.Is(err, ErrSameAccount) {
		t.Errorf("same-account transfer = %v, want ErrSameAccount", err)
	}

	// Transfers may omit the description.
	noDesc := base
	noDesc.Description = ""
	if err := noDesc.Validate(); err != nil {
		t.Errorf("transfer without description should be valid: %v", err)
	}

	longDesc := base
	longDesc.Description = strings.Repeat("x", 201)
	if err := longDesc.Validate(); !errors.Is(err, ErrDescriptionTooLong) {
		t.Errorf("over-long transfer description = %v, want ErrDescriptionTooLong", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	base := Budget{CategoryID: 1, Month: 6, Year: 2024, Limit: Money{Cents: 20000}}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid budget: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Budget)
		wantErr error
	}{
		{name: "month zero", mutate: func(b *Budget) { b.Month = 0 }, wantErr: ErrInvalidMonth},
		{name: "month thirteen", mutate: func(b *Budget) { b.Month = 13 }, wantErr: ErrInvalidMonth},
		{name: "year out of range", mutate: func(b *Budget) { b.Year = 1800 }, wantErr: ErrInvalidDate},
		{name: "zero limit", mutate: func(b *Budget) { b.Limit = Money{} }, wantErr: ErrInvalidAmount},
		{name: "missing category", mutate: func(b *Budget) { b.CategoryID = 0 }, wantErr: ErrCategoryNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.mutate(&b)
			if err := b.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
