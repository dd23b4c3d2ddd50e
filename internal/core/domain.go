package core

import (
	"strings"
	"time"
)

const (
	Checking   AccountKind = "checking"
	Savings    AccountKind = "savings"
	Credit     AccountKind = "credit"
	Cash       AccountKind = "cash"
	Investment AccountKind = "investment"
)

const (
	Income  Flow = "income"
	Expense Flow = "expense"
)

type (
	// AccountKind classifies a bank account.
	AccountKind string

	// Flow is the direction of a category or transaction: income or expense.
	Flow string

	// Date is a timezone-naive calendar date.
	Date struct {
		time.Time
	}

	// Account is a user-owned bank account with a cached balance.
	// Balance always equals Opening plus the signed sum of live postings.
	Account struct {
		ID        int64
		OwnerID   int64
		Name      string
		Kind      AccountKind
		BankName  string
		Opening   Money
		Balance   Money
		SetupDate Date
		CreatedAt time.Time
	}

	// Category groups transactions for reporting and budgeting.
	Category struct {
		ID          int64
		OwnerID     int64
		Name        string
		Kind        Flow
		Description string
	}

	// Tag is a free-form label an owner attaches to transactions,
	// orthogonal to categories.
	Tag struct {
		ID      int64
		OwnerID int64
		Name    string
	}

	// Transaction is a single income or expense posting against an account.
	Transaction struct {
		ID          int64
		OwnerID     int64
		Kind        Flow
		Amount      Money
		CategoryID  int64
		AccountID   int64
		Date        Date
		Description string
		Tags        []Tag
	}

	// Transfer moves funds between two accounts of the same owner.
	Transfer struct {
		ID            int64
		OwnerID       int64
		FromAccountID int64
		ToAccountID   int64
		Amount        Money
		Date          Date
		Description   string
	}

	// Budget is a monthly spending limit for an expense category.
	Budget struct {
		ID         int64
		OwnerID    int64
		CategoryID int64
		Month      int
		Year       int
		Limit      Money
	}
)

func (k AccountKind) Valid() bool {
	switch k {
	case Checking, Savings, Credit, Cash, Investment:
		return true
	}
	return false
}

func (f Flow) Valid() bool {
	return f == Income || f == Expense
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if len(name) == 0 || len(name) > 100 {
		return ErrEmptyName
	}
	if !a.Kind.Valid() {
		return ErrInvalidAccountKind
	}
	return nil
}

func (g Tag) Validate() error {
	name := strings.TrimSpace(g.Name)
	if len(name) == 0 || len(name) > 50 {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if len(name) == 0 || len(name) > 100 {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidCategoryKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidCategoryKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrAccountNotFound
	}
	if t.CategoryID <= 0 {
		return ErrCategoryNotFound
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (tr Transfer) Validate() error {
	if err := tr.Amount.Validate(); err != nil {
		return err
	}
	if tr.FromAccountID <= 0 || tr.ToAccountID <= 0 {
		return ErrAccountNotFound
	}
	if tr.FromAccountID == tr.ToAccountID {
		return ErrSameAccount
	}
	if err := tr.Date.Validate(); err != nil {
		return err
	}
	// Description is optional on transfers.
	if len(tr.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return ErrCategoryNotFound
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1900 || b.Year > 9999 {
		return ErrInvalidDate
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	return nil
}
