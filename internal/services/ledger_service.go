// Package services orchestrates the ledger core and the aggregation
// engine over the storage layer, publishing posting events as a side
// channel for the reconcile worker.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// LedgerService owns every mutation of accounts, categories, postings
// and budgets. All balance effects happen inside the storage layer's
// transactions; this layer validates input shape and announces changes.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

// NewLedgerService wires the service. events may be nil; mutations then
// skip event publishing and nothing else changes.
func NewLedgerService(storage *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{storage: storage, events: events}
}

// PostingInput is a user-submitted income or expense posting. TagIDs
// name existing tags of the same owner; on update the set replaces the
// stored one.
type PostingInput struct {
	AccountID   int64
	CategoryID  int64
	Amount      core.Money
	Date        core.Date
	Description string
	TagIDs      []int64
}

// TransferInput is a user-submitted movement between two accounts.
type TransferInput struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        core.Money
	Date          core.Date
	Description   string
}

// PostIncome records an income posting and credits the account.
func (s *LedgerService) PostIncome(ctx context.Context, ownerID int64, in PostingInput) (core.Transaction, error) {
	return s.postTransaction(ctx, ownerID, core.Income, in)
}

// PostExpense records an expense posting and debits the account. There
// is deliberately no check against available funds: overdrawing an
// account is allowed and the balance goes negative.
func (s *LedgerService) PostExpense(ctx context.Context, ownerID int64, in PostingInput) (core.Transaction, error) {
	return s.postTransaction(ctx, ownerID, core.Expense, in)
}

func (s *LedgerService) postTransaction(ctx context.Context, ownerID int64, kind core.Flow, in PostingInput) (core.Transaction, error) {
	t := core.Transaction{
		OwnerID:     ownerID,
		Kind:        kind,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		Date:        in.Date,
		Description: in.Description,
		Tags:        tagRefs(in.TagIDs),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.CreateTransaction(ctx, &t); err != nil {
		return core.Transaction{}, fmt.Errorf("post %s: %w", kind, err)
	}
	s.publish(ctx, "transaction.created", ownerID, t.ID, t.AccountID)
	if len(in.TagIDs) == 0 {
		return t, nil
	}
	// Reload so the returned posting carries tag names, not bare ids.
	return s.storage.GetTransaction(ctx, ownerID, t.ID)
}

// tagRefs turns tag ids into bare Tag values for the storage layer,
// which verifies ownership and fills in the names.
func tagRefs(ids []int64) []core.Tag {
	if len(ids) == 0 {
		return nil
	}
	tags := make([]core.Tag, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, core.Tag{ID: id})
	}
	return tags
}

// UpdateTransaction replaces a posting's fields, rebalancing the
// affected account(s) atomically.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, id int64, kind core.Flow, in PostingInput) (core.Transaction, error) {
	t := core.Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        kind,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		Date:        in.Date,
		Description: in.Description,
		Tags:        tagRefs(in.TagIDs),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	old, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, "transaction.updated", ownerID, t.ID, old.AccountID, t.AccountID)
	return s.storage.GetTransaction(ctx, ownerID, t.ID)
}

// DeleteTransaction removes a posting, restoring the account balance to
// its value before the posting existed.
func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	old, err := s.storage.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	s.publish(ctx, "transaction.deleted", ownerID, id, old.AccountID)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, ownerID int64, kind core.Flow, year, month int, tagID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID, kind, year, month, tagID)
}

// PostTransfer moves funds between two owned accounts. Both balance
// updates and the transfer row commit together or not at all.
func (s *LedgerService) PostTransfer(ctx context.Context, ownerID int64, in TransferInput) (core.Transfer, error) {
	tr := core.Transfer{
		OwnerID:       ownerID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        in.Amount,
		Date:          in.Date,
		Description:   in.Description,
	}
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, err
	}
	if err := s.storage.CreateTransfer(ctx, &tr); err != nil {
		return core.Transfer{}, fmt.Errorf("post transfer: %w", err)
	}
	s.publish(ctx, "transfer.created", ownerID, tr.ID, tr.FromAccountID, tr.ToAccountID)
	return tr, nil
}

func (s *LedgerService) UpdateTransfer(ctx context.Context, ownerID, id int64, in TransferInput) (core.Transfer, error) {
	tr := core.Transfer{
		ID:            id,
		OwnerID:       ownerID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        in.Amount,
		Date:          in.Date,
		Description:   in.Description,
	}
	if err := tr.Validate(); err != nil {
		return core.Transfer{}, err
	}
	old, err := s.storage.GetTransfer(ctx, ownerID, id)
	if err != nil {
		return core.Transfer{}, err
	}
	if err := s.storage.UpdateTransfer(ctx, tr); err != nil {
		return core.Transfer{}, fmt.Errorf("update transfer: %w", err)
	}
	s.publish(ctx, "transfer.updated", ownerID, tr.ID,
		old.FromAccountID, old.ToAccountID, tr.FromAccountID, tr.ToAccountID)
	return tr, nil
}

func (s *LedgerService) DeleteTransfer(ctx context.Context, ownerID, id int64) error {
	old, err := s.storage.DeleteTransfer(ctx, ownerID, id)
	if err != nil {
		return err
	}
	s.publish(ctx, "transfer.deleted", ownerID, id, old.FromAccountID, old.ToAccountID)
	return nil
}

func (s *LedgerService) GetTransfer(ctx context.Context, ownerID, id int64) (core.Transfer, error) {
	return s.storage.GetTransfer(ctx, ownerID, id)
}

func (s *LedgerService) ListTransfers(ctx context.Context, ownerID int64, year, month int) ([]core.Transfer, error) {
	return s.storage.ListTransfers(ctx, ownerID, year, month)
}

// CreateAccount opens an account. The opening balance may be negative
// (debt) or zero; it seeds the cached balance.
func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.storage.CreateAccount(ctx, &a); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateAccount(ctx, a)
}

func (s *LedgerService) DeleteAccount(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteAccount(ctx, ownerID, id)
}

func (s *LedgerService) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	return s.storage.GetAccount(ctx, ownerID, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, ownerID)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.CreateCategory(ctx, &c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *LedgerService) RenameCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.storage.RenameCategory(ctx, c)
}

func (s *LedgerService) DeleteCategory(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteCategory(ctx, ownerID, id)
}

func (s *LedgerService) GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	return s.storage.GetCategory(ctx, ownerID, id)
}

func (s *LedgerService) ListCategories(ctx context.Context, ownerID int64, kind core.Flow) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, ownerID, kind)
}

// CreateTag registers a new label for the owner's postings.
func (s *LedgerService) CreateTag(ctx context.Context, g core.Tag) (core.Tag, error) {
	if err := g.Validate(); err != nil {
		return core.Tag{}, err
	}
	if err := s.storage.CreateTag(ctx, &g); err != nil {
		return core.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return g, nil
}

func (s *LedgerService) RenameTag(ctx context.Context, g core.Tag) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.storage.RenameTag(ctx, g)
}

func (s *LedgerService) DeleteTag(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteTag(ctx, ownerID, id)
}

func (s *LedgerService) GetTag(ctx context.Context, ownerID, id int64) (core.Tag, error) {
	return s.storage.GetTag(ctx, ownerID, id)
}

func (s *LedgerService) ListTags(ctx context.Context, ownerID int64) ([]core.Tag, error) {
	return s.storage.ListTags(ctx, ownerID)
}

// CreateBudget sets a monthly limit. The duplicate check runs before
// any write, so a second budget for the same category and month fails
// validation instead of tripping the database constraint.
func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.CreateBudget(ctx, &b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return b, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateBudget(ctx, b)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteBudget(ctx, ownerID, id)
}

func (s *LedgerService) GetBudget(ctx context.Context, ownerID, id int64) (core.Budget, error) {
	return s.storage.GetBudget(ctx, ownerID, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, ownerID, month, year)
}

// CopyBudgets carries the previous calendar month's budgets over into
// the given month. Categories that already have a budget there keep
// it; only the newly created rows are returned.
func (s *LedgerService) CopyBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.Budget, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	prevMonth, prevYear := month-1, year
	if prevMonth == 0 {
		prevMonth, prevYear = 12, year-1
	}

	previous, err := s.storage.ListBudgets(ctx, ownerID, prevMonth, prevYear)
	if err != nil {
		return nil, fmt.Errorf("copy budgets: %w", err)
	}

	var created []core.Budget
	for _, prev := range previous {
		b := core.Budget{
			OwnerID:    ownerID,
			CategoryID: prev.CategoryID,
			Month:      month,
			Year:       year,
			Limit:      prev.Limit,
		}
		if err := b.Validate(); err != nil {
			return created, err
		}
		err := s.storage.CreateBudget(ctx, &b)
		if errors.Is(err, core.ErrDuplicateBudget) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("copy budgets: %w", err)
		}
		created = append(created, b)
	}

	slog.InfoContext(ctx, "Budgets copied",
		"owner_id", ownerID,
		"from_month", prevMonth,
		"from_year", prevYear,
		"month", month,
		"year", year,
		"created", len(created))
	return created, nil
}

// publish announces a balance change. Failures are logged and swallowed:
// the mutation is already committed and the periodic reconcile sweep
// covers lost events.
func (s *LedgerService) publish(ctx context.Context, op string, ownerID, postingID int64, accountIDs ...int64) {
	if s.events == nil {
		return
	}
	ev := amqp.NewPostingEvent(op, ownerID, postingID, accountIDs...)
	if err := s.events.PublishPostingEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish posting event",
			"op", op,
			"posting_id", postingID,
			"error", err)
	}
}

// Close releases the storage and event connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
