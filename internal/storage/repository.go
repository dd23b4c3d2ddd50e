// Package storage is the persistence layer of the ledger. It owns the
// SQLite schema and every multi-row balance update, so the account
// invariant (balance = opening + signed sum of live postings) can only
// be touched inside a transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error so a
// failed mutation leaves no partial state behind.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyBalanceDeltas adjusts cached account balances inside tx. Deltas
// are applied in ascending account-id order so that two mutations
// touching the same pair of accounts always lock rows in the same
// sequence and cannot deadlock each other.
func applyBalanceDeltas(tx *sql.Tx, deltas map[int64]int64) error {
	ids := make([]int64, 0, len(deltas))
	for id, d := range deltas {
		if d != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		res, err := tx.Exec(
			`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`,
			deltas[id], id,
		)
		if err != nil {
			return fmt.Errorf("apply balance delta to account %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply balance delta to account %d: %w", id, err)
		}
		if n != 1 {
			return core.ErrAccountNotFound
		}
	}
	return nil
}

// accountForUpdate loads an owner's account inside tx, verifying it exists.
func accountForUpdate(tx *sql.Tx, ownerID, id int64) (core.Account, error) {
	row := tx.QueryRow(
		`SELECT id, owner_id, name, kind, bank_name, opening_cents, balance_cents, setup_date, created_at
		 FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanAccount(row)
}

// categoryForUpdate loads an owner's category inside tx.
func categoryForUpdate(tx *sql.Tx, ownerID, id int64) (core.Category, error) {
	var c core.Category
	err := tx.QueryRow(
		`SELECT id, owner_id, name, kind, description FROM categories WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("load category %d: %w", id, err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a         core.Account
		setupDate string
		createdAt time.Time
	)
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Kind, &a.BankName,
		&a.Opening.Cents, &a.Balance.Cents, &setupDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	if setupDate != "" {
		if d, derr := core.ParseDate(setupDate); derr == nil {
			a.SetupDate = d
		}
	}
	a.CreatedAt = createdAt
	return a, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		date string
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Amount.Cents,
		&t.CategoryID, &t.AccountID, &date, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrPostingNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	d, derr := core.ParseDate(date)
	if derr != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, derr)
	}
	t.Date = d
	return t, nil
}

func scanTransfer(row rowScanner) (core.Transfer, error) {
	var (
		tr   core.Transfer
		date string
	)
	err := row.Scan(&tr.ID, &tr.OwnerID, &tr.FromAccountID, &tr.ToAccountID,
		&tr.Amount.Cents, &date, &tr.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transfer{}, core.ErrPostingNotFound
	}
	if err != nil {
		return core.Transfer{}, fmt.Errorf("scan transfer: %w", err)
	}
	d, derr := core.ParseDate(date)
	if derr != nil {
		return core.Transfer{}, fmt.Errorf("stored date %q: %w", date, derr)
	}
	tr.Date = d
	return tr, nil
}

// signedCents returns the amount with the sign its kind implies on an
// account balance: income adds, expense subtracts.
func signedCents(kind core.Flow, cents int64) int64 {
	if kind == core.Expense {
		return -cents
	}
	return cents
}
