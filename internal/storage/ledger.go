package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
)

// CreateTransaction inserts a posting and applies its balance effect in
// one transaction. Ownership and category kind are re-checked here, on
// the same snapshot the write commits against.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		cat, err := categoryForUpdate(tx, t.OwnerID, t.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != t.Kind {
			return core.ErrCategoryKindMismatch
		}
		if _, err := accountForUpdate(tx, t.OwnerID, t.AccountID); err != nil {
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO transactions (owner_id, kind, amount_cents, category_id, account_id, date, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.OwnerID, t.Kind, t.Amount.Cents, t.CategoryID, t.AccountID, t.Date.String(), t.Description,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		t.ID = id

		if err := replaceTransactionTags(tx, t.OwnerID, t.ID, t.Tags); err != nil {
			return err
		}
		return applyBalanceDeltas(tx, map[int64]int64{
			t.AccountID: signedCents(t.Kind, t.Amount.Cents),
		})
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction posted",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"account_id", t.AccountID,
		"category_id", t.CategoryID,
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, kind, amount_cents, category_id, account_id, date, description
		 FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, err
	}
	ts := []core.Transaction{t}
	if err := r.attachTags(ctx, ts); err != nil {
		return core.Transaction{}, err
	}
	return ts[0], nil
}

// ListTransactions returns an owner's postings newest first. Kind, year,
// month and tagID narrow the result when non-zero; a month filter is
// only meaningful inside a year, so month without year is rejected.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, kind core.Flow, year, month int, tagID int64) ([]core.Transaction, error) {
	if month != 0 && year == 0 {
		return nil, core.ErrMonthWithoutYear
	}
	query := `SELECT id, owner_id, kind, amount_cents, category_id, account_id, date, description
	          FROM transactions WHERE owner_id = ?`
	args := []any{ownerID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	if year != 0 {
		from, to := yearRange(year)
		if month != 0 {
			from, to = monthRange(year, month)
		}
		query += ` AND date >= ? AND date <= ?`
		args = append(args, from, to)
	}
	if tagID != 0 {
		query += ` AND id IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?)`
		args = append(args, tagID)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var ts []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if err := r.attachTags(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// UpdateTransaction reverses the stored posting's effect and applies the
// new one inside a single transaction. Reverse-then-reapply keeps the
// balance invariant even when the account or the kind changed.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := transactionForUpdate(tx, t.OwnerID, t.ID)
		if err != nil {
			return err
		}
		cat, err := categoryForUpdate(tx, t.OwnerID, t.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != t.Kind {
			return core.ErrCategoryKindMismatch
		}
		if _, err := accountForUpdate(tx, t.OwnerID, t.AccountID); err != nil {
			return err
		}

		_, err = tx.Exec(
			`UPDATE transactions
			 SET kind = ?, amount_cents = ?, category_id = ?, account_id = ?, date = ?, description = ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND owner_id = ?`,
			t.Kind, t.Amount.Cents, t.CategoryID, t.AccountID, t.Date.String(), t.Description,
			t.ID, t.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		// The submitted tag set replaces the stored one wholesale.
		if err := replaceTransactionTags(tx, t.OwnerID, t.ID, t.Tags); err != nil {
			return err
		}

		deltas := map[int64]int64{}
		deltas[old.AccountID] -= signedCents(old.Kind, old.Amount.Cents)
		deltas[t.AccountID] += signedCents(t.Kind, t.Amount.Cents)
		return applyBalanceDeltas(tx, deltas)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", t.ID, "owner_id", t.OwnerID, "amount_cents", t.Amount.Cents, "account_id", t.AccountID)
	return nil
}

// DeleteTransaction removes a posting and reverses its balance effect.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	var old core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		old, err = transactionForUpdate(tx, ownerID, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return applyBalanceDeltas(tx, map[int64]int64{
			old.AccountID: -signedCents(old.Kind, old.Amount.Cents),
		})
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"id", id, "owner_id", ownerID, "amount_cents", old.Amount.Cents, "account_id", old.AccountID)
	return old, nil
}

// CreateTransfer inserts a transfer and moves the amount between the two
// accounts. All three writes commit together or not at all.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, tr *core.Transfer) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := accountForUpdate(tx, tr.OwnerID, tr.FromAccountID); err != nil {
			return err
		}
		if _, err := accountForUpdate(tx, tr.OwnerID, tr.ToAccountID); err != nil {
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO transfers (owner_id, from_account_id, to_account_id, amount_cents, date, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tr.OwnerID, tr.FromAccountID, tr.ToAccountID, tr.Amount.Cents, tr.Date.String(), tr.Description,
		)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		tr.ID = id

		return applyBalanceDeltas(tx, map[int64]int64{
			tr.FromAccountID: -tr.Amount.Cents,
			tr.ToAccountID:   tr.Amount.Cents,
		})
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transfer posted",
		"id", tr.ID,
		"owner_id", tr.OwnerID,
		"amount_cents", tr.Amount.Cents,
		"from_account_id", tr.FromAccountID,
		"to_account_id", tr.ToAccountID,
		"date", tr.Date.String())
	return nil
}

func (r *SQLiteRepository) GetTransfer(ctx context.Context, ownerID, id int64) (core.Transfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, from_account_id, to_account_id, amount_cents, date, description
		 FROM transfers WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTransfer(row)
}

func (r *SQLiteRepository) ListTransfers(ctx context.Context, ownerID int64, year, month int) ([]core.Transfer, error) {
	if month != 0 && year == 0 {
		return nil, core.ErrMonthWithoutYear
	}
	query := `SELECT id, owner_id, from_account_id, to_account_id, amount_cents, date, description
	          FROM transfers WHERE owner_id = ?`
	args := []any{ownerID}
	if year != 0 {
		from, to := yearRange(year)
		if month != 0 {
			from, to = monthRange(year, month)
		}
		query += ` AND date >= ? AND date <= ?`
		args = append(args, from, to)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var trs []core.Transfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		trs = append(trs, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return trs, nil
}

// UpdateTransfer reverses the old movement and applies the new one.
func (r *SQLiteRepository) UpdateTransfer(ctx context.Context, tr core.Transfer) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := transferForUpdate(tx, tr.OwnerID, tr.ID)
		if err != nil {
			return err
		}
		if _, err := accountForUpdate(tx, tr.OwnerID, tr.FromAccountID); err != nil {
			return err
		}
		if _, err := accountForUpdate(tx, tr.OwnerID, tr.ToAccountID); err != nil {
			return err
		}

		_, err = tx.Exec(
			`UPDATE transfers
			 SET from_account_id = ?, to_account_id = ?, amount_cents = ?, date = ?, description = ?
			 WHERE id = ? AND owner_id = ?`,
			tr.FromAccountID, tr.ToAccountID, tr.Amount.Cents, tr.Date.String(), tr.Description,
			tr.ID, tr.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}

		deltas := map[int64]int64{}
		deltas[old.FromAccountID] += old.Amount.Cents
		deltas[old.ToAccountID] -= old.Amount.Cents
		deltas[tr.FromAccountID] -= tr.Amount.Cents
		deltas[tr.ToAccountID] += tr.Amount.Cents
		return applyBalanceDeltas(tx, deltas)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transfer updated",
		"id", tr.ID, "owner_id", tr.OwnerID, "amount_cents", tr.Amount.Cents)
	return nil
}

// DeleteTransfer removes a transfer and reverses both balance effects.
func (r *SQLiteRepository) DeleteTransfer(ctx context.Context, ownerID, id int64) (core.Transfer, error) {
	var old core.Transfer
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		old, err = transferForUpdate(tx, ownerID, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM transfers WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
			return fmt.Errorf("delete transfer: %w", err)
		}
		return applyBalanceDeltas(tx, map[int64]int64{
			old.FromAccountID: old.Amount.Cents,
			old.ToAccountID:   -old.Amount.Cents,
		})
	})
	if err != nil {
		return core.Transfer{}, err
	}

	slog.InfoContext(ctx, "Transfer deleted",
		"id", id, "owner_id", ownerID, "amount_cents", old.Amount.Cents)
	return old, nil
}

func transactionForUpdate(tx *sql.Tx, ownerID, id int64) (core.Transaction, error) {
	row := tx.QueryRow(
		`SELECT id, owner_id, kind, amount_cents, category_id, account_id, date, description
		 FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTransaction(row)
}

func transferForUpdate(tx *sql.Tx, ownerID, id int64) (core.Transfer, error) {
	row := tx.QueryRow(
		`SELECT id, owner_id, from_account_id, to_account_id, amount_cents, date, description
		 FROM transfers WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanTransfer(row)
}

func monthRange(year, month int) (string, string) {
	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month+1, 0) // day 0 of next month
	return first.String(), last.String()
}

func yearRange(year int) (string, string) {
	return core.NewDate(year, 1, 1).String(), core.NewDate(year, 12, 31).String()
}
