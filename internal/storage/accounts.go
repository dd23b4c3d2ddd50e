package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
)

// CreateAccount inserts a new account. The cached balance starts at the
// opening balance; postings move it from there.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (owner_id, name, kind, bank_name, opening_cents, balance_cents, setup_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.OwnerID, a.Name, a.Kind, a.BankName, a.Opening.Cents, a.Opening.Cents, setupDateString(a),
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	a.ID = id
	a.Balance = a.Opening

	slog.InfoContext(ctx, "Account created",
		"id", a.ID,
		"owner_id", a.OwnerID,
		"name", a.Name,
		"kind", a.Kind,
		"opening_cents", a.Opening.Cents)
	return nil
}

func setupDateString(a *core.Account) string {
	if a.SetupDate.IsZero() {
		return ""
	}
	return a.SetupDate.String()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, kind, bank_name, opening_cents, balance_cents, setup_date, created_at
		 FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, kind, bank_name, opening_cents, balance_cents, setup_date, created_at
		 FROM accounts WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount changes descriptive fields only. Balances are owned by
// the posting operations and never written here.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, kind = ?, bank_name = ? WHERE id = ? AND owner_id = ?`,
		a.Name, a.Kind, a.BankName, a.ID, a.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account with no postings referencing it.
// Accounts still referenced by transactions or transfers are rejected;
// the caller must delete those postings first.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := accountForUpdate(tx, ownerID, id); err != nil {
			return err
		}

		var refs int64
		err := tx.QueryRow(
			`SELECT (SELECT COUNT(*) FROM transactions WHERE account_id = ?)
			      + (SELECT COUNT(*) FROM transfers WHERE from_account_id = ? OR to_account_id = ?)`,
			id, id, id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if refs > 0 {
			return core.ErrAccountInUse
		}

		if _, err := tx.Exec(`DELETE FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		slog.InfoContext(ctx, "Account deleted", "id", id, "owner_id", ownerID)
		return nil
	})
}

// OwnerIDs lists every distinct owner that has at least one account.
func (r *SQLiteRepository) OwnerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM accounts ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owner ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list owner ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owner ids: %w", err)
	}
	return ids, nil
}
