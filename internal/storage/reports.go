package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// Read-side queries backing the aggregation engine. Everything here
// scans live postings and never writes.

// SumFlow totals an owner's postings of one kind in an inclusive date range.
func (r *SQLiteRepository) SumFlow(ctx context.Context, ownerID int64, kind core.Flow, from, to core.Date) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE owner_id = ? AND kind = ? AND date >= ? AND date <= ?`,
		ownerID, kind, from.String(), to.String(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s: %w", kind, err)
	}
	return total, nil
}

// CategoryTotals groups an owner's postings of one kind by category,
// largest total first.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, ownerID int64, kind core.Flow, from, to core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, SUM(t.amount_cents) AS total
		 FROM transactions t JOIN categories c ON c.id = t.category_id
		 WHERE t.owner_id = ? AND t.kind = ? AND t.date >= ? AND t.date <= ?
		 GROUP BY c.id, c.name
		 ORDER BY total DESC, c.name`,
		ownerID, kind, from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("category totals: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}

// MonthlyFlowTotals returns income and expense cents per month of a
// year, indexed 1-12. Months without postings stay zero.
func (r *SQLiteRepository) MonthlyFlowTotals(ctx context.Context, ownerID int64, year int) (income, expense [13]int64, err error) {
	from, to := yearRange(year)
	rows, qerr := r.db.QueryContext(ctx,
		`SELECT CAST(strftime('%m', date) AS INTEGER) AS m, kind, SUM(amount_cents)
		 FROM transactions
		 WHERE owner_id = ? AND date >= ? AND date <= ?
		 GROUP BY m, kind`,
		ownerID, from, to,
	)
	if qerr != nil {
		return income, expense, fmt.Errorf("monthly flow totals: %w", qerr)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m     int
			kind  core.Flow
			cents int64
		)
		if err := rows.Scan(&m, &kind, &cents); err != nil {
			return income, expense, fmt.Errorf("monthly flow totals: %w", err)
		}
		if m < 1 || m > 12 {
			continue
		}
		if kind == core.Income {
			income[m] = cents
		} else {
			expense[m] = cents
		}
	}
	if err := rows.Err(); err != nil {
		return income, expense, fmt.Errorf("monthly flow totals: %w", err)
	}
	return income, expense, nil
}

// SpentForCategory totals one expense category for one calendar month.
func (r *SQLiteRepository) SpentForCategory(ctx context.Context, ownerID, categoryID int64, month, year int) (int64, error) {
	from, to := monthRange(year, month)
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE owner_id = ? AND category_id = ? AND kind = ? AND date >= ? AND date <= ?`,
		ownerID, categoryID, core.Expense, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("spent for category %d: %w", categoryID, err)
	}
	return total, nil
}

// AccountBalances returns the cached balance of each account the owner has.
func (r *SQLiteRepository) AccountBalances(ctx context.Context, ownerID int64) ([]core.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, balance_cents FROM accounts WHERE owner_id = ? ORDER BY name`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("account balances: %w", err)
	}
	defer rows.Close()

	var balances []core.AccountBalance
	for rows.Next() {
		var ab core.AccountBalance
		if err := rows.Scan(&ab.AccountID, &ab.Name, &ab.Kind, &ab.Balance.Cents); err != nil {
			return nil, fmt.Errorf("account balances: %w", err)
		}
		balances = append(balances, ab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account balances: %w", err)
	}
	return balances, nil
}

// liveBalanceExpr derives an account's balance from first principles:
// opening plus incomes minus expenses plus transfers in minus transfers
// out. The alias `a` must resolve to the accounts table.
const liveBalanceExpr = `a.opening_cents
	      + COALESCE((SELECT SUM(amount_cents) FROM transactions WHERE account_id = a.id AND kind = 'income'), 0)
	      - COALESCE((SELECT SUM(amount_cents) FROM transactions WHERE account_id = a.id AND kind = 'expense'), 0)
	      + COALESCE((SELECT SUM(amount_cents) FROM transfers WHERE to_account_id = a.id), 0)
	      - COALESCE((SELECT SUM(amount_cents) FROM transfers WHERE from_account_id = a.id), 0)`

// ComputedBalance recomputes an account's balance from live postings.
func (r *SQLiteRepository) ComputedBalance(ctx context.Context, accountID int64) (int64, error) {
	var computed int64
	err := r.db.QueryRowContext(ctx,
		`SELECT `+liveBalanceExpr+` FROM accounts a WHERE a.id = ?`,
		accountID,
	).Scan(&computed)
	if err != nil {
		return 0, fmt.Errorf("computed balance for account %d: %w", accountID, err)
	}
	return computed, nil
}

// RepairBalance recomputes an account's balance from live postings and
// overwrites the cached column when the two disagree, as one UPDATE
// statement. A posting committing between a separate read and write
// could otherwise be erased by a stale figure; a single statement
// leaves no such window. Returns true when the cache was rewritten.
func (r *SQLiteRepository) RepairBalance(ctx context.Context, accountID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`WITH live(cents) AS (SELECT `+liveBalanceExpr+` FROM accounts a WHERE a.id = ?)
		 UPDATE accounts SET balance_cents = (SELECT cents FROM live)
		 WHERE id = ? AND balance_cents <> (SELECT cents FROM live)`,
		accountID, accountID,
	)
	if err != nil {
		return false, fmt.Errorf("repair balance for account %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repair balance for account %d: %w", accountID, err)
	}
	return n > 0, nil
}

// CachedBalance reads the balance column as stored.
func (r *SQLiteRepository) CachedBalance(ctx context.Context, accountID int64) (int64, error) {
	var cached int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM accounts WHERE id = ?`, accountID,
	).Scan(&cached)
	if err != nil {
		return 0, fmt.Errorf("cached balance for account %d: %w", accountID, err)
	}
	return cached, nil
}

// SetBalance overwrites the cached balance unconditionally. Repairs go
// through RepairBalance; this exists to seed drift in tests and for
// manual corrections.
func (r *SQLiteRepository) SetBalance(ctx context.Context, accountID, cents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = ? WHERE id = ?`, cents, accountID)
	if err != nil {
		return fmt.Errorf("set balance for account %d: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set balance for account %d: %w", accountID, err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// AllAccountIDs lists every account in the store, for full reconcile sweeps.
func (r *SQLiteRepository) AllAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list account ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	return ids, nil
}
