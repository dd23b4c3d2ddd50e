package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
)

// CreateBudget inserts a monthly limit for an expense category. The
// (owner, category, month, year) uniqueness is checked here before the
// write so callers get ErrDuplicateBudget instead of a raw constraint
// failure; the UNIQUE index still backstops concurrent creates.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b *core.Budget) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		cat, err := categoryForUpdate(tx, b.OwnerID, b.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != core.Expense {
			return core.ErrCategoryKindMismatch
		}

		var existing int64
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM budgets WHERE owner_id = ? AND category_id = ? AND month = ? AND year = ?`,
			b.OwnerID, b.CategoryID, b.Month, b.Year,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("check budget uniqueness: %w", err)
		}
		if existing > 0 {
			return core.ErrDuplicateBudget
		}

		res, err := tx.Exec(
			`INSERT INTO budgets (owner_id, category_id, month, year, limit_cents) VALUES (?, ?, ?, ?, ?)`,
			b.OwnerID, b.CategoryID, b.Month, b.Year, b.Limit.Cents,
		)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		b.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID,
		"owner_id", b.OwnerID,
		"category_id", b.CategoryID,
		"month", b.Month,
		"year", b.Year,
		"limit_cents", b.Limit.Cents)
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID, id int64) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, month, year, limit_cents
		 FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Month, &b.Year, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// FindBudget looks a budget up by its natural key.
func (r *SQLiteRepository) FindBudget(ctx context.Context, ownerID, categoryID int64, month, year int) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, month, year, limit_cents
		 FROM budgets WHERE owner_id = ? AND category_id = ? AND month = ? AND year = ?`,
		ownerID, categoryID, month, year,
	).Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Month, &b.Year, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID int64, month, year int) ([]core.Budget, error) {
	query := `SELECT b.id, b.owner_id, b.category_id, b.month, b.year, b.limit_cents
	          FROM budgets b JOIN categories c ON c.id = b.category_id
	          WHERE b.owner_id = ?`
	args := []any{ownerID}
	if year != 0 {
		query += ` AND b.year = ?`
		args = append(args, year)
	}
	if month != 0 {
		query += ` AND b.month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY c.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Month, &b.Year, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("list budgets: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget changes the limit only; moving a budget to another
// category or month is a delete plus create.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET limit_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND owner_id = ?`,
		b.Limit.Cents, b.ID, b.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return core.ErrBudgetNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n == 0 {
		return core.ErrBudgetNotFound
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id, "owner_id", ownerID)
	return nil
}
