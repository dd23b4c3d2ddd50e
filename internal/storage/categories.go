package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, kind, description) VALUES (?, ?, ?, ?)`,
		c.OwnerID, c.Name, c.Kind, c.Description,
	)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category created",
		"id", c.ID, "owner_id", c.OwnerID, "name", c.Name, "kind", c.Kind)
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, kind, description FROM categories WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64, kind core.Flow) ([]core.Category, error) {
	query := `SELECT id, owner_id, name, kind, description FROM categories WHERE owner_id = ?`
	args := []any{ownerID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind, &c.Description); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// RenameCategory updates name and description. The kind is immutable:
// changing it would silently flip the sign of every posting already
// recorded against the category.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE id = ? AND owner_id = ?`,
		c.Name, c.Description, c.ID, c.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	if n == 0 {
		return core.ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes a category that no transaction or budget
// references. Referenced categories are rejected rather than cascaded.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := categoryForUpdate(tx, ownerID, id); err != nil {
			return err
		}

		var refs int64
		err := tx.QueryRow(
			`SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
			      + (SELECT COUNT(*) FROM budgets WHERE category_id = ?)`,
			id, id,
		).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if refs > 0 {
			return core.ErrCategoryInUse
		}

		if _, err := tx.Exec(`DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		slog.InfoContext(ctx, "Category deleted", "id", id, "owner_id", ownerID)
		return nil
	})
}
