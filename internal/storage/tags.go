package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bilancio/internal/core"
)

// CreateTag inserts a label. Names are unique per owner; the duplicate
// is reported before the write so callers see ErrDuplicateTag rather
// than a raw constraint failure.
func (r *SQLiteRepository) CreateTag(ctx context.Context, g *core.Tag) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM tags WHERE owner_id = ? AND name = ?`,
			g.OwnerID, g.Name,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("check tag uniqueness: %w", err)
		}
		if existing > 0 {
			return core.ErrDuplicateTag
		}

		res, err := tx.Exec(
			`INSERT INTO tags (owner_id, name) VALUES (?, ?)`,
			g.OwnerID, g.Name,
		)
		if err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
		g.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Tag created", "id", g.ID, "owner_id", g.OwnerID, "name", g.Name)
	return nil
}

func (r *SQLiteRepository) GetTag(ctx context.Context, ownerID, id int64) (core.Tag, error) {
	var g core.Tag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name FROM tags WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(&g.ID, &g.OwnerID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tag{}, core.ErrTagNotFound
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, ownerID int64) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name FROM tags WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var g core.Tag
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// RenameTag changes the label. The new name must still be unique for
// the owner.
func (r *SQLiteRepository) RenameTag(ctx context.Context, g core.Tag) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM tags WHERE owner_id = ? AND name = ? AND id <> ?`,
			g.OwnerID, g.Name, g.ID,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("check tag uniqueness: %w", err)
		}
		if existing > 0 {
			return core.ErrDuplicateTag
		}

		res, err := tx.Exec(
			`UPDATE tags SET name = ? WHERE id = ? AND owner_id = ?`,
			g.Name, g.ID, g.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("rename tag: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rename tag: %w", err)
		}
		if n == 0 {
			return core.ErrTagNotFound
		}
		return nil
	})
}

// DeleteTag removes a label. Join rows cascade, so the tag silently
// disappears from every transaction that carried it.
func (r *SQLiteRepository) DeleteTag(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n == 0 {
		return core.ErrTagNotFound
	}
	slog.InfoContext(ctx, "Tag deleted", "id", id, "owner_id", ownerID)
	return nil
}

// replaceTransactionTags rewrites a posting's tag set inside tx. Every
// tag must belong to the owner; an unknown or foreign tag aborts the
// whole transaction.
func replaceTransactionTags(tx *sql.Tx, ownerID, transactionID int64, tags []core.Tag) error {
	if _, err := tx.Exec(`DELETE FROM transaction_tags WHERE transaction_id = ?`, transactionID); err != nil {
		return fmt.Errorf("clear transaction tags: %w", err)
	}
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[int64]bool, len(tags))
	for _, g := range tags {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true

		var owned int64
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM tags WHERE id = ? AND owner_id = ?`, g.ID, ownerID,
		).Scan(&owned)
		if err != nil {
			return fmt.Errorf("check tag %d: %w", g.ID, err)
		}
		if owned == 0 {
			return core.ErrTagNotFound
		}
		if _, err := tx.Exec(
			`INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			transactionID, g.ID,
		); err != nil {
			return fmt.Errorf("attach tag %d: %w", g.ID, err)
		}
	}
	return nil
}

// attachTags loads the tag sets for a batch of postings and fills in
// each Transaction's Tags slice, name-ordered.
func (r *SQLiteRepository) attachTags(ctx context.Context, ts []core.Transaction) error {
	if len(ts) == 0 {
		return nil
	}

	index := make(map[int64]*core.Transaction, len(ts))
	placeholders := make([]string, 0, len(ts))
	args := make([]any, 0, len(ts))
	for i := range ts {
		index[ts[i].ID] = &ts[i]
		placeholders = append(placeholders, "?")
		args = append(args, ts[i].ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT tt.transaction_id, g.id, g.owner_id, g.name
		 FROM transaction_tags tt JOIN tags g ON g.id = tt.tag_id
		 WHERE tt.transaction_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY g.name`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("load transaction tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			txnID int64
			g     core.Tag
		)
		if err := rows.Scan(&txnID, &g.ID, &g.OwnerID, &g.Name); err != nil {
			return fmt.Errorf("load transaction tags: %w", err)
		}
		if t, ok := index[txnID]; ok {
			t.Tags = append(t.Tags, g)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load transaction tags: %w", err)
	}
	return nil
}
