// Package worker keeps cached account balances honest. It recomputes
// balances from live postings, either for the accounts named in a
// posting event or in a periodic full sweep, and repairs any drift.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/storage"
)

type Reconciler struct {
	storage *storage.SQLiteRepository
}

func NewReconciler(storage *storage.SQLiteRepository) *Reconciler {
	return &Reconciler{storage: storage}
}

// HandlePostingEvent reconciles every account a posting event names.
func (r *Reconciler) HandlePostingEvent(ctx context.Context, ev *amqp.PostingEvent) error {
	slog.InfoContext(ctx, "Processing posting event",
		"op", ev.Op,
		"owner_id", ev.OwnerID,
		"posting_id", ev.PostingID,
		"account_ids", ev.AccountIDs)

	for _, id := range ev.AccountIDs {
		if _, err := r.ReconcileAccount(ctx, id); err != nil {
			return fmt.Errorf("reconcile account %d: %w", id, err)
		}
	}
	return nil
}

// ReconcileAccount compares the cached balance against the sum of live
// postings and overwrites the cache when they disagree. Compare and
// repair run as one statement in the storage layer, so a posting that
// commits while the reconciler is looking can never be clobbered with
// a figure computed before it. Returns true when drift was repaired.
func (r *Reconciler) ReconcileAccount(ctx context.Context, accountID int64) (bool, error) {
	before, err := r.storage.CachedBalance(ctx, accountID)
	if err != nil {
		return false, err
	}
	repaired, err := r.storage.RepairBalance(ctx, accountID)
	if err != nil {
		return false, err
	}
	if !repaired {
		return false, nil
	}

	// Advisory only: the repaired value may already have moved again.
	after, err := r.storage.CachedBalance(ctx, accountID)
	if err != nil {
		return true, err
	}
	slog.WarnContext(ctx, "Repaired balance drift",
		"account_id", accountID,
		"cached_cents", before,
		"repaired_cents", after,
		"drift_cents", before-after)
	return true, nil
}

// ReconcileAll sweeps every account. This is the backup path for lost
// events and the startup check after worker downtime.
func (r *Reconciler) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := r.storage.AllAccountIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile all: %w", err)
	}

	repaired := 0
	for _, id := range ids {
		fixed, err := r.ReconcileAccount(ctx, id)
		if err != nil {
			return repaired, fmt.Errorf("reconcile account %d: %w", id, err)
		}
		if fixed {
			repaired++
		}
	}

	if repaired == 0 {
		slog.InfoContext(ctx, "All account balances consistent", "accounts", len(ids))
	} else {
		slog.WarnContext(ctx, "Reconcile sweep repaired drift",
			"accounts", len(ids), "repaired", repaired)
	}
	return repaired, nil
}
