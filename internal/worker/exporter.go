package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/services"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// SummaryExporter pushes each owner's previous-month summary to an
// external spreadsheet. It is an optional sidecar: the ledger works the
// same with or without it.
type SummaryExporter struct {
	storage *storage.SQLiteRepository
	reports *services.ReportService
	writer  sheets.SummaryWriter
}

func NewSummaryExporter(storage *storage.SQLiteRepository, reports *services.ReportService, writer sheets.SummaryWriter) *SummaryExporter {
	return &SummaryExporter{storage: storage, reports: reports, writer: writer}
}

// ExportPreviousMonth exports the last completed calendar month for
// every owner that has at least one account. A failure for one owner
// is logged and does not block the rest.
func (e *SummaryExporter) ExportPreviousMonth(ctx context.Context, now time.Time) error {
	prev := now.AddDate(0, -1, 0)
	return e.ExportMonth(ctx, int(prev.Month()), prev.Year())
}

func (e *SummaryExporter) ExportMonth(ctx context.Context, month, year int) error {
	owners, err := e.storage.OwnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("export month: %w", err)
	}

	var failed int
	for _, owner := range owners {
		summary, err := e.reports.MonthlySummary(ctx, owner, month, year)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to compute summary for export",
				"owner_id", owner, "month", month, "year", year, "error", err)
			failed++
			continue
		}
		if err := e.writer.AppendMonthlySummary(ctx, owner, summary); err != nil {
			slog.ErrorContext(ctx, "Failed to export summary",
				"owner_id", owner, "month", month, "year", year, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("export month %04d-%02d: %d of %d owners failed", year, month, failed, len(owners))
	}
	slog.InfoContext(ctx, "Monthly summaries exported",
		"month", month, "year", year, "owners", len(owners))
	return nil
}
