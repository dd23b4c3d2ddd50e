package sheets

import (
	"context"

	"bilancio/internal/core"
)

// SummaryWriter exports a computed monthly summary to an external sheet.
type SummaryWriter interface {
	AppendMonthlySummary(ctx context.Context, ownerID int64, s core.MonthlySummary) error
}
