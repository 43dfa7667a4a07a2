package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/printlog/printlog-backend/internal/modules/stock"
)

// Repository executes compound-event statement sets against the store.
type Repository interface {
	// ApproveBudget applies the whole batch in one transaction: project
	// status, optional printer hours/status, and every stock debit with its
	// ledger row. Any failure leaves nothing applied.
	ApproveBudget(ctx context.Context, batch *ApproveBudgetBatch) error

	// RecordFailure always inserts the ledger entry. The optional debit is
	// applied version-conditioned in the same transaction but a debit that
	// matches no live row is silently dropped rather than rolling back the
	// history write. The optional printer gets its print counter bumped.
	RecordFailure(ctx context.Context, ownerID uuid.UUID, entry *stock.LedgerEntry, debit *StockDebit, printerID *uuid.UUID) (debited bool, err error)
}
