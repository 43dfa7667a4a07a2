package stock

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter controls which rows a List call sees.
type ListFilter struct {
	IncludeDeleted bool // deleted rows alongside live ones
	DeletedOnly    bool // only deleted rows (the trash view)
	Type           ItemType
}

// Repository defines stock item and ledger data storage. All balance and
// version writes go through ApplyAdjustment or UpdateDetails so the
// version-conditioned update is the only mutation path.
type Repository interface {
	// Create inserts the item and its opening ledger entry atomically.
	Create(ctx context.Context, item *Item, opening *LedgerEntry) error

	GetByID(ctx context.Context, ownerID, id uuid.UUID, includeDeleted bool) (*Item, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Item, error)

	// UpdateDetails persists descriptive fields. When expectedVersion > 0 the
	// update is conditioned on it; either way the version advances by one.
	UpdateDetails(ctx context.Context, item *Item, expectedVersion int64) (*Item, error)

	// ApplyAdjustment writes the new balance, bumps the version and appends
	// the ledger entry in one transaction. The update is always conditioned
	// on expectedVersion; zero rows hit yields ErrVersionConflict (or
	// ErrNotFound when the row is gone or soft-deleted).
	ApplyAdjustment(ctx context.Context, ownerID, id uuid.UUID, newAmount float64, expectedVersion int64, entry *LedgerEntry) (*Item, error)

	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, id uuid.UUID) error

	// AppendLedger inserts a history row with no balance side effect.
	AppendLedger(ctx context.Context, entry *LedgerEntry) error
	ListLedger(ctx context.Context, ownerID, itemID uuid.UUID) ([]*LedgerEntry, error)
}
