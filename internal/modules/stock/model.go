package stock

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType discriminates the two kinds of tracked consumables.
type ItemType string

const (
	TypeFilament ItemType = "FILAMENT"
	TypeSupply   ItemType = "SUPPLY"
)

// LedgerKind classifies a stock ledger entry.
type LedgerKind string

const (
	LedgerOpening          LedgerKind = "OPENING"
	LedgerManualAdjustment LedgerKind = "MANUAL_ADJUSTMENT"
	LedgerConsumption      LedgerKind = "CONSUMPTION"
	LedgerFailureWriteoff  LedgerKind = "FAILURE_WRITEOFF"
	LedgerRestock          LedgerKind = "RESTOCK"
)

var (
	// ErrNotFound is returned when an item does not exist or is not visible
	// under the caller's tenant and soft-delete scope.
	ErrNotFound = errors.New("stock item not found")

	// ErrVersionConflict is returned when a version-conditioned update matched
	// zero rows because the item changed since the caller last read it.
	ErrVersionConflict = errors.New("stock item version conflict")

	// ErrInvalidInput is wrapped around validation failures so handlers can
	// answer 400 before any store access happens.
	ErrInvalidInput = errors.New("invalid input")
)

// Item is a tracked consumable: a filament spool or a generic supply.
// CurrentAmount never goes below zero; restocking may exceed CapacityTotal
// (a nominal 1kg spool often ships with a little more).
type Item struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Type          ItemType        `json:"type"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	Material      string          `json:"material,omitempty"` // filament material or supply category
	Color         string          `json:"color,omitempty"`
	Unit          string          `json:"unit"` // g, ml, pcs
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CapacityTotal float64         `json:"capacity_total"`
	CurrentAmount float64         `json:"current_amount"`
	Favorite      bool            `json:"favorite"`
	Version       int64           `json:"version"`
	OpenedAt      *time.Time      `json:"opened_at,omitempty"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LedgerEntry is an immutable record of a quantity change. Entries are only
// ever inserted; history survives soft deletion of the item it points to.
// ItemID is nil for failure write-offs that were not tied to a tracked item.
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"`
	ItemID       *uuid.UUID      `json:"item_id,omitempty"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Kind         LedgerKind      `json:"kind"`
	AmountDelta  float64         `json:"amount_delta"` // positive quantity removed for CONSUMPTION/FAILURE_WRITEOFF
	Note         string          `json:"note,omitempty"`
	PrinterID    *uuid.UUID      `json:"printer_id,omitempty"`
	ProjectID    *uuid.UUID      `json:"project_id,omitempty"`
	CostSnapshot decimal.Decimal `json:"cost_snapshot"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Adjustment describes one requested balance change against an item.
type Adjustment struct {
	Kind      LedgerKind
	Quantity  float64
	Note      string
	PrinterID *uuid.UUID
	ProjectID *uuid.UUID
}

// PlanAdjustment computes the balance an adjustment would leave on the item
// and the ledger entry recording it. It does not mutate the item; persisting
// the new balance together with the entry is the repository's job.
//
// CONSUMPTION and FAILURE_WRITEOFF remove the requested quantity, clamped so
// the balance never drops below zero. RESTOCK adds with no upper clamp.
// MANUAL_ADJUSTMENT and OPENING set the absolute amount; a manual set records
// the old and new balance in the note when the change is non-trivial.
func PlanAdjustment(item *Item, adj Adjustment) (float64, *LedgerEntry) {
	qty := adj.Quantity
	if qty < 0 {
		qty = 0
	}

	entry := &LedgerEntry{
		ID:        uuid.New(),
		OwnerID:   item.OwnerID,
		Kind:      adj.Kind,
		Note:      adj.Note,
		PrinterID: adj.PrinterID,
		ProjectID: adj.ProjectID,
	}
	id := item.ID
	entry.ItemID = &id

	var newAmount float64
	switch adj.Kind {
	case LedgerConsumption, LedgerFailureWriteoff:
		newAmount = item.CurrentAmount - qty
		if newAmount < 0 {
			newAmount = 0
		}
		// The entry records the reported quantity, not the clamped delta, so
		// the history reflects what actually happened on the print floor.
		entry.AmountDelta = qty
	case LedgerRestock:
		newAmount = item.CurrentAmount + qty
		entry.AmountDelta = qty
	case LedgerManualAdjustment, LedgerOpening:
		newAmount = qty
		delta := newAmount - item.CurrentAmount
		entry.AmountDelta = delta
		if adj.Kind == LedgerManualAdjustment && (delta >= 1 || delta <= -1) {
			audit := fmt.Sprintf("adjusted %.2f -> %.2f", item.CurrentAmount, newAmount)
			if entry.Note == "" {
				entry.Note = audit
			} else {
				entry.Note = entry.Note + " (" + audit + ")"
			}
		}
	default:
		newAmount = item.CurrentAmount
	}

	entry.CostSnapshot = item.UnitPrice.Mul(decimal.NewFromFloat(entry.AmountDelta)).Abs()
	return newAmount, entry
}

// CoerceQuantity turns a client-submitted number into a float64, falling back
// to zero on anything malformed. Client payloads routinely carry empty strings
// or junk in numeric fields; one bad line item must not abort an otherwise
// valid compound operation.
func CoerceQuantity(n json.Number) float64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}
