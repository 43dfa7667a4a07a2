package workflow

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
)

// Sentinel ids the SPA sends when a dropdown is left on its placeholder.
// A "manual" consumable is not tracked in stock; a "none" printer means the
// job ran on an unmanaged machine.
const (
	ManualItemID  = "manual"
	NonePrinterID = "none"
)

// ConsumedItem is one filament/supply line item of an approved budget.
type ConsumedItem struct {
	ItemID   string      `json:"item_id"`
	Quantity json.Number `json:"quantity"`
}

// ApproveBudgetRequest is the payload for the approve-budget compound event.
type ApproveBudgetRequest struct {
	ProjectID  string         `json:"project_id"`
	PrinterID  string         `json:"printer_id,omitempty"` // "" or "none" = no printer
	PrintHours json.Number    `json:"print_hours,omitempty"`
	Items      []ConsumedItem `json:"items,omitempty"`
}

// RecordFailureRequest is the payload for the record-failure compound event.
type RecordFailureRequest struct {
	ItemID       string      `json:"item_id,omitempty"` // "" or "manual" = untracked material
	PrinterID    string      `json:"printer_id,omitempty"`
	WeightWasted json.Number `json:"weight_wasted"`
	CostWasted   json.Number `json:"cost_wasted,omitempty"`
	Note         string      `json:"note,omitempty"`
}

// StockDebit is one prepared, version-conditioned balance write plus the
// ledger entry that must land with it.
type StockDebit struct {
	ItemID          uuid.UUID
	NewAmount       float64
	ExpectedVersion int64
	Entry           *stock.LedgerEntry
}

// ApproveBudgetBatch is the full statement set for one budget approval.
// The repository applies it all-or-nothing.
type ApproveBudgetBatch struct {
	OwnerID    uuid.UUID
	Project    *project.Project // status already advanced, payload synced
	PrinterID  *uuid.UUID
	PrintHours float64
	Debits     []StockDebit
}

// ApproveBudgetResult reports what the approval touched.
type ApproveBudgetResult struct {
	Project      *project.Project `json:"project"`
	DebitedItems int              `json:"debited_items"`
	SkippedItems int              `json:"skipped_items"`
}

// RecordFailureResult reports the history row and whether a balance moved.
type RecordFailureResult struct {
	Entry          *stock.LedgerEntry `json:"entry"`
	BalanceDebited bool               `json:"balance_debited"`
}
