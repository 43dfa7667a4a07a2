package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
)

// Service coordinates the compound business events that touch several
// tables at once. It reads through the module repositories, prepares the
// full statement set, and hands it to its own repository as one batch.
type Service interface {
	ApproveBudget(ctx context.Context, ownerID string, req ApproveBudgetRequest) (*ApproveBudgetResult, error)
	RecordFailure(ctx context.Context, ownerID string, req RecordFailureRequest) (*RecordFailureResult, error)
}

type service struct {
	repo     Repository
	projects project.Repository
	stock    stock.Repository
}

// NewService creates a new workflow service.
func NewService(repo Repository, projects project.Repository, stockRepo stock.Repository) Service {
	return &service{repo: repo, projects: projects, stock: stockRepo}
}

func (s *service) ApproveBudget(ctx context.Context, ownerID string, req ApproveBudgetRequest) (*ApproveBudgetResult, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if req.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project_id: %w", err)
	}

	p, err := s.projects.GetByID(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	if !project.CanTransition(p.Status, project.StatusApproved) {
		return nil, &project.InvalidTransitionError{From: p.Status, To: project.StatusApproved}
	}
	p.Status = project.StatusApproved
	p.SyncPayloadStatus()

	batch := &ApproveBudgetBatch{
		OwnerID: owner,
		Project: p,
	}

	if req.PrinterID != "" && req.PrinterID != NonePrinterID {
		printerID, err := uuid.Parse(req.PrinterID)
		if err != nil {
			return nil, fmt.Errorf("invalid printer_id: %w", err)
		}
		batch.PrinterID = &printerID
		// Hour counters only grow; a negative duration is dropped.
		if hours := stock.CoerceQuantity(req.PrintHours); hours > 0 {
			batch.PrintHours = hours
		}
	}

	// Lines naming the same item are merged so the batch carries at most one
	// conditioned write per item; a second write inside the same transaction
	// would trip the version guard against the first.
	type aggregate struct {
		qty   float64
		lines int
	}
	var order []uuid.UUID
	totals := make(map[uuid.UUID]*aggregate)
	skipped := 0
	for _, line := range req.Items {
		itemID, qty, ok := usableLine(line)
		if !ok {
			skipped++
			continue
		}
		agg, seen := totals[itemID]
		if !seen {
			agg = &aggregate{}
			totals[itemID] = agg
			order = append(order, itemID)
		}
		agg.qty += qty
		agg.lines++
	}
	for _, itemID := range order {
		agg := totals[itemID]
		debit, ok, err := s.prepareDebit(ctx, owner, p, batch.PrinterID, itemID, agg.qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			skipped += agg.lines
			continue
		}
		batch.Debits = append(batch.Debits, *debit)
	}

	if err := s.repo.ApproveBudget(ctx, batch); err != nil {
		return nil, err
	}
	return &ApproveBudgetResult{
		Project:      p,
		DebitedItems: len(batch.Debits),
		SkippedItems: skipped,
	}, nil
}

// usableLine filters one consumed line item. The "manual" sentinel, a blank
// or unparsable id, and a non-positive quantity are all skipped without
// error; a partially bogus cart must not block the approval.
func usableLine(line ConsumedItem) (uuid.UUID, float64, bool) {
	if line.ItemID == "" || line.ItemID == ManualItemID {
		return uuid.Nil, 0, false
	}
	itemID, err := uuid.Parse(line.ItemID)
	if err != nil {
		return uuid.Nil, 0, false
	}
	qty := stock.CoerceQuantity(line.Quantity)
	if qty <= 0 {
		return uuid.Nil, 0, false
	}
	return itemID, qty, true
}

// prepareDebit resolves one aggregated consumption into a version-conditioned
// debit. A missing or deleted stock row is reported as unusable, not an error.
func (s *service) prepareDebit(ctx context.Context, owner uuid.UUID, p *project.Project, printerID *uuid.UUID, itemID uuid.UUID, qty float64) (*StockDebit, bool, error) {
	item, err := s.stock.GetByID(ctx, owner, itemID, false)
	if errors.Is(err, stock.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:      stock.LedgerConsumption,
		Quantity:  qty,
		Note:      fmt.Sprintf("consumed by project %s", p.Name),
		PrinterID: printerID,
		ProjectID: &p.ID,
	})
	return &StockDebit{
		ItemID:          item.ID,
		NewAmount:       newAmount,
		ExpectedVersion: item.Version,
		Entry:           entry,
	}, true, nil
}

func (s *service) RecordFailure(ctx context.Context, ownerID string, req RecordFailureRequest) (*RecordFailureResult, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	// Write-offs only ever remove material; a negative weight must not
	// credit the spool.
	weight := stock.CoerceQuantity(req.WeightWasted)
	if weight < 0 {
		weight = 0
	}
	cost := decimal.Zero
	if req.CostWasted != "" {
		if c, err := decimal.NewFromString(req.CostWasted.String()); err == nil {
			cost = c
		}
	}

	entry := &stock.LedgerEntry{
		ID:           uuid.New(),
		OwnerID:      owner,
		Kind:         stock.LedgerFailureWriteoff,
		AmountDelta:  weight,
		Note:         req.Note,
		CostSnapshot: cost,
	}

	var printerID *uuid.UUID
	if req.PrinterID != "" && req.PrinterID != NonePrinterID {
		pid, err := uuid.Parse(req.PrinterID)
		if err == nil {
			printerID = &pid
			entry.PrinterID = &pid
		}
	}

	// The write-off history row is unconditional. The balance debit only
	// happens when the referenced item resolves to a live row; a deleted
	// item still gets the ledger reference for historical joins.
	var debit *StockDebit
	if req.ItemID != "" && req.ItemID != ManualItemID {
		if itemID, err := uuid.Parse(req.ItemID); err == nil {
			item, err := s.stock.GetByID(ctx, owner, itemID, true)
			switch {
			case errors.Is(err, stock.ErrNotFound):
				// untracked: history row only
			case err != nil:
				return nil, err
			default:
				id := item.ID
				entry.ItemID = &id
				if item.DeletedAt == nil && weight > 0 {
					newAmount := item.CurrentAmount - weight
					if newAmount < 0 {
						newAmount = 0
					}
					debit = &StockDebit{
						ItemID:          item.ID,
						NewAmount:       newAmount,
						ExpectedVersion: item.Version,
					}
				}
			}
		}
	}

	debited, err := s.repo.RecordFailure(ctx, owner, entry, debit, printerID)
	if err != nil {
		return nil, err
	}
	return &RecordFailureResult{Entry: entry, BalanceDebited: debited}, nil
}
