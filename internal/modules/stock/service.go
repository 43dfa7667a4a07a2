package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines stock business logic: item lifecycle, the adjustment
// engine and the append-only ledger.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateItemRequest) (*Item, error)
	Get(ctx context.Context, ownerID, id string) (*Item, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]*Item, error)
	Update(ctx context.Context, ownerID, id string, req UpdateItemRequest) (*Item, error)

	// Adjust applies one balance change and its ledger entry atomically.
	// Balance-affecting calls are always conditioned on the version the
	// engine read; a stale ExpectedVersion from the client fails fast.
	Adjust(ctx context.Context, ownerID, id string, req AdjustRequest) (*Item, error)

	SoftDelete(ctx context.Context, ownerID, id string) error
	Restore(ctx context.Context, ownerID, id string) (*Item, error)
	Ledger(ctx context.Context, ownerID, id string) ([]*LedgerEntry, error)
}

// CreateItemRequest is the payload for registering a new spool or supply.
type CreateItemRequest struct {
	Type          string      `json:"type"`
	Name          string      `json:"name"`
	Brand         string      `json:"brand,omitempty"`
	Material      string      `json:"material,omitempty"`
	Color         string      `json:"color,omitempty"`
	Unit          string      `json:"unit,omitempty"`
	UnitPrice     json.Number `json:"unit_price,omitempty"`
	CapacityTotal json.Number `json:"capacity_total"`
	CurrentAmount json.Number `json:"current_amount,omitempty"` // defaults to capacity
	Opened        bool        `json:"opened,omitempty"`
}

// UpdateItemRequest carries descriptive edits. Nil fields are left unchanged.
// ExpectedVersion of zero means unconditioned (last write wins); fine for a
// favorite toggle, never used by the adjustment engine.
type UpdateItemRequest struct {
	Name            *string     `json:"name,omitempty"`
	Brand           *string     `json:"brand,omitempty"`
	Material        *string     `json:"material,omitempty"`
	Color           *string     `json:"color,omitempty"`
	Unit            *string     `json:"unit,omitempty"`
	UnitPrice       json.Number `json:"unit_price,omitempty"`
	CapacityTotal   json.Number `json:"capacity_total,omitempty"`
	Favorite        *bool       `json:"favorite,omitempty"`
	Opened          *bool       `json:"opened,omitempty"`
	ExpectedVersion int64       `json:"expected_version,omitempty"`
}

// AdjustRequest is the payload for a balance change.
type AdjustRequest struct {
	Kind            string      `json:"kind"` // CONSUMPTION, FAILURE_WRITEOFF, RESTOCK, MANUAL_ADJUSTMENT
	Quantity        json.Number `json:"quantity"`
	Note            string      `json:"note,omitempty"`
	PrinterID       string      `json:"printer_id,omitempty"`
	ProjectID       string      `json:"project_id,omitempty"`
	ExpectedVersion int64       `json:"expected_version,omitempty"`
}

type service struct{ repo Repository }

// NewService creates a new stock service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, ownerID string, req CreateItemRequest) (*Item, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner id", ErrInvalidInput)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	itemType := ItemType(strings.ToUpper(req.Type))
	if itemType != TypeFilament && itemType != TypeSupply {
		return nil, fmt.Errorf("%w: type must be FILAMENT or SUPPLY", ErrInvalidInput)
	}
	capacity := CoerceQuantity(req.CapacityTotal)
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity_total must be > 0", ErrInvalidInput)
	}
	amount := capacity
	if req.CurrentAmount != "" {
		amount = CoerceQuantity(req.CurrentAmount)
	}
	unit := req.Unit
	if unit == "" {
		unit = "g"
	}

	price := decimal.Zero
	if req.UnitPrice != "" {
		if p, err := decimal.NewFromString(req.UnitPrice.String()); err == nil {
			price = p
		}
	}

	item := &Item{
		ID:            uuid.New(),
		OwnerID:       owner,
		Type:          itemType,
		Name:          req.Name,
		Brand:         req.Brand,
		Material:      req.Material,
		Color:         req.Color,
		Unit:          unit,
		UnitPrice:     price,
		CapacityTotal: capacity,
		CurrentAmount: amount,
		Version:       1,
	}
	if req.Opened {
		now := time.Now().UTC()
		item.OpenedAt = &now
	}

	_, opening := PlanAdjustment(&Item{ID: item.ID, OwnerID: owner, UnitPrice: price}, Adjustment{
		Kind:     LedgerOpening,
		Quantity: amount,
		Note:     "opening balance",
	})
	if err := s.repo.Create(ctx, item, opening); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Item, error) {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, itemID, false)
}

func (s *service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*Item, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner id", ErrInvalidInput)
	}
	return s.repo.List(ctx, owner, filter)
}

func (s *service) Update(ctx context.Context, ownerID, id string, req UpdateItemRequest) (*Item, error) {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(ctx, owner, itemID, false)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion > 0 && req.ExpectedVersion != item.Version {
		return nil, ErrVersionConflict
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		item.Name = *req.Name
	}
	if req.Brand != nil {
		item.Brand = *req.Brand
	}
	if req.Material != nil {
		item.Material = *req.Material
	}
	if req.Color != nil {
		item.Color = *req.Color
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.UnitPrice != "" {
		if p, err := decimal.NewFromString(req.UnitPrice.String()); err == nil {
			item.UnitPrice = p
		}
	}
	if req.CapacityTotal != "" {
		if c := CoerceQuantity(req.CapacityTotal); c > 0 {
			item.CapacityTotal = c
		}
	}
	if req.Favorite != nil {
		item.Favorite = *req.Favorite
	}
	if req.Opened != nil {
		if *req.Opened && item.OpenedAt == nil {
			now := time.Now().UTC()
			item.OpenedAt = &now
		} else if !*req.Opened {
			item.OpenedAt = nil
		}
	}

	return s.repo.UpdateDetails(ctx, item, req.ExpectedVersion)
}

func (s *service) Adjust(ctx context.Context, ownerID, id string, req AdjustRequest) (*Item, error) {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	kind := LedgerKind(strings.ToUpper(req.Kind))
	switch kind {
	case LedgerConsumption, LedgerFailureWriteoff, LedgerRestock, LedgerManualAdjustment:
	default:
		return nil, fmt.Errorf("%w: unsupported adjustment kind %q", ErrInvalidInput, req.Kind)
	}

	item, err := s.repo.GetByID(ctx, owner, itemID, false)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion > 0 && req.ExpectedVersion != item.Version {
		return nil, ErrVersionConflict
	}

	adj := Adjustment{
		Kind:     kind,
		Quantity: CoerceQuantity(req.Quantity),
		Note:     req.Note,
	}
	if pid, err := uuid.Parse(req.PrinterID); err == nil && req.PrinterID != "" {
		adj.PrinterID = &pid
	}
	if pid, err := uuid.Parse(req.ProjectID); err == nil && req.ProjectID != "" {
		adj.ProjectID = &pid
	}

	newAmount, entry := PlanAdjustment(item, adj)
	return s.repo.ApplyAdjustment(ctx, owner, itemID, newAmount, item.Version, entry)
}

func (s *service) SoftDelete(ctx context.Context, ownerID, id string) error {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, owner, itemID)
}

func (s *service) Restore(ctx context.Context, ownerID, id string) (*Item, error) {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, owner, itemID, true); err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, owner, itemID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, itemID, false)
}

func (s *service) Ledger(ctx context.Context, ownerID, id string) ([]*LedgerEntry, error) {
	owner, itemID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	// History stays readable for soft-deleted items.
	if _, err := s.repo.GetByID(ctx, owner, itemID, true); err != nil {
		return nil, err
	}
	return s.repo.ListLedger(ctx, owner, itemID)
}

func parseIDs(ownerID, id string) (uuid.UUID, uuid.UUID, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid owner id", ErrInvalidInput)
	}
	itemID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid item id", ErrInvalidInput)
	}
	return owner, itemID, nil
}
