package printer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service defines printer fleet business logic.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreatePrinterRequest) (*Printer, error)
	Get(ctx context.Context, ownerID, id string) (*Printer, error)
	List(ctx context.Context, ownerID string) ([]*Printer, error)
	Update(ctx context.Context, ownerID, id string, req UpdatePrinterRequest) (*Printer, error)
	UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Printer, error)
	RecordService(ctx context.Context, ownerID, id string) (*Printer, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type service struct{ repo Repository }

// NewService creates a new printer service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, ownerID string, req CreatePrinterRequest) (*Printer, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	hours := req.TotalHours
	if hours < 0 {
		hours = 0
	}
	p := &Printer{
		ID:         uuid.New(),
		OwnerID:    owner,
		Name:       req.Name,
		Model:      req.Model,
		Status:     StatusIdle,
		TotalHours: hours,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Printer, error) {
	owner, printerID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, printerID)
}

func (s *service) List(ctx context.Context, ownerID string) ([]*Printer, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	return s.repo.List(ctx, owner)
}

func (s *service) Update(ctx context.Context, ownerID, id string, req UpdatePrinterRequest) (*Printer, error) {
	owner, printerID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, owner, printerID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		p.Name = *req.Name
	}
	if req.Model != nil {
		p.Model = *req.Model
	}
	if req.TotalHours != nil && *req.TotalHours >= 0 {
		p.TotalHours = *req.TotalHours
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, printerID)
}

func (s *service) UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Printer, error) {
	owner, printerID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	status := Status(strings.ToUpper(req.Status))
	if !ValidStatus(status) {
		return nil, fmt.Errorf("unknown printer status %q", req.Status)
	}
	if err := s.repo.UpdateStatus(ctx, owner, printerID, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, printerID)
}

func (s *service) RecordService(ctx context.Context, ownerID, id string) (*Printer, error) {
	owner, printerID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RecordService(ctx, owner, printerID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, printerID)
}

func (s *service) Delete(ctx context.Context, ownerID, id string) error {
	owner, printerID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, owner, printerID)
}

func parseIDs(ownerID, id string) (uuid.UUID, uuid.UUID, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid owner id: %w", err)
	}
	printerID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid printer id: %w", err)
	}
	return owner, printerID, nil
}
