package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines project/budget business logic.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateProjectRequest) (*Project, error)
	Get(ctx context.Context, ownerID, id string) (*Project, error)
	List(ctx context.Context, ownerID string, status string) ([]*Project, error)
	Update(ctx context.Context, ownerID, id string, req UpdateProjectRequest) (*Project, error)

	// UpdateStatus applies one state-machine transition. A transition to the
	// current status succeeds as a no-op confirmation.
	UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Project, error)

	Delete(ctx context.Context, ownerID, id string) error
}

type service struct{ repo Repository }

// NewService creates a new project service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, ownerID string, req CreateProjectRequest) (*Project, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	p := &Project{
		ID:          uuid.New(),
		OwnerID:     owner,
		Name:        req.Name,
		Status:      StatusDraft,
		Payload:     req.Payload,
		TotalBudget: decimal.Zero,
	}
	if req.ClientID != "" {
		cid, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("invalid client_id: %w", err)
		}
		p.ClientID = &cid
	}
	if req.TotalBudget != "" {
		if b, err := decimal.NewFromString(req.TotalBudget.String()); err == nil {
			p.TotalBudget = b
		}
	}
	p.SyncPayloadStatus()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Project, error) {
	owner, projectID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, projectID)
}

func (s *service) List(ctx context.Context, ownerID string, status string) ([]*Project, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	return s.repo.List(ctx, owner, Status(strings.ToUpper(status)))
}

func (s *service) Update(ctx context.Context, ownerID, id string, req UpdateProjectRequest) (*Project, error) {
	owner, projectID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		p.Name = *req.Name
	}
	if req.ClientID != nil {
		if *req.ClientID == "" {
			p.ClientID = nil
		} else {
			cid, err := uuid.Parse(*req.ClientID)
			if err != nil {
				return nil, fmt.Errorf("invalid client_id: %w", err)
			}
			p.ClientID = &cid
		}
	}
	if len(req.Payload) > 0 {
		p.Payload = req.Payload
		p.SyncPayloadStatus()
	}
	if req.TotalBudget != "" {
		if b, err := decimal.NewFromString(req.TotalBudget.String()); err == nil {
			p.TotalBudget = b
		}
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, projectID)
}

func (s *service) UpdateStatus(ctx context.Context, ownerID, id string, req UpdateStatusRequest) (*Project, error) {
	owner, projectID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}

	next := Status(strings.ToUpper(req.Status))
	if !CanTransition(p.Status, next) {
		return nil, &InvalidTransitionError{From: p.Status, To: next}
	}
	if next == p.Status {
		return p, nil
	}

	p.Status = next
	p.SyncPayloadStatus()
	if err := s.repo.UpdateStatus(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, ownerID, id string) error {
	owner, projectID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, owner, projectID)
}

func parseIDs(ownerID, id string) (uuid.UUID, uuid.UUID, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid owner id: %w", err)
	}
	projectID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid project id: %w", err)
	}
	return owner, projectID, nil
}
