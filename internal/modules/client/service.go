package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines client book business logic.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateClientRequest) (*Client, error)
	Get(ctx context.Context, ownerID, id string) (*Client, error)
	List(ctx context.Context, ownerID string) ([]*Client, error)
	Update(ctx context.Context, ownerID, id string, req UpdateClientRequest) (*Client, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type service struct{ repo Repository }

// NewService creates a new client service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, ownerID string, req CreateClientRequest) (*Client, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	c := &Client{
		ID:      uuid.New(),
		OwnerID: owner,
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
		Notes:   req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, ownerID, id string) (*Client, error) {
	owner, clientID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, clientID)
}

func (s *service) List(ctx context.Context, ownerID string) ([]*Client, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	return s.repo.List(ctx, owner)
}

func (s *service) Update(ctx context.Context, ownerID, id string, req UpdateClientRequest) (*Client, error) {
	owner, clientID, err := parseIDs(ownerID, id)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, owner, clientID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		c.Name = *req.Name
	}
	if req.Company != nil {
		c.Company = *req.Company
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, owner, clientID)
}

func (s *service) Delete(ctx context.Context, ownerID, id string) error {
	owner, clientID, err := parseIDs(ownerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, owner, clientID)
}

func parseIDs(ownerID, id string) (uuid.UUID, uuid.UUID, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid owner id: %w", err)
	}
	clientID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid client id: %w", err)
	}
	return owner, clientID, nil
}
