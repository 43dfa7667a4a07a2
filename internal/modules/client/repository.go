package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines client data storage.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Client, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
