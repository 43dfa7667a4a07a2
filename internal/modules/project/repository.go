package project

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines project data storage.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
	List(ctx context.Context, ownerID uuid.UUID, status Status) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
	// UpdateStatus writes the status column and the synced payload together.
	UpdateStatus(ctx context.Context, p *Project) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
