package printer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines printer data storage.
type Repository interface {
	Create(ctx context.Context, p *Printer) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Printer, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*Printer, error)
	Update(ctx context.Context, p *Printer) error
	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status Status) error
	// RecordService zeroes the maintenance counters and stamps the service time.
	RecordService(ctx context.Context, ownerID, id uuid.UUID) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
