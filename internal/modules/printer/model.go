package printer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the operational state of a printer.
type Status string

const (
	StatusIdle        Status = "IDLE"
	StatusPrinting    Status = "PRINTING"
	StatusMaintenance Status = "MAINTENANCE"
	StatusOffline     Status = "OFFLINE"
)

// ValidStatus reports whether s is a known printer status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusIdle, StatusPrinting, StatusMaintenance, StatusOffline:
		return true
	}
	return false
}

// ErrNotFound is returned when a printer does not exist under the caller's tenant.
var ErrNotFound = errors.New("printer not found")

// Printer is one machine in the fleet. TotalHours only grows through normal
// operation; an explicit edit is the escape hatch for corrections.
type Printer struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	Name              string     `json:"name"`
	Model             string     `json:"model,omitempty"`
	Status            Status     `json:"status"`
	TotalHours        float64    `json:"total_hours"`
	PrintCount        int        `json:"print_count"`
	HoursSinceService float64    `json:"hours_since_service"`
	LastServiceAt     *time.Time `json:"last_service_at,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreatePrinterRequest is the payload for registering a printer.
type CreatePrinterRequest struct {
	Name       string  `json:"name"`
	Model      string  `json:"model,omitempty"`
	TotalHours float64 `json:"total_hours,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// UpdatePrinterRequest carries edits; nil fields are left unchanged.
// TotalHours here is the explicit-correction path, not normal accrual.
type UpdatePrinterRequest struct {
	Name       *string  `json:"name,omitempty"`
	Model      *string  `json:"model,omitempty"`
	TotalHours *float64 `json:"total_hours,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// UpdateStatusRequest is the payload for changing a printer's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
