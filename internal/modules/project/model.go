package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a project/budget.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusPrinting  Status = "PRINTING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusApproved, StatusCancelled},
	StatusApproved:  {StatusPrinting, StatusCancelled, StatusDraft},
	StatusPrinting:  {StatusCompleted, StatusCancelled, StatusApproved},
	StatusCompleted: {},
	StatusCancelled: {StatusDraft},
}

// CanTransition returns true if moving from current to next is allowed.
// A transition to the same status is always permitted (no-op confirmation),
// and a project with no recognisable status may bootstrap to DRAFT.
func CanTransition(current, next Status) bool {
	if current == next {
		return true
	}
	allowed, known := validTransitions[current]
	if !known {
		return next == StatusDraft
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound is returned when a project does not exist under the caller's tenant.
	ErrNotFound = errors.New("project not found")
)

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition project from %s to %s", e.From, e.To)
}

// Project is a quote/budget for a print job. Payload carries the structured
// quote inputs and computed results, including the consumed filament/supply
// line items; its embedded status field is kept in sync with the Status
// column on every transition.
type Project struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	ClientID    *uuid.UUID      `json:"client_id,omitempty"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SyncPayloadStatus rewrites the payload's status field so the embedded copy
// matches the denormalized column. A payload that is not a JSON object is
// left alone.
func (p *Project) SyncPayloadStatus() {
	if len(p.Payload) == 0 {
		return
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(p.Payload, &doc); err != nil {
		return
	}
	doc["status"] = string(p.Status)
	if raw, err := json.Marshal(doc); err == nil {
		p.Payload = raw
	}
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string          `json:"name"`
	ClientID    string          `json:"client_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	TotalBudget json.Number     `json:"total_budget,omitempty"`
}

// UpdateProjectRequest carries edits; nil/empty fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string         `json:"name,omitempty"`
	ClientID    *string         `json:"client_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	TotalBudget json.Number     `json:"total_budget,omitempty"`
}

// UpdateStatusRequest is the payload for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
