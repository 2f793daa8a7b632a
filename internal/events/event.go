// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"caseflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Request Domain Events
// =============================================================================

// RequestCreated is published when a new client request is created.
type RequestCreated struct {
	BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	Source    string    `json:"source"`
}

func (e RequestCreated) EventName() string { return "requests.created" }

// RequestStatusChanged is published after a request workflow transition.
type RequestStatusChanged struct {
	BaseEvent
	RequestID      uuid.UUID `json:"requestId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Action         string    `json:"action"`
	ChangedBy      string    `json:"changedBy"`
	NotifyClient   bool      `json:"notifyClient"`
}

func (e RequestStatusChanged) EventName() string { return "requests.status_changed" }

// RequestAssigned is published when a request gains a primary assignee.
type RequestAssigned struct {
	BaseEvent
	RequestID  uuid.UUID `json:"requestId"`
	AssigneeID string    `json:"assigneeId"`
	AssignedBy string    `json:"assignedBy"`
}

func (e RequestAssigned) EventName() string { return "requests.assigned" }

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteCreated is published when a quote is persisted, whether standalone or
// generated from a request by the creation orchestrator.
type QuoteCreated struct {
	BaseEvent
	QuoteID     uuid.UUID  `json:"quoteId"`
	QuoteNumber string     `json:"quoteNumber"`
	RequestID   *uuid.UUID `json:"requestId,omitempty"`
	CreatedBy   string     `json:"createdBy"`
}

func (e QuoteCreated) EventName() string { return "quotes.created" }

// QuoteStatusChanged is published after a quote workflow transition.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID        uuid.UUID `json:"quoteId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Action         string    `json:"action"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.status_changed" }

// =============================================================================
// Project Domain Events
// =============================================================================

// ProjectStatusChanged is published after a project workflow transition.
type ProjectStatusChanged struct {
	BaseEvent
	ProjectID      uuid.UUID `json:"projectId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Action         string    `json:"action"`
}

func (e ProjectStatusChanged) EventName() string { return "projects.status_changed" }
