// Package transport defines the quote module's wire DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// LineItemPayload is one inbound line item.
type LineItemPayload struct {
	Description string  `json:"description" validate:"required,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"required,gt=0"`
}

// CreateQuoteRequest is the inbound creation payload. When items are present
// the total is recomputed from them and any supplied total is ignored.
type CreateQuoteRequest struct {
	QuoteNumber        string            `json:"quoteNumber" validate:"omitempty,max=50"`
	Title              string            `json:"title" validate:"required,min=1,max=300"`
	Description        *string           `json:"description" validate:"omitempty,max=5000"`
	Terms              *string           `json:"terms" validate:"omitempty,max=5000"`
	Notes              *string           `json:"notes" validate:"omitempty,max=5000"`
	TotalAmount        float64           `json:"totalAmount" validate:"omitempty,gte=0"`
	ValidUntil         *time.Time        `json:"validUntil"`
	RequestID          *uuid.UUID        `json:"requestId"`
	AgentContactID     *uuid.UUID        `json:"agentContactId"`
	HomeownerContactID *uuid.UUID        `json:"homeownerContactId"`
	PropertyID         *uuid.UUID        `json:"propertyId"`
	CreatedBy          string            `json:"createdBy" validate:"omitempty,max=100"`
	Items              []LineItemPayload `json:"items" validate:"omitempty,dive"`
}

// UpdateQuoteRequest patches mutable quote fields.
type UpdateQuoteRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Terms       *string    `json:"terms" validate:"omitempty,max=5000"`
	Notes       *string    `json:"notes" validate:"omitempty,max=5000"`
	TotalAmount *float64   `json:"totalAmount" validate:"omitempty"`
	ValidUntil  *time.Time `json:"validUntil"`
	Version     *int       `json:"version" validate:"omitempty,min=1"`
}

// WorkflowActionRequest names the workflow action to apply to a quote.
type WorkflowActionRequest struct {
	Action  string  `json:"action" validate:"required"`
	Reason  *string `json:"reason" validate:"omitempty,max=1000"`
	Actor   string  `json:"actor" validate:"omitempty,max=100"`
	Version *int    `json:"version" validate:"omitempty,min=1"`
}

// DuplicateQuoteRequest carries the optional overrides for a duplication.
type DuplicateQuoteRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=300"`
	TotalAmount *float64 `json:"totalAmount"`
	CreatedBy   string   `json:"createdBy" validate:"omitempty,max=100"`
}

// CreateFromRequestRequest drives the quote creation orchestrator.
type CreateFromRequestRequest struct {
	RequestID        uuid.UUID `json:"requestId" validate:"required"`
	Title            string    `json:"title" validate:"omitempty,max=300"`
	Operator         string    `json:"operator" validate:"omitempty,max=100"`
	SkipStatusUpdate bool      `json:"skipStatusUpdate"`
}

// LineItemResponse is one priced row of a quote view.
type LineItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	Subtotal    float64   `json:"subtotal"`
}

// RequestSummary is the flattened originating-request view.
type RequestSummary struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// QuoteResponse is the enriched quote view returned to callers.
type QuoteResponse struct {
	ID                 uuid.UUID  `json:"id"`
	QuoteNumber        string     `json:"quoteNumber"`
	Title              string     `json:"title"`
	Description        *string    `json:"description,omitempty"`
	Terms              *string    `json:"terms,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	TotalAmount        float64    `json:"totalAmount"`
	ValidUntil         time.Time  `json:"validUntil"`
	Status             string     `json:"status"`
	RequestID          *uuid.UUID `json:"requestId,omitempty"`
	AgentContactID     *uuid.UUID `json:"agentContactId,omitempty"`
	HomeownerContactID *uuid.UUID `json:"homeownerContactId,omitempty"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	SentAt             *time.Time `json:"sentAt,omitempty"`
	ViewedAt           *time.Time `json:"viewedAt,omitempty"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	CreatedBy          string     `json:"createdBy"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// Derived fields, computed on every read and never persisted.
	AgeDays               int    `json:"ageDays"`
	DaysUntilExpiry       int    `json:"daysUntilExpiry"`
	IsExpired             bool   `json:"isExpired"`
	IsExpiringSoon        bool   `json:"isExpiringSoon"`
	ConversionProbability int    `json:"conversionProbability"`
	RevenueImpact         string `json:"revenueImpact"`

	Items   []LineItemResponse `json:"items,omitempty"`
	Request *RequestSummary    `json:"request,omitempty"`
}

// CreationReadinessResponse is the pre-flight evaluation for quote creation.
type CreationReadinessResponse struct {
	RequestID   uuid.UUID `json:"requestId"`
	Ready       bool      `json:"ready"`
	Blockers    []string  `json:"blockers"`
	Suggestions []string  `json:"suggestions"`
}

// CreateFromRequestResponse reports the orchestration outcome.
type CreateFromRequestResponse struct {
	Quote                 QuoteResponse `json:"quote"`
	PreviousRequestStatus string        `json:"previousRequestStatus"`
	RequestStatusUpdated  bool          `json:"requestStatusUpdated"`
}
