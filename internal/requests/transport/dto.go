// Package transport defines the request module's wire DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ContactPayload is the loosely-structured contact data accepted on creation.
type ContactPayload struct {
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Brokerage string `json:"brokerage" validate:"omitempty,max=200"`
}

// PropertyPayload is the loosely-structured property data accepted on creation.
type PropertyPayload struct {
	Street       string   `json:"street" validate:"omitempty,max=200"`
	City         string   `json:"city" validate:"omitempty,max=100"`
	State        string   `json:"state" validate:"omitempty,max=100"`
	PostalCode   string   `json:"postalCode" validate:"omitempty,max=20"`
	PropertyType string   `json:"propertyType" validate:"omitempty,max=50"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms    *float64 `json:"bathrooms" validate:"omitempty,min=0"`
}

// CreateRequestRequest is the inbound submission payload.
type CreateRequestRequest struct {
	Message            string           `json:"message" validate:"required,min=1,max=5000"`
	RelationToProperty string           `json:"relationToProperty" validate:"omitempty,max=100"`
	Budget             string           `json:"budget" validate:"omitempty,max=50"`
	LeadSource         string           `json:"leadSource" validate:"omitempty,max=100"`
	Product            string           `json:"product" validate:"omitempty,max=200"`
	Agent              *ContactPayload  `json:"agent"`
	Homeowner          *ContactPayload  `json:"homeowner"`
	Property           *PropertyPayload `json:"property"`
}

// UpdateRequestRequest patches mutable request fields. Version, when supplied,
// makes the update conditional on the version the caller read.
type UpdateRequestRequest struct {
	Message            *string `json:"message" validate:"omitempty,min=1,max=5000"`
	RelationToProperty *string `json:"relationToProperty" validate:"omitempty,max=100"`
	Budget             *string `json:"budget" validate:"omitempty,max=50"`
	LeadSource         *string `json:"leadSource" validate:"omitempty,max=100"`
	Product            *string `json:"product" validate:"omitempty,max=200"`
	AssignedTo         *string `json:"assignedTo" validate:"omitempty,max=100"`
	Version            *int    `json:"version" validate:"omitempty,min=1"`
}

// WorkflowActionRequest names the workflow action to apply.
type WorkflowActionRequest struct {
	Action     string  `json:"action" validate:"required"`
	AssigneeID *string `json:"assigneeId" validate:"omitempty,max=100"`
	Actor      string  `json:"actor" validate:"omitempty,max=100"`
	Version    *int    `json:"version" validate:"omitempty,min=1"`
}

// ContactSummary is the flattened related-contact view attached on reads.
type ContactSummary struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Brokerage *string `json:"brokerage,omitempty"`
}

// PropertySummary is the flattened related-property view attached on reads.
type PropertySummary struct {
	Address      string   `json:"address"`
	PropertyType *string  `json:"propertyType,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
}

// RequestResponse is the enriched request view returned to callers.
type RequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Message            string     `json:"message"`
	RelationToProperty *string    `json:"relationToProperty,omitempty"`
	Budget             *string    `json:"budget,omitempty"`
	LeadSource         *string    `json:"leadSource,omitempty"`
	Product            *string    `json:"product,omitempty"`
	Status             string     `json:"status"`
	AssignedTo         *string    `json:"assignedTo,omitempty"`
	AssignedAt         *time.Time `json:"assignedAt,omitempty"`
	AgentContactID     *uuid.UUID `json:"agentContactId,omitempty"`
	HomeownerContactID *uuid.UUID `json:"homeownerContactId,omitempty"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	MovedToQuotingAt   *time.Time `json:"movedToQuotingAt,omitempty"`
	ArchivedAt         *time.Time `json:"archivedAt,omitempty"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// Derived fields, computed on every read and never persisted.
	AgeDays       int    `json:"ageDays"`
	IsPastDue     bool   `json:"isPastDue"`
	NextAction    string `json:"nextAction"`
	PriorityScore int    `json:"priorityScore"`

	Agent     *ContactSummary  `json:"agent,omitempty"`
	Homeowner *ContactSummary  `json:"homeowner,omitempty"`
	Property  *PropertySummary `json:"property,omitempty"`
}

// RequestListResponse wraps a request listing.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
}
