// Package transport defines the case management module's wire DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateNoteRequest is the inbound note payload.
type CreateNoteRequest struct {
	Content      string     `json:"content" validate:"required,min=1,max=10000"`
	NoteType     string     `json:"noteType" validate:"required"`
	IsPrivate    bool       `json:"isPrivate"`
	AuthorID     string     `json:"authorId" validate:"required,max=100"`
	AuthorRole   string     `json:"authorRole" validate:"omitempty,max=100"`
	Attachments  []string   `json:"attachments" validate:"omitempty,dive,max=500"`
	FollowUpDate *time.Time `json:"followUpDate"`
	Priority     string     `json:"priority" validate:"omitempty,max=50"`
	Tags         []string   `json:"tags" validate:"omitempty,dive,max=100"`
}

// NoteFilters narrows a note listing. Zero values mean no filtering on that
// dimension.
type NoteFilters struct {
	NoteType       string
	AuthorRole     string
	IncludePrivate bool
}

// AssignRequest is the inbound assignment payload.
type AssignRequest struct {
	AssigneeID     string     `json:"assigneeId" validate:"required,max=100"`
	AssigneeRole   string     `json:"assigneeRole" validate:"omitempty,max=100"`
	AssignmentType string     `json:"assignmentType" validate:"required"`
	AssignedBy     string     `json:"assignedBy" validate:"required,max=100"`
	Reason         *string    `json:"reason" validate:"omitempty,max=1000"`
	DueDate        *time.Time `json:"dueDate"`
	Priority       string     `json:"priority" validate:"omitempty,max=50"`
}

// ChangeStatusRequest is the inbound status-change payload.
type ChangeStatusRequest struct {
	NewStatus      string  `json:"newStatus" validate:"required"`
	Reason         *string `json:"reason" validate:"omitempty,max=1000"`
	TriggeredBy    string  `json:"triggeredBy" validate:"omitempty,max=50"`
	BusinessImpact string  `json:"businessImpact" validate:"omitempty,max=100"`
	ClientNotified bool    `json:"clientNotified"`
	ChangedBy      string  `json:"changedBy" validate:"omitempty,max=100"`
}

// CreateInformationItemRequest is the inbound checklist entry payload.
type CreateInformationItemRequest struct {
	Category   string  `json:"category" validate:"required,max=100"`
	Name       string  `json:"name" validate:"required,max=300"`
	Status     string  `json:"status" validate:"omitempty"`
	Importance string  `json:"importance" validate:"required"`
	Value      *string `json:"value" validate:"omitempty,max=5000"`
}

// UpdateInformationItemRequest moves a checklist entry.
type UpdateInformationItemRequest struct {
	Status string  `json:"status" validate:"required"`
	Value  *string `json:"value" validate:"omitempty,max=5000"`
}

// CreateScopeItemRequest is the inbound scope node payload.
type CreateScopeItemRequest struct {
	ParentID       *uuid.UUID     `json:"parentId"`
	Category       string         `json:"category" validate:"required,max=100"`
	Name           string         `json:"name" validate:"required,max=300"`
	Specifications map[string]any `json:"specifications"`
	Materials      map[string]any `json:"materials"`
	EstimatedCost  *float64       `json:"estimatedCost" validate:"omitempty,gte=0"`
	EstimatedHours *float64       `json:"estimatedHours" validate:"omitempty,gte=0"`
	Complexity     string         `json:"complexity" validate:"omitempty,max=50"`
	Status         string         `json:"status" validate:"omitempty"`
}

// UpdateScopeItemRequest moves a scope node.
type UpdateScopeItemRequest struct {
	Status         string `json:"status" validate:"required"`
	ClientApproved *bool  `json:"clientApproved"`
}

// NoteResponse is one note of the request's log.
type NoteResponse struct {
	ID           uuid.UUID  `json:"id"`
	RequestID    uuid.UUID  `json:"requestId"`
	Content      string     `json:"content"`
	NoteType     string     `json:"noteType"`
	IsPrivate    bool       `json:"isPrivate"`
	AuthorID     string     `json:"authorId"`
	AuthorRole   string     `json:"authorRole"`
	Attachments  []string   `json:"attachments,omitempty"`
	FollowUpDate *time.Time `json:"followUpDate,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AssignmentResponse is one record of the assignment history.
type AssignmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	RequestID      uuid.UUID  `json:"requestId"`
	AssigneeID     string     `json:"assigneeId"`
	AssigneeRole   string     `json:"assigneeRole"`
	AssignmentType string     `json:"assignmentType"`
	AssignedBy     string     `json:"assignedBy"`
	Reason         *string    `json:"reason,omitempty"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// StatusChangeResponse is one record of the status history.
type StatusChangeResponse struct {
	ID             uuid.UUID `json:"id"`
	RequestID      uuid.UUID `json:"requestId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason,omitempty"`
	TriggeredBy    string    `json:"triggeredBy"`
	BusinessImpact string    `json:"businessImpact,omitempty"`
	ClientNotified bool      `json:"clientNotified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InformationItemResponse is one checklist entry.
type InformationItemResponse struct {
	ID         uuid.UUID `json:"id"`
	Category   string    `json:"category"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Importance string    `json:"importance"`
	Value      *string   `json:"value,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// InformationChecklistResponse is the checklist with its aggregate state.
type InformationChecklistResponse struct {
	RequestID       uuid.UUID                 `json:"requestId"`
	Items           []InformationItemResponse `json:"items"`
	VerifiedCount   int                       `json:"verifiedCount"`
	TotalCount      int                       `json:"totalCount"`
	GatheringStatus string                    `json:"gatheringStatus"`
}

// ScopeItemResponse is one node of the scope tree.
type ScopeItemResponse struct {
	ID             uuid.UUID      `json:"id"`
	ParentID       *uuid.UUID     `json:"parentId,omitempty"`
	Category       string         `json:"category"`
	Name           string         `json:"name"`
	Specifications map[string]any `json:"specifications,omitempty"`
	Materials      map[string]any `json:"materials,omitempty"`
	EstimatedCost  *float64       `json:"estimatedCost,omitempty"`
	EstimatedHours *float64       `json:"estimatedHours,omitempty"`
	Complexity     string         `json:"complexity,omitempty"`
	Status         string         `json:"status"`
	ClientApproved bool           `json:"clientApproved"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ScopeDefinitionResponse is the scope tree with its aggregate state.
type ScopeDefinitionResponse struct {
	RequestID        uuid.UUID           `json:"requestId"`
	Items            []ScopeItemResponse `json:"items"`
	ApprovedCount    int                 `json:"approvedCount"`
	TotalCount       int                 `json:"totalCount"`
	DefinitionStatus string              `json:"definitionStatus"`
}

// ReadinessResponse is the quoting readiness score with its factor strings.
type ReadinessResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	Score     int       `json:"score"`
	Factors   []string  `json:"factors"`
}

// CaseOverviewResponse is the one-call case dashboard for a request.
type CaseOverviewResponse struct {
	RequestID           uuid.UUID  `json:"requestId"`
	Status              string     `json:"status"`
	PriorityScore       int        `json:"priorityScore"`
	AssignedTo          *string    `json:"assignedTo,omitempty"`
	NoteCount           int        `json:"noteCount"`
	PendingInformation  int        `json:"pendingInformation"`
	CompletedScopeItems int        `json:"completedScopeItems"`
	LastActivityAt      time.Time  `json:"lastActivityAt"`
	NextFollowUp        *time.Time `json:"nextFollowUp,omitempty"`
	EstimatedValue      *float64   `json:"estimatedValue,omitempty"`
	ReadinessScore      int        `json:"readinessScore"`
	ReadinessFactors    []string   `json:"readinessFactors"`
}

// RequestSnapshot is the slice of the request the case service needs.
type RequestSnapshot struct {
	ID             uuid.UUID
	Status         string
	AssignedTo     *string
	PriorityScore  int
	EstimatedValue *float64
	UpdatedAt      time.Time
}
