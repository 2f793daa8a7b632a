// Package transport defines the project module's wire DTOs.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// MilestonePayload is one inbound milestone.
type MilestonePayload struct {
	Title        string     `json:"title" validate:"required,max=300"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	DueDate      *time.Time `json:"dueDate"`
	Dependencies []string   `json:"dependencies" validate:"omitempty,dive,max=300"`
}

// BudgetComponents are the optional cost components summed into the project
// budget at creation, inflated by the contingency percentage.
type BudgetComponents struct {
	Labor          float64  `json:"labor" validate:"omitempty,gte=0"`
	Material       float64  `json:"material" validate:"omitempty,gte=0"`
	Equipment      float64  `json:"equipment" validate:"omitempty,gte=0"`
	ContingencyPct *float64 `json:"contingencyPct" validate:"omitempty,gte=0,lte=100"`
}

// CreateProjectRequest is the inbound creation payload.
type CreateProjectRequest struct {
	Title            string             `json:"title" validate:"required,min=1,max=300"`
	Description      *string            `json:"description" validate:"omitempty,max=5000"`
	Budget           float64            `json:"budget" validate:"omitempty,gte=0"`
	BudgetComponents *BudgetComponents  `json:"budgetComponents"`
	StartDate        *time.Time         `json:"startDate"`
	CompletionDate   *time.Time         `json:"completionDate"`
	RequestID        *uuid.UUID         `json:"requestId"`
	QuoteID          *uuid.UUID         `json:"quoteId"`
	Milestones       []MilestonePayload `json:"milestones" validate:"omitempty,dive"`
}

// UpdateProjectRequest patches mutable project fields.
type UpdateProjectRequest struct {
	Title          *string    `json:"title" validate:"omitempty,min=1,max=300"`
	Description    *string    `json:"description" validate:"omitempty,max=5000"`
	Budget         *float64   `json:"budget" validate:"omitempty,gte=0"`
	ActualCost     *float64   `json:"actualCost" validate:"omitempty,gte=0"`
	StartDate      *time.Time `json:"startDate"`
	CompletionDate *time.Time `json:"completionDate"`
	Version        *int       `json:"version" validate:"omitempty,min=1"`
}

// WorkflowActionRequest names the workflow action to apply to a project.
type WorkflowActionRequest struct {
	Action  string `json:"action" validate:"required"`
	Actor   string `json:"actor" validate:"omitempty,max=100"`
	Version *int   `json:"version" validate:"omitempty,min=1"`
}

// MilestoneResponse is one milestone of a project view.
type MilestoneResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
}

// RequestSummary is the flattened originating-request view.
type RequestSummary struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// QuoteSummary is the flattened originating-quote view.
type QuoteSummary struct {
	ID          uuid.UUID `json:"id"`
	QuoteNumber string    `json:"quoteNumber"`
	TotalAmount float64   `json:"totalAmount"`
}

// ProjectResponse is the enriched project view returned to callers.
type ProjectResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Status         string     `json:"status"`
	Budget         float64    `json:"budget"`
	ActualCost     float64    `json:"actualCost"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	RequestID      *uuid.UUID `json:"requestId,omitempty"`
	QuoteID        *uuid.UUID `json:"quoteId,omitempty"`
	Archived       bool       `json:"archived"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	// Derived fields, computed on every read and never persisted.
	AgeDays           int     `json:"ageDays"`
	DaysToCompletion  *int    `json:"daysToCompletion,omitempty"`
	IsOverdue         bool    `json:"isOverdue"`
	ProgressPct       int     `json:"progressPct"`
	IsAtRisk          bool    `json:"isAtRisk"`
	BudgetVariance    float64 `json:"budgetVariance"`
	BudgetVariancePct float64 `json:"budgetVariancePct"`
	Profitability     string  `json:"profitability"`
	RiskLevel         string  `json:"riskLevel"`

	Milestones []MilestoneResponse `json:"milestones,omitempty"`
	Request    *RequestSummary     `json:"request,omitempty"`
	Quote      *QuoteSummary       `json:"quote,omitempty"`
}

// BudgetUtilization is the budget dimension of the project metrics view.
type BudgetUtilization struct {
	Budgeted       float64 `json:"budgeted"`
	Actual         float64 `json:"actual"`
	Variance       float64 `json:"variance"`
	VariancePct    float64 `json:"variancePct"`
	Remaining      float64 `json:"remaining"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// SchedulePerformance is the schedule dimension of the project metrics view.
type SchedulePerformance struct {
	StartDate      *time.Time `json:"startDate,omitempty"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	DaysRemaining  *int       `json:"daysRemaining,omitempty"`
	OnSchedule     bool       `json:"onSchedule"`
	ProgressPct    int        `json:"progressPct"`
}

// RiskAssessment breaks the overall risk level into per-dimension ratings.
// Quality and resource are placeholders until their data sources are
// integrated.
type RiskAssessment struct {
	Overall  string `json:"overall"`
	Budget   string `json:"budget"`
	Schedule string `json:"schedule"`
	Quality  string `json:"quality"`
	Resource string `json:"resource"`
}

// MetricsResponse aggregates the project metrics dimensions.
type MetricsResponse struct {
	ProjectID uuid.UUID           `json:"projectId"`
	Budget    BudgetUtilization   `json:"budget"`
	Schedule  SchedulePerformance `json:"schedule"`
	Risk      RiskAssessment      `json:"risk"`
}
