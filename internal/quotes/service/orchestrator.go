package service

import (
	"context"
	"fmt"
	"strings"

	reqdomain "caseflow_backend/internal/requests/domain"
	reqservice "caseflow_backend/internal/requests/service"
	reqtransport "caseflow_backend/internal/requests/transport"

	"caseflow_backend/internal/quotes/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

// RequestWorkflow is the slice of the request service the orchestrator drives.
type RequestWorkflow interface {
	Get(ctx context.Context, id uuid.UUID) workflow.Result[reqtransport.RequestResponse]
	Apply(ctx context.Context, id uuid.UUID, action string, params reqservice.ApplyParams) workflow.Result[reqtransport.RequestResponse]
}

// QuoteCreator is the slice of the quote service the orchestrator drives.
type QuoteCreator interface {
	Create(ctx context.Context, req transport.CreateQuoteRequest) workflow.Result[transport.QuoteResponse]
	NextSequentialNumber(ctx context.Context) string
}

// Orchestrator runs the cross-entity quote-from-request flow: it maps a
// request onto a new quote, assigns the next sequential number, persists the
// quote, and drives the source request into the Quoted status.
type Orchestrator struct {
	requests RequestWorkflow
	quotes   QuoteCreator
	log      *logger.Logger
}

// NewOrchestrator creates the quote creation orchestrator.
func NewOrchestrator(requests RequestWorkflow, quotes QuoteCreator, log *logger.Logger) *Orchestrator {
	return &Orchestrator{requests: requests, quotes: quotes, log: log}
}

// CreateFromRequest builds and persists a quote from a request. Quoting a
// request that has not reached the Quoted status is allowed with a warning.
// Failure to advance the source request afterwards is non-fatal: the quote
// already exists, so the caller gets a warning instead of a failure.
func (o *Orchestrator) CreateFromRequest(ctx context.Context, req transport.CreateFromRequestRequest) workflow.Result[transport.CreateFromRequestResponse] {
	fetched := o.requests.Get(ctx, req.RequestID)
	if !fetched.Success {
		return workflow.Fail[transport.CreateFromRequestResponse](fetched.Kind, fetched.Error)
	}
	request := *fetched.Data

	var warnings []string
	if request.Status != reqdomain.StatusQuoted {
		warnings = append(warnings,
			fmt.Sprintf("request is in status %q, not yet moved to quoting", request.Status))
	}

	operator := req.Operator
	if operator == "" {
		operator = "system"
	}

	created := o.quotes.Create(ctx, transport.CreateQuoteRequest{
		QuoteNumber:        o.quotes.NextSequentialNumber(ctx),
		Title:              quoteTitle(req.Title, request),
		TotalAmount:        requestBudget(request),
		RequestID:          &request.ID,
		AgentContactID:     request.AgentContactID,
		HomeownerContactID: request.HomeownerContactID,
		PropertyID:         request.PropertyID,
		CreatedBy:          operator,
	})
	if !created.Success {
		failed := workflow.Fail[transport.CreateFromRequestResponse](created.Kind, created.Error)
		failed.Metadata = created.Metadata
		return failed.WithWarnings(warnings...)
	}

	response := transport.CreateFromRequestResponse{
		Quote:                 *created.Data,
		PreviousRequestStatus: request.Status,
	}

	if !req.SkipStatusUpdate && request.Status != reqdomain.StatusQuoted {
		transitioned := o.requests.Apply(ctx, request.ID, reqdomain.ActionCreateQuote.String(),
			reqservice.ApplyParams{Actor: operator})
		if transitioned.Success {
			response.RequestStatusUpdated = true
		} else {
			o.log.WorkflowError("quote", "advanceRequest", request.ID.String(),
				fmt.Errorf("%s", transitioned.Error))
			warnings = append(warnings,
				fmt.Sprintf("quote created but the request could not be advanced: %s", transitioned.Error))
		}
	}

	return workflow.Ok(response, warnings...).WithWarnings(created.Warnings...)
}

// Readiness evaluates the quote-creation preconditions without mutating
// anything: a pre-flight check a caller can surface before attempting
// creation.
func (o *Orchestrator) Readiness(ctx context.Context, requestID uuid.UUID) workflow.Result[transport.CreationReadinessResponse] {
	fetched := o.requests.Get(ctx, requestID)
	if !fetched.Success {
		return workflow.Fail[transport.CreationReadinessResponse](fetched.Kind, fetched.Error)
	}
	request := *fetched.Data

	var blockers, suggestions []string

	if reqdomain.IsTerminal(request.Status) {
		blockers = append(blockers, fmt.Sprintf("request is %s", request.Status))
		suggestions = append(suggestions, "reopen or recreate the request before quoting")
	}
	if request.AgentContactID == nil && request.HomeownerContactID == nil {
		blockers = append(blockers, "request has no linked agent or homeowner contact")
		suggestions = append(suggestions, "add a contact so the quote has a recipient")
	}
	if request.Product == nil || strings.TrimSpace(*request.Product) == "" {
		blockers = append(blockers, "request has no product")
		suggestions = append(suggestions, "record the product or service being quoted")
	}
	if request.AssignedTo == nil || *request.AssignedTo == "" {
		blockers = append(blockers, "request has no assignee")
		suggestions = append(suggestions, "assign the request to an estimator first")
	}
	if requestBudget(request) <= 0 {
		blockers = append(blockers, "request has no usable budget amount")
		suggestions = append(suggestions, "capture a numeric budget to seed the quote total")
	}

	return workflow.Ok(transport.CreationReadinessResponse{
		RequestID:   requestID,
		Ready:       len(blockers) == 0,
		Blockers:    blockers,
		Suggestions: suggestions,
	})
}

// quoteTitle prefers an explicit title, then property address plus product,
// then the request message.
func quoteTitle(explicit string, request reqtransport.RequestResponse) string {
	if strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit)
	}

	var parts []string
	if request.Property != nil && request.Property.Address != "" {
		parts = append(parts, request.Property.Address)
	}
	if request.Product != nil && strings.TrimSpace(*request.Product) != "" {
		parts = append(parts, strings.TrimSpace(*request.Product))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " - ")
	}

	title := strings.TrimSpace(request.Message)
	if len(title) > 80 {
		title = title[:80]
	}
	if title == "" {
		title = "Quote for request " + request.ID.String()
	}
	return title
}

func requestBudget(request reqtransport.RequestResponse) float64 {
	if request.Budget == nil {
		return 0
	}
	amount, ok := reqservice.ParseBudget(*request.Budget)
	if !ok {
		return 0
	}
	return amount
}
