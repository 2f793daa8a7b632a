// Package service implements the quote workflow: numbered proposals with line
// items, a status state machine guarded by expiry, duplication under full
// re-validation, and the derived conversion read model.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/quotes/domain"
	"caseflow_backend/internal/quotes/repository"
	"caseflow_backend/internal/quotes/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

const defaultValidityDays = 30

// Repo is the persistence surface the quote service needs.
type Repo interface {
	Create(ctx context.Context, params repository.CreateQuoteParams) (repository.Quote, error)
	FindByID(ctx context.Context, id uuid.UUID) (repository.Quote, error)
	FindAll(ctx context.Context, query repository.QuoteQuery) ([]repository.Quote, error)
	ListItems(ctx context.Context, quoteID uuid.UUID) ([]repository.LineItem, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateQuoteParams) (repository.Quote, error)
	ApplyStatus(ctx context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Quote, error)
	MaxQuoteSequence(ctx context.Context) (int, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RequestReader fetches originating-request summaries for enrichment.
type RequestReader interface {
	Summary(ctx context.Context, id uuid.UUID) (transport.RequestSummary, error)
}

// Query filters quote listings.
type Query struct {
	Status    string
	RequestID *uuid.UUID
	Limit     int
}

// Service drives the quote workflow through the shared entity pipeline.
type Service struct {
	engine   *workflow.Engine[transport.CreateQuoteRequest, transport.UpdateQuoteRequest, Query, transport.QuoteResponse]
	repo     Repo
	requests RequestReader
	bus      events.Bus
	log      *logger.Logger
}

// New wires the quote service: creation rules, total recomputation from line
// items, and the approved/expired edit guards.
func New(repo Repo, requests RequestReader, bus events.Bus, log *logger.Logger) *Service {
	s := &Service{repo: repo, requests: requests, bus: bus, log: log}

	createRules := []workflow.Rule[transport.CreateQuoteRequest]{
		{
			Name: "title-required",
			Check: func(_ context.Context, in transport.CreateQuoteRequest) workflow.Report {
				if strings.TrimSpace(in.Title) == "" {
					return workflow.Invalid("title", "title is required")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "total-positive",
			Check: func(_ context.Context, in transport.CreateQuoteRequest) workflow.Report {
				if effectiveTotal(in) <= 0 {
					return workflow.Invalid("totalAmount", "total amount must be positive")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "valid-until-future",
			Check: func(_ context.Context, in transport.CreateQuoteRequest) workflow.Report {
				if in.ValidUntil != nil && !in.ValidUntil.After(time.Now()) {
					return workflow.Invalid("validUntil", "valid-until must be in the future")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "items-consistent",
			Check: func(_ context.Context, in transport.CreateQuoteRequest) workflow.Report {
				report := workflow.ValidReport()
				for i, item := range in.Items {
					if item.Quantity <= 0 || item.UnitPrice <= 0 {
						report.AddError(fmt.Sprintf("items[%d]", i), "quantity and unit price must be positive")
					}
				}
				if len(in.Items) > 0 && in.TotalAmount != 0 && in.TotalAmount != itemsTotal(in.Items) {
					report.AddWarning("supplied total is ignored; the total is recomputed from line items")
				}
				return report
			},
		},
	}

	updateRules := []workflow.Rule[transport.UpdateQuoteRequest]{
		{
			Name: "title-not-blank",
			Check: func(_ context.Context, patch transport.UpdateQuoteRequest) workflow.Report {
				if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
					return workflow.Invalid("title", "title cannot be blank")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "total-positive",
			Check: func(_ context.Context, patch transport.UpdateQuoteRequest) workflow.Report {
				if patch.TotalAmount != nil && *patch.TotalAmount <= 0 {
					return workflow.Invalid("totalAmount", "total amount must be positive")
				}
				return workflow.ValidReport()
			},
		},
	}

	hooks := workflow.Hooks[transport.CreateQuoteRequest, transport.UpdateQuoteRequest, Query, transport.QuoteResponse]{
		TransformForCreate: s.prepareCreate,
		CanUpdate:          s.guardMutable,
		CanDelete:          s.guardDeletable,
		AfterCreate: func(ctx context.Context, resp *transport.QuoteResponse) {
			s.bus.Publish(ctx, events.QuoteCreated{
				BaseEvent:   events.NewBaseEvent(),
				QuoteID:     resp.ID,
				QuoteNumber: resp.QuoteNumber,
				RequestID:   resp.RequestID,
				CreatedBy:   resp.CreatedBy,
			})
		},
		Present: s.present,
	}

	s.engine = workflow.NewEngine("quote", &quoteStore{s: s}, createRules, updateRules, hooks, log)
	return s
}

// Create validates and persists a new quote. Line items recompute the total;
// a missing validity window defaults to thirty days out; a missing quote
// number is generated from the current period and timestamp.
func (s *Service) Create(ctx context.Context, req transport.CreateQuoteRequest) workflow.Result[transport.QuoteResponse] {
	return s.engine.Create(ctx, req)
}

// Get returns the enriched quote view.
func (s *Service) Get(ctx context.Context, id uuid.UUID) workflow.Result[transport.QuoteResponse] {
	return s.engine.Get(ctx, id)
}

// List returns enriched quote views matching the query, newest first.
func (s *Service) List(ctx context.Context, query Query) workflow.Result[[]transport.QuoteResponse] {
	return s.engine.List(ctx, query)
}

// Update patches mutable quote fields. Approved quotes reject edits.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateQuoteRequest) workflow.Result[transport.QuoteResponse] {
	return s.engine.Update(ctx, id, req)
}

// Delete removes a quote. Approved quotes reject deletion.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) workflow.Result[bool] {
	return s.engine.Delete(ctx, id)
}

// Duplicate copies an existing quote into a fresh draft, applying overrides
// and running the full creation pipeline again. An override that violates a
// creation rule fails exactly like an invalid fresh quote.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, overrides transport.DuplicateQuoteRequest) workflow.Result[transport.QuoteResponse] {
	source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return workflow.FailFrom[transport.QuoteResponse](err)
	}

	req := transport.CreateQuoteRequest{
		Title:              "Copy of " + source.Title,
		Description:        source.Description,
		Terms:              source.Terms,
		Notes:              source.Notes,
		TotalAmount:        source.TotalAmount,
		RequestID:          source.RequestID,
		AgentContactID:     source.AgentContactID,
		HomeownerContactID: source.HomeownerContactID,
		PropertyID:         source.PropertyID,
		CreatedBy:          source.CreatedBy,
	}
	if overrides.Title != nil {
		req.Title = *overrides.Title
	}
	if overrides.TotalAmount != nil {
		req.TotalAmount = *overrides.TotalAmount
	}
	if overrides.CreatedBy != "" {
		req.CreatedBy = overrides.CreatedBy
	}

	return s.engine.Create(ctx, req)
}

// ExpireOverdue sweeps every active quote whose validity window has passed
// into the Expired status. The scheduler runs this periodically.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		s.log.WorkflowError("quote", "expireOverdue", "", err)
		return 0, err
	}
	if expired > 0 {
		s.log.Info("expired overdue quotes", "count", expired)
	}
	return expired, nil
}

// NextSequentialNumber scans existing quote numbers for the highest suffix
// and increments it, falling back to a timestamp-derived number when the
// scan fails.
func (s *Service) NextSequentialNumber(ctx context.Context) string {
	max, err := s.repo.MaxQuoteSequence(ctx)
	if err != nil {
		s.log.WorkflowError("quote", "maxSequence", "", err)
		return GenerateQuoteNumber(time.Now())
	}
	return fmt.Sprintf("Q%s-%06d", time.Now().Format("200601"), max+1)
}

// GenerateQuoteNumber derives a quote number from the period and a
// six-digit timestamp suffix.
func GenerateQuoteNumber(now time.Time) string {
	return fmt.Sprintf("Q%s-%06d", now.Format("200601"), now.UnixNano()/1000%1000000)
}

// prepareCreate fills the generated fields: quote number, recomputed total,
// and the default validity window.
func (s *Service) prepareCreate(_ context.Context, in transport.CreateQuoteRequest) (transport.CreateQuoteRequest, error) {
	if strings.TrimSpace(in.QuoteNumber) == "" {
		in.QuoteNumber = GenerateQuoteNumber(time.Now())
	}
	if len(in.Items) > 0 {
		in.TotalAmount = itemsTotal(in.Items)
	}
	if in.ValidUntil == nil {
		validUntil := time.Now().AddDate(0, 0, defaultValidityDays)
		in.ValidUntil = &validUntil
	}
	return in, nil
}

func effectiveTotal(in transport.CreateQuoteRequest) float64 {
	if len(in.Items) > 0 {
		return itemsTotal(in.Items)
	}
	return in.TotalAmount
}

func itemsTotal(items []transport.LineItemPayload) float64 {
	var total float64
	for _, item := range items {
		total += item.Quantity * item.UnitPrice
	}
	return total
}

// quoteStore adapts the repository to the engine's store contract.
type quoteStore struct {
	s *Service
}

func (st *quoteStore) Create(ctx context.Context, in transport.CreateQuoteRequest) (transport.QuoteResponse, error) {
	items := make([]repository.CreateLineItemParams, len(in.Items))
	for i, item := range in.Items {
		items[i] = repository.CreateLineItemParams{
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	quote, err := st.s.repo.Create(ctx, repository.CreateQuoteParams{
		QuoteNumber:        in.QuoteNumber,
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		Terms:              in.Terms,
		Notes:              in.Notes,
		TotalAmount:        in.TotalAmount,
		ValidUntil:         *in.ValidUntil,
		Status:             domain.StatusDraft,
		RequestID:          in.RequestID,
		AgentContactID:     in.AgentContactID,
		HomeownerContactID: in.HomeownerContactID,
		PropertyID:         in.PropertyID,
		CreatedBy:          createdBy,
		Items:              items,
	})
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return toResponse(quote), nil
}

func (st *quoteStore) FindByID(ctx context.Context, id uuid.UUID) (transport.QuoteResponse, error) {
	quote, err := st.s.repo.FindByID(ctx, id)
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return toResponse(quote), nil
}

func (st *quoteStore) FindAll(ctx context.Context, query Query) ([]transport.QuoteResponse, error) {
	quotes, err := st.s.repo.FindAll(ctx, repository.QuoteQuery{
		Status:    query.Status,
		RequestID: query.RequestID,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, err
	}
	responses := make([]transport.QuoteResponse, len(quotes))
	for i, quote := range quotes {
		responses[i] = toResponse(quote)
	}
	return responses, nil
}

func (st *quoteStore) Update(ctx context.Context, id uuid.UUID, patch transport.UpdateQuoteRequest) (transport.QuoteResponse, error) {
	quote, err := st.s.repo.Update(ctx, id, repository.UpdateQuoteParams{
		Title:           patch.Title,
		Description:     patch.Description,
		Terms:           patch.Terms,
		Notes:           patch.Notes,
		TotalAmount:     patch.TotalAmount,
		ValidUntil:      patch.ValidUntil,
		ExpectedVersion: patch.Version,
	})
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return toResponse(quote), nil
}

func (st *quoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	return st.s.repo.Delete(ctx, id)
}
