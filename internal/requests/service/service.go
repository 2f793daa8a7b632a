// Package service implements the request workflow: intake with contact and
// property resolution, status transitions through typed actions, and the
// derived read model (priority score, age, next action).
package service

import (
	"context"
	"strings"

	"caseflow_backend/internal/directory"
	"caseflow_backend/internal/events"
	"caseflow_backend/internal/requests/domain"
	"caseflow_backend/internal/requests/repository"
	"caseflow_backend/internal/requests/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Repo is the persistence surface the request service needs.
type Repo interface {
	Create(ctx context.Context, params repository.CreateRequestParams) (repository.Request, error)
	FindByID(ctx context.Context, id uuid.UUID) (repository.Request, error)
	FindAll(ctx context.Context, query repository.RequestQuery) ([]repository.Request, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateRequestParams) (repository.Request, error)
	ApplyStatus(ctx context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory resolves and fetches the contacts and properties requests link to.
type Directory interface {
	FindOrCreateContact(ctx context.Context, role string, payload directory.ContactPayload) (directory.Contact, error)
	FindOrCreateProperty(ctx context.Context, payload directory.PropertyPayload) (directory.Property, error)
	GetContact(ctx context.Context, id uuid.UUID) (directory.Contact, error)
	GetProperty(ctx context.Context, id uuid.UUID) (directory.Property, error)
}

// CreateInput carries the inbound payload plus the directory records resolved
// during the create transform.
type CreateInput struct {
	transport.CreateRequestRequest

	agentContactID     *uuid.UUID
	homeownerContactID *uuid.UUID
	propertyID         *uuid.UUID
}

// Query filters request listings.
type Query struct {
	Status     string
	AssignedTo string
	Limit      int
}

// Service drives the request workflow through the shared entity pipeline.
type Service struct {
	engine *workflow.Engine[CreateInput, transport.UpdateRequestRequest, Query, transport.RequestResponse]
	repo   Repo
	dir    Directory
	bus    events.Bus
	log    *logger.Logger
}

// New wires the request service: validation rules, directory resolution on
// create, and event publication.
func New(repo Repo, dir Directory, bus events.Bus, log *logger.Logger) *Service {
	s := &Service{repo: repo, dir: dir, bus: bus, log: log}

	createRules := []workflow.Rule[CreateInput]{
		{
			Name: "message-required",
			Check: func(_ context.Context, in CreateInput) workflow.Report {
				if strings.TrimSpace(in.Message) == "" {
					return workflow.Invalid("message", "message is required")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "budget-numeric",
			Check: func(_ context.Context, in CreateInput) workflow.Report {
				return checkBudget(in.Budget)
			},
		},
		{
			Name: "contact-presence",
			Check: func(_ context.Context, in CreateInput) workflow.Report {
				report := workflow.ValidReport()
				if !hasContactIdentity(in.Agent) && !hasContactIdentity(in.Homeowner) {
					report.AddWarning("request has no linked contact; quoting will require one")
				}
				return report
			},
		},
	}

	updateRules := []workflow.Rule[transport.UpdateRequestRequest]{
		{
			Name: "message-not-blank",
			Check: func(_ context.Context, patch transport.UpdateRequestRequest) workflow.Report {
				if patch.Message != nil && strings.TrimSpace(*patch.Message) == "" {
					return workflow.Invalid("message", "message cannot be blank")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "budget-numeric",
			Check: func(_ context.Context, patch transport.UpdateRequestRequest) workflow.Report {
				if patch.Budget == nil {
					return workflow.ValidReport()
				}
				return checkBudget(*patch.Budget)
			},
		},
	}

	hooks := workflow.Hooks[CreateInput, transport.UpdateRequestRequest, Query, transport.RequestResponse]{
		TransformForCreate: s.resolveRelations,
		AfterCreate: func(ctx context.Context, resp *transport.RequestResponse) {
			s.bus.Publish(ctx, events.RequestCreated{
				BaseEvent: events.NewBaseEvent(),
				RequestID: resp.ID,
				Source:    valueOr(resp.LeadSource, "direct"),
			})
		},
		Present: s.present,
	}

	s.engine = workflow.NewEngine("request", &requestStore{s: s}, createRules, updateRules, hooks, log)
	return s
}

// Create validates and persists a new request, resolving contact and property
// payloads to directory records first.
func (s *Service) Create(ctx context.Context, req transport.CreateRequestRequest) workflow.Result[transport.RequestResponse] {
	return s.engine.Create(ctx, CreateInput{CreateRequestRequest: req})
}

// Get returns the enriched request view.
func (s *Service) Get(ctx context.Context, id uuid.UUID) workflow.Result[transport.RequestResponse] {
	return s.engine.Get(ctx, id)
}

// List returns enriched request views matching the query, newest first.
func (s *Service) List(ctx context.Context, query Query) workflow.Result[[]transport.RequestResponse] {
	return s.engine.List(ctx, query)
}

// Update patches mutable request fields. A supplied version makes the write
// conditional; a stale version surfaces as a conflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateRequestRequest) workflow.Result[transport.RequestResponse] {
	return s.engine.Update(ctx, id, req)
}

// Delete removes a request record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) workflow.Result[bool] {
	return s.engine.Delete(ctx, id)
}

// resolveRelations finds or creates the directory records named in the
// payload before the request row is inserted.
func (s *Service) resolveRelations(ctx context.Context, in CreateInput) (CreateInput, error) {
	if hasContactIdentity(in.Agent) {
		contact, err := s.dir.FindOrCreateContact(ctx, directory.RoleAgent, contactPayload(*in.Agent))
		if err != nil {
			return in, apperr.Wrap(apperr.KindInternal, "resolving agent contact", err)
		}
		in.agentContactID = &contact.ID
	}
	if hasContactIdentity(in.Homeowner) {
		contact, err := s.dir.FindOrCreateContact(ctx, directory.RoleHomeowner, contactPayload(*in.Homeowner))
		if err != nil {
			return in, apperr.Wrap(apperr.KindInternal, "resolving homeowner contact", err)
		}
		in.homeownerContactID = &contact.ID
	}
	if in.Property != nil {
		payload := propertyPayload(*in.Property)
		if payload.HasAddress() {
			property, err := s.dir.FindOrCreateProperty(ctx, payload)
			if err != nil {
				return in, apperr.Wrap(apperr.KindInternal, "resolving property", err)
			}
			in.propertyID = &property.ID
		}
	}
	return in, nil
}

// requestStore adapts the repository to the engine's store contract,
// converting between wire shapes and persistence params.
type requestStore struct {
	s *Service
}

func (st *requestStore) Create(ctx context.Context, in CreateInput) (transport.RequestResponse, error) {
	req, err := st.s.repo.Create(ctx, repository.CreateRequestParams{
		Message:            strings.TrimSpace(in.Message),
		RelationToProperty: optional(in.RelationToProperty),
		Budget:             optional(in.Budget),
		LeadSource:         optional(in.LeadSource),
		Product:            optional(in.Product),
		Status:             domain.StatusNew,
		AgentContactID:     in.agentContactID,
		HomeownerContactID: in.homeownerContactID,
		PropertyID:         in.propertyID,
	})
	if err != nil {
		return transport.RequestResponse{}, err
	}
	return toResponse(req), nil
}

func (st *requestStore) FindByID(ctx context.Context, id uuid.UUID) (transport.RequestResponse, error) {
	req, err := st.s.repo.FindByID(ctx, id)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	return toResponse(req), nil
}

func (st *requestStore) FindAll(ctx context.Context, query Query) ([]transport.RequestResponse, error) {
	requests, err := st.s.repo.FindAll(ctx, repository.RequestQuery{
		Status:     query.Status,
		AssignedTo: query.AssignedTo,
		Limit:      query.Limit,
	})
	if err != nil {
		return nil, err
	}
	responses := make([]transport.RequestResponse, len(requests))
	for i, req := range requests {
		responses[i] = toResponse(req)
	}
	return responses, nil
}

func (st *requestStore) Update(ctx context.Context, id uuid.UUID, patch transport.UpdateRequestRequest) (transport.RequestResponse, error) {
	req, err := st.s.repo.Update(ctx, id, repository.UpdateRequestParams{
		Message:            patch.Message,
		RelationToProperty: patch.RelationToProperty,
		Budget:             patch.Budget,
		LeadSource:         patch.LeadSource,
		Product:            patch.Product,
		AssignedTo:         patch.AssignedTo,
		ExpectedVersion:    patch.Version,
	})
	if err != nil {
		return transport.RequestResponse{}, err
	}
	return toResponse(req), nil
}

func (st *requestStore) Delete(ctx context.Context, id uuid.UUID) error {
	return st.s.repo.Delete(ctx, id)
}

func checkBudget(raw string) workflow.Report {
	if strings.TrimSpace(raw) == "" {
		return workflow.ValidReport()
	}
	if _, ok := ParseBudget(raw); !ok {
		return workflow.Invalid("budget", "budget must be a numeric amount")
	}
	return workflow.ValidReport()
}

func hasContactIdentity(payload *transport.ContactPayload) bool {
	return payload != nil && strings.TrimSpace(payload.Email) != ""
}

func contactPayload(p transport.ContactPayload) directory.ContactPayload {
	return directory.ContactPayload{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Brokerage: p.Brokerage,
	}
}

func propertyPayload(p transport.PropertyPayload) directory.PropertyPayload {
	return directory.PropertyPayload{
		Street:       p.Street,
		City:         p.City,
		State:        p.State,
		PostalCode:   p.PostalCode,
		PropertyType: p.PropertyType,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
	}
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func valueOr(p *string, fallback string) string {
	if p != nil && *p != "" {
		return *p
	}
	return fallback
}
