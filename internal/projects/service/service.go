// Package service implements the project workflow: execution tracking after
// quote approval, with budget composition, schedule interpolation, and the
// risk/profitability read model.
package service

import (
	"context"
	"strings"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/projects/domain"
	"caseflow_backend/internal/projects/repository"
	"caseflow_backend/internal/projects/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Repo is the persistence surface the project service needs.
type Repo interface {
	Create(ctx context.Context, params repository.CreateProjectParams) (repository.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (repository.Project, error)
	FindAll(ctx context.Context, query repository.ProjectQuery) ([]repository.Project, error)
	ListMilestones(ctx context.Context, projectID uuid.UUID) ([]repository.Milestone, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateProjectParams) (repository.Project, error)
	ApplyStatus(ctx context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RequestReader fetches originating-request summaries for enrichment.
type RequestReader interface {
	Summary(ctx context.Context, id uuid.UUID) (transport.RequestSummary, error)
}

// QuoteReader fetches originating-quote summaries for enrichment.
type QuoteReader interface {
	Summary(ctx context.Context, id uuid.UUID) (transport.QuoteSummary, error)
}

// Query filters project listings.
type Query struct {
	Status    string
	RequestID *uuid.UUID
	Limit     int
}

// Service drives the project workflow through the shared entity pipeline.
type Service struct {
	engine   *workflow.Engine[transport.CreateProjectRequest, transport.UpdateProjectRequest, Query, transport.ProjectResponse]
	repo     Repo
	requests RequestReader
	quotes   QuoteReader
	bus      events.Bus
	log      *logger.Logger
}

// New wires the project service: date ordering rules, budget composition on
// create, and the derived schedule/risk presentation.
func New(repo Repo, requests RequestReader, quotes QuoteReader, bus events.Bus, log *logger.Logger) *Service {
	s := &Service{repo: repo, requests: requests, quotes: quotes, bus: bus, log: log}

	createRules := []workflow.Rule[transport.CreateProjectRequest]{
		{
			Name: "title-required",
			Check: func(_ context.Context, in transport.CreateProjectRequest) workflow.Report {
				if strings.TrimSpace(in.Title) == "" {
					return workflow.Invalid("title", "title is required")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "dates-ordered",
			Check: func(_ context.Context, in transport.CreateProjectRequest) workflow.Report {
				if in.StartDate != nil && in.CompletionDate != nil && !in.CompletionDate.After(*in.StartDate) {
					return workflow.Invalid("completionDate", "completion date must be after start date")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "budget-non-negative",
			Check: func(_ context.Context, in transport.CreateProjectRequest) workflow.Report {
				if ComposeBudget(in.Budget, in.BudgetComponents) < 0 {
					return workflow.Invalid("budget", "budget cannot be negative")
				}
				return workflow.ValidReport()
			},
		},
	}

	updateRules := []workflow.Rule[transport.UpdateProjectRequest]{
		{
			Name: "title-not-blank",
			Check: func(_ context.Context, patch transport.UpdateProjectRequest) workflow.Report {
				if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
					return workflow.Invalid("title", "title cannot be blank")
				}
				return workflow.ValidReport()
			},
		},
		{
			Name: "dates-ordered",
			Check: func(_ context.Context, patch transport.UpdateProjectRequest) workflow.Report {
				if patch.StartDate != nil && patch.CompletionDate != nil && !patch.CompletionDate.After(*patch.StartDate) {
					return workflow.Invalid("completionDate", "completion date must be after start date")
				}
				return workflow.ValidReport()
			},
		},
	}

	hooks := workflow.Hooks[transport.CreateProjectRequest, transport.UpdateProjectRequest, Query, transport.ProjectResponse]{
		Present: s.present,
	}

	s.engine = workflow.NewEngine("project", &projectStore{s: s}, createRules, updateRules, hooks, log)
	return s
}

// Create validates and persists a new project. Budget components, when
// supplied, are summed and inflated by the contingency percentage.
func (s *Service) Create(ctx context.Context, req transport.CreateProjectRequest) workflow.Result[transport.ProjectResponse] {
	return s.engine.Create(ctx, req)
}

// Get returns the enriched project view.
func (s *Service) Get(ctx context.Context, id uuid.UUID) workflow.Result[transport.ProjectResponse] {
	return s.engine.Get(ctx, id)
}

// List returns enriched project views matching the query, newest first.
func (s *Service) List(ctx context.Context, query Query) workflow.Result[[]transport.ProjectResponse] {
	return s.engine.List(ctx, query)
}

// Update patches mutable project fields under an optional version check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateProjectRequest) workflow.Result[transport.ProjectResponse] {
	return s.engine.Update(ctx, id, req)
}

// Delete removes a project record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) workflow.Result[bool] {
	return s.engine.Delete(ctx, id)
}

// Metrics aggregates the budget utilization, schedule performance, and risk
// dimensions of one project.
func (s *Service) Metrics(ctx context.Context, id uuid.UUID) workflow.Result[transport.MetricsResponse] {
	result := s.engine.Get(ctx, id)
	if !result.Success {
		return workflow.Fail[transport.MetricsResponse](result.Kind, result.Error)
	}
	return workflow.Ok(buildMetrics(*result.Data))
}

// ComposeBudget sums the labor, material, and equipment components and
// inflates by the contingency percentage. Without components the explicit
// budget is used as-is.
func ComposeBudget(explicit float64, components *transport.BudgetComponents) float64 {
	if components == nil {
		return explicit
	}
	total := components.Labor + components.Material + components.Equipment
	if total == 0 {
		return explicit
	}
	if components.ContingencyPct != nil {
		total *= 1 + *components.ContingencyPct/100
	}
	return total
}

// projectStore adapts the repository to the engine's store contract.
type projectStore struct {
	s *Service
}

func (st *projectStore) Create(ctx context.Context, in transport.CreateProjectRequest) (transport.ProjectResponse, error) {
	milestones := make([]repository.CreateMilestoneParams, len(in.Milestones))
	for i, m := range in.Milestones {
		milestones[i] = repository.CreateMilestoneParams{
			Title:        m.Title,
			Description:  m.Description,
			DueDate:      m.DueDate,
			Dependencies: m.Dependencies,
		}
	}

	project, err := st.s.repo.Create(ctx, repository.CreateProjectParams{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         domain.StatusPlanning,
		Budget:         ComposeBudget(in.Budget, in.BudgetComponents),
		StartDate:      in.StartDate,
		CompletionDate: in.CompletionDate,
		RequestID:      in.RequestID,
		QuoteID:        in.QuoteID,
		Milestones:     milestones,
	})
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

func (st *projectStore) FindByID(ctx context.Context, id uuid.UUID) (transport.ProjectResponse, error) {
	project, err := st.s.repo.FindByID(ctx, id)
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

func (st *projectStore) FindAll(ctx context.Context, query Query) ([]transport.ProjectResponse, error) {
	projects, err := st.s.repo.FindAll(ctx, repository.ProjectQuery{
		Status:    query.Status,
		RequestID: query.RequestID,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, err
	}
	responses := make([]transport.ProjectResponse, len(projects))
	for i, project := range projects {
		responses[i] = toResponse(project)
	}
	return responses, nil
}

func (st *projectStore) Update(ctx context.Context, id uuid.UUID, patch transport.UpdateProjectRequest) (transport.ProjectResponse, error) {
	project, err := st.s.repo.Update(ctx, id, repository.UpdateProjectParams{
		Title:           patch.Title,
		Description:     patch.Description,
		Budget:          patch.Budget,
		ActualCost:      patch.ActualCost,
		StartDate:       patch.StartDate,
		CompletionDate:  patch.CompletionDate,
		ExpectedVersion: patch.Version,
	})
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toResponse(project), nil
}

func (st *projectStore) Delete(ctx context.Context, id uuid.UUID) error {
	return st.s.repo.Delete(ctx, id)
}
