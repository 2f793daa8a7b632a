// Package quotes provides the quote workflow bounded context module,
// including the quote creation orchestrator.
package quotes

import (
	"context"

	"caseflow_backend/internal/events"
	apphttp "caseflow_backend/internal/http"
	"caseflow_backend/internal/quotes/handler"
	"caseflow_backend/internal/quotes/repository"
	"caseflow_backend/internal/quotes/service"
	"caseflow_backend/internal/quotes/transport"
	reqservice "caseflow_backend/internal/requests/service"
	"caseflow_backend/platform/logger"
	"caseflow_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quotes bounded context implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	orchestrator *service.Orchestrator
}

// NewModule wires the quote repository, service, and orchestrator against the
// request workflow.
func NewModule(pool *pgxpool.Pool, reqs *reqservice.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, &requestSummaryReader{requests: reqs}, eventBus, log)
	orch := service.NewOrchestrator(reqs, svc, log)

	return &Module{
		handler:      handler.New(svc, orch, val),
		service:      svc,
		orchestrator: orch,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "quotes" }

// Service exposes the quote workflow service to sibling modules.
func (m *Module) Service() *service.Service { return m.service }

// Orchestrator exposes the creation orchestrator.
func (m *Module) Orchestrator() *service.Orchestrator { return m.orchestrator }

// RegisterRoutes mounts the quote routes under /api/v1/quotes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/quotes"))
}

// requestSummaryReader adapts the request workflow service to the quote
// enrichment port.
type requestSummaryReader struct {
	requests *reqservice.Service
}

func (r *requestSummaryReader) Summary(ctx context.Context, id uuid.UUID) (transport.RequestSummary, error) {
	result := r.requests.Get(ctx, id)
	if err := result.Err(); err != nil {
		return transport.RequestSummary{}, err
	}
	return transport.RequestSummary{
		ID:      result.Data.ID,
		Status:  result.Data.Status,
		Message: result.Data.Message,
	}, nil
}
