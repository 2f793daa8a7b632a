// Package projects provides the project execution bounded context module.
package projects

import (
	"context"

	"caseflow_backend/internal/events"
	apphttp "caseflow_backend/internal/http"
	"caseflow_backend/internal/projects/handler"
	"caseflow_backend/internal/projects/repository"
	"caseflow_backend/internal/projects/service"
	"caseflow_backend/internal/projects/transport"
	qservice "caseflow_backend/internal/quotes/service"
	reqservice "caseflow_backend/internal/requests/service"
	"caseflow_backend/platform/logger"
	"caseflow_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the projects bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the project repository and service against the request and
// quote workflows used for enrichment.
func NewModule(pool *pgxpool.Pool, reqs *reqservice.Service, quotes *qservice.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo,
		&requestSummaryReader{requests: reqs},
		&quoteSummaryReader{quotes: quotes},
		eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "projects" }

// Service exposes the project workflow service to sibling modules.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the project routes under /api/v1/projects.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/projects"))
}

// requestSummaryReader adapts the request workflow service to the project
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

// quoteSummaryReader adapts the quote workflow service to the project
// enrichment port.
type quoteSummaryReader struct {
	quotes *qservice.Service
}

func (r *quoteSummaryReader) Summary(ctx context.Context, id uuid.UUID) (transport.QuoteSummary, error) {
	result := r.quotes.Get(ctx, id)
	if err := result.Err(); err != nil {
		return transport.QuoteSummary{}, err
	}
	return transport.QuoteSummary{
		ID:          result.Data.ID,
		QuoteNumber: result.Data.QuoteNumber,
		TotalAmount: result.Data.TotalAmount,
	}, nil
}
