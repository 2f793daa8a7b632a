// Package casework provides the case management bounded context module.
package casework

import (
	"context"

	"caseflow_backend/internal/casework/handler"
	"caseflow_backend/internal/casework/repository"
	"caseflow_backend/internal/casework/service"
	"caseflow_backend/internal/casework/transport"
	"caseflow_backend/internal/events"
	apphttp "caseflow_backend/internal/http"
	reqservice "caseflow_backend/internal/requests/service"
	"caseflow_backend/platform/logger"
	"caseflow_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the casework bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the case repository and service against the request
// workflow used for snapshots.
func NewModule(pool *pgxpool.Pool, reqs *reqservice.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, &requestSnapshotReader{requests: reqs}, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "casework" }

// Service exposes the case management service to sibling modules.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the case routes under /api/v1/cases.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/cases"))
}

// requestSnapshotReader adapts the request workflow service to the case
// snapshot port.
type requestSnapshotReader struct {
	requests *reqservice.Service
}

func (r *requestSnapshotReader) Snapshot(ctx context.Context, id uuid.UUID) (transport.RequestSnapshot, error) {
	result := r.requests.Get(ctx, id)
	if err := result.Err(); err != nil {
		return transport.RequestSnapshot{}, err
	}

	snapshot := transport.RequestSnapshot{
		ID:            result.Data.ID,
		Status:        result.Data.Status,
		AssignedTo:    result.Data.AssignedTo,
		PriorityScore: result.Data.PriorityScore,
		UpdatedAt:     result.Data.UpdatedAt,
	}
	if result.Data.Budget != nil {
		if value, ok := reqservice.ParseBudget(*result.Data.Budget); ok {
			snapshot.EstimatedValue = &value
		}
	}
	return snapshot, nil
}
