// Package requests provides the request workflow bounded context module.
package requests

import (
	"caseflow_backend/internal/directory"
	"caseflow_backend/internal/events"
	apphttp "caseflow_backend/internal/http"
	"caseflow_backend/internal/requests/handler"
	"caseflow_backend/internal/requests/repository"
	"caseflow_backend/internal/requests/service"
	"caseflow_backend/platform/logger"
	"caseflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the requests bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the request workflow's repository, service, and handler.
func NewModule(pool *pgxpool.Pool, dir *directory.Service, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, dir, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "requests" }

// Service exposes the workflow service to sibling modules (the quote creation
// orchestrator and case management build on it).
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the request routes under /api/v1/requests.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/requests"))
}
