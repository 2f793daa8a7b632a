package service

import (
	"context"
	"fmt"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/projects/domain"
	"caseflow_backend/internal/projects/repository"
	"caseflow_backend/internal/projects/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// ApplyParams carries the per-action inputs accompanying a project workflow
// action.
type ApplyParams struct {
	Version *int
	Actor   string
}

// Apply executes a named workflow action against a project. Completed and
// cancelled projects reject execution actions but still accept archive.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, actionName string, params ApplyParams) workflow.Result[transport.ProjectResponse] {
	action, ok := domain.ParseAction(actionName)
	if !ok {
		return workflow.Fail[transport.ProjectResponse](apperr.KindBadRequest,
			fmt.Sprintf("invalid workflow action %q", actionName))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return workflow.FailFrom[transport.ProjectResponse](err)
	}

	if domain.IsClosed(current.Status) && action != domain.ActionArchive {
		return workflow.Fail[transport.ProjectResponse](apperr.KindConflict,
			fmt.Sprintf("project is %s and accepts no further execution actions", current.Status))
	}

	updated, err := s.repo.ApplyStatus(ctx, id, statusUpdate(current, action, params))
	if err != nil {
		return workflow.FailFrom[transport.ProjectResponse](err)
	}

	s.bus.Publish(ctx, events.ProjectStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		ProjectID:      updated.ID,
		PreviousStatus: current.Status,
		NewStatus:      updated.Status,
		Action:         action.String(),
	})

	return s.engine.Get(ctx, updated.ID)
}

func statusUpdate(current repository.Project, action domain.Action, params ApplyParams) repository.StatusUpdateParams {
	now := time.Now()
	update := repository.StatusUpdateParams{
		Status:          action.TargetStatus(),
		ExpectedVersion: current.Version,
	}
	if params.Version != nil {
		update.ExpectedVersion = *params.Version
	}

	switch action {
	case domain.ActionStartExecution:
		if current.StartDate == nil {
			update.StartDate = &now
		}
	case domain.ActionComplete:
		if current.CompletionDate == nil {
			update.CompletionDate = &now
		}
	case domain.ActionArchive:
		archived := true
		update.Archived = &archived
	}

	return update
}
