package service

import (
	"context"
	"fmt"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/requests/domain"
	"caseflow_backend/internal/requests/repository"
	"caseflow_backend/internal/requests/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// ApplyParams carries the per-action inputs accompanying a workflow action.
type ApplyParams struct {
	AssigneeID *string
	Version    *int
	Actor      string
}

// Apply executes a named workflow action against a request. Unknown action
// names and policy-blocked actions fail without touching the stored record.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, actionName string, params ApplyParams) workflow.Result[transport.RequestResponse] {
	action, ok := domain.ParseAction(actionName)
	if !ok {
		return workflow.Fail[transport.RequestResponse](apperr.KindBadRequest,
			fmt.Sprintf("invalid workflow action %q", actionName))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return workflow.FailFrom[transport.RequestResponse](err)
	}

	if reason := blockReason(current, action, params); reason != "" {
		return workflow.Fail[transport.RequestResponse](apperr.KindConflict, reason)
	}

	update := statusUpdate(action, params, current.Version)
	updated, err := s.repo.ApplyStatus(ctx, id, update)
	if err != nil {
		return workflow.FailFrom[transport.RequestResponse](err)
	}

	s.publishTransition(ctx, current, updated, action, params)

	return s.engine.Get(ctx, updated.ID)
}

// blockReason enforces the transition policy. An empty string means the
// action may proceed.
func blockReason(current repository.Request, action domain.Action, params ApplyParams) string {
	if domain.IsTerminal(current.Status) {
		return fmt.Sprintf("request is %s and accepts no further actions", current.Status)
	}

	switch action {
	case domain.ActionAssign:
		if params.AssigneeID == nil || *params.AssigneeID == "" {
			return "assign requires an assignee"
		}
	case domain.ActionCreateQuote, domain.ActionApprove:
		if current.AgentContactID == nil && current.HomeownerContactID == nil {
			return fmt.Sprintf("%s requires a linked agent or homeowner contact", action)
		}
	}

	return ""
}

// statusUpdate builds the conditional write for a transition, stamping the
// timestamps the action implies.
func statusUpdate(action domain.Action, params ApplyParams, currentVersion int) repository.StatusUpdateParams {
	now := time.Now()
	update := repository.StatusUpdateParams{
		Status:          action.TargetStatus(),
		ExpectedVersion: currentVersion,
	}
	if params.Version != nil {
		update.ExpectedVersion = *params.Version
	}

	switch action {
	case domain.ActionAssign:
		update.AssignedTo = params.AssigneeID
		update.AssignedAt = &now
	case domain.ActionCreateQuote:
		update.MovedToQuotingAt = &now
	case domain.ActionCancel:
		update.ArchivedAt = &now
	}

	return update
}

func (s *Service) publishTransition(ctx context.Context, previous, updated repository.Request, action domain.Action, params ApplyParams) {
	s.bus.Publish(ctx, events.RequestStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		RequestID:      updated.ID,
		PreviousStatus: previous.Status,
		NewStatus:      updated.Status,
		Action:         action.String(),
		ChangedBy:      params.Actor,
		NotifyClient:   notifiableTransition(action),
	})

	if action == domain.ActionAssign && params.AssigneeID != nil {
		s.bus.Publish(ctx, events.RequestAssigned{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  updated.ID,
			AssigneeID: *params.AssigneeID,
			AssignedBy: params.Actor,
		})
	}
}

// notifiableTransition marks the transitions clients are told about.
func notifiableTransition(action domain.Action) bool {
	switch action {
	case domain.ActionNeedsInfo, domain.ActionCreateQuote, domain.ActionApprove,
		domain.ActionComplete, domain.ActionCancel:
		return true
	}
	return false
}
