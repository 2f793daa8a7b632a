package service

import (
	"context"
	"fmt"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/quotes/domain"
	"caseflow_backend/internal/quotes/repository"
	"caseflow_backend/internal/quotes/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// ApplyParams carries the per-action inputs accompanying a quote workflow
// action.
type ApplyParams struct {
	Reason  *string
	Version *int
	Actor   string
}

// Apply executes a named workflow action against a quote. Unknown actions,
// terminal statuses, and the expired send/approve guard all fail without
// touching the stored record.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, actionName string, params ApplyParams) workflow.Result[transport.QuoteResponse] {
	action, ok := domain.ParseAction(actionName)
	if !ok {
		return workflow.Fail[transport.QuoteResponse](apperr.KindBadRequest,
			fmt.Sprintf("invalid workflow action %q", actionName))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return workflow.FailFrom[transport.QuoteResponse](err)
	}

	if reason := blockReason(current, action, time.Now()); reason != "" {
		return workflow.Fail[transport.QuoteResponse](apperr.KindConflict, reason)
	}

	update := statusUpdate(current, action, params)
	updated, err := s.repo.ApplyStatus(ctx, id, update)
	if err != nil {
		return workflow.FailFrom[transport.QuoteResponse](err)
	}

	s.bus.Publish(ctx, events.QuoteStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		QuoteID:        updated.ID,
		PreviousStatus: current.Status,
		NewStatus:      updated.Status,
		Action:         action.String(),
	})

	return s.engine.Get(ctx, updated.ID)
}

// blockReason enforces the quote transition policy. An expired validity
// window blocks send and approve regardless of the stored status.
func blockReason(current repository.Quote, action domain.Action, now time.Time) string {
	if domain.IsTerminal(current.Status) {
		return fmt.Sprintf("quote is %s and accepts no further actions", current.Status)
	}

	if current.ValidUntil.Before(now) {
		switch action {
		case domain.ActionSend, domain.ActionApprove, domain.ActionFinalizeTerms:
			return "quote validity has expired; renew the valid-until date first"
		}
	}

	return ""
}

func statusUpdate(current repository.Quote, action domain.Action, params ApplyParams) repository.StatusUpdateParams {
	now := time.Now()
	update := repository.StatusUpdateParams{
		Status:          action.TargetStatus(),
		ExpectedVersion: current.Version,
	}
	if params.Version != nil {
		update.ExpectedVersion = *params.Version
	}

	switch action {
	case domain.ActionSend, domain.ActionApprove:
		update.SentAt = &now
	case domain.ActionMarkViewed:
		update.ViewedAt = &now
	case domain.ActionFinalizeTerms, domain.ActionExpire, domain.ActionCancel:
		update.DecidedAt = &now
	case domain.ActionReject:
		update.DecidedAt = &now
		update.RejectionReason = params.Reason
	}

	return update
}

// guardMutable blocks edits on approved quotes.
func (s *Service) guardMutable(ctx context.Context, id uuid.UUID, _ transport.UpdateQuoteRequest) error {
	return s.requireNotApproved(ctx, id, "updated")
}

// guardDeletable blocks deletion of approved quotes.
func (s *Service) guardDeletable(ctx context.Context, id uuid.UUID) error {
	return s.requireNotApproved(ctx, id, "deleted")
}

func (s *Service) requireNotApproved(ctx context.Context, id uuid.UUID, verb string) error {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status == domain.StatusApproved {
		return apperr.Conflict(fmt.Sprintf("an approved quote cannot be %s", verb))
	}
	return nil
}
