// Package service implements case management for requests: the note log,
// assignment and status history, the two checklists, and the readiness score
// gating quote creation.
package service

import (
	"context"
	"fmt"

	"caseflow_backend/internal/casework/domain"
	"caseflow_backend/internal/casework/repository"
	"caseflow_backend/internal/casework/transport"
	"caseflow_backend/internal/events"
	reqdomain "caseflow_backend/internal/requests/domain"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Repo is the persistence surface the case service needs.
type Repo interface {
	AddNote(ctx context.Context, params repository.CreateNoteParams) (repository.CaseNote, error)
	ListNotes(ctx context.Context, requestID uuid.UUID) ([]repository.CaseNote, error)
	Assign(ctx context.Context, params repository.AssignParams) (repository.CaseAssignment, error)
	ListAssignments(ctx context.Context, requestID uuid.UUID) ([]repository.CaseAssignment, error)
	ChangeStatus(ctx context.Context, params repository.ChangeStatusParams) (repository.StatusChange, error)
	ListStatusChanges(ctx context.Context, requestID uuid.UUID) ([]repository.StatusChange, error)
	AddInformationItem(ctx context.Context, params repository.CreateInformationItemParams) (repository.InformationItem, error)
	UpdateInformationItem(ctx context.Context, id uuid.UUID, status string, value *string) (repository.InformationItem, error)
	ListInformationItems(ctx context.Context, requestID uuid.UUID) ([]repository.InformationItem, error)
	AddScopeItem(ctx context.Context, params repository.CreateScopeItemParams) (repository.ScopeItem, error)
	UpdateScopeItem(ctx context.Context, id uuid.UUID, status string, clientApproved *bool) (repository.ScopeItem, error)
	ListScopeItems(ctx context.Context, requestID uuid.UUID) ([]repository.ScopeItem, error)
}

// RequestReader fetches the request slice the case views need.
type RequestReader interface {
	Snapshot(ctx context.Context, id uuid.UUID) (transport.RequestSnapshot, error)
}

// Service is the case management service.
type Service struct {
	repo     Repo
	requests RequestReader
	bus      events.Bus
	log      *logger.Logger
}

// New creates a case management service.
func New(repo Repo, requests RequestReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, requests: requests, bus: bus, log: log}
}

// AddNote appends a note to the request's log.
func (s *Service) AddNote(ctx context.Context, requestID uuid.UUID, req transport.CreateNoteRequest) workflow.Result[transport.NoteResponse] {
	if !domain.ValidNoteType(req.NoteType) {
		return workflow.FailValidation[transport.NoteResponse](
			[]workflow.FieldError{{Field: "noteType", Message: fmt.Sprintf("unknown note type %q", req.NoteType)}}, nil)
	}

	note, err := s.repo.AddNote(ctx, repository.CreateNoteParams{
		RequestID:    requestID,
		Content:      req.Content,
		NoteType:     req.NoteType,
		IsPrivate:    req.IsPrivate,
		AuthorID:     req.AuthorID,
		AuthorRole:   req.AuthorRole,
		Attachments:  req.Attachments,
		FollowUpDate: req.FollowUpDate,
		Priority:     req.Priority,
		Tags:         req.Tags,
	})
	if err != nil {
		s.log.WorkflowError("case", "addNote", requestID.String(), err)
		return workflow.FailFrom[transport.NoteResponse](err)
	}

	return workflow.Ok(toNoteResponse(note))
}

// Notes lists a request's notes, newest first. The filters are applied after
// the full fetch; note logs are per-request and small.
func (s *Service) Notes(ctx context.Context, requestID uuid.UUID, filters transport.NoteFilters) workflow.Result[[]transport.NoteResponse] {
	notes, err := s.repo.ListNotes(ctx, requestID)
	if err != nil {
		s.log.WorkflowError("case", "listNotes", requestID.String(), err)
		return workflow.FailFrom[[]transport.NoteResponse](err)
	}

	out := make([]transport.NoteResponse, 0, len(notes))
	for _, note := range notes {
		if filters.NoteType != "" && note.NoteType != filters.NoteType {
			continue
		}
		if filters.AuthorRole != "" && note.AuthorRole != filters.AuthorRole {
			continue
		}
		if note.IsPrivate && !filters.IncludePrivate {
			continue
		}
		out = append(out, toNoteResponse(note))
	}
	return workflow.Ok(out)
}

// Assign records an assignment. A primary assignment also moves the request's
// top-level assignee and writes the describing internal note within the same
// transaction.
func (s *Service) Assign(ctx context.Context, requestID uuid.UUID, req transport.AssignRequest) workflow.Result[transport.AssignmentResponse] {
	if !domain.ValidAssignmentType(req.AssignmentType) {
		return workflow.FailValidation[transport.AssignmentResponse](
			[]workflow.FieldError{{Field: "assignmentType", Message: fmt.Sprintf("unknown assignment type %q", req.AssignmentType)}}, nil)
	}

	assignment, err := s.repo.Assign(ctx, repository.AssignParams{
		RequestID:      requestID,
		AssigneeID:     req.AssigneeID,
		AssigneeRole:   req.AssigneeRole,
		AssignmentType: req.AssignmentType,
		AssignedBy:     req.AssignedBy,
		Reason:         req.Reason,
		DueDate:        req.DueDate,
		Priority:       req.Priority,
		Note: fmt.Sprintf("Request assigned to %s (%s) by %s",
			req.AssigneeID, req.AssignmentType, req.AssignedBy),
	})
	if err != nil {
		s.log.WorkflowError("case", "assign", requestID.String(), err)
		return workflow.FailFrom[transport.AssignmentResponse](err)
	}

	if req.AssignmentType == domain.AssignmentPrimary {
		s.bus.Publish(ctx, events.RequestAssigned{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  requestID,
			AssigneeID: req.AssigneeID,
			AssignedBy: req.AssignedBy,
		})
	}

	return workflow.Ok(toAssignmentResponse(assignment))
}

// AssignmentHistory lists a request's assignments, newest first.
func (s *Service) AssignmentHistory(ctx context.Context, requestID uuid.UUID) workflow.Result[[]transport.AssignmentResponse] {
	assignments, err := s.repo.ListAssignments(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[[]transport.AssignmentResponse](err)
	}
	out := make([]transport.AssignmentResponse, len(assignments))
	for i, a := range assignments {
		out[i] = toAssignmentResponse(a)
	}
	return workflow.Ok(out)
}

// ChangeStatus records a status transition. The audit record, the request's
// status field, and the describing internal note are written in one
// transaction so the three can never diverge.
func (s *Service) ChangeStatus(ctx context.Context, requestID uuid.UUID, req transport.ChangeStatusRequest) workflow.Result[transport.StatusChangeResponse] {
	if !reqdomain.IsKnownStatus(req.NewStatus) {
		return workflow.FailValidation[transport.StatusChangeResponse](
			[]workflow.FieldError{{Field: "newStatus", Message: fmt.Sprintf("unknown request status %q", req.NewStatus)}}, nil)
	}

	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = domain.TriggerUser
	}
	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = "system"
	}

	change, err := s.repo.ChangeStatus(ctx, repository.ChangeStatusParams{
		RequestID:      requestID,
		NewStatus:      req.NewStatus,
		Reason:         req.Reason,
		TriggeredBy:    triggeredBy,
		BusinessImpact: req.BusinessImpact,
		ClientNotified: req.ClientNotified,
		ChangedBy:      changedBy,
		Note:           statusChangeNote(req.NewStatus, changedBy, req.Reason),
	})
	if err != nil {
		s.log.WorkflowError("case", "changeStatus", requestID.String(), err)
		return workflow.FailFrom[transport.StatusChangeResponse](err)
	}

	s.bus.Publish(ctx, events.RequestStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		RequestID:      requestID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		Action:         "changeStatus",
		ChangedBy:      changedBy,
		NotifyClient:   req.ClientNotified,
	})

	return workflow.Ok(toStatusChangeResponse(change))
}

// StatusHistory lists a request's transitions, newest first.
func (s *Service) StatusHistory(ctx context.Context, requestID uuid.UUID) workflow.Result[[]transport.StatusChangeResponse] {
	changes, err := s.repo.ListStatusChanges(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[[]transport.StatusChangeResponse](err)
	}
	out := make([]transport.StatusChangeResponse, len(changes))
	for i, change := range changes {
		out[i] = toStatusChangeResponse(change)
	}
	return workflow.Ok(out)
}

func statusChangeNote(newStatus, changedBy string, reason *string) string {
	note := fmt.Sprintf("Status changed to %s by %s", newStatus, changedBy)
	if reason != nil && *reason != "" {
		note += ": " + *reason
	}
	return note
}

func toNoteResponse(note repository.CaseNote) transport.NoteResponse {
	return transport.NoteResponse{
		ID:           note.ID,
		RequestID:    note.RequestID,
		Content:      note.Content,
		NoteType:     note.NoteType,
		IsPrivate:    note.IsPrivate,
		AuthorID:     note.AuthorID,
		AuthorRole:   note.AuthorRole,
		Attachments:  note.Attachments,
		FollowUpDate: note.FollowUpDate,
		Priority:     note.Priority,
		Tags:         note.Tags,
		CreatedAt:    note.CreatedAt,
	}
}

func toAssignmentResponse(a repository.CaseAssignment) transport.AssignmentResponse {
	return transport.AssignmentResponse{
		ID:             a.ID,
		RequestID:      a.RequestID,
		AssigneeID:     a.AssigneeID,
		AssigneeRole:   a.AssigneeRole,
		AssignmentType: a.AssignmentType,
		AssignedBy:     a.AssignedBy,
		Reason:         a.Reason,
		Status:         a.Status,
		DueDate:        a.DueDate,
		Priority:       a.Priority,
		CreatedAt:      a.CreatedAt,
	}
}

func toStatusChangeResponse(sc repository.StatusChange) transport.StatusChangeResponse {
	return transport.StatusChangeResponse{
		ID:             sc.ID,
		RequestID:      sc.RequestID,
		PreviousStatus: sc.PreviousStatus,
		NewStatus:      sc.NewStatus,
		Reason:         sc.Reason,
		TriggeredBy:    sc.TriggeredBy,
		BusinessImpact: sc.BusinessImpact,
		ClientNotified: sc.ClientNotified,
		CreatedAt:      sc.CreatedAt,
	}
}
