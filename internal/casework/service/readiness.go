package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"caseflow_backend/internal/casework/domain"
	"caseflow_backend/internal/casework/repository"
	"caseflow_backend/internal/casework/transport"
	"caseflow_backend/internal/workflow"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const recentCommunicationWindow = 7 * 24 * time.Hour

// AddInformationItem appends a checklist entry. Status defaults to missing.
func (s *Service) AddInformationItem(ctx context.Context, requestID uuid.UUID, req transport.CreateInformationItemRequest) workflow.Result[transport.InformationItemResponse] {
	status := req.Status
	if status == "" {
		status = domain.InfoMissing
	}
	if !domain.ValidInformationStatus(status) {
		return workflow.FailValidation[transport.InformationItemResponse](
			[]workflow.FieldError{{Field: "status", Message: fmt.Sprintf("unknown information status %q", status)}}, nil)
	}
	if !domain.ValidImportance(req.Importance) {
		return workflow.FailValidation[transport.InformationItemResponse](
			[]workflow.FieldError{{Field: "importance", Message: fmt.Sprintf("unknown importance %q", req.Importance)}}, nil)
	}

	item, err := s.repo.AddInformationItem(ctx, repository.CreateInformationItemParams{
		RequestID:  requestID,
		Category:   req.Category,
		Name:       req.Name,
		Status:     status,
		Importance: req.Importance,
		Value:      req.Value,
	})
	if err != nil {
		s.log.WorkflowError("case", "addInformationItem", requestID.String(), err)
		return workflow.FailFrom[transport.InformationItemResponse](err)
	}
	return workflow.Ok(toInformationItemResponse(item))
}

// UpdateInformationItem moves a checklist entry's status and captured value.
func (s *Service) UpdateInformationItem(ctx context.Context, itemID uuid.UUID, req transport.UpdateInformationItemRequest) workflow.Result[transport.InformationItemResponse] {
	if !domain.ValidInformationStatus(req.Status) {
		return workflow.FailValidation[transport.InformationItemResponse](
			[]workflow.FieldError{{Field: "status", Message: fmt.Sprintf("unknown information status %q", req.Status)}}, nil)
	}

	item, err := s.repo.UpdateInformationItem(ctx, itemID, req.Status, req.Value)
	if err != nil {
		return workflow.FailFrom[transport.InformationItemResponse](err)
	}
	return workflow.Ok(toInformationItemResponse(item))
}

// InformationChecklist returns the checklist with its aggregate gathering
// status.
func (s *Service) InformationChecklist(ctx context.Context, requestID uuid.UUID) workflow.Result[transport.InformationChecklistResponse] {
	items, err := s.repo.ListInformationItems(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[transport.InformationChecklistResponse](err)
	}

	resp := transport.InformationChecklistResponse{
		RequestID:  requestID,
		Items:      make([]transport.InformationItemResponse, len(items)),
		TotalCount: len(items),
	}
	for i, item := range items {
		resp.Items[i] = toInformationItemResponse(item)
		if item.Status == domain.InfoVerified {
			resp.VerifiedCount++
		}
	}
	resp.GatheringStatus = domain.GatheringStatus(resp.VerifiedCount, resp.TotalCount)
	return workflow.Ok(resp)
}

// AddScopeItem appends a node to the scope tree. Status defaults to draft.
func (s *Service) AddScopeItem(ctx context.Context, requestID uuid.UUID, req transport.CreateScopeItemRequest) workflow.Result[transport.ScopeItemResponse] {
	status := req.Status
	if status == "" {
		status = domain.ScopeDraft
	}
	if !domain.ValidScopeStatus(status) {
		return workflow.FailValidation[transport.ScopeItemResponse](
			[]workflow.FieldError{{Field: "status", Message: fmt.Sprintf("unknown scope status %q", status)}}, nil)
	}

	item, err := s.repo.AddScopeItem(ctx, repository.CreateScopeItemParams{
		RequestID:      requestID,
		ParentID:       req.ParentID,
		Category:       req.Category,
		Name:           req.Name,
		Specifications: req.Specifications,
		Materials:      req.Materials,
		EstimatedCost:  req.EstimatedCost,
		EstimatedHours: req.EstimatedHours,
		Complexity:     req.Complexity,
		Status:         status,
	})
	if err != nil {
		s.log.WorkflowError("case", "addScopeItem", requestID.String(), err)
		return workflow.FailFrom[transport.ScopeItemResponse](err)
	}
	return workflow.Ok(toScopeItemResponse(item))
}

// UpdateScopeItem moves a scope node's status and client-approval flag.
func (s *Service) UpdateScopeItem(ctx context.Context, itemID uuid.UUID, req transport.UpdateScopeItemRequest) workflow.Result[transport.ScopeItemResponse] {
	if !domain.ValidScopeStatus(req.Status) {
		return workflow.FailValidation[transport.ScopeItemResponse](
			[]workflow.FieldError{{Field: "status", Message: fmt.Sprintf("unknown scope status %q", req.Status)}}, nil)
	}

	item, err := s.repo.UpdateScopeItem(ctx, itemID, req.Status, req.ClientApproved)
	if err != nil {
		return workflow.FailFrom[transport.ScopeItemResponse](err)
	}
	return workflow.Ok(toScopeItemResponse(item))
}

// ScopeDefinition returns the scope tree with its aggregate definition
// status.
func (s *Service) ScopeDefinition(ctx context.Context, requestID uuid.UUID) workflow.Result[transport.ScopeDefinitionResponse] {
	items, err := s.repo.ListScopeItems(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[transport.ScopeDefinitionResponse](err)
	}

	resp := transport.ScopeDefinitionResponse{
		RequestID:  requestID,
		Items:      make([]transport.ScopeItemResponse, len(items)),
		TotalCount: len(items),
	}
	for i, item := range items {
		resp.Items[i] = toScopeItemResponse(item)
		if item.Status == domain.ScopeApproved {
			resp.ApprovedCount++
		}
	}
	resp.DefinitionStatus = domain.DefinitionStatus(resp.ApprovedCount, resp.TotalCount)
	return workflow.Ok(resp)
}

// Readiness computes the quoting readiness score, fresh on each call.
func (s *Service) Readiness(ctx context.Context, requestID uuid.UUID) workflow.Result[transport.ReadinessResponse] {
	infoItems, scopeItems, notes, err := s.fetchCaseState(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[transport.ReadinessResponse](err)
	}

	score, factors := ReadinessScore(infoItems, scopeItems, notes, time.Now())
	return workflow.Ok(transport.ReadinessResponse{
		RequestID: requestID,
		Score:     score,
		Factors:   factors,
	})
}

// Overview assembles the one-call case dashboard for a request.
func (s *Service) Overview(ctx context.Context, requestID uuid.UUID) workflow.Result[transport.CaseOverviewResponse] {
	snapshot, err := s.requests.Snapshot(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[transport.CaseOverviewResponse](err)
	}

	infoItems, scopeItems, notes, err := s.fetchCaseState(ctx, requestID)
	if err != nil {
		return workflow.FailFrom[transport.CaseOverviewResponse](err)
	}

	now := time.Now()
	score, factors := ReadinessScore(infoItems, scopeItems, notes, now)

	resp := transport.CaseOverviewResponse{
		RequestID:        requestID,
		Status:           snapshot.Status,
		PriorityScore:    snapshot.PriorityScore,
		AssignedTo:       snapshot.AssignedTo,
		NoteCount:        len(notes),
		LastActivityAt:   snapshot.UpdatedAt,
		EstimatedValue:   snapshot.EstimatedValue,
		ReadinessScore:   score,
		ReadinessFactors: factors,
	}

	for _, item := range infoItems {
		if item.Status != domain.InfoVerified {
			resp.PendingInformation++
		}
	}
	for _, item := range scopeItems {
		if item.Status == domain.ScopeApproved || item.Status == domain.ScopeQuoted {
			resp.CompletedScopeItems++
		}
	}
	for _, note := range notes {
		if note.CreatedAt.After(resp.LastActivityAt) {
			resp.LastActivityAt = note.CreatedAt
		}
		if note.FollowUpDate != nil && note.FollowUpDate.After(now) {
			if resp.NextFollowUp == nil || note.FollowUpDate.Before(*resp.NextFollowUp) {
				resp.NextFollowUp = note.FollowUpDate
			}
		}
	}

	return workflow.Ok(resp)
}

// fetchCaseState loads the three sub-entity collections concurrently; they
// are read-only and target disjoint rows.
func (s *Service) fetchCaseState(ctx context.Context, requestID uuid.UUID) ([]repository.InformationItem, []repository.ScopeItem, []repository.CaseNote, error) {
	var (
		infoItems  []repository.InformationItem
		scopeItems []repository.ScopeItem
		notes      []repository.CaseNote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		infoItems, err = s.repo.ListInformationItems(gctx, requestID)
		return err
	})
	g.Go(func() error {
		var err error
		scopeItems, err = s.repo.ListScopeItems(gctx, requestID)
		return err
	})
	g.Go(func() error {
		var err error
		notes, err = s.repo.ListNotes(gctx, requestID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return infoItems, scopeItems, notes, nil
}

// ReadinessScore sums the three weighted contributions: required information
// verified (up to 40), approved scope items (10 each up to 40), and client
// communication in the last seven days (5 per note up to 20). The total is
// clamped to 100.
func ReadinessScore(infoItems []repository.InformationItem, scopeItems []repository.ScopeItem, notes []repository.CaseNote, now time.Time) (int, []string) {
	verifiedRequired, totalRequired := 0, 0
	for _, item := range infoItems {
		if item.Importance != domain.ImportanceRequired {
			continue
		}
		totalRequired++
		if item.Status == domain.InfoVerified {
			verifiedRequired++
		}
	}
	infoPoints := 0
	if totalRequired > 0 {
		infoPoints = int(math.Round(float64(verifiedRequired) / float64(totalRequired) * 40))
	}

	approved := 0
	for _, item := range scopeItems {
		if item.Status == domain.ScopeApproved {
			approved++
		}
	}
	scopePoints := approved * 10
	if scopePoints > 40 {
		scopePoints = 40
	}

	cutoff := now.Add(-recentCommunicationWindow)
	recent := 0
	for _, note := range notes {
		if note.NoteType == domain.NoteClientCommunication && note.CreatedAt.After(cutoff) {
			recent++
		}
	}
	commPoints := recent * 5
	if commPoints > 20 {
		commPoints = 20
	}

	score := infoPoints + scopePoints + commPoints
	if score > 100 {
		score = 100
	}

	factors := []string{
		fmt.Sprintf("Information: %d/%d required items", verifiedRequired, totalRequired),
		fmt.Sprintf("Scope: %d approved items", approved),
		fmt.Sprintf("Communication: %d client notes in last 7 days", recent),
	}
	return score, factors
}

func toInformationItemResponse(item repository.InformationItem) transport.InformationItemResponse {
	return transport.InformationItemResponse{
		ID:         item.ID,
		Category:   item.Category,
		Name:       item.Name,
		Status:     item.Status,
		Importance: item.Importance,
		Value:      item.Value,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func toScopeItemResponse(item repository.ScopeItem) transport.ScopeItemResponse {
	return transport.ScopeItemResponse{
		ID:             item.ID,
		ParentID:       item.ParentID,
		Category:       item.Category,
		Name:           item.Name,
		Specifications: item.Specifications,
		Materials:      item.Materials,
		EstimatedCost:  item.EstimatedCost,
		EstimatedHours: item.EstimatedHours,
		Complexity:     item.Complexity,
		Status:         item.Status,
		ClientApproved: item.ClientApproved,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}
