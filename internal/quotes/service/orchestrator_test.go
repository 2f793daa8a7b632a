package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"caseflow_backend/internal/quotes/transport"
	reqdomain "caseflow_backend/internal/requests/domain"
	reqservice "caseflow_backend/internal/requests/service"
	reqtransport "caseflow_backend/internal/requests/transport"
	"caseflow_backend/internal/workflow"
	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRequestWorkflow struct {
	byID       map[uuid.UUID]reqtransport.RequestResponse
	applyCalls []string
	applyFails bool
}

func newFakeRequestWorkflow() *fakeRequestWorkflow {
	return &fakeRequestWorkflow{byID: make(map[uuid.UUID]reqtransport.RequestResponse)}
}

func (f *fakeRequestWorkflow) Get(_ context.Context, id uuid.UUID) workflow.Result[reqtransport.RequestResponse] {
	req, ok := f.byID[id]
	if !ok {
		return workflow.Fail[reqtransport.RequestResponse](apperr.KindNotFound, "request not found")
	}
	return workflow.Ok(req)
}

func (f *fakeRequestWorkflow) Apply(_ context.Context, id uuid.UUID, action string, _ reqservice.ApplyParams) workflow.Result[reqtransport.RequestResponse] {
	f.applyCalls = append(f.applyCalls, action)
	if f.applyFails {
		return workflow.Fail[reqtransport.RequestResponse](apperr.KindInternal, "persistence unavailable")
	}
	req := f.byID[id]
	req.Status = reqdomain.StatusQuoted
	f.byID[id] = req
	return workflow.Ok(req)
}

func seedRequest(f *fakeRequestWorkflow, status string) reqtransport.RequestResponse {
	budget := "48000"
	product := "Solar panels"
	assignee := "estimator-7"
	agentID := uuid.New()
	req := reqtransport.RequestResponse{
		ID:             uuid.New(),
		Message:        "Install solar panels on the south roof",
		Status:         status,
		Budget:         &budget,
		Product:        &product,
		AssignedTo:     &assignee,
		AgentContactID: &agentID,
		Version:        1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		Property: &reqtransport.PropertySummary{
			Address: "12 Oak Ln, Springfield",
		},
	}
	f.byID[req.ID] = req
	return req
}

func newTestOrchestrator() (*Orchestrator, *fakeRequestWorkflow, *fakeRepo) {
	requests := newFakeRequestWorkflow()
	repo := newFakeRepo()
	quotes := New(repo, fakeRequestReader{}, &fakeBus{}, logger.New("test"))
	return NewOrchestrator(requests, quotes, logger.New("test")), requests, repo
}

func TestCreateFromRequestBuildsQuoteAndAdvancesRequest(t *testing.T) {
	orch, requests, repo := newTestOrchestrator()
	req := seedRequest(requests, reqdomain.StatusInProgress)

	result := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{
		RequestID: req.ID,
		Operator:  "estimator-7",
	})
	if !result.Success {
		t.Fatalf("orchestration failed: %s", result.Error)
	}

	quote := result.Data.Quote
	if quote.Title != "12 Oak Ln, Springfield - Solar panels" {
		t.Fatalf("unexpected synthesized title %q", quote.Title)
	}
	if quote.TotalAmount != 48000 {
		t.Fatalf("expected budget carried over, got %v", quote.TotalAmount)
	}
	if quote.RequestID == nil || *quote.RequestID != req.ID {
		t.Fatal("expected quote linked back to the request")
	}
	if !strings.HasSuffix(quote.QuoteNumber, "-000001") {
		t.Fatalf("expected first sequential number, got %q", quote.QuoteNumber)
	}

	if result.Data.PreviousRequestStatus != reqdomain.StatusInProgress {
		t.Fatalf("expected previous status recorded, got %q", result.Data.PreviousRequestStatus)
	}
	if !result.Data.RequestStatusUpdated {
		t.Fatal("expected request to be advanced")
	}
	if len(requests.applyCalls) != 1 || requests.applyCalls[0] != "createQuote" {
		t.Fatalf("expected a createQuote transition, got %v", requests.applyCalls)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected one persisted quote, got %d", len(repo.byID))
	}

	// Quoting before the request reached Quoted is allowed with a warning.
	if len(result.Warnings) == 0 {
		t.Fatal("expected a status warning")
	}
}

func TestCreateFromRequestSequentialNumbers(t *testing.T) {
	orch, requests, _ := newTestOrchestrator()
	first := seedRequest(requests, reqdomain.StatusInProgress)
	second := seedRequest(requests, reqdomain.StatusInProgress)

	r1 := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{RequestID: first.ID})
	r2 := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{RequestID: second.ID})
	if !r1.Success || !r2.Success {
		t.Fatalf("orchestration failed: %s %s", r1.Error, r2.Error)
	}
	if !strings.HasSuffix(r2.Data.Quote.QuoteNumber, "-000002") {
		t.Fatalf("expected incremented number, got %q", r2.Data.Quote.QuoteNumber)
	}
}

func TestCreateFromRequestStatusFailureIsWarning(t *testing.T) {
	orch, requests, repo := newTestOrchestrator()
	req := seedRequest(requests, reqdomain.StatusInProgress)
	requests.applyFails = true

	result := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{RequestID: req.ID})
	if !result.Success {
		t.Fatalf("quote creation must succeed even when the request cannot advance: %s", result.Error)
	}
	if result.Data.RequestStatusUpdated {
		t.Fatal("expected status update to be reported as skipped")
	}
	warned := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "could not be advanced") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected an advancement warning, got %v", result.Warnings)
	}
	if len(repo.byID) != 1 {
		t.Fatal("quote must remain persisted")
	}
}

func TestCreateFromRequestSkipStatusUpdate(t *testing.T) {
	orch, requests, _ := newTestOrchestrator()
	req := seedRequest(requests, reqdomain.StatusInProgress)

	result := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{
		RequestID:        req.ID,
		SkipStatusUpdate: true,
	})
	if !result.Success {
		t.Fatalf("orchestration failed: %s", result.Error)
	}
	if len(requests.applyCalls) != 0 {
		t.Fatal("expected no request transition")
	}
}

func TestCreateFromRequestMissingRequest(t *testing.T) {
	orch, _, repo := newTestOrchestrator()

	result := orch.CreateFromRequest(context.Background(), transport.CreateFromRequestRequest{
		RequestID: uuid.New(),
	})
	if result.Success {
		t.Fatal("expected failure for a missing request")
	}
	if result.Kind != apperr.KindNotFound {
		t.Fatalf("expected not-found kind, got %v", result.Kind)
	}
	if len(repo.byID) != 0 {
		t.Fatal("no quote may be persisted")
	}
}

func TestReadinessReportsBlockers(t *testing.T) {
	orch, requests, _ := newTestOrchestrator()

	bare := reqtransport.RequestResponse{
		ID:        uuid.New(),
		Message:   "No details yet",
		Status:    reqdomain.StatusNew,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	requests.byID[bare.ID] = bare

	result := orch.Readiness(context.Background(), bare.ID)
	if !result.Success {
		t.Fatalf("readiness failed: %s", result.Error)
	}
	if result.Data.Ready {
		t.Fatal("expected not ready")
	}
	if len(result.Data.Blockers) != 4 {
		t.Fatalf("expected 4 blockers (contact, product, assignee, budget), got %v", result.Data.Blockers)
	}
	if len(result.Data.Suggestions) != len(result.Data.Blockers) {
		t.Fatal("every blocker carries a suggestion")
	}

	ready := seedRequest(requests, reqdomain.StatusInProgress)
	okResult := orch.Readiness(context.Background(), ready.ID)
	if !okResult.Success || !okResult.Data.Ready {
		t.Fatalf("expected ready request, got %+v", okResult.Data)
	}
}
