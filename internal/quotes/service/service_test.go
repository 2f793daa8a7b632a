package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/quotes/domain"
	"caseflow_backend/internal/quotes/repository"
	"caseflow_backend/internal/quotes/transport"
	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID  map[uuid.UUID]repository.Quote
	items map[uuid.UUID][]repository.LineItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:  make(map[uuid.UUID]repository.Quote),
		items: make(map[uuid.UUID][]repository.LineItem),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateQuoteParams) (repository.Quote, error) {
	now := time.Now()
	quote := repository.Quote{
		ID:                 uuid.New(),
		QuoteNumber:        params.QuoteNumber,
		Title:              params.Title,
		Description:        params.Description,
		Terms:              params.Terms,
		Notes:              params.Notes,
		TotalAmount:        params.TotalAmount,
		ValidUntil:         params.ValidUntil,
		Status:             params.Status,
		RequestID:          params.RequestID,
		AgentContactID:     params.AgentContactID,
		HomeownerContactID: params.HomeownerContactID,
		PropertyID:         params.PropertyID,
		CreatedBy:          params.CreatedBy,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.byID[quote.ID] = quote

	items := make([]repository.LineItem, len(params.Items))
	for i, item := range params.Items {
		items[i] = repository.LineItem{
			ID:          uuid.New(),
			QuoteID:     quote.ID,
			Description: item.Description,
			Category:    item.Category,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    i,
		}
	}
	f.items[quote.ID] = items
	return quote, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Quote, error) {
	quote, ok := f.byID[id]
	if !ok {
		return repository.Quote{}, apperr.NotFound("quote not found")
	}
	return quote, nil
}

func (f *fakeRepo) FindAll(_ context.Context, query repository.QuoteQuery) ([]repository.Quote, error) {
	out := make([]repository.Quote, 0, len(f.byID))
	for _, quote := range f.byID {
		if query.Status != "" && quote.Status != query.Status {
			continue
		}
		out = append(out, quote)
	}
	return out, nil
}

func (f *fakeRepo) ListItems(_ context.Context, quoteID uuid.UUID) ([]repository.LineItem, error) {
	return f.items[quoteID], nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateQuoteParams) (repository.Quote, error) {
	quote, ok := f.byID[id]
	if !ok {
		return repository.Quote{}, apperr.NotFound("quote not found")
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != quote.Version {
		return repository.Quote{}, apperr.Conflict("quote was modified concurrently, reload and retry")
	}
	if params.Title != nil {
		quote.Title = *params.Title
	}
	if params.TotalAmount != nil {
		quote.TotalAmount = *params.TotalAmount
	}
	if params.ValidUntil != nil {
		quote.ValidUntil = *params.ValidUntil
	}
	quote.Version++
	quote.UpdatedAt = time.Now()
	f.byID[id] = quote
	return quote, nil
}

func (f *fakeRepo) ApplyStatus(_ context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Quote, error) {
	quote, ok := f.byID[id]
	if !ok {
		return repository.Quote{}, apperr.NotFound("quote not found")
	}
	if params.ExpectedVersion != quote.Version {
		return repository.Quote{}, apperr.Conflict("quote was modified concurrently, reload and retry")
	}
	quote.Status = params.Status
	if params.SentAt != nil {
		quote.SentAt = params.SentAt
	}
	if params.ViewedAt != nil {
		quote.ViewedAt = params.ViewedAt
	}
	if params.DecidedAt != nil {
		quote.DecidedAt = params.DecidedAt
	}
	if params.RejectionReason != nil {
		quote.RejectionReason = params.RejectionReason
	}
	quote.Version++
	quote.UpdatedAt = time.Now()
	f.byID[id] = quote
	return quote, nil
}

func (f *fakeRepo) MaxQuoteSequence(_ context.Context) (int, error) {
	max := 0
	for _, quote := range f.byID {
		idx := strings.LastIndex(quote.QuoteNumber, "-")
		if idx < 0 {
			continue
		}
		n := 0
		for _, r := range quote.QuoteNumber[idx+1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, quote := range f.byID {
		if !quote.ValidUntil.Before(now) {
			continue
		}
		switch quote.Status {
		case domain.StatusSent, domain.StatusViewed, domain.StatusUnderNegotiation:
			quote.Status = domain.StatusExpired
			quote.Version++
			f.byID[id] = quote
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("quote not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeRequestReader struct{}

func (fakeRequestReader) Summary(_ context.Context, id uuid.UUID) (transport.RequestSummary, error) {
	return transport.RequestSummary{ID: id, Status: "Quoted", Message: "summary"}, nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *fakeRepo, *fakeBus) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	return New(repo, fakeRequestReader{}, bus, logger.New("test")), repo, bus
}

func TestCreateRecomputesTotalFromItems(t *testing.T) {
	svc, _, _ := newTestService()

	result := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Kitchen remodel",
		Items: []transport.LineItemPayload{
			{Description: "Cabinets", Quantity: 2, UnitPrice: 500},
			{Description: "Countertop", Quantity: 1, UnitPrice: 1000},
		},
	})
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}
	if result.Data.TotalAmount != 2000 {
		t.Fatalf("expected total 2000, got %v", result.Data.TotalAmount)
	}
	if len(result.Data.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(result.Data.Items))
	}
	if result.Data.Items[0].Subtotal != 1000 {
		t.Fatalf("expected first subtotal 1000, got %v", result.Data.Items[0].Subtotal)
	}
}

func TestCreateDefaultsNumberAndValidity(t *testing.T) {
	svc, _, _ := newTestService()

	result := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title:       "Roof",
		TotalAmount: 5000,
	})
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}
	if !strings.HasPrefix(result.Data.QuoteNumber, "Q"+time.Now().Format("200601")+"-") {
		t.Fatalf("unexpected quote number %q", result.Data.QuoteNumber)
	}

	expected := time.Now().AddDate(0, 0, 30)
	if diff := result.Data.ValidUntil.Sub(expected); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expected valid-until about 30 days out, got %v", result.Data.ValidUntil)
	}
	if result.Data.Status != domain.StatusDraft {
		t.Fatalf("expected draft status, got %q", result.Data.Status)
	}
}

func TestCreateRejectsNonPositiveTotal(t *testing.T) {
	svc, repo, _ := newTestService()

	result := svc.Create(context.Background(), transport.CreateQuoteRequest{Title: "Empty"})
	if result.Success {
		t.Fatal("expected validation failure for zero total")
	}
	if result.Kind != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", result.Kind)
	}
	if len(repo.byID) != 0 {
		t.Fatal("invalid quote must not be persisted")
	}
}

func TestApplyApproveBlockedWhenExpired(t *testing.T) {
	svc, repo, _ := newTestService()

	yesterday := time.Now().AddDate(0, 0, -1)
	quote, err := repo.Create(context.Background(), repository.CreateQuoteParams{
		QuoteNumber: "Q202608-000001",
		Title:       "Stale quote",
		TotalAmount: 9000,
		ValidUntil:  yesterday,
		Status:      domain.StatusSent,
		CreatedBy:   "tester",
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result := svc.Apply(context.Background(), quote.ID, "approve", ApplyParams{})
	if result.Success {
		t.Fatal("expected approve on an expired quote to fail")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", result.Kind)
	}
	if stored := repo.byID[quote.ID]; stored.Status != domain.StatusSent {
		t.Fatalf("status must be unchanged, got %q", stored.Status)
	}
}

func TestApplyUnknownActionLeavesStatusUnchanged(t *testing.T) {
	svc, repo, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Deck", TotalAmount: 4000,
	})

	result := svc.Apply(context.Background(), created.Data.ID, "launch", ApplyParams{})
	if result.Success {
		t.Fatal("expected unknown action to fail")
	}
	if result.Kind != apperr.KindBadRequest {
		t.Fatalf("expected bad request kind, got %v", result.Kind)
	}
	if stored := repo.byID[created.Data.ID]; stored.Status != domain.StatusDraft {
		t.Fatalf("status must be unchanged, got %q", stored.Status)
	}
}

func TestApproveFromReviewSends(t *testing.T) {
	svc, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Fence", TotalAmount: 3000,
	})

	if r := svc.Apply(context.Background(), created.Data.ID, "submitForReview", ApplyParams{}); !r.Success {
		t.Fatalf("submitForReview failed: %s", r.Error)
	}
	sent := svc.Apply(context.Background(), created.Data.ID, "approve", ApplyParams{})
	if !sent.Success {
		t.Fatalf("approve failed: %s", sent.Error)
	}
	if sent.Data.Status != domain.StatusSent {
		t.Fatalf("approving a pending-review quote must send it, got %q", sent.Data.Status)
	}
	if sent.Data.SentAt == nil {
		t.Fatal("expected sent timestamp")
	}
}

func TestUpdateBlockedOnceApproved(t *testing.T) {
	svc, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Patio", TotalAmount: 7500,
	})
	for _, action := range []string{"send", "markViewed", "negotiate", "finalizeTerms"} {
		if r := svc.Apply(context.Background(), created.Data.ID, action, ApplyParams{}); !r.Success {
			t.Fatalf("%s failed: %s", action, r.Error)
		}
	}

	title := "Patio v2"
	result := svc.Update(context.Background(), created.Data.ID, transport.UpdateQuoteRequest{Title: &title})
	if result.Success {
		t.Fatal("expected update of an approved quote to fail")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", result.Kind)
	}

	if del := svc.Delete(context.Background(), created.Data.ID); del.Success {
		t.Fatal("expected delete of an approved quote to fail")
	}
}

func TestDuplicateRunsFullValidation(t *testing.T) {
	svc, repo, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Original", TotalAmount: 12000,
	})
	before := len(repo.byID)

	negative := -5.0
	result := svc.Duplicate(context.Background(), created.Data.ID, transport.DuplicateQuoteRequest{
		TotalAmount: &negative,
	})
	if result.Success {
		t.Fatal("expected duplicate with negative total to fail validation")
	}
	if result.Kind != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", result.Kind)
	}
	if len(repo.byID) != before {
		t.Fatal("failed duplicate must not persist a record")
	}
}

func TestDuplicateCopiesAndPrefixes(t *testing.T) {
	svc, _, _ := newTestService()

	desc := "ten windows"
	created := svc.Create(context.Background(), transport.CreateQuoteRequest{
		Title: "Windows", Description: &desc, TotalAmount: 20000,
	})

	result := svc.Duplicate(context.Background(), created.Data.ID, transport.DuplicateQuoteRequest{})
	if !result.Success {
		t.Fatalf("duplicate failed: %s", result.Error)
	}
	if result.Data.Title != "Copy of Windows" {
		t.Fatalf("expected prefixed title, got %q", result.Data.Title)
	}
	if result.Data.ID == created.Data.ID {
		t.Fatal("duplicate must be a fresh entity")
	}
	if result.Data.Status != domain.StatusDraft {
		t.Fatalf("duplicate must start as draft, got %q", result.Data.Status)
	}
	if result.Data.TotalAmount != 20000 || result.Data.Description == nil || *result.Data.Description != desc {
		t.Fatal("duplicate must copy amount and description")
	}
}

func TestExpireOverdueSweep(t *testing.T) {
	svc, repo, _ := newTestService()

	seed := func(status string, validUntil time.Time) uuid.UUID {
		quote, err := repo.Create(context.Background(), repository.CreateQuoteParams{
			QuoteNumber: "Q202608-00000" + status[:1],
			Title:       "Sweep " + status,
			TotalAmount: 1000,
			ValidUntil:  validUntil,
			Status:      status,
			CreatedBy:   "tester",
		})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		return quote.ID
	}

	past := time.Now().AddDate(0, 0, -2)
	future := time.Now().AddDate(0, 0, 10)
	overdueSent := seed(domain.StatusSent, past)
	overdueDraft := seed(domain.StatusDraft, past)
	freshSent := seed(domain.StatusSent, future)

	count, err := svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired quote, got %d", count)
	}
	if repo.byID[overdueSent].Status != domain.StatusExpired {
		t.Fatal("overdue sent quote must expire")
	}
	if repo.byID[overdueDraft].Status != domain.StatusDraft {
		t.Fatal("drafts are not swept")
	}
	if repo.byID[freshSent].Status != domain.StatusSent {
		t.Fatal("quotes still in their validity window are not swept")
	}
}

func TestConversionProbabilityBounds(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name      string
		status    string
		total     float64
		ageDays   int
		want      int
	}{
		{"approved overrides penalties", domain.StatusApproved, 900000, 60, 100},
		{"rejected is zero", domain.StatusRejected, 1000, 0, 0},
		{"expired is zero", domain.StatusExpired, 1000, 0, 0},
		{"fresh draft", domain.StatusDraft, 1000, 0, 50},
		{"viewed", domain.StatusViewed, 1000, 0, 60},
		{"negotiation", domain.StatusUnderNegotiation, 1000, 0, 75},
		{"old big quote", domain.StatusSent, 600000, 45, 15},
		{"two week penalty", domain.StatusSent, 150000, 20, 35},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			createdAt := now.AddDate(0, 0, -tc.ageDays)
			got := ConversionProbability(tc.status, tc.total, createdAt, now)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
			if got < 0 || got > 100 {
				t.Fatalf("probability out of bounds: %d", got)
			}
		})
	}
}

func TestRevenueImpactTiers(t *testing.T) {
	cases := []struct {
		total float64
		want  string
	}{
		{150000, RevenueImpactHigh},
		{75000, RevenueImpactMedium},
		{50000, RevenueImpactLow},
		{1000, RevenueImpactLow},
	}
	for _, tc := range cases {
		if got := RevenueImpact(tc.total); got != tc.want {
			t.Fatalf("RevenueImpact(%v) = %q, want %q", tc.total, got, tc.want)
		}
	}
}
