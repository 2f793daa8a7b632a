package service

import (
	"context"
	"testing"
	"time"

	"caseflow_backend/internal/directory"
	dirrepo "caseflow_backend/internal/directory/repository"
	"caseflow_backend/internal/events"
	"caseflow_backend/internal/requests/domain"
	"caseflow_backend/internal/requests/repository"
	"caseflow_backend/internal/requests/transport"
	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID map[uuid.UUID]repository.Request
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[uuid.UUID]repository.Request)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateRequestParams) (repository.Request, error) {
	now := time.Now()
	req := repository.Request{
		ID:                 uuid.New(),
		Message:            params.Message,
		RelationToProperty: params.RelationToProperty,
		Budget:             params.Budget,
		LeadSource:         params.LeadSource,
		Product:            params.Product,
		Status:             params.Status,
		AgentContactID:     params.AgentContactID,
		HomeownerContactID: params.HomeownerContactID,
		PropertyID:         params.PropertyID,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.byID[req.ID] = req
	return req, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Request, error) {
	req, ok := f.byID[id]
	if !ok {
		return repository.Request{}, apperr.NotFound("request not found")
	}
	return req, nil
}

func (f *fakeRepo) FindAll(_ context.Context, query repository.RequestQuery) ([]repository.Request, error) {
	out := make([]repository.Request, 0, len(f.byID))
	for _, req := range f.byID {
		if query.Status != "" && req.Status != query.Status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateRequestParams) (repository.Request, error) {
	req, ok := f.byID[id]
	if !ok {
		return repository.Request{}, apperr.NotFound("request not found")
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != req.Version {
		return repository.Request{}, apperr.Conflict("request was modified concurrently, reload and retry")
	}
	if params.Message != nil {
		req.Message = *params.Message
	}
	if params.Budget != nil {
		req.Budget = params.Budget
	}
	if params.AssignedTo != nil {
		req.AssignedTo = params.AssignedTo
	}
	req.Version++
	req.UpdatedAt = time.Now()
	f.byID[id] = req
	return req, nil
}

func (f *fakeRepo) ApplyStatus(_ context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Request, error) {
	req, ok := f.byID[id]
	if !ok {
		return repository.Request{}, apperr.NotFound("request not found")
	}
	if params.ExpectedVersion != req.Version {
		return repository.Request{}, apperr.Conflict("request was modified concurrently, reload and retry")
	}
	req.Status = params.Status
	if params.AssignedTo != nil {
		req.AssignedTo = params.AssignedTo
	}
	if params.AssignedAt != nil {
		req.AssignedAt = params.AssignedAt
	}
	if params.MovedToQuotingAt != nil {
		req.MovedToQuotingAt = params.MovedToQuotingAt
	}
	if params.ArchivedAt != nil {
		req.ArchivedAt = params.ArchivedAt
	}
	req.Version++
	req.UpdatedAt = time.Now()
	f.byID[id] = req
	return req, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("request not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeDirectory struct {
	contacts        map[string]directory.Contact
	properties      map[string]directory.Property
	contactCreates  int
	propertyCreates int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		contacts:   make(map[string]directory.Contact),
		properties: make(map[string]directory.Property),
	}
}

func (f *fakeDirectory) FindOrCreateContact(_ context.Context, role string, payload directory.ContactPayload) (directory.Contact, error) {
	key := role + "|" + payload.Email
	if existing, ok := f.contacts[key]; ok {
		return existing, nil
	}
	f.contactCreates++
	contact := directory.Contact{
		ID:        uuid.New(),
		Role:      role,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}
	f.contacts[key] = contact
	return contact, nil
}

func (f *fakeDirectory) FindOrCreateProperty(_ context.Context, payload directory.PropertyPayload) (directory.Property, error) {
	key := directory.AddressKey(payload)
	if existing, ok := f.properties[key]; ok {
		return existing, nil
	}
	f.propertyCreates++
	property := directory.Property{
		ID:         uuid.New(),
		AddressKey: key,
		Street:     payload.Street,
		City:       payload.City,
	}
	f.properties[key] = property
	return property, nil
}

func (f *fakeDirectory) GetContact(_ context.Context, id uuid.UUID) (directory.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return directory.Contact{}, dirrepo.ErrNotFound
}

func (f *fakeDirectory) GetProperty(_ context.Context, id uuid.UUID) (directory.Property, error) {
	for _, p := range f.properties {
		if p.ID == id {
			return p, nil
		}
	}
	return directory.Property{}, dirrepo.ErrNotFound
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

func (f *fakeBus) eventNames() []string {
	names := make([]string, len(f.published))
	for i, e := range f.published {
		names[i] = e.EventName()
	}
	return names
}

func newTestService() (*Service, *fakeRepo, *fakeDirectory, *fakeBus) {
	repo := newFakeRepo()
	dir := newFakeDirectory()
	bus := &fakeBus{}
	return New(repo, dir, bus, logger.New("test")), repo, dir, bus
}

func TestCreateComputesPriorityScore(t *testing.T) {
	svc, _, _, _ := newTestService()

	result := svc.Create(context.Background(), transport.CreateRequestRequest{
		Message:    "Kitchen remodel",
		Budget:     "150000",
		LeadSource: "referral",
	})
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}

	// Fresh request: 0 age points, 15 for budget over 100k, 10 for referral.
	if result.Data.PriorityScore != 25 {
		t.Fatalf("expected priority score 25, got %d", result.Data.PriorityScore)
	}
	if result.Data.Status != domain.StatusNew {
		t.Fatalf("expected status %q, got %q", domain.StatusNew, result.Data.Status)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a no-contact warning")
	}
}

func TestCreateResolvesContactsAndProperty(t *testing.T) {
	svc, _, dir, bus := newTestService()

	req := transport.CreateRequestRequest{
		Message: "Bathroom addition",
		Agent: &transport.ContactPayload{
			FirstName: "Dana", LastName: "Reed", Email: "dana@example.com",
		},
		Property: &transport.PropertyPayload{
			Street: "12 Oak Ln", City: "Springfield",
		},
	}

	result := svc.Create(context.Background(), req)
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}
	if result.Data.AgentContactID == nil {
		t.Fatal("expected agent contact to be linked")
	}
	if result.Data.PropertyID == nil {
		t.Fatal("expected property to be linked")
	}
	if result.Data.Agent == nil || result.Data.Agent.Name != "Dana Reed" {
		t.Fatalf("expected enriched agent summary, got %+v", result.Data.Agent)
	}

	// A second submission for the same person and address reuses the records.
	second := svc.Create(context.Background(), req)
	if !second.Success {
		t.Fatalf("second create failed: %s", second.Error)
	}
	if dir.contactCreates != 1 || dir.propertyCreates != 1 {
		t.Fatalf("expected directory records to be reused, got %d contact and %d property creates",
			dir.contactCreates, dir.propertyCreates)
	}
	if *second.Data.AgentContactID != *result.Data.AgentContactID {
		t.Fatal("expected both requests to link the same contact")
	}

	found := false
	for _, name := range bus.eventNames() {
		if name == "requests.created" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected requests.created event")
	}
}

func TestCreateRejectsNonNumericBudget(t *testing.T) {
	svc, repo, _, _ := newTestService()

	result := svc.Create(context.Background(), transport.CreateRequestRequest{
		Message: "Deck repair",
		Budget:  "call me",
	})
	if result.Success {
		t.Fatal("expected validation failure")
	}
	if result.Kind != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", result.Kind)
	}
	if len(repo.byID) != 0 {
		t.Fatal("invalid input must not be persisted")
	}
}

func TestApplyUnknownActionLeavesStatusUnchanged(t *testing.T) {
	svc, repo, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Fence"})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Error)
	}

	result := svc.Apply(context.Background(), created.Data.ID, "teleport", ApplyParams{})
	if result.Success {
		t.Fatal("expected unknown action to fail")
	}
	if result.Kind != apperr.KindBadRequest {
		t.Fatalf("expected bad request kind, got %v", result.Kind)
	}

	stored := repo.byID[created.Data.ID]
	if stored.Status != domain.StatusNew {
		t.Fatalf("status must be unchanged, got %q", stored.Status)
	}
}

func TestApplyAssignStampsAssignment(t *testing.T) {
	svc, _, _, bus := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Roof"})
	assignee := "estimator-3"

	result := svc.Apply(context.Background(), created.Data.ID, "assign", ApplyParams{
		AssigneeID: &assignee,
		Actor:      "dispatcher",
	})
	if !result.Success {
		t.Fatalf("assign failed: %s", result.Error)
	}
	if result.Data.Status != domain.StatusAssigned {
		t.Fatalf("expected %q, got %q", domain.StatusAssigned, result.Data.Status)
	}
	if result.Data.AssignedTo == nil || *result.Data.AssignedTo != assignee {
		t.Fatal("expected assignee to be recorded")
	}
	if result.Data.AssignedAt == nil {
		t.Fatal("expected assignment timestamp")
	}

	names := bus.eventNames()
	sawStatus, sawAssigned := false, false
	for _, name := range names {
		switch name {
		case "requests.status_changed":
			sawStatus = true
		case "requests.assigned":
			sawAssigned = true
		}
	}
	if !sawStatus || !sawAssigned {
		t.Fatalf("expected status-changed and assigned events, got %v", names)
	}
}

func TestApplyAssignRequiresAssignee(t *testing.T) {
	svc, _, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Siding"})

	result := svc.Apply(context.Background(), created.Data.ID, "assign", ApplyParams{})
	if result.Success {
		t.Fatal("expected assign without assignee to fail")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", result.Kind)
	}
}

func TestApplyCreateQuoteRequiresContact(t *testing.T) {
	svc, repo, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Windows"})

	result := svc.Apply(context.Background(), created.Data.ID, "createQuote", ApplyParams{})
	if result.Success {
		t.Fatal("expected createQuote without a contact to be blocked")
	}
	if stored := repo.byID[created.Data.ID]; stored.Status != domain.StatusNew {
		t.Fatalf("blocked action must not change status, got %q", stored.Status)
	}
}

func TestApplyBlockedInTerminalStatus(t *testing.T) {
	svc, repo, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Garage"})
	if r := svc.Apply(context.Background(), created.Data.ID, "cancel", ApplyParams{}); !r.Success {
		t.Fatalf("cancel failed: %s", r.Error)
	}

	result := svc.Apply(context.Background(), created.Data.ID, "startProgress", ApplyParams{})
	if result.Success {
		t.Fatal("expected terminal status to block further actions")
	}
	if stored := repo.byID[created.Data.ID]; stored.Status != domain.StatusCancelled {
		t.Fatalf("expected status to stay %q, got %q", domain.StatusCancelled, stored.Status)
	}
}

func TestApplyStaleVersionConflicts(t *testing.T) {
	svc, _, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Pool"})
	stale := created.Data.Version

	assignee := "estimator-1"
	if r := svc.Apply(context.Background(), created.Data.ID, "assign", ApplyParams{AssigneeID: &assignee}); !r.Success {
		t.Fatalf("assign failed: %s", r.Error)
	}

	result := svc.Apply(context.Background(), created.Data.ID, "startProgress", ApplyParams{Version: &stale})
	if result.Success {
		t.Fatal("expected stale version to conflict")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", result.Kind)
	}
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	svc, _, _, _ := newTestService()

	created := svc.Create(context.Background(), transport.CreateRequestRequest{Message: "Attic"})
	stale := created.Data.Version

	msg := "Attic conversion"
	if r := svc.Update(context.Background(), created.Data.ID, transport.UpdateRequestRequest{Message: &msg}); !r.Success {
		t.Fatalf("first update failed: %s", r.Error)
	}

	msg2 := "Attic insulation"
	result := svc.Update(context.Background(), created.Data.ID, transport.UpdateRequestRequest{Message: &msg2, Version: &stale})
	if result.Success {
		t.Fatal("expected stale version update to conflict")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", result.Kind)
	}
}

func TestPriorityScoreTiers(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name       string
		budget     string
		leadSource string
		ageDays    int
		want       int
	}{
		{"high budget referral", "150000", "referral", 0, 25},
		{"formatted budget", "$60,000", "website", 0, 15},
		{"low budget", "10000", "", 0, 0},
		{"mid budget aged", "30000", "", 3, 11},
		{"age capped", "", "", 30, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var budget, source *string
			if tc.budget != "" {
				budget = &tc.budget
			}
			if tc.leadSource != "" {
				source = &tc.leadSource
			}
			createdAt := now.AddDate(0, 0, -tc.ageDays)
			if got := PriorityScore(budget, source, createdAt, now); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestParseBudget(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"150000", 150000, true},
		{"$150,000", 150000, true},
		{" 42500.50 ", 42500.50, true},
		{"call me", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseBudget(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseBudget(%q) = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
