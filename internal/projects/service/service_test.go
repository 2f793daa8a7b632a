package service

import (
	"context"
	"testing"
	"time"

	"caseflow_backend/internal/events"
	"caseflow_backend/internal/projects/domain"
	"caseflow_backend/internal/projects/repository"
	"caseflow_backend/internal/projects/transport"
	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	byID       map[uuid.UUID]repository.Project
	milestones map[uuid.UUID][]repository.Milestone
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:       make(map[uuid.UUID]repository.Project),
		milestones: make(map[uuid.UUID][]repository.Milestone),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateProjectParams) (repository.Project, error) {
	now := time.Now()
	project := repository.Project{
		ID:             uuid.New(),
		Title:          params.Title,
		Description:    params.Description,
		Status:         params.Status,
		Budget:         params.Budget,
		ActualCost:     params.ActualCost,
		StartDate:      params.StartDate,
		CompletionDate: params.CompletionDate,
		RequestID:      params.RequestID,
		QuoteID:        params.QuoteID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.byID[project.ID] = project

	milestones := make([]repository.Milestone, len(params.Milestones))
	for i, m := range params.Milestones {
		milestones[i] = repository.Milestone{
			ID:           uuid.New(),
			ProjectID:    project.ID,
			Title:        m.Title,
			Description:  m.Description,
			DueDate:      m.DueDate,
			Dependencies: m.Dependencies,
			Position:     i,
		}
	}
	f.milestones[project.ID] = milestones
	return project, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (repository.Project, error) {
	project, ok := f.byID[id]
	if !ok {
		return repository.Project{}, apperr.NotFound("project not found")
	}
	return project, nil
}

func (f *fakeRepo) FindAll(_ context.Context, query repository.ProjectQuery) ([]repository.Project, error) {
	out := make([]repository.Project, 0, len(f.byID))
	for _, project := range f.byID {
		if query.Status != "" && project.Status != query.Status {
			continue
		}
		out = append(out, project)
	}
	return out, nil
}

func (f *fakeRepo) ListMilestones(_ context.Context, projectID uuid.UUID) ([]repository.Milestone, error) {
	return f.milestones[projectID], nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateProjectParams) (repository.Project, error) {
	project, ok := f.byID[id]
	if !ok {
		return repository.Project{}, apperr.NotFound("project not found")
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != project.Version {
		return repository.Project{}, apperr.Conflict("project was modified concurrently, reload and retry")
	}
	if params.Title != nil {
		project.Title = *params.Title
	}
	if params.Budget != nil {
		project.Budget = *params.Budget
	}
	if params.ActualCost != nil {
		project.ActualCost = *params.ActualCost
	}
	if params.StartDate != nil {
		project.StartDate = params.StartDate
	}
	if params.CompletionDate != nil {
		project.CompletionDate = params.CompletionDate
	}
	project.Version++
	project.UpdatedAt = time.Now()
	f.byID[id] = project
	return project, nil
}

func (f *fakeRepo) ApplyStatus(_ context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Project, error) {
	project, ok := f.byID[id]
	if !ok {
		return repository.Project{}, apperr.NotFound("project not found")
	}
	if params.ExpectedVersion != project.Version {
		return repository.Project{}, apperr.Conflict("project was modified concurrently, reload and retry")
	}
	project.Status = params.Status
	if params.StartDate != nil {
		project.StartDate = params.StartDate
	}
	if params.CompletionDate != nil {
		project.CompletionDate = params.CompletionDate
	}
	if params.Archived != nil {
		project.Archived = *params.Archived
	}
	project.Version++
	project.UpdatedAt = time.Now()
	f.byID[id] = project
	return project, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("project not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeRequestReader struct{}

func (fakeRequestReader) Summary(_ context.Context, id uuid.UUID) (transport.RequestSummary, error) {
	return transport.RequestSummary{ID: id, Status: "Quoted", Message: "fixture"}, nil
}

type fakeQuoteReader struct{}

func (fakeQuoteReader) Summary(_ context.Context, id uuid.UUID) (transport.QuoteSummary, error) {
	return transport.QuoteSummary{ID: id, QuoteNumber: "Q202608-000001", TotalAmount: 48000}, nil
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
	svc := New(repo, fakeRequestReader{}, fakeQuoteReader{}, bus, logger.New("test"))
	return svc, repo, bus
}

func TestCreateComposesBudgetFromComponents(t *testing.T) {
	svc, _, _ := newTestService()

	contingency := 10.0
	result := svc.Create(context.Background(), transport.CreateProjectRequest{
		Title: "Roof replacement",
		BudgetComponents: &transport.BudgetComponents{
			Labor:          20000,
			Material:       15000,
			Equipment:      5000,
			ContingencyPct: &contingency,
		},
	})
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}
	if result.Data.Budget != 44000 {
		t.Fatalf("budget = %v, want 44000", result.Data.Budget)
	}
	if result.Data.Status != domain.StatusPlanning {
		t.Fatalf("status = %q, want %q", result.Data.Status, domain.StatusPlanning)
	}
	if result.Data.ProgressPct != 0 {
		t.Fatalf("planning progress = %d, want 0", result.Data.ProgressPct)
	}
}

func TestCreateRejectsCompletionBeforeStart(t *testing.T) {
	svc, repo, _ := newTestService()

	start := time.Now().Add(48 * time.Hour)
	completion := start.Add(-24 * time.Hour)
	result := svc.Create(context.Background(), transport.CreateProjectRequest{
		Title:          "Backwards schedule",
		StartDate:      &start,
		CompletionDate: &completion,
	})
	if result.Success {
		t.Fatal("expected validation failure")
	}
	if result.Kind != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", result.Kind)
	}
	if len(repo.byID) != 0 {
		t.Fatal("invalid project must not be persisted")
	}
}

func TestApplyStartExecutionStampsStartDate(t *testing.T) {
	svc, repo, bus := newTestService()
	id := seedProject(repo, domain.StatusApproved, nil, nil)

	result := svc.Apply(context.Background(), id, "startExecution", ApplyParams{Actor: "ops"})
	if !result.Success {
		t.Fatalf("startExecution failed: %s", result.Error)
	}
	if result.Data.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want %q", result.Data.Status, domain.StatusInProgress)
	}
	if result.Data.StartDate == nil {
		t.Fatal("start date was not stamped")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
}

func TestApplyCompleteStampsCompletionDate(t *testing.T) {
	svc, repo, _ := newTestService()
	start := time.Now().Add(-10 * 24 * time.Hour)
	id := seedProject(repo, domain.StatusInProgress, &start, nil)

	result := svc.Apply(context.Background(), id, "complete", ApplyParams{})
	if !result.Success {
		t.Fatalf("complete failed: %s", result.Error)
	}
	if result.Data.CompletionDate == nil {
		t.Fatal("completion date was not stamped")
	}
	if result.Data.ProgressPct != 100 {
		t.Fatalf("completed progress = %d, want 100", result.Data.ProgressPct)
	}
}

func TestApplyBlockedWhenClosed(t *testing.T) {
	svc, repo, _ := newTestService()
	id := seedProject(repo, domain.StatusApproved, nil, nil)

	if result := svc.Apply(context.Background(), id, "cancel", ApplyParams{}); !result.Success {
		t.Fatalf("cancel failed: %s", result.Error)
	}

	result := svc.Apply(context.Background(), id, "startExecution", ApplyParams{})
	if result.Success {
		t.Fatal("expected execution action to be blocked on a cancelled project")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", result.Kind)
	}
	if repo.byID[id].Status != domain.StatusCancelled {
		t.Fatalf("status = %q, blocked action must not change it", repo.byID[id].Status)
	}
}

func TestApplyArchiveAllowedWhenClosed(t *testing.T) {
	svc, repo, _ := newTestService()
	id := seedProject(repo, domain.StatusInProgress, nil, nil)

	if result := svc.Apply(context.Background(), id, "complete", ApplyParams{}); !result.Success {
		t.Fatalf("complete failed: %s", result.Error)
	}

	result := svc.Apply(context.Background(), id, "archive", ApplyParams{})
	if !result.Success {
		t.Fatalf("archive failed: %s", result.Error)
	}
	if result.Data.Status != domain.StatusArchived {
		t.Fatalf("status = %q, want %q", result.Data.Status, domain.StatusArchived)
	}
	if !result.Data.Archived {
		t.Fatal("archived flag was not set")
	}
}

func TestApplyUnknownActionLeavesStatusUnchanged(t *testing.T) {
	svc, repo, _ := newTestService()
	id := seedProject(repo, domain.StatusPlanning, nil, nil)

	result := svc.Apply(context.Background(), id, "teleport", ApplyParams{})
	if result.Success {
		t.Fatal("expected unknown action to fail")
	}
	if result.Kind != apperr.KindBadRequest {
		t.Fatalf("kind = %v, want bad request", result.Kind)
	}
	if repo.byID[id].Status != domain.StatusPlanning {
		t.Fatalf("status = %q, unknown action must not change it", repo.byID[id].Status)
	}
}

func TestApplyStaleVersionConflicts(t *testing.T) {
	svc, repo, _ := newTestService()
	id := seedProject(repo, domain.StatusPlanning, nil, nil)

	stale := 99
	result := svc.Apply(context.Background(), id, "approve", ApplyParams{Version: &stale})
	if result.Success {
		t.Fatal("expected stale version to conflict")
	}
	if result.Kind != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", result.Kind)
	}
}

func TestProgressInterpolatesBetweenDates(t *testing.T) {
	now := time.Now()
	start := now.Add(-5 * 24 * time.Hour)
	completion := now.Add(5 * 24 * time.Hour)

	got := ProgressPct(domain.StatusInProgress, &start, &completion, now)
	if got != 50 {
		t.Fatalf("midpoint progress = %d, want 50", got)
	}

	past := now.Add(-20 * 24 * time.Hour)
	overdue := now.Add(-10 * 24 * time.Hour)
	if got := ProgressPct(domain.StatusInProgress, &past, &overdue, now); got != 100 {
		t.Fatalf("past-deadline progress = %d, want clamp to 100", got)
	}
}

func TestProgressFallbacksByStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		status string
		want   int
	}{
		{domain.StatusPlanning, 0},
		{domain.StatusApproved, 10},
		{domain.StatusInProgress, 50},
		{domain.StatusUnderReview, 85},
		{domain.StatusCompleted, 100},
		{domain.StatusOnHold, 0},
	}
	for _, tc := range cases {
		if got := ProgressPct(tc.status, nil, nil, now); got != tc.want {
			t.Fatalf("progress(%s) = %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestProfitabilityThresholds(t *testing.T) {
	cases := []struct {
		variancePct float64
		want        string
	}{
		{20, ProfitabilityLoss},
		{5.1, ProfitabilityLoss},
		{5, ProfitabilityBreakEven},
		{0, ProfitabilityBreakEven},
		{-5, ProfitabilityBreakEven},
		{-5.1, ProfitabilityProfitable},
		{-30, ProfitabilityProfitable},
	}
	for _, tc := range cases {
		if got := Profitability(tc.variancePct); got != tc.want {
			t.Fatalf("profitability(%v) = %q, want %q", tc.variancePct, got, tc.want)
		}
	}
}

func TestRiskLevels(t *testing.T) {
	if got := RiskLevel(true, false, 0); got != RiskHigh {
		t.Fatalf("overdue risk = %q, want high", got)
	}
	if got := RiskLevel(false, false, 30); got != RiskHigh {
		t.Fatalf("large overrun risk = %q, want high", got)
	}
	if got := RiskLevel(false, true, 0); got != RiskMedium {
		t.Fatalf("at-risk = %q, want medium", got)
	}
	if got := RiskLevel(false, false, -20); got != RiskMedium {
		t.Fatalf("moderate underrun risk = %q, want medium", got)
	}
	if got := RiskLevel(false, false, 2); got != RiskLow {
		t.Fatalf("healthy risk = %q, want low", got)
	}
}

func TestMetricsAggregatesDimensions(t *testing.T) {
	svc, repo, _ := newTestService()
	start := time.Now().Add(-30 * 24 * time.Hour)
	completion := time.Now().Add(30 * 24 * time.Hour)
	id := seedProject(repo, domain.StatusInProgress, &start, &completion)

	project := repo.byID[id]
	project.Budget = 100000
	project.ActualCost = 80000
	repo.byID[id] = project

	result := svc.Metrics(context.Background(), id)
	if !result.Success {
		t.Fatalf("metrics failed: %s", result.Error)
	}

	metrics := *result.Data
	if metrics.Budget.Remaining != 20000 {
		t.Fatalf("remaining = %v, want 20000", metrics.Budget.Remaining)
	}
	if metrics.Budget.UtilizationPct != 80 {
		t.Fatalf("utilization = %v, want 80", metrics.Budget.UtilizationPct)
	}
	if metrics.Budget.VariancePct != -20 {
		t.Fatalf("variance pct = %v, want -20", metrics.Budget.VariancePct)
	}
	if !metrics.Schedule.OnSchedule {
		t.Fatal("project with future completion should be on schedule")
	}
	if metrics.Schedule.DaysRemaining == nil || *metrics.Schedule.DaysRemaining < 28 {
		t.Fatalf("days remaining = %v, want about 30", metrics.Schedule.DaysRemaining)
	}
	if metrics.Risk.Budget != RiskMedium {
		t.Fatalf("budget risk = %q, want medium for a 20%% underrun", metrics.Risk.Budget)
	}
	if metrics.Risk.Quality != RiskLow || metrics.Risk.Resource != RiskLow {
		t.Fatal("quality and resource dimensions default to low")
	}
}

func TestOverdueProjectIsHighRisk(t *testing.T) {
	svc, repo, _ := newTestService()
	start := time.Now().Add(-60 * 24 * time.Hour)
	completion := time.Now().Add(-5 * 24 * time.Hour)
	id := seedProject(repo, domain.StatusInProgress, &start, &completion)

	result := svc.Get(context.Background(), id)
	if !result.Success {
		t.Fatalf("get failed: %s", result.Error)
	}
	if !result.Data.IsOverdue {
		t.Fatal("project past its completion date must be overdue")
	}
	if result.Data.RiskLevel != RiskHigh {
		t.Fatalf("risk = %q, want high", result.Data.RiskLevel)
	}
}

func seedProject(repo *fakeRepo, status string, start, completion *time.Time) uuid.UUID {
	now := time.Now()
	id := uuid.New()
	repo.byID[id] = repository.Project{
		ID:             id,
		Title:          "Seeded project",
		Status:         status,
		StartDate:      start,
		CompletionDate: completion,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return id
}
