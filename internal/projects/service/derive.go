package service

import (
	"context"
	"math"
	"time"

	"caseflow_backend/internal/projects/domain"
	"caseflow_backend/internal/projects/repository"
	"caseflow_backend/internal/projects/transport"
)

// Profitability classifications.
const (
	ProfitabilityLoss       = "loss"
	ProfitabilityBreakEven  = "break-even"
	ProfitabilityProfitable = "profitable"
)

// Risk levels.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

func toResponse(project repository.Project) transport.ProjectResponse {
	return transport.ProjectResponse{
		ID:             project.ID,
		Title:          project.Title,
		Description:    project.Description,
		Status:         project.Status,
		Budget:         project.Budget,
		ActualCost:     project.ActualCost,
		StartDate:      project.StartDate,
		CompletionDate: project.CompletionDate,
		RequestID:      project.RequestID,
		QuoteID:        project.QuoteID,
		Archived:       project.Archived,
		Version:        project.Version,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}

// present computes the derived schedule and budget fields and attaches
// milestones and the originating request and quote. Enrichment failures are
// logged and the field left empty.
func (s *Service) present(ctx context.Context, resp transport.ProjectResponse) (transport.ProjectResponse, error) {
	now := time.Now()

	resp.AgeDays = daysBetween(resp.CreatedAt, now)
	resp.DaysToCompletion = daysToCompletion(resp.CompletionDate, now)
	resp.ProgressPct = ProgressPct(resp.Status, resp.StartDate, resp.CompletionDate, now)
	resp.IsOverdue = isOverdue(resp.Status, resp.DaysToCompletion)
	resp.BudgetVariance = resp.ActualCost - resp.Budget
	resp.BudgetVariancePct = variancePct(resp.BudgetVariance, resp.Budget)
	resp.Profitability = Profitability(resp.BudgetVariancePct)
	resp.IsAtRisk = isAtRisk(resp.DaysToCompletion, resp.ProgressPct, resp.BudgetVariancePct)
	resp.RiskLevel = RiskLevel(resp.IsOverdue, resp.IsAtRisk, resp.BudgetVariancePct)

	milestones, err := s.repo.ListMilestones(ctx, resp.ID)
	if err != nil {
		s.log.WorkflowError("project", "enrichMilestones", resp.ID.String(), err)
	} else {
		resp.Milestones = make([]transport.MilestoneResponse, len(milestones))
		for i, m := range milestones {
			resp.Milestones[i] = transport.MilestoneResponse{
				ID:           m.ID,
				Title:        m.Title,
				Description:  m.Description,
				DueDate:      m.DueDate,
				Dependencies: m.Dependencies,
			}
		}
	}

	if resp.RequestID != nil {
		summary, err := s.requests.Summary(ctx, *resp.RequestID)
		if err != nil {
			s.log.WorkflowError("project", "enrichRequest", resp.RequestID.String(), err)
		} else {
			resp.Request = &summary
		}
	}
	if resp.QuoteID != nil {
		summary, err := s.quotes.Summary(ctx, *resp.QuoteID)
		if err != nil {
			s.log.WorkflowError("project", "enrichQuote", resp.QuoteID.String(), err)
		} else {
			resp.Quote = &summary
		}
	}

	return resp, nil
}

// ProgressPct estimates completion. Planning is 0 and Completed is 100. With
// both dates set, progress is interpolated linearly between them; otherwise a
// per-status fallback applies. The result is clamped to [0, 100].
func ProgressPct(status string, start, completion *time.Time, now time.Time) int {
	switch status {
	case domain.StatusPlanning:
		return 0
	case domain.StatusCompleted:
		return 100
	}

	if start != nil && completion != nil && completion.After(*start) {
		elapsed := now.Sub(*start).Hours()
		span := completion.Sub(*start).Hours()
		pct := int(math.Round(elapsed / span * 100))
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return pct
	}

	switch status {
	case domain.StatusApproved:
		return 10
	case domain.StatusInProgress:
		return 50
	case domain.StatusUnderReview:
		return 85
	default:
		return 0
	}
}

// Profitability classifies the cost variance percentage. Overruns past 5% are
// a loss; anything down to a 5% underrun counts as break-even.
func Profitability(variancePct float64) string {
	switch {
	case variancePct > 5:
		return ProfitabilityLoss
	case variancePct > -5:
		return ProfitabilityBreakEven
	default:
		return ProfitabilityProfitable
	}
}

// RiskLevel rates a project from its schedule and budget signals.
func RiskLevel(overdue, atRisk bool, variancePct float64) string {
	abs := math.Abs(variancePct)
	switch {
	case overdue || abs > 25:
		return RiskHigh
	case atRisk || abs > 15:
		return RiskMedium
	default:
		return RiskLow
	}
}

func buildMetrics(resp transport.ProjectResponse) transport.MetricsResponse {
	utilization := 0.0
	if resp.Budget != 0 {
		utilization = resp.ActualCost / resp.Budget * 100
	}

	budgetRisk := RiskLow
	switch abs := math.Abs(resp.BudgetVariancePct); {
	case abs > 25:
		budgetRisk = RiskHigh
	case abs > 15:
		budgetRisk = RiskMedium
	}

	scheduleRisk := RiskLow
	switch {
	case resp.IsOverdue:
		scheduleRisk = RiskHigh
	case resp.DaysToCompletion != nil && *resp.DaysToCompletion < 14 && resp.ProgressPct < 80:
		scheduleRisk = RiskMedium
	}

	return transport.MetricsResponse{
		ProjectID: resp.ID,
		Budget: transport.BudgetUtilization{
			Budgeted:       resp.Budget,
			Actual:         resp.ActualCost,
			Variance:       resp.BudgetVariance,
			VariancePct:    resp.BudgetVariancePct,
			Remaining:      resp.Budget - resp.ActualCost,
			UtilizationPct: utilization,
		},
		Schedule: transport.SchedulePerformance{
			StartDate:      resp.StartDate,
			CompletionDate: resp.CompletionDate,
			DaysRemaining:  resp.DaysToCompletion,
			OnSchedule:     !resp.IsOverdue,
			ProgressPct:    resp.ProgressPct,
		},
		Risk: transport.RiskAssessment{
			Overall:  resp.RiskLevel,
			Budget:   budgetRisk,
			Schedule: scheduleRisk,
			Quality:  RiskLow,
			Resource: RiskLow,
		},
	}
}

func daysToCompletion(completion *time.Time, now time.Time) *int {
	if completion == nil {
		return nil
	}
	days := int(completion.Sub(now).Hours() / 24)
	return &days
}

func isOverdue(status string, daysToCompletion *int) bool {
	if status == domain.StatusCompleted || daysToCompletion == nil {
		return false
	}
	return *daysToCompletion < 0
}

func isAtRisk(daysToCompletion *int, progressPct int, variancePct float64) bool {
	if daysToCompletion != nil && *daysToCompletion < 14 && progressPct < 80 {
		return true
	}
	return variancePct > 15
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func variancePct(variance, budget float64) float64 {
	if budget == 0 {
		return 0
	}
	return variance / budget * 100
}
