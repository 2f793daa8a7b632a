package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"caseflow_backend/internal/directory"
	"caseflow_backend/internal/requests/domain"
	"caseflow_backend/internal/requests/repository"
	"caseflow_backend/internal/requests/transport"

	"golang.org/x/sync/errgroup"
)

const pastDueAfterDays = 7

// toResponse maps a persisted row onto the wire shape. Derived fields and
// related summaries are filled by the presentation hook.
func toResponse(req repository.Request) transport.RequestResponse {
	return transport.RequestResponse{
		ID:                 req.ID,
		Message:            req.Message,
		RelationToProperty: req.RelationToProperty,
		Budget:             req.Budget,
		LeadSource:         req.LeadSource,
		Product:            req.Product,
		Status:             req.Status,
		AssignedTo:         req.AssignedTo,
		AssignedAt:         req.AssignedAt,
		AgentContactID:     req.AgentContactID,
		HomeownerContactID: req.HomeownerContactID,
		PropertyID:         req.PropertyID,
		MovedToQuotingAt:   req.MovedToQuotingAt,
		ArchivedAt:         req.ArchivedAt,
		Version:            req.Version,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
}

// present computes the derived read-model fields and attaches related
// contact/property summaries. Enrichment failures are logged and the summary
// left empty; a read never fails because a linked record could not load.
func (s *Service) present(ctx context.Context, resp transport.RequestResponse) (transport.RequestResponse, error) {
	now := time.Now()

	resp.AgeDays = ageDays(resp.CreatedAt, now)
	resp.IsPastDue = isPastDue(resp.Status, resp.CreatedAt, resp.UpdatedAt, now)
	resp.NextAction = domain.NextActionHint(resp.Status)
	resp.PriorityScore = PriorityScore(resp.Budget, resp.LeadSource, resp.CreatedAt, now)

	g, gctx := errgroup.WithContext(ctx)
	if resp.AgentContactID != nil {
		id := *resp.AgentContactID
		g.Go(func() error {
			contact, err := s.dir.GetContact(gctx, id)
			if err != nil {
				s.log.WorkflowError("request", "enrichAgent", id.String(), err)
				return nil
			}
			resp.Agent = contactSummary(contact)
			return nil
		})
	}
	if resp.HomeownerContactID != nil {
		id := *resp.HomeownerContactID
		g.Go(func() error {
			contact, err := s.dir.GetContact(gctx, id)
			if err != nil {
				s.log.WorkflowError("request", "enrichHomeowner", id.String(), err)
				return nil
			}
			resp.Homeowner = contactSummary(contact)
			return nil
		})
	}
	if resp.PropertyID != nil {
		id := *resp.PropertyID
		g.Go(func() error {
			property, err := s.dir.GetProperty(gctx, id)
			if err != nil {
				s.log.WorkflowError("request", "enrichProperty", id.String(), err)
				return nil
			}
			resp.Property = propertySummary(property)
			return nil
		})
	}
	_ = g.Wait()

	return resp, nil
}

// PriorityScore ranks a request for triage. Age contributes up to 20 points
// (2 per day), budget adds a tier bonus, and the lead source adds a channel
// bonus. The score is clamped to [0, 100].
func PriorityScore(budget, leadSource *string, createdAt, now time.Time) int {
	score := ageDays(createdAt, now) * 2
	if score > 20 {
		score = 20
	}

	if budget != nil {
		if amount, ok := ParseBudget(*budget); ok {
			switch {
			case amount > 100000:
				score += 15
			case amount > 50000:
				score += 10
			case amount > 25000:
				score += 5
			}
		}
	}

	if leadSource != nil {
		switch strings.ToLower(strings.TrimSpace(*leadSource)) {
		case "referral":
			score += 10
		case "website":
			score += 5
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ParseBudget normalizes a free-form budget string ("$150,000", "150000") to
// a numeric amount in currency units.
func ParseBudget(raw string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func ageDays(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}

// isPastDue flags open requests older than a week with no activity since
// creation.
func isPastDue(status string, createdAt, updatedAt, now time.Time) bool {
	if domain.IsTerminal(status) {
		return false
	}
	return ageDays(createdAt, now) > pastDueAfterDays && !updatedAt.After(createdAt)
}

func contactSummary(c directory.Contact) *transport.ContactSummary {
	return &transport.ContactSummary{
		Name:      strings.TrimSpace(c.FirstName + " " + c.LastName),
		Email:     c.Email,
		Phone:     c.Phone,
		Brokerage: c.Brokerage,
	}
}

func propertySummary(p directory.Property) *transport.PropertySummary {
	addressParts := make([]string, 0, 4)
	for _, part := range []string{p.Street, p.City, p.State, p.PostalCode} {
		if strings.TrimSpace(part) != "" {
			addressParts = append(addressParts, strings.TrimSpace(part))
		}
	}
	return &transport.PropertySummary{
		Address:      strings.Join(addressParts, ", "),
		PropertyType: p.PropertyType,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
	}
}
