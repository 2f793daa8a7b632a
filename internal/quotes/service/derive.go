package service

import (
	"context"
	"time"

	"caseflow_backend/internal/quotes/domain"
	"caseflow_backend/internal/quotes/repository"
	"caseflow_backend/internal/quotes/transport"
)

// Revenue impact tiers.
const (
	RevenueImpactHigh   = "high"
	RevenueImpactMedium = "medium"
	RevenueImpactLow    = "low"
)

func toResponse(quote repository.Quote) transport.QuoteResponse {
	return transport.QuoteResponse{
		ID:                 quote.ID,
		QuoteNumber:        quote.QuoteNumber,
		Title:              quote.Title,
		Description:        quote.Description,
		Terms:              quote.Terms,
		Notes:              quote.Notes,
		TotalAmount:        quote.TotalAmount,
		ValidUntil:         quote.ValidUntil,
		Status:             quote.Status,
		RequestID:          quote.RequestID,
		AgentContactID:     quote.AgentContactID,
		HomeownerContactID: quote.HomeownerContactID,
		PropertyID:         quote.PropertyID,
		SentAt:             quote.SentAt,
		ViewedAt:           quote.ViewedAt,
		DecidedAt:          quote.DecidedAt,
		RejectionReason:    quote.RejectionReason,
		CreatedBy:          quote.CreatedBy,
		Version:            quote.Version,
		CreatedAt:          quote.CreatedAt,
		UpdatedAt:          quote.UpdatedAt,
	}
}

// present computes the derived read-model fields and attaches line items and
// the originating-request summary. Enrichment failures are logged and the
// field left empty.
func (s *Service) present(ctx context.Context, resp transport.QuoteResponse) (transport.QuoteResponse, error) {
	now := time.Now()

	resp.AgeDays = daysBetween(resp.CreatedAt, now)
	resp.DaysUntilExpiry = daysBetween(now, resp.ValidUntil)
	if resp.ValidUntil.Before(now) {
		resp.DaysUntilExpiry = -daysBetween(resp.ValidUntil, now)
	}
	resp.IsExpired = resp.DaysUntilExpiry < 0
	resp.IsExpiringSoon = resp.DaysUntilExpiry > 0 && resp.DaysUntilExpiry <= 7
	resp.ConversionProbability = ConversionProbability(resp.Status, resp.TotalAmount, resp.CreatedAt, now)
	resp.RevenueImpact = RevenueImpact(resp.TotalAmount)

	items, err := s.repo.ListItems(ctx, resp.ID)
	if err != nil {
		s.log.WorkflowError("quote", "enrichItems", resp.ID.String(), err)
	} else {
		resp.Items = make([]transport.LineItemResponse, len(items))
		for i, item := range items {
			resp.Items[i] = transport.LineItemResponse{
				ID:          item.ID,
				Description: item.Description,
				Category:    item.Category,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Subtotal:    item.Quantity * item.UnitPrice,
			}
		}
	}

	if resp.RequestID != nil {
		summary, err := s.requests.Summary(ctx, *resp.RequestID)
		if err != nil {
			s.log.WorkflowError("quote", "enrichRequest", resp.RequestID.String(), err)
		} else {
			resp.Request = &summary
		}
	}

	return resp, nil
}

// ConversionProbability estimates the chance a quote converts. The base is 50
// with status bonuses; terminal statuses override everything; age and amount
// penalties apply afterwards. The result is clamped to [0, 100].
func ConversionProbability(status string, total float64, createdAt, now time.Time) int {
	switch status {
	case domain.StatusApproved:
		return 100
	case domain.StatusRejected, domain.StatusExpired:
		return 0
	}

	probability := 50
	switch status {
	case domain.StatusViewed:
		probability += 10
	case domain.StatusUnderNegotiation:
		probability += 25
	}

	age := daysBetween(createdAt, now)
	switch {
	case age > 30:
		probability -= 20
	case age > 14:
		probability -= 10
	}

	switch {
	case total > 500000:
		probability -= 15
	case total > 100000:
		probability -= 5
	}

	if probability < 0 {
		probability = 0
	}
	if probability > 100 {
		probability = 100
	}
	return probability
}

// RevenueImpact classifies a quote by its total amount.
func RevenueImpact(total float64) string {
	switch {
	case total > 100000:
		return RevenueImpactHigh
	case total > 50000:
		return RevenueImpactMedium
	default:
		return RevenueImpactLow
	}
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
