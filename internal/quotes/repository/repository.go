// Package repository provides Postgres persistence for quotes and their line
// items.
package repository

import (
	"context"
	"errors"
	"time"

	"caseflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quote is a priced proposal, usually generated from a request.
type Quote struct {
	ID                 uuid.UUID
	QuoteNumber        string
	Title              string
	Description        *string
	Terms              *string
	Notes              *string
	TotalAmount        float64
	ValidUntil         time.Time
	Status             string
	RequestID          *uuid.UUID
	AgentContactID     *uuid.UUID
	HomeownerContactID *uuid.UUID
	PropertyID         *uuid.UUID
	SentAt             *time.Time
	ViewedAt           *time.Time
	DecidedAt          *time.Time
	RejectionReason    *string
	CreatedBy          string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LineItem is one priced row of a quote.
type LineItem struct {
	ID          uuid.UUID
	QuoteID     uuid.UUID
	Description string
	Category    *string
	Quantity    float64
	UnitPrice   float64
	Position    int
}

// CreateQuoteParams carries the fields for a new quote.
type CreateQuoteParams struct {
	QuoteNumber        string
	Title              string
	Description        *string
	Terms              *string
	Notes              *string
	TotalAmount        float64
	ValidUntil         time.Time
	Status             string
	RequestID          *uuid.UUID
	AgentContactID     *uuid.UUID
	HomeownerContactID *uuid.UUID
	PropertyID         *uuid.UUID
	CreatedBy          string
	Items              []CreateLineItemParams
}

// CreateLineItemParams carries one line item of a new quote.
type CreateLineItemParams struct {
	Description string
	Category    *string
	Quantity    float64
	UnitPrice   float64
}

// UpdateQuoteParams patches mutable quote fields. Nil pointers leave the
// stored value unchanged.
type UpdateQuoteParams struct {
	Title           *string
	Description     *string
	Terms           *string
	Notes           *string
	TotalAmount     *float64
	ValidUntil      *time.Time
	ExpectedVersion *int
}

// StatusUpdateParams applies a workflow transition with its stamps under a
// version check.
type StatusUpdateParams struct {
	Status          string
	SentAt          *time.Time
	ViewedAt        *time.Time
	DecidedAt       *time.Time
	RejectionReason *string
	ExpectedVersion int
}

// QuoteQuery filters quote listings.
type QuoteQuery struct {
	Status    string
	RequestID *uuid.UUID
	Limit     int
}

// Repository is the pgx-backed quote store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a quote repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const quoteColumns = `id, quote_number, title, description, terms, notes, total_amount, valid_until,
	status, request_id, agent_contact_id, homeowner_contact_id, property_id,
	sent_at, viewed_at, decided_at, rejection_reason, created_by, version, created_at, updated_at`

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.QuoteNumber, &q.Title, &q.Description, &q.Terms, &q.Notes,
		&q.TotalAmount, &q.ValidUntil, &q.Status, &q.RequestID, &q.AgentContactID,
		&q.HomeownerContactID, &q.PropertyID, &q.SentAt, &q.ViewedAt, &q.DecidedAt,
		&q.RejectionReason, &q.CreatedBy, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, apperr.NotFound("quote not found")
	}
	return q, err
}

// Create inserts a quote and its line items in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateQuoteParams) (Quote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Quote{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO quotes (quote_number, title, description, terms, notes, total_amount,
			valid_until, status, request_id, agent_contact_id, homeowner_contact_id,
			property_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+quoteColumns,
		params.QuoteNumber, params.Title, params.Description, params.Terms, params.Notes,
		params.TotalAmount, params.ValidUntil, params.Status, params.RequestID,
		params.AgentContactID, params.HomeownerContactID, params.PropertyID, params.CreatedBy)

	quote, err := scanQuote(row)
	if err != nil {
		return Quote{}, err
	}

	for i, item := range params.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_items (quote_id, description, category, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			quote.ID, item.Description, item.Category, item.Quantity, item.UnitPrice, i)
		if err != nil {
			return Quote{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Quote{}, err
	}
	return quote, nil
}

// FindByID fetches a quote by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	return scanQuote(row)
}

// FindAll lists quotes matching the query, newest first.
func (r *Repository) FindAll(ctx context.Context, query QuoteQuery) ([]Quote, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR request_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`, query.Status, query.RequestID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// ListItems returns a quote's line items ordered by position.
func (r *Repository) ListItems(ctx context.Context, quoteID uuid.UUID) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, description, category, quantity, unit_price, position
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.Description, &item.Category,
			&item.Quantity, &item.UnitPrice, &item.Position); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update patches mutable quote fields under an optional version check.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateQuoteParams) (Quote, error) {
	expected := -1
	if params.ExpectedVersion != nil {
		expected = *params.ExpectedVersion
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE quotes SET
			title        = COALESCE($2, title),
			description  = COALESCE($3, description),
			terms        = COALESCE($4, terms),
			notes        = COALESCE($5, notes),
			total_amount = COALESCE($6, total_amount),
			valid_until  = COALESCE($7, valid_until),
			version      = version + 1,
			updated_at   = now()
		WHERE id = $1 AND ($8 = -1 OR version = $8)
		RETURNING `+quoteColumns,
		id, params.Title, params.Description, params.Terms, params.Notes,
		params.TotalAmount, params.ValidUntil, expected)

	quote, err := scanQuote(row)
	if err != nil {
		return Quote{}, r.classifyConditionalErr(ctx, id, err)
	}
	return quote, nil
}

// ApplyStatus performs a version-checked workflow transition.
func (r *Repository) ApplyStatus(ctx context.Context, id uuid.UUID, params StatusUpdateParams) (Quote, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE quotes SET
			status           = $2,
			sent_at          = COALESCE($3, sent_at),
			viewed_at        = COALESCE($4, viewed_at),
			decided_at       = COALESCE($5, decided_at),
			rejection_reason = COALESCE($6, rejection_reason),
			version          = version + 1,
			updated_at       = now()
		WHERE id = $1 AND version = $7
		RETURNING `+quoteColumns,
		id, params.Status, params.SentAt, params.ViewedAt, params.DecidedAt,
		params.RejectionReason, params.ExpectedVersion)

	quote, err := scanQuote(row)
	if err != nil {
		return Quote{}, r.classifyConditionalErr(ctx, id, err)
	}
	return quote, nil
}

// MaxQuoteSequence returns the highest numeric suffix across all quote
// numbers, 0 when no quotes exist.
func (r *Repository) MaxQuoteSequence(ctx context.Context) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX((regexp_match(quote_number, '-(\d+)$'))[1]::int), 0)
		FROM quotes`).Scan(&max)
	return max, err
}

// ExpireOverdue marks every sent or viewed quote whose validity window has
// passed as Expired, returning how many rows changed. Used by the scheduled
// sweep.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes SET status = 'Expired', decided_at = $1, version = version + 1, updated_at = now()
		WHERE valid_until < $1
		  AND status IN ('Sent', 'Viewed', 'Under Negotiation')`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes a quote and, via cascade, its line items.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("quote not found")
	}
	return nil
}

func (r *Repository) classifyConditionalErr(ctx context.Context, id uuid.UUID, err error) error {
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if _, findErr := r.FindByID(ctx, id); findErr == nil {
		return apperr.Conflict("quote was modified concurrently, reload and retry")
	}
	return err
}
