// Package repository provides Postgres persistence for client requests.
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

// Request is the persisted inbound inquiry record.
type Request struct {
	ID                 uuid.UUID
	Message            string
	RelationToProperty *string
	Budget             *string
	LeadSource         *string
	Product            *string
	Status             string
	AssignedTo         *string
	AssignedAt         *time.Time
	AgentContactID     *uuid.UUID
	HomeownerContactID *uuid.UUID
	PropertyID         *uuid.UUID
	MovedToQuotingAt   *time.Time
	ArchivedAt         *time.Time
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateRequestParams carries the fields for a new request.
type CreateRequestParams struct {
	Message            string
	RelationToProperty *string
	Budget             *string
	LeadSource         *string
	Product            *string
	Status             string
	AgentContactID     *uuid.UUID
	HomeownerContactID *uuid.UUID
	PropertyID         *uuid.UUID
}

// UpdateRequestParams patches mutable request fields. Nil pointers leave the
// stored value unchanged. When ExpectedVersion is set, the update is
// conditional and a stale version yields a conflict.
type UpdateRequestParams struct {
	Message            *string
	RelationToProperty *string
	Budget             *string
	LeadSource         *string
	Product            *string
	AssignedTo         *string
	ExpectedVersion    *int
}

// StatusUpdateParams applies a workflow transition with its stamps under a
// version check.
type StatusUpdateParams struct {
	Status           string
	AssignedTo       *string
	AssignedAt       *time.Time
	MovedToQuotingAt *time.Time
	ArchivedAt       *time.Time
	ExpectedVersion  int
}

// RequestQuery filters request listings.
type RequestQuery struct {
	Status     string
	AssignedTo string
	Limit      int
}

// Repository is the pgx-backed request store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a request repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `id, message, relation_to_property, budget, lead_source, product, status,
	assigned_to, assigned_at, agent_contact_id, homeowner_contact_id, property_id,
	moved_to_quoting_at, archived_at, version, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.Message, &r.RelationToProperty, &r.Budget, &r.LeadSource, &r.Product,
		&r.Status, &r.AssignedTo, &r.AssignedAt, &r.AgentContactID, &r.HomeownerContactID,
		&r.PropertyID, &r.MovedToQuotingAt, &r.ArchivedAt, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, apperr.NotFound("request not found")
	}
	return r, err
}

// Create inserts a new request.
func (r *Repository) Create(ctx context.Context, params CreateRequestParams) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO requests (message, relation_to_property, budget, lead_source, product, status,
			agent_contact_id, homeowner_contact_id, property_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+requestColumns,
		params.Message, params.RelationToProperty, params.Budget, params.LeadSource, params.Product,
		params.Status, params.AgentContactID, params.HomeownerContactID, params.PropertyID)
	return scanRequest(row)
}

// FindByID fetches a request by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

// FindAll lists requests matching the query, newest first.
func (r *Repository) FindAll(ctx context.Context, query RequestQuery) ([]Request, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR assigned_to = $2)
		ORDER BY created_at DESC
		LIMIT $3`, query.Status, query.AssignedTo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Update patches a request. With ExpectedVersion set, a stale version yields
// an apperr conflict instead of silently overwriting a concurrent change.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateRequestParams) (Request, error) {
	expected := -1
	if params.ExpectedVersion != nil {
		expected = *params.ExpectedVersion
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE requests SET
			message              = COALESCE($2, message),
			relation_to_property = COALESCE($3, relation_to_property),
			budget               = COALESCE($4, budget),
			lead_source          = COALESCE($5, lead_source),
			product              = COALESCE($6, product),
			assigned_to          = COALESCE($7, assigned_to),
			version              = version + 1,
			updated_at           = now()
		WHERE id = $1 AND ($8 = -1 OR version = $8)
		RETURNING `+requestColumns,
		id, params.Message, params.RelationToProperty, params.Budget, params.LeadSource,
		params.Product, params.AssignedTo, expected)

	req, err := scanRequest(row)
	if err != nil {
		return Request{}, r.classifyConditionalErr(ctx, id, err)
	}
	return req, nil
}

// ApplyStatus performs a version-checked workflow transition with its stamps.
func (r *Repository) ApplyStatus(ctx context.Context, id uuid.UUID, params StatusUpdateParams) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE requests SET
			status              = $2,
			assigned_to         = COALESCE($3, assigned_to),
			assigned_at         = COALESCE($4, assigned_at),
			moved_to_quoting_at = COALESCE($5, moved_to_quoting_at),
			archived_at         = COALESCE($6, archived_at),
			version             = version + 1,
			updated_at          = now()
		WHERE id = $1 AND version = $7
		RETURNING `+requestColumns,
		id, params.Status, params.AssignedTo, params.AssignedAt,
		params.MovedToQuotingAt, params.ArchivedAt, params.ExpectedVersion)

	req, err := scanRequest(row)
	if err != nil {
		return Request{}, r.classifyConditionalErr(ctx, id, err)
	}
	return req, nil
}

// SetStatus updates only the status field without a version precondition.
// Used by the case management status-change transaction path.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE requests SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns, id, status)
	return scanRequest(row)
}

// Delete removes a request row. The workflow never calls this in production
// flows (cancellation is a soft removal); it exists to complete the store
// contract.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("request not found")
	}
	return nil
}

// classifyConditionalErr distinguishes "row missing" from "version stale" when
// a conditional update matched nothing.
func (r *Repository) classifyConditionalErr(ctx context.Context, id uuid.UUID, err error) error {
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if _, findErr := r.FindByID(ctx, id); findErr == nil {
		return apperr.Conflict("request was modified concurrently, reload and retry")
	}
	return err
}
