// Package repository provides Postgres persistence for projects and their
// milestones.
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

// Project is the execution phase following quote approval.
type Project struct {
	ID             uuid.UUID
	Title          string
	Description    *string
	Status         string
	Budget         float64
	ActualCost     float64
	StartDate      *time.Time
	CompletionDate *time.Time
	RequestID      *uuid.UUID
	QuoteID        *uuid.UUID
	Archived       bool
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Milestone is one planned step of a project.
type Milestone struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	Title        string
	Description  *string
	DueDate      *time.Time
	Dependencies []string
	Position     int
}

// CreateProjectParams carries the fields for a new project.
type CreateProjectParams struct {
	Title          string
	Description    *string
	Status         string
	Budget         float64
	ActualCost     float64
	StartDate      *time.Time
	CompletionDate *time.Time
	RequestID      *uuid.UUID
	QuoteID        *uuid.UUID
	Milestones     []CreateMilestoneParams
}

// CreateMilestoneParams carries one milestone of a new project.
type CreateMilestoneParams struct {
	Title        string
	Description  *string
	DueDate      *time.Time
	Dependencies []string
}

// UpdateProjectParams patches mutable project fields.
type UpdateProjectParams struct {
	Title           *string
	Description     *string
	Budget          *float64
	ActualCost      *float64
	StartDate       *time.Time
	CompletionDate  *time.Time
	ExpectedVersion *int
}

// StatusUpdateParams applies a workflow transition with its stamps under a
// version check.
type StatusUpdateParams struct {
	Status          string
	StartDate       *time.Time
	CompletionDate  *time.Time
	Archived        *bool
	ExpectedVersion int
}

// ProjectQuery filters project listings.
type ProjectQuery struct {
	Status    string
	RequestID *uuid.UUID
	Limit     int
}

// Repository is the pgx-backed project store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a project repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, title, description, status, budget, actual_cost, start_date,
	completion_date, request_id, quote_id, archived, version, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.Budget, &p.ActualCost,
		&p.StartDate, &p.CompletionDate, &p.RequestID, &p.QuoteID, &p.Archived,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, apperr.NotFound("project not found")
	}
	return p, err
}

// Create inserts a project and its milestones in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateProjectParams) (Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO projects (title, description, status, budget, actual_cost, start_date,
			completion_date, request_id, quote_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+projectColumns,
		params.Title, params.Description, params.Status, params.Budget, params.ActualCost,
		params.StartDate, params.CompletionDate, params.RequestID, params.QuoteID)

	project, err := scanProject(row)
	if err != nil {
		return Project{}, err
	}

	for i, m := range params.Milestones {
		_, err := tx.Exec(ctx, `
			INSERT INTO project_milestones (project_id, title, description, due_date, dependencies, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			project.ID, m.Title, m.Description, m.DueDate, m.Dependencies, i)
		if err != nil {
			return Project{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Project{}, err
	}
	return project, nil
}

// FindByID fetches a project by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// FindAll lists projects matching the query, newest first.
func (r *Repository) FindAll(ctx context.Context, query ProjectQuery) ([]Project, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR request_id = $2)
		ORDER BY created_at DESC
		LIMIT $3`, query.Status, query.RequestID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// ListMilestones returns a project's milestones ordered by position.
func (r *Repository) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, title, description, due_date, dependencies, position
		FROM project_milestones
		WHERE project_id = $1
		ORDER BY position`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]Milestone, 0)
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.DueDate,
			&m.Dependencies, &m.Position); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// Update patches mutable project fields under an optional version check.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateProjectParams) (Project, error) {
	expected := -1
	if params.ExpectedVersion != nil {
		expected = *params.ExpectedVersion
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE projects SET
			title           = COALESCE($2, title),
			description     = COALESCE($3, description),
			budget          = COALESCE($4, budget),
			actual_cost     = COALESCE($5, actual_cost),
			start_date      = COALESCE($6, start_date),
			completion_date = COALESCE($7, completion_date),
			version         = version + 1,
			updated_at      = now()
		WHERE id = $1 AND ($8 = -1 OR version = $8)
		RETURNING `+projectColumns,
		id, params.Title, params.Description, params.Budget, params.ActualCost,
		params.StartDate, params.CompletionDate, expected)

	project, err := scanProject(row)
	if err != nil {
		return Project{}, r.classifyConditionalErr(ctx, id, err)
	}
	return project, nil
}

// ApplyStatus performs a version-checked workflow transition.
func (r *Repository) ApplyStatus(ctx context.Context, id uuid.UUID, params StatusUpdateParams) (Project, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE projects SET
			status          = $2,
			start_date      = COALESCE($3, start_date),
			completion_date = COALESCE($4, completion_date),
			archived        = COALESCE($5, archived),
			version         = version + 1,
			updated_at      = now()
		WHERE id = $1 AND version = $6
		RETURNING `+projectColumns,
		id, params.Status, params.StartDate, params.CompletionDate, params.Archived,
		params.ExpectedVersion)

	project, err := scanProject(row)
	if err != nil {
		return Project{}, r.classifyConditionalErr(ctx, id, err)
	}
	return project, nil
}

// Delete removes a project and, via cascade, its milestones.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

func (r *Repository) classifyConditionalErr(ctx context.Context, id uuid.UUID, err error) error {
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if _, findErr := r.FindByID(ctx, id); findErr == nil {
		return apperr.Conflict("project was modified concurrently, reload and retry")
	}
	return err
}
