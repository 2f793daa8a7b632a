// Package repository persists the case management sub-entities. Status
// changes and primary assignments touch the owning request row in the same
// transaction so the audit record, the request, and the accompanying note can
// never diverge.
package repository

import (
	"context"
	"errors"
	"time"

	"caseflow_backend/internal/casework/domain"
	"caseflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseNote is an append-only annotation on a request.
type CaseNote struct {
	ID           uuid.UUID
	RequestID    uuid.UUID
	Content      string
	NoteType     string
	IsPrivate    bool
	AuthorID     string
	AuthorRole   string
	Attachments  []string
	FollowUpDate *time.Time
	Priority     string
	Tags         []string
	CreatedAt    time.Time
}

// CaseAssignment records that a request is or was assigned to a person.
type CaseAssignment struct {
	ID             uuid.UUID
	RequestID      uuid.UUID
	AssigneeID     string
	AssigneeRole   string
	AssignmentType string
	AssignedBy     string
	Reason         *string
	Status         string
	DueDate        *time.Time
	Priority       string
	CreatedAt      time.Time
}

// StatusChange is an immutable audit record of a request status transition.
type StatusChange struct {
	ID             uuid.UUID
	RequestID      uuid.UUID
	PreviousStatus string
	NewStatus      string
	Reason         *string
	TriggeredBy    string
	BusinessImpact string
	ClientNotified bool
	CreatedAt      time.Time
}

// InformationItem is one entry of the information-gathering checklist.
type InformationItem struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	Category   string
	Name       string
	Status     string
	Importance string
	Value      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScopeItem is one node of the scope-definition tree.
type ScopeItem struct {
	ID             uuid.UUID
	RequestID      uuid.UUID
	ParentID       *uuid.UUID
	Category       string
	Name           string
	Specifications map[string]any
	Materials      map[string]any
	EstimatedCost  *float64
	EstimatedHours *float64
	Complexity     string
	Status         string
	ClientApproved bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateNoteParams carries a new note.
type CreateNoteParams struct {
	RequestID    uuid.UUID
	Content      string
	NoteType     string
	IsPrivate    bool
	AuthorID     string
	AuthorRole   string
	Attachments  []string
	FollowUpDate *time.Time
	Priority     string
	Tags         []string
}

// AssignParams carries a new assignment.
type AssignParams struct {
	RequestID      uuid.UUID
	AssigneeID     string
	AssigneeRole   string
	AssignmentType string
	AssignedBy     string
	Reason         *string
	DueDate        *time.Time
	Priority       string
	Note           string
}

// ChangeStatusParams carries a request status change.
type ChangeStatusParams struct {
	RequestID      uuid.UUID
	NewStatus      string
	Reason         *string
	TriggeredBy    string
	BusinessImpact string
	ClientNotified bool
	ChangedBy      string
	Note           string
}

// CreateInformationItemParams carries a new checklist entry.
type CreateInformationItemParams struct {
	RequestID  uuid.UUID
	Category   string
	Name       string
	Status     string
	Importance string
	Value      *string
}

// CreateScopeItemParams carries a new scope tree node.
type CreateScopeItemParams struct {
	RequestID      uuid.UUID
	ParentID       *uuid.UUID
	Category       string
	Name           string
	Specifications map[string]any
	Materials      map[string]any
	EstimatedCost  *float64
	EstimatedHours *float64
	Complexity     string
	Status         string
}

// Repository is the pgx-backed case management store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a case management repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const noteColumns = `id, request_id, content, note_type, is_private, author_id, author_role,
	attachments, follow_up_date, priority, tags, created_at`

func scanNote(row pgx.Row) (CaseNote, error) {
	var n CaseNote
	err := row.Scan(&n.ID, &n.RequestID, &n.Content, &n.NoteType, &n.IsPrivate, &n.AuthorID,
		&n.AuthorRole, &n.Attachments, &n.FollowUpDate, &n.Priority, &n.Tags, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CaseNote{}, apperr.NotFound("note not found")
	}
	return n, err
}

func insertNote(ctx context.Context, q pgx.Tx, params CreateNoteParams) (CaseNote, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO case_notes (request_id, content, note_type, is_private, author_id,
			author_role, attachments, follow_up_date, priority, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+noteColumns,
		params.RequestID, params.Content, params.NoteType, params.IsPrivate, params.AuthorID,
		params.AuthorRole, params.Attachments, params.FollowUpDate, params.Priority, params.Tags)
	return scanNote(row)
}

// AddNote appends a note to the request's log.
func (r *Repository) AddNote(ctx context.Context, params CreateNoteParams) (CaseNote, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CaseNote{}, err
	}
	defer tx.Rollback(ctx)

	if err := requestExists(ctx, tx, params.RequestID); err != nil {
		return CaseNote{}, err
	}
	note, err := insertNote(ctx, tx, params)
	if err != nil {
		return CaseNote{}, err
	}
	return note, tx.Commit(ctx)
}

// ListNotes returns every note of a request, newest first. Filtering happens
// in the service after the fetch.
func (r *Repository) ListNotes(ctx context.Context, requestID uuid.UUID) ([]CaseNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM case_notes
		WHERE request_id = $1
		ORDER BY created_at DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]CaseNote, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

const assignmentColumns = `id, request_id, assignee_id, assignee_role, assignment_type,
	assigned_by, reason, status, due_date, priority, created_at`

func scanAssignment(row pgx.Row) (CaseAssignment, error) {
	var a CaseAssignment
	err := row.Scan(&a.ID, &a.RequestID, &a.AssigneeID, &a.AssigneeRole, &a.AssignmentType,
		&a.AssignedBy, &a.Reason, &a.Status, &a.DueDate, &a.Priority, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CaseAssignment{}, apperr.NotFound("assignment not found")
	}
	return a, err
}

// Assign records an assignment. A primary assignment transfers any previous
// active primary, mirrors the assignee onto the request row, and writes the
// describing note, all in one transaction.
func (r *Repository) Assign(ctx context.Context, params AssignParams) (CaseAssignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CaseAssignment{}, err
	}
	defer tx.Rollback(ctx)

	if err := requestExists(ctx, tx, params.RequestID); err != nil {
		return CaseAssignment{}, err
	}

	if params.AssignmentType == domain.AssignmentPrimary {
		_, err := tx.Exec(ctx, `
			UPDATE case_assignments SET status = $3
			WHERE request_id = $1 AND assignment_type = $2 AND status = $4`,
			params.RequestID, domain.AssignmentPrimary,
			domain.AssignmentTransferred, domain.AssignmentActive)
		if err != nil {
			return CaseAssignment{}, err
		}

		_, err = tx.Exec(ctx, `
			UPDATE requests SET assigned_to = $2, assigned_at = now(),
				version = version + 1, updated_at = now()
			WHERE id = $1`, params.RequestID, params.AssigneeID)
		if err != nil {
			return CaseAssignment{}, err
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO case_assignments (request_id, assignee_id, assignee_role, assignment_type,
			assigned_by, reason, status, due_date, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+assignmentColumns,
		params.RequestID, params.AssigneeID, params.AssigneeRole, params.AssignmentType,
		params.AssignedBy, params.Reason, domain.AssignmentActive, params.DueDate, params.Priority)

	assignment, err := scanAssignment(row)
	if err != nil {
		return CaseAssignment{}, err
	}

	if _, err := insertNote(ctx, tx, CreateNoteParams{
		RequestID:  params.RequestID,
		Content:    params.Note,
		NoteType:   domain.NoteInternal,
		IsPrivate:  true,
		AuthorID:   params.AssignedBy,
		AuthorRole: "system",
		Priority:   params.Priority,
	}); err != nil {
		return CaseAssignment{}, err
	}

	return assignment, tx.Commit(ctx)
}

// ListAssignments returns a request's assignment history, newest first.
func (r *Repository) ListAssignments(ctx context.Context, requestID uuid.UUID) ([]CaseAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM case_assignments
		WHERE request_id = $1
		ORDER BY created_at DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]CaseAssignment, 0)
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

const statusChangeColumns = `id, request_id, previous_status, new_status, reason,
	triggered_by, business_impact, client_notified, created_at`

func scanStatusChange(row pgx.Row) (StatusChange, error) {
	var sc StatusChange
	err := row.Scan(&sc.ID, &sc.RequestID, &sc.PreviousStatus, &sc.NewStatus, &sc.Reason,
		&sc.TriggeredBy, &sc.BusinessImpact, &sc.ClientNotified, &sc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusChange{}, apperr.NotFound("status change not found")
	}
	return sc, err
}

// ChangeStatus writes the audit record, moves the request's status, and
// appends the describing note in one transaction. The request row is locked
// so the recorded previous status is the one actually replaced.
func (r *Repository) ChangeStatus(ctx context.Context, params ChangeStatusParams) (StatusChange, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return StatusChange{}, err
	}
	defer tx.Rollback(ctx)

	var previous string
	err = tx.QueryRow(ctx,
		`SELECT status FROM requests WHERE id = $1 FOR UPDATE`, params.RequestID).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusChange{}, apperr.NotFound("request not found")
	}
	if err != nil {
		return StatusChange{}, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO request_status_history (request_id, previous_status, new_status, reason,
			triggered_by, business_impact, client_notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+statusChangeColumns,
		params.RequestID, previous, params.NewStatus, params.Reason,
		params.TriggeredBy, params.BusinessImpact, params.ClientNotified)

	change, err := scanStatusChange(row)
	if err != nil {
		return StatusChange{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE requests SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1`, params.RequestID, params.NewStatus)
	if err != nil {
		return StatusChange{}, err
	}

	if _, err := insertNote(ctx, tx, CreateNoteParams{
		RequestID:  params.RequestID,
		Content:    params.Note,
		NoteType:   domain.NoteInternal,
		IsPrivate:  true,
		AuthorID:   params.ChangedBy,
		AuthorRole: "system",
		Priority:   "normal",
	}); err != nil {
		return StatusChange{}, err
	}

	return change, tx.Commit(ctx)
}

// ListStatusChanges returns a request's transition history, newest first.
func (r *Repository) ListStatusChanges(ctx context.Context, requestID uuid.UUID) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+statusChangeColumns+`
		FROM request_status_history
		WHERE request_id = $1
		ORDER BY created_at DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]StatusChange, 0)
	for rows.Next() {
		change, err := scanStatusChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

const informationColumns = `id, request_id, category, name, status, importance, value,
	created_at, updated_at`

func scanInformationItem(row pgx.Row) (InformationItem, error) {
	var item InformationItem
	err := row.Scan(&item.ID, &item.RequestID, &item.Category, &item.Name, &item.Status,
		&item.Importance, &item.Value, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return InformationItem{}, apperr.NotFound("information item not found")
	}
	return item, err
}

// AddInformationItem appends a checklist entry.
func (r *Repository) AddInformationItem(ctx context.Context, params CreateInformationItemParams) (InformationItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO information_items (request_id, category, name, status, importance, value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+informationColumns,
		params.RequestID, params.Category, params.Name, params.Status,
		params.Importance, params.Value)
	return scanInformationItem(row)
}

// UpdateInformationItem moves a checklist entry's status and captured value.
func (r *Repository) UpdateInformationItem(ctx context.Context, id uuid.UUID, status string, value *string) (InformationItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE information_items SET
			status     = $2,
			value      = COALESCE($3, value),
			updated_at = now()
		WHERE id = $1
		RETURNING `+informationColumns, id, status, value)
	return scanInformationItem(row)
}

// ListInformationItems returns a request's checklist in insertion order.
func (r *Repository) ListInformationItems(ctx context.Context, requestID uuid.UUID) ([]InformationItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+informationColumns+`
		FROM information_items
		WHERE request_id = $1
		ORDER BY created_at`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]InformationItem, 0)
	for rows.Next() {
		item, err := scanInformationItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const scopeColumns = `id, request_id, parent_id, category, name, specifications, materials,
	estimated_cost, estimated_hours, complexity, status, client_approved, created_at, updated_at`

func scanScopeItem(row pgx.Row) (ScopeItem, error) {
	var item ScopeItem
	err := row.Scan(&item.ID, &item.RequestID, &item.ParentID, &item.Category, &item.Name,
		&item.Specifications, &item.Materials, &item.EstimatedCost, &item.EstimatedHours,
		&item.Complexity, &item.Status, &item.ClientApproved, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScopeItem{}, apperr.NotFound("scope item not found")
	}
	return item, err
}

// AddScopeItem appends a node to the scope tree.
func (r *Repository) AddScopeItem(ctx context.Context, params CreateScopeItemParams) (ScopeItem, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO scope_items (request_id, parent_id, category, name, specifications,
			materials, estimated_cost, estimated_hours, complexity, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+scopeColumns,
		params.RequestID, params.ParentID, params.Category, params.Name, params.Specifications,
		params.Materials, params.EstimatedCost, params.EstimatedHours, params.Complexity,
		params.Status)
	return scanScopeItem(row)
}

// UpdateScopeItem moves a node's status and client-approval flag. Approval
// implies the approved status.
func (r *Repository) UpdateScopeItem(ctx context.Context, id uuid.UUID, status string, clientApproved *bool) (ScopeItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE scope_items SET
			status          = $2,
			client_approved = COALESCE($3, client_approved),
			updated_at      = now()
		WHERE id = $1
		RETURNING `+scopeColumns, id, status, clientApproved)
	return scanScopeItem(row)
}

// ListScopeItems returns a request's scope tree in insertion order.
func (r *Repository) ListScopeItems(ctx context.Context, requestID uuid.UUID) ([]ScopeItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scopeColumns+`
		FROM scope_items
		WHERE request_id = $1
		ORDER BY created_at`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ScopeItem, 0)
	for rows.Next() {
		item, err := scanScopeItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func requestExists(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, requestID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("request not found")
	}
	return nil
}
