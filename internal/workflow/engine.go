package workflow

import (
	"context"
	"fmt"

	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the uniform repository contract the engine drives. Implementations
// return apperr-typed errors for expected conditions (apperr.KindNotFound for
// missing records); anything else is treated as an infrastructure failure.
type Store[I, P, Q, E any] interface {
	Create(ctx context.Context, input I) (E, error)
	FindByID(ctx context.Context, id uuid.UUID) (E, error)
	FindAll(ctx context.Context, query Q) ([]E, error)
	Update(ctx context.Context, id uuid.UUID, patch P) (E, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Hooks are the injectable guards and lifecycle transforms. Nil hooks default
// to permit-all / identity.
type Hooks[I, P, Q, E any] struct {
	CanCreate       func(ctx context.Context, input I) error
	CanUpdate       func(ctx context.Context, id uuid.UUID, patch P) error
	CanDelete       func(ctx context.Context, id uuid.UUID) error
	CheckReadAccess func(ctx context.Context, id uuid.UUID) error
	CheckListAccess func(ctx context.Context, query Q) error

	TransformForCreate func(ctx context.Context, input I) (I, error)
	TransformForUpdate func(ctx context.Context, id uuid.UUID, patch P) (P, error)

	AfterCreate  func(ctx context.Context, entity *E)
	AfterUpdate  func(ctx context.Context, entity *E)
	BeforeDelete func(ctx context.Context, id uuid.UUID) error
	AfterDelete  func(ctx context.Context, id uuid.UUID)

	// Present transforms a raw persisted record before it is returned:
	// derived fields, related-entity summaries. Enrichment inside Present
	// must be non-fatal; an error from Present is an infrastructure failure.
	Present func(ctx context.Context, entity E) (E, error)
}

// Engine is the reusable create/read/update/delete pipeline. Each entity
// workflow service owns one, configured with its rules and hooks.
type Engine[I, P, Q, E any] struct {
	entity      string
	store       Store[I, P, Q, E]
	createRules []Rule[I]
	updateRules []Rule[P]
	hooks       Hooks[I, P, Q, E]
	log         *logger.Logger
}

// NewEngine builds a pipeline for one entity type.
func NewEngine[I, P, Q, E any](
	entity string,
	store Store[I, P, Q, E],
	createRules []Rule[I],
	updateRules []Rule[P],
	hooks Hooks[I, P, Q, E],
	log *logger.Logger,
) *Engine[I, P, Q, E] {
	return &Engine[I, P, Q, E]{
		entity:      entity,
		store:       store,
		createRules: createRules,
		updateRules: updateRules,
		hooks:       hooks,
		log:         log,
	}
}

// Create runs validation rules, the canCreate guard, and the create transform,
// then persists and presents the record.
func (e *Engine[I, P, Q, E]) Create(ctx context.Context, input I) Result[E] {
	errs, warnings := RunRules(ctx, e.createRules, input)
	if len(errs) > 0 {
		return FailValidation[E](errs, warnings)
	}

	if e.hooks.CanCreate != nil {
		if err := e.hooks.CanCreate(ctx, input); err != nil {
			return e.guardFailure(err).WithWarnings(warnings...)
		}
	}

	if e.hooks.TransformForCreate != nil {
		transformed, err := e.hooks.TransformForCreate(ctx, input)
		if err != nil {
			return e.failure("create", uuid.Nil, err).WithWarnings(warnings...)
		}
		input = transformed
	}

	entity, err := e.safeCreate(ctx, input)
	if err != nil {
		return e.failure("create", uuid.Nil, err).WithWarnings(warnings...)
	}

	if e.hooks.AfterCreate != nil {
		e.hooks.AfterCreate(ctx, &entity)
	}

	return e.present(ctx, entity, "create").WithWarnings(warnings...)
}

// Get fetches a single record, applying the read-access guard and the
// presentation transform.
func (e *Engine[I, P, Q, E]) Get(ctx context.Context, id uuid.UUID) Result[E] {
	if e.hooks.CheckReadAccess != nil {
		if err := e.hooks.CheckReadAccess(ctx, id); err != nil {
			return e.guardFailure(err)
		}
	}

	entity, err := e.safeFind(ctx, id)
	if err != nil {
		return e.failure("findById", id, err)
	}

	return e.present(ctx, entity, "findById")
}

// List fetches all records matching the query, presenting each one.
func (e *Engine[I, P, Q, E]) List(ctx context.Context, query Q) Result[[]E] {
	if e.hooks.CheckListAccess != nil {
		if err := e.hooks.CheckListAccess(ctx, query); err != nil {
			if appErr, ok := err.(*apperr.Error); ok {
				return Fail[[]E](appErr.Kind, appErr.Message)
			}
			return Fail[[]E](apperr.KindForbidden, err.Error())
		}
	}

	entities, err := e.safeFindAll(ctx, query)
	if err != nil {
		if appErr, ok := err.(*apperr.Error); ok {
			return Fail[[]E](appErr.Kind, appErr.Message)
		}
		e.log.WorkflowError(e.entity, "findAll", "", err)
		return Fail[[]E](apperr.KindInternal, fmt.Sprintf("%s list failed: %v", e.entity, err))
	}

	if e.hooks.Present != nil {
		for i := range entities {
			presented, err := e.hooks.Present(ctx, entities[i])
			if err != nil {
				e.log.WorkflowError(e.entity, "present", "", err)
				return Fail[[]E](apperr.KindInternal, fmt.Sprintf("%s list failed: %v", e.entity, err))
			}
			entities[i] = presented
		}
	}

	return Ok(entities)
}

// Update runs the same validation pipeline as Create against the patch, plus
// the canUpdate guard and update transform.
func (e *Engine[I, P, Q, E]) Update(ctx context.Context, id uuid.UUID, patch P) Result[E] {
	errs, warnings := RunRules(ctx, e.updateRules, patch)
	if len(errs) > 0 {
		return FailValidation[E](errs, warnings)
	}

	if e.hooks.CanUpdate != nil {
		if err := e.hooks.CanUpdate(ctx, id, patch); err != nil {
			return e.guardFailure(err).WithWarnings(warnings...)
		}
	}

	if e.hooks.TransformForUpdate != nil {
		transformed, err := e.hooks.TransformForUpdate(ctx, id, patch)
		if err != nil {
			return e.failure("update", id, err).WithWarnings(warnings...)
		}
		patch = transformed
	}

	entity, err := e.safeUpdate(ctx, id, patch)
	if err != nil {
		return e.failure("update", id, err).WithWarnings(warnings...)
	}

	if e.hooks.AfterUpdate != nil {
		e.hooks.AfterUpdate(ctx, &entity)
	}

	return e.present(ctx, entity, "update").WithWarnings(warnings...)
}

// Delete applies the canDelete guard and the before/after hooks around the
// persistence delete.
func (e *Engine[I, P, Q, E]) Delete(ctx context.Context, id uuid.UUID) Result[bool] {
	if e.hooks.CanDelete != nil {
		if err := e.hooks.CanDelete(ctx, id); err != nil {
			if appErr, ok := err.(*apperr.Error); ok {
				return Fail[bool](appErr.Kind, appErr.Message)
			}
			return Fail[bool](apperr.KindForbidden, err.Error())
		}
	}

	if e.hooks.BeforeDelete != nil {
		if err := e.hooks.BeforeDelete(ctx, id); err != nil {
			if appErr, ok := err.(*apperr.Error); ok {
				return Fail[bool](appErr.Kind, appErr.Message)
			}
			e.log.WorkflowError(e.entity, "beforeDelete", id.String(), err)
			return Fail[bool](apperr.KindInternal, fmt.Sprintf("%s delete failed: %v", e.entity, err))
		}
	}

	if err := e.safeDelete(ctx, id); err != nil {
		if appErr, ok := err.(*apperr.Error); ok {
			return Fail[bool](appErr.Kind, appErr.Message)
		}
		e.log.WorkflowError(e.entity, "delete", id.String(), err)
		return Fail[bool](apperr.KindInternal, fmt.Sprintf("%s delete failed: %v", e.entity, err))
	}

	if e.hooks.AfterDelete != nil {
		e.hooks.AfterDelete(ctx, id)
	}

	return Ok(true)
}

// Entity returns the entity name used for logging context.
func (e *Engine[I, P, Q, E]) Entity() string {
	return e.entity
}

func (e *Engine[I, P, Q, E]) present(ctx context.Context, entity E, op string) Result[E] {
	if e.hooks.Present == nil {
		return Ok(entity)
	}
	presented, err := e.hooks.Present(ctx, entity)
	if err != nil {
		e.log.WorkflowError(e.entity, op, "", err)
		return Fail[E](apperr.KindInternal, fmt.Sprintf("%s %s failed: %v", e.entity, op, err))
	}
	return Ok(presented)
}

func (e *Engine[I, P, Q, E]) guardFailure(err error) Result[E] {
	if appErr, ok := err.(*apperr.Error); ok {
		return Fail[E](appErr.Kind, appErr.Message)
	}
	return Fail[E](apperr.KindForbidden, err.Error())
}

// failure converts a store or hook error into the uniform envelope: typed
// errors keep their kind (not-found stays distinguishable), everything else
// becomes a generic failure with the original message preserved.
func (e *Engine[I, P, Q, E]) failure(op string, id uuid.UUID, err error) Result[E] {
	if appErr, ok := err.(*apperr.Error); ok {
		return Fail[E](appErr.Kind, appErr.Message)
	}
	idStr := ""
	if id != uuid.Nil {
		idStr = id.String()
	}
	e.log.WorkflowError(e.entity, op, idStr, err)
	return Fail[E](apperr.KindInternal, fmt.Sprintf("%s %s failed: %v", e.entity, op, err))
}

// The safe* wrappers keep an unexpected panic inside a store implementation
// from escaping the pipeline; it is converted into a failure result like any
// other infrastructure error.

func (e *Engine[I, P, Q, E]) safeCreate(ctx context.Context, input I) (entity E, err error) {
	defer recoverTo(&err)
	return e.store.Create(ctx, input)
}

func (e *Engine[I, P, Q, E]) safeFind(ctx context.Context, id uuid.UUID) (entity E, err error) {
	defer recoverTo(&err)
	return e.store.FindByID(ctx, id)
}

func (e *Engine[I, P, Q, E]) safeFindAll(ctx context.Context, query Q) (entities []E, err error) {
	defer recoverTo(&err)
	return e.store.FindAll(ctx, query)
}

func (e *Engine[I, P, Q, E]) safeUpdate(ctx context.Context, id uuid.UUID, patch P) (entity E, err error) {
	defer recoverTo(&err)
	return e.store.Update(ctx, id, patch)
}

func (e *Engine[I, P, Q, E]) safeDelete(ctx context.Context, id uuid.UUID) (err error) {
	defer recoverTo(&err)
	return e.store.Delete(ctx, id)
}

func recoverTo(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("unexpected panic: %v", r)
	}
}
