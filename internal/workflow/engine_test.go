package workflow

import (
	"context"
	"strings"
	"testing"

	"caseflow_backend/platform/apperr"
	"caseflow_backend/platform/logger"

	"github.com/google/uuid"
)

type widget struct {
	ID        uuid.UUID
	Name      string
	Presented bool
}

type widgetInput struct {
	Name string
}

type widgetPatch struct {
	Name *string
}

type widgetQuery struct{}

type fakeWidgetStore struct {
	records       map[uuid.UUID]widget
	createCalls   int
	panicOnCreate bool
}

func newFakeWidgetStore() *fakeWidgetStore {
	return &fakeWidgetStore{records: make(map[uuid.UUID]widget)}
}

func (s *fakeWidgetStore) Create(_ context.Context, input widgetInput) (widget, error) {
	s.createCalls++
	if s.panicOnCreate {
		panic("store exploded")
	}
	w := widget{ID: uuid.New(), Name: input.Name}
	s.records[w.ID] = w
	return w, nil
}

func (s *fakeWidgetStore) FindByID(_ context.Context, id uuid.UUID) (widget, error) {
	w, ok := s.records[id]
	if !ok {
		return widget{}, apperr.NotFound("widget not found")
	}
	return w, nil
}

func (s *fakeWidgetStore) FindAll(_ context.Context, _ widgetQuery) ([]widget, error) {
	out := make([]widget, 0, len(s.records))
	for _, w := range s.records {
		out = append(out, w)
	}
	return out, nil
}

func (s *fakeWidgetStore) Update(_ context.Context, id uuid.UUID, patch widgetPatch) (widget, error) {
	w, ok := s.records[id]
	if !ok {
		return widget{}, apperr.NotFound("widget not found")
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	s.records[id] = w
	return w, nil
}

func (s *fakeWidgetStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.records[id]; !ok {
		return apperr.NotFound("widget not found")
	}
	delete(s.records, id)
	return nil
}

func testEngine(store *fakeWidgetStore, createRules []Rule[widgetInput], hooks Hooks[widgetInput, widgetPatch, widgetQuery, widget]) *Engine[widgetInput, widgetPatch, widgetQuery, widget] {
	return NewEngine("widget", store, createRules, nil, hooks, logger.New("test"))
}

func TestCreateCollectsAllRuleViolations(t *testing.T) {
	store := newFakeWidgetStore()
	rules := []Rule[widgetInput]{
		{Name: "name_required", Check: func(_ context.Context, in widgetInput) Report {
			if in.Name == "" {
				return Invalid("name", "name is required")
			}
			return ValidReport()
		}},
		{Name: "name_length", Check: func(_ context.Context, in widgetInput) Report {
			if len(in.Name) < 3 {
				return Invalid("name", "name must be at least 3 characters")
			}
			return ValidReport()
		}},
		{Name: "advisory", Check: func(_ context.Context, _ widgetInput) Report {
			r := ValidReport()
			r.AddWarning("widgets are deprecated")
			return r
		}},
	}

	engine := testEngine(store, rules, Hooks[widgetInput, widgetPatch, widgetQuery, widget]{})
	res := engine.Create(context.Background(), widgetInput{Name: ""})

	if res.Success {
		t.Fatal("expected validation failure")
	}
	if got := len(res.ValidationErrors()); got != 2 {
		t.Fatalf("expected both rule violations reported, got %d", got)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "widgets are deprecated" {
		t.Fatalf("expected advisory warning carried, got %v", res.Warnings)
	}
	if store.createCalls != 0 {
		t.Fatal("persistence must not be touched on validation failure")
	}
}

func TestCreateGuardBlocksWithoutPersisting(t *testing.T) {
	store := newFakeWidgetStore()
	hooks := Hooks[widgetInput, widgetPatch, widgetQuery, widget]{
		CanCreate: func(_ context.Context, _ widgetInput) error {
			return apperr.Forbidden("widget creation disabled")
		},
	}

	engine := testEngine(store, nil, hooks)
	res := engine.Create(context.Background(), widgetInput{Name: "gadget"})

	if res.Success {
		t.Fatal("expected guard rejection")
	}
	if res.Kind != apperr.KindForbidden {
		t.Fatalf("expected forbidden kind, got %v", res.Kind)
	}
	if store.createCalls != 0 {
		t.Fatal("persistence must not be touched on guard rejection")
	}
}

func TestCreateStorePanicBecomesFailureResult(t *testing.T) {
	store := newFakeWidgetStore()
	store.panicOnCreate = true

	engine := testEngine(store, nil, Hooks[widgetInput, widgetPatch, widgetQuery, widget]{})
	res := engine.Create(context.Background(), widgetInput{Name: "gadget"})

	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Kind != apperr.KindInternal {
		t.Fatalf("expected internal kind, got %v", res.Kind)
	}
	if !strings.Contains(res.Error, "store exploded") {
		t.Fatalf("expected original message preserved, got %q", res.Error)
	}
}

func TestGetAppliesPresentationHook(t *testing.T) {
	store := newFakeWidgetStore()
	hooks := Hooks[widgetInput, widgetPatch, widgetQuery, widget]{
		Present: func(_ context.Context, w widget) (widget, error) {
			w.Presented = true
			return w, nil
		},
	}
	engine := testEngine(store, nil, hooks)

	created := engine.Create(context.Background(), widgetInput{Name: "gadget"})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Error)
	}
	if !created.Data.Presented {
		t.Fatal("expected presentation hook applied on create")
	}

	got := engine.Get(context.Background(), created.Data.ID)
	if !got.Success || !got.Data.Presented {
		t.Fatal("expected presentation hook applied on read")
	}

	list := engine.List(context.Background(), widgetQuery{})
	if !list.Success {
		t.Fatalf("list failed: %s", list.Error)
	}
	for _, w := range *list.Data {
		if !w.Presented {
			t.Fatal("expected presentation hook applied to every listed record")
		}
	}
}

func TestGetNotFoundKeepsKind(t *testing.T) {
	engine := testEngine(newFakeWidgetStore(), nil, Hooks[widgetInput, widgetPatch, widgetQuery, widget]{})
	res := engine.Get(context.Background(), uuid.New())

	if res.Success {
		t.Fatal("expected not-found failure")
	}
	if res.Kind != apperr.KindNotFound {
		t.Fatalf("expected not-found kind so callers can distinguish it, got %v", res.Kind)
	}
}

func TestUpdateRunsValidationPipeline(t *testing.T) {
	store := newFakeWidgetStore()
	updateRules := []Rule[widgetPatch]{
		{Name: "name_not_blank", Check: func(_ context.Context, p widgetPatch) Report {
			if p.Name != nil && *p.Name == "" {
				return Invalid("name", "name cannot be blank")
			}
			return ValidReport()
		}},
	}
	engine := NewEngine("widget", store, nil, updateRules, Hooks[widgetInput, widgetPatch, widgetQuery, widget]{}, logger.New("test"))

	created := engine.Create(context.Background(), widgetInput{Name: "gadget"})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Error)
	}

	blank := ""
	res := engine.Update(context.Background(), created.Data.ID, widgetPatch{Name: &blank})
	if res.Success {
		t.Fatal("expected validation failure on update")
	}
	if store.records[created.Data.ID].Name != "gadget" {
		t.Fatal("stored record must be unchanged after validation failure")
	}
}

func TestDeleteGuardRejection(t *testing.T) {
	store := newFakeWidgetStore()
	hooks := Hooks[widgetInput, widgetPatch, widgetQuery, widget]{
		CanDelete: func(_ context.Context, _ uuid.UUID) error {
			return apperr.Forbidden("widgets are kept forever")
		},
	}
	engine := testEngine(store, nil, hooks)

	created := engine.Create(context.Background(), widgetInput{Name: "gadget"})
	if !created.Success {
		t.Fatalf("create failed: %s", created.Error)
	}

	res := engine.Delete(context.Background(), created.Data.ID)
	if res.Success {
		t.Fatal("expected guard rejection")
	}
	if _, ok := store.records[created.Data.ID]; !ok {
		t.Fatal("record must survive a rejected delete")
	}
}
