package target_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/target"
)

// memRepo is an in-memory target repository for unit testing.
type memRepo struct {
	mu      sync.Mutex
	targets map[string]*domain.Target
}

func newMemRepo() *memRepo {
	return &memRepo{targets: make(map[string]*domain.Target)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, target.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f target.ListFilter) ([]domain.Target, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Target
	for _, t := range m.targets {
		if f.MetricName != "" && t.MetricName != f.MetricName {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, t *domain.Target) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.CreatedAt = time.Now()
	m.targets[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, id string, u target.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return target.ErrNotFound
	}
	if u.TargetValue != nil {
		t.TargetValue = *u.TargetValue
	}
	if u.AmberFloor != nil {
		t.AmberFloor = *u.AmberFloor
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; !ok {
		return target.ErrNotFound
	}
	delete(m.targets, id)
	return nil
}

func validInput() target.CreateInput {
	return target.CreateInput{
		MetricName:    "open_rate",
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetValue:   20,
		AmberFloor:    0.7,
	}
}

func TestCreate(t *testing.T) {
	svc := target.NewService(newMemRepo())
	res, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Target.ID == "" {
		t.Fatal("expected generated ID")
	}
	if res.Warning != "" {
		t.Fatalf("unexpected warning: %s", res.Warning)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := target.NewService(newMemRepo())

	in := validInput()
	in.MetricName = ""
	if _, err := svc.Create(context.Background(), in); err != target.ErrInvalidMetric {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}

	in = validInput()
	in.AmberFloor = 1.5
	if _, err := svc.Create(context.Background(), in); err != target.ErrInvalidFloor {
		t.Errorf("expected ErrInvalidFloor, got %v", err)
	}
}

func TestCreateOverlapWarning(t *testing.T) {
	svc := target.NewService(newMemRepo())

	wf := "wf-1"
	first := validInput()
	first.WorkflowID = &wf
	if _, err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := validInput()
	second.WorkflowID = &wf
	second.EffectiveFrom = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.Create(context.Background(), second)
	if err != nil {
		t.Fatalf("overlap must warn, not fail: %v", err)
	}
	if res.Warning == "" {
		t.Fatal("expected an overlap warning")
	}
}

func TestCreateNoWarningAcrossScopes(t *testing.T) {
	svc := target.NewService(newMemRepo())

	wf := "wf-1"
	workflowScoped := validInput()
	workflowScoped.WorkflowID = &wf
	svc.Create(context.Background(), workflowScoped)

	// A global target for the same metric is a different specificity level.
	res, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Warning != "" {
		t.Fatalf("different specificity must not warn: %s", res.Warning)
	}
}

func TestUpdateFloorValidation(t *testing.T) {
	repo := newMemRepo()
	svc := target.NewService(repo)
	res, _ := svc.Create(context.Background(), validInput())

	bad := 0.0
	if err := svc.Update(context.Background(), res.Target.ID, target.UpdateFields{AmberFloor: &bad}); err != target.ErrInvalidFloor {
		t.Fatalf("expected ErrInvalidFloor, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newMemRepo()
	svc := target.NewService(repo)
	res, _ := svc.Create(context.Background(), validInput())

	if err := svc.Delete(context.Background(), res.Target.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), res.Target.ID); err != target.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
