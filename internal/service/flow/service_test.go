package flow_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/flow"
)

// memRepo is an in-memory flow repository for unit testing.
type memRepo struct {
	mu    sync.Mutex
	flows map[string]*domain.Flow
}

func newMemRepo() *memRepo {
	return &memRepo{flows: make(map[string]*domain.Flow)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[id]
	if !ok {
		return nil, flow.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, filter flow.ListFilter) ([]domain.Flow, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Flow
	for _, f := range m.flows {
		if filter.LiveOnly && !f.Live {
			continue
		}
		if filter.ProductID != "" && f.ProductID != filter.ProductID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *f)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, fl *domain.Flow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *fl
	m.flows[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, id string, u flow.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[id]
	if !ok {
		return flow.ErrNotFound
	}
	if u.Name != nil {
		f.Name = *u.Name
	}
	if u.Live != nil {
		f.Live = *u.Live
	}
	if u.ClearPriority {
		f.Priority = nil
	} else if u.Priority != nil {
		f.Priority = u.Priority
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[id]; !ok {
		return flow.ErrNotFound
	}
	delete(m.flows, id)
	return nil
}

func validInput(name string) flow.CreateInput {
	prio := 10
	rules := "cooldown 72h"
	return flow.CreateInput{
		Name:             name,
		ProductID:        "prod-1",
		Purpose:          "retention",
		TriggerType:      "scheduled",
		Channels:         []domain.Channel{domain.ChannelEmail},
		Frequency:        "Weekly",
		Live:             true,
		Priority:         &prio,
		SuppressionRules: &rules,
	}
}

func TestCreate(t *testing.T) {
	svc := flow.NewService(newMemRepo())
	fl, err := svc.Create(context.Background(), validInput("Winback"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fl.ID == "" {
		t.Fatal("expected generated ID")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := flow.NewService(newMemRepo())

	in := validInput("X")
	in.Name = ""
	if _, err := svc.Create(context.Background(), in); err != flow.ErrMissingName {
		t.Errorf("expected ErrMissingName, got %v", err)
	}

	in = validInput("X")
	in.Channels = nil
	if _, err := svc.Create(context.Background(), in); err != flow.ErrMissingChannels {
		t.Errorf("expected ErrMissingChannels, got %v", err)
	}

	in = validInput("X")
	bad := 0
	in.Priority = &bad
	if _, err := svc.Create(context.Background(), in); err != flow.ErrInvalidPriority {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestConflictsOnlyLiveFlows(t *testing.T) {
	svc := flow.NewService(newMemRepo())

	svc.Create(context.Background(), validInput("Live A"))
	svc.Create(context.Background(), validInput("Live B"))
	paused := validInput("Paused C")
	paused.Live = false
	svc.Create(context.Background(), paused)

	conflicts, err := svc.Conflicts(context.Background())
	if err != nil {
		t.Fatalf("conflicts: %v", err)
	}
	// Only the Live A / Live B pair qualifies.
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	for _, c := range conflicts {
		if c.FlowAName == "Paused C" || c.FlowBName == "Paused C" {
			t.Error("paused flow leaked into conflict output")
		}
	}
}

func TestConflictsFreshAfterEdit(t *testing.T) {
	repo := newMemRepo()
	svc := flow.NewService(repo)

	a, _ := svc.Create(context.Background(), validInput("A"))
	svc.Create(context.Background(), validInput("B"))

	before, _ := svc.Conflicts(context.Background())
	if len(before) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(before))
	}

	// Pausing a flow must be reflected immediately; nothing is cached.
	live := false
	if err := svc.Update(context.Background(), a.ID, flow.UpdateFields{Live: &live}); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := svc.Conflicts(context.Background())
	if len(after) != 0 {
		t.Fatalf("expected 0 conflicts after pausing, got %d", len(after))
	}
}
