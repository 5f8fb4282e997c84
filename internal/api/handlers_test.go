package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/kanban"
	flowsvc "github.com/ignite/crm-atlas/internal/service/flow"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
	targetsvc "github.com/ignite/crm-atlas/internal/service/target"
)

// memTargetRepo is an in-memory target repository for handler tests.
type memTargetRepo struct {
	mu      sync.Mutex
	targets map[string]*domain.Target
}

func newMemTargetRepo() *memTargetRepo {
	return &memTargetRepo{targets: make(map[string]*domain.Target)}
}

func (m *memTargetRepo) Get(_ context.Context, id string) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, targetsvc.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTargetRepo) List(_ context.Context, f targetsvc.ListFilter) ([]domain.Target, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Target
	for _, t := range m.targets {
		if f.MetricName != "" && t.MetricName != f.MetricName {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memTargetRepo) Create(_ context.Context, t *domain.Target) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	cp := *t
	m.targets[t.ID] = &cp
	return t.ID, nil
}

func (m *memTargetRepo) Update(_ context.Context, id string, u targetsvc.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return targetsvc.ErrNotFound
	}
	if u.TargetValue != nil {
		t.TargetValue = *u.TargetValue
	}
	if u.AmberFloor != nil {
		t.AmberFloor = *u.AmberFloor
	}
	return nil
}

func (m *memTargetRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; !ok {
		return targetsvc.ErrNotFound
	}
	delete(m.targets, id)
	return nil
}

// memFlowRepo is an in-memory flow repository for handler tests.
type memFlowRepo struct {
	mu    sync.Mutex
	flows map[string]*domain.Flow
}

func newMemFlowRepo() *memFlowRepo {
	return &memFlowRepo{flows: make(map[string]*domain.Flow)}
}

func (m *memFlowRepo) Get(_ context.Context, id string) (*domain.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fl, ok := m.flows[id]
	if !ok {
		return nil, flowsvc.ErrNotFound
	}
	cp := *fl
	return &cp, nil
}

func (m *memFlowRepo) List(_ context.Context, f flowsvc.ListFilter) ([]domain.Flow, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Flow
	for _, fl := range m.flows {
		if f.LiveOnly && !fl.Live {
			continue
		}
		out = append(out, *fl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memFlowRepo) Create(_ context.Context, fl *domain.Flow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fl.ID == "" {
		fl.ID = uuid.New().String()
	}
	cp := *fl
	m.flows[fl.ID] = &cp
	return fl.ID, nil
}

func (m *memFlowRepo) Update(_ context.Context, id string, u flowsvc.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fl, ok := m.flows[id]
	if !ok {
		return flowsvc.ErrNotFound
	}
	if u.Name != nil {
		fl.Name = *u.Name
	}
	if u.Live != nil {
		fl.Live = *u.Live
	}
	return nil
}

func (m *memFlowRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flows[id]; !ok {
		return flowsvc.ErrNotFound
	}
	delete(m.flows, id)
	return nil
}

// memHealthRepo is a minimal in-memory health repository: no snapshots, no
// targets, no stored config.
type memHealthRepo struct{}

func (memHealthRepo) SnapshotKeys(context.Context, time.Time, time.Time) ([]healthsvc.SnapshotKey, error) {
	return nil, nil
}

func (memHealthRepo) Snapshot(context.Context, string, domain.Channel, domain.PeriodType, time.Time) (*domain.MetricSnapshot, error) {
	return nil, nil
}

func (memHealthRepo) TargetCandidates(context.Context, string) ([]domain.Target, error) {
	return nil, nil
}

func (memHealthRepo) HealthConfig(context.Context) (*domain.HealthConfig, error) {
	return nil, nil
}

func (memHealthRepo) WorkflowProduct(context.Context, string) (string, error) {
	return "", nil
}

func (memHealthRepo) UpsertFlag(context.Context, *domain.HealthFlag) error { return nil }

func (memHealthRepo) Flags(context.Context, healthsvc.FlagFilter) ([]domain.HealthFlag, error) {
	return nil, nil
}

// memBoardStore is an in-memory kanban store for handler tests.
type memBoardStore struct {
	mu    sync.Mutex
	board *kanban.Board
}

func (m *memBoardStore) GetBoard(context.Context) (*kanban.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board, nil
}

func (m *memBoardStore) SaveBoard(_ context.Context, board *kanban.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board = board
	return nil
}

func defaultTestConfig() domain.HealthConfig {
	return domain.HealthConfig{
		AmberFloor:     0.7,
		WoWAmberDrop:   0.15,
		WoWRedDrop:     0.30,
		RollupStrategy: domain.RollupWorstOf,
	}
}

func setupTestHandlers(t *testing.T) (*Handlers, *chi.Mux) {
	t.Helper()

	health := healthsvc.NewService(memHealthRepo{}, defaultTestConfig())
	targets := targetsvc.NewService(newMemTargetRepo())
	flows := flowsvc.NewService(newMemFlowRepo())

	h := NewHandlers(health, targets, flows)
	h.SetKanbanService(kanban.NewService(&memBoardStore{}))

	router, _ := SetupRoutes(h, nil)
	return h, router
}

func TestHealthCheck(t *testing.T) {
	_, router := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
	assert.Contains(t, response, "uptime")
}

func TestTargetLifecycle(t *testing.T) {
	_, router := setupTestHandlers(t)

	body := map[string]interface{}{
		"metric_name":    "open_rate",
		"channel":        "email",
		"effective_from": "2026-01-01T00:00:00Z",
		"target_value":   25.0,
		"amber_floor":    0.8,
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/targets/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Target struct {
			ID string `json:"id"`
		} `json:"target"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Target.ID)

	// Fetch it back
	req = httptest.NewRequest(http.MethodGet, "/api/targets/"+created.Target.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Unknown ID is a 404
	req = httptest.NewRequest(http.MethodGet, "/api/targets/"+uuid.New().String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTargetRejectsBadFloor(t *testing.T) {
	_, router := setupTestHandlers(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"metric_name":  "open_rate",
		"target_value": 25.0,
		"amber_floor":  1.5,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/targets/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlowConflictsEndpoint(t *testing.T) {
	_, router := setupTestHandlers(t)

	for _, name := range []string{"Welcome Series", "Winback"} {
		payload, _ := json.Marshal(map[string]interface{}{
			"name":         name,
			"product_id":   "prod-1",
			"purpose":      "activation",
			"trigger_type": "event_based",
			"channels":     []string{"email"},
			"frequency":    "Daily",
			"live":         true,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/flows/", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/flows/conflicts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Conflicts []domain.FlowConflict `json:"conflicts"`
		Total     int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Conflicts), resp.Total)
	require.NotEmpty(t, resp.Conflicts)
}

func TestCreateFlowRequiresChannels(t *testing.T) {
	_, router := setupTestHandlers(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"name":       "No Channels",
		"product_id": "prod-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/flows/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecomputeRejectsInvertedRange(t *testing.T) {
	_, router := setupTestHandlers(t)

	payload, _ := json.Marshal(map[string]string{
		"start": "2026-08-10",
		"end":   "2026-08-03",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/health-flags/recompute", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnconfiguredServicesReturn503(t *testing.T) {
	_, router := setupTestHandlers(t)

	for _, path := range []string{
		"/api/opportunities/",
		"/api/experiments/",
		"/api/dashboard/channels",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestIdeaBoardCardFlow(t *testing.T) {
	_, router := setupTestHandlers(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"column_id": "backlog",
		"title":     "Post-purchase cross-sell flow",
		"impact":    "high",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ideas/cards", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var card kanban.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.NotEmpty(t, card.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/ideas/board", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post-purchase cross-sell flow")
}

func TestGetHealthConfigDefaults(t *testing.T) {
	_, router := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health-flags/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg domain.HealthConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 0.7, cfg.AmberFloor)
	assert.Equal(t, domain.RollupWorstOf, cfg.RollupStrategy)
}
