package health_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
	enginehealth "github.com/ignite/crm-atlas/internal/health"
	"github.com/ignite/crm-atlas/internal/service/health"
)

func f64(v float64) *float64 { return &v }

// memRepo is an in-memory health repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	snapshots map[string]*domain.MetricSnapshot
	targets   []domain.Target
	config    *domain.HealthConfig
	products  map[string]string
	flags     map[string]*domain.HealthFlag

	failSnapshotFor string // workflow ID whose snapshot reads fail
}

func newMemRepo() *memRepo {
	return &memRepo{
		snapshots: make(map[string]*domain.MetricSnapshot),
		products:  make(map[string]string),
		flags:     make(map[string]*domain.HealthFlag),
	}
}

func snapKey(workflowID string, channel domain.Channel, pt domain.PeriodType, date time.Time) string {
	return workflowID + "|" + string(channel) + "|" + string(pt) + "|" + date.Format("2006-01-02")
}

func (m *memRepo) addSnapshot(s *domain.MetricSnapshot) {
	m.snapshots[snapKey(s.WorkflowID, s.Channel, s.PeriodType, s.PeriodStartDate)] = s
}

func (m *memRepo) SnapshotKeys(_ context.Context, start, end time.Time) ([]health.SnapshotKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []health.SnapshotKey
	for _, s := range m.snapshots {
		if s.PeriodStartDate.Before(start) || s.PeriodStartDate.After(end) {
			continue
		}
		keys = append(keys, health.SnapshotKey{
			WorkflowID:      s.WorkflowID,
			Channel:         s.Channel,
			PeriodType:      s.PeriodType,
			PeriodStartDate: s.PeriodStartDate,
		})
	}
	return keys, nil
}

func (m *memRepo) Snapshot(_ context.Context, workflowID string, channel domain.Channel, pt domain.PeriodType, date time.Time) (*domain.MetricSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSnapshotFor == workflowID {
		return nil, errors.New("simulated store failure")
	}
	s, ok := m.snapshots[snapKey(workflowID, channel, pt, date)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) TargetCandidates(_ context.Context, metricName string) ([]domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Target
	for _, t := range m.targets {
		if t.MetricName == metricName {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) HealthConfig(_ context.Context) (*domain.HealthConfig, error) {
	return m.config, nil
}

func (m *memRepo) WorkflowProduct(_ context.Context, workflowID string) (string, error) {
	return m.products[workflowID], nil
}

func (m *memRepo) UpsertFlag(_ context.Context, flag *domain.HealthFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := snapKey(flag.WorkflowID, flag.Channel, flag.PeriodType, flag.PeriodStartDate) + "|" + flag.MetricName
	cp := *flag
	m.flags[key] = &cp
	return nil
}

func (m *memRepo) Flags(_ context.Context, f health.FlagFilter) ([]domain.HealthFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.HealthFlag
	for _, fl := range m.flags {
		if f.WorkflowID != "" && fl.WorkflowID != f.WorkflowID {
			continue
		}
		if f.Status != "" && string(fl.Status) != f.Status {
			continue
		}
		out = append(out, *fl)
	}
	return out, nil
}

func defaults() domain.HealthConfig {
	return domain.HealthConfig{
		AmberFloor:     0.7,
		WoWAmberDrop:   0.15,
		WoWRedDrop:     0.30,
		RollupStrategy: domain.RollupWorstOf,
	}
}

var week = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

func weeklySnapshot(workflowID string, date time.Time, openRate *float64) *domain.MetricSnapshot {
	return &domain.MetricSnapshot{
		WorkflowID:      workflowID,
		Channel:         domain.ChannelEmail,
		PeriodType:      domain.PeriodWeek,
		PeriodStartDate: date,
		OpenRate:        openRate,
	}
}

func TestRecomputeRangeWritesFlagPerMetric(t *testing.T) {
	repo := newMemRepo()
	repo.addSnapshot(weeklySnapshot("wf-1", week, f64(15.0)))
	svc := health.NewService(repo, defaults())

	res, err := svc.RecomputeRange(context.Background(), week, week)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Processed != 1 || res.Errors != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(repo.flags) != len(enginehealth.EvaluatedMetrics) {
		t.Fatalf("expected %d flags, got %d", len(enginehealth.EvaluatedMetrics), len(repo.flags))
	}
}

func TestRecomputeUsesResolvedTargetAndDelta(t *testing.T) {
	repo := newMemRepo()
	repo.addSnapshot(weeklySnapshot("wf-1", week, f64(18.0)))
	repo.addSnapshot(weeklySnapshot("wf-1", week.AddDate(0, 0, -7), f64(20.0)))
	wf := "wf-1"
	repo.targets = []domain.Target{{
		MetricName:    "open_rate",
		WorkflowID:    &wf,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetValue:   20,
		AmberFloor:    0.7,
	}}
	svc := health.NewService(repo, defaults())

	if _, err := svc.RecomputeRange(context.Background(), week, week); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	flags, _ := svc.Flags(context.Background(), health.FlagFilter{WorkflowID: "wf-1"})
	var open *domain.HealthFlag
	for i := range flags {
		if flags[i].MetricName == "open_rate" && flags[i].PeriodStartDate.Equal(week) {
			open = &flags[i]
		}
	}
	if open == nil {
		t.Fatal("open_rate flag missing")
	}
	// 18.0 >= 20*0.7 and the -10% WoW is under the amber threshold.
	if open.Status != domain.StatusGreen {
		t.Errorf("status = %s (%s)", open.Status, open.Reason)
	}
	if open.DeltaWoW == nil || *open.DeltaWoW != -10.0 {
		t.Errorf("delta_wow = %v, want -10", open.DeltaWoW)
	}
	if open.TargetValue == nil || *open.TargetValue != 20 {
		t.Errorf("target_value = %v, want 20", open.TargetValue)
	}
}

func TestRecomputeMissingRatesDegradeToUnknown(t *testing.T) {
	repo := newMemRepo()
	// Snapshot exists but carries no rates at all.
	repo.addSnapshot(weeklySnapshot("wf-1", week, nil))
	svc := health.NewService(repo, defaults())

	res, err := svc.RecomputeRange(context.Background(), week, week)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Errors != 0 {
		t.Fatalf("missing data must not count as an error, got %d", res.Errors)
	}
	flags, _ := svc.Flags(context.Background(), health.FlagFilter{})
	for _, fl := range flags {
		if fl.Status != domain.StatusUnknown {
			t.Errorf("%s: status = %s, want unknown", fl.MetricName, fl.Status)
		}
		if fl.Reason != "No data available" {
			t.Errorf("%s: reason = %q", fl.MetricName, fl.Reason)
		}
	}
}

func TestRecomputeIsolatesFailures(t *testing.T) {
	repo := newMemRepo()
	repo.addSnapshot(weeklySnapshot("wf-ok", week, f64(15.0)))
	repo.addSnapshot(weeklySnapshot("wf-bad", week, f64(15.0)))
	repo.failSnapshotFor = "wf-bad"
	svc := health.NewService(repo, defaults())

	res, err := svc.RecomputeRange(context.Background(), week, week)
	if err != nil {
		t.Fatalf("a per-combination failure must not abort the batch: %v", err)
	}
	if res.Processed != 1 || res.Errors != 1 {
		t.Fatalf("result = %+v, want 1 processed / 1 error", res)
	}
	flags, _ := svc.Flags(context.Background(), health.FlagFilter{WorkflowID: "wf-ok"})
	if len(flags) == 0 {
		t.Fatal("healthy workflow should still have been processed")
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	repo.addSnapshot(weeklySnapshot("wf-1", week, f64(15.0)))
	svc := health.NewService(repo, defaults())

	svc.RecomputeRange(context.Background(), week, week)
	first := len(repo.flags)
	svc.RecomputeRange(context.Background(), week, week)
	if len(repo.flags) != first {
		t.Fatalf("recompute must upsert, not duplicate: %d -> %d", first, len(repo.flags))
	}
}

func TestRecomputeInvalidRange(t *testing.T) {
	svc := health.NewService(newMemRepo(), defaults())
	_, err := svc.RecomputeRange(context.Background(), week, week.AddDate(0, 0, -7))
	if err != health.ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestConfigFallsBackToDefaults(t *testing.T) {
	repo := newMemRepo()
	svc := health.NewService(repo, defaults())
	cfg := svc.Config(context.Background())
	if cfg.AmberFloor != 0.7 {
		t.Fatalf("expected defaults when store is empty, got %+v", cfg)
	}

	repo.config = &domain.HealthConfig{AmberFloor: 0.8, WoWAmberDrop: 0.1, WoWRedDrop: 0.2, RollupStrategy: domain.RollupWeighted}
	cfg = svc.Config(context.Background())
	if cfg.AmberFloor != 0.8 {
		t.Fatalf("stored config should win, got %+v", cfg)
	}
}

func TestResolveTargetPrefersWorkflowScope(t *testing.T) {
	repo := newMemRepo()
	wf, prod := "wf-1", "prod-1"
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.targets = []domain.Target{
		{MetricName: "open_rate", EffectiveFrom: base, TargetValue: 10, AmberFloor: 0.7, CreatedAt: base},
		{MetricName: "open_rate", ProductID: &prod, EffectiveFrom: base, TargetValue: 15, AmberFloor: 0.7, CreatedAt: base},
		{MetricName: "open_rate", WorkflowID: &wf, EffectiveFrom: base, TargetValue: 20, AmberFloor: 0.7, CreatedAt: base},
	}
	svc := health.NewService(repo, defaults())

	target, err := svc.ResolveTarget(context.Background(), enginehealth.TargetScope{
		MetricName: "open_rate",
		WorkflowID: "wf-1",
		ProductID:  "prod-1",
		Channel:    domain.ChannelEmail,
		PeriodType: domain.PeriodWeek,
		Date:       week,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if target == nil || target.TargetValue != 20 {
		t.Fatalf("expected workflow-scoped target, got %+v", target)
	}
}
