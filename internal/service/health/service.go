package health

import (
	"context"
	"log"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/health"
)

// Service implements health-flag recomputation and queries.
type Service struct {
	repo     Repository
	defaults domain.HealthConfig
}

// NewService creates a health service. The defaults config is used whenever
// the store has no crm_health_config row.
func NewService(repo Repository, defaults domain.HealthConfig) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// RecomputeResult reports the outcome of a batch recompute pass.
type RecomputeResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// RecomputeRange re-evaluates every snapshot combination whose period start
// falls within [start, end] and upserts one flag per evaluated metric.
// Processing is sequential and fail-isolated: a store failure on one
// combination is logged and counted, then the batch moves on. Missing data
// is never a failure; it degrades to unknown flags.
func (s *Service) RecomputeRange(ctx context.Context, start, end time.Time) (RecomputeResult, error) {
	if start.After(end) {
		return RecomputeResult{}, ErrInvalidRange
	}

	cfg := s.config(ctx)

	keys, err := s.repo.SnapshotKeys(ctx, start, end)
	if err != nil {
		return RecomputeResult{}, err
	}

	// Target rows change rarely; fetch once per metric for the whole batch.
	candidates := make(map[string][]domain.Target, len(health.EvaluatedMetrics))
	for _, metric := range health.EvaluatedMetrics {
		rows, err := s.repo.TargetCandidates(ctx, metric)
		if err != nil {
			return RecomputeResult{}, err
		}
		candidates[metric] = rows
	}

	var res RecomputeResult
	for _, key := range keys {
		if err := s.recomputeOne(ctx, key, cfg, candidates); err != nil {
			log.Printf("[health.Service] recompute %s/%s %s %s: %v",
				key.WorkflowID, key.Channel, key.PeriodType, key.PeriodStartDate.Format("2006-01-02"), err)
			res.Errors++
			continue
		}
		res.Processed++
	}

	log.Printf("[health.Service] recompute %s..%s: %d processed, %d errors",
		start.Format("2006-01-02"), end.Format("2006-01-02"), res.Processed, res.Errors)
	return res, nil
}

func (s *Service) recomputeOne(ctx context.Context, key SnapshotKey, cfg domain.HealthConfig, candidates map[string][]domain.Target) error {
	snap, err := s.repo.Snapshot(ctx, key.WorkflowID, key.Channel, key.PeriodType, key.PeriodStartDate)
	if err != nil {
		return err
	}

	prevWoW, err := s.repo.Snapshot(ctx, key.WorkflowID, key.Channel, key.PeriodType, health.PrevWoWDate(key.PeriodType, key.PeriodStartDate))
	if err != nil {
		return err
	}
	var prevMoM *domain.MetricSnapshot
	if key.PeriodType == domain.PeriodMonth {
		prevMoM, err = s.repo.Snapshot(ctx, key.WorkflowID, key.Channel, key.PeriodType, health.PrevMoMDate(key.PeriodStartDate))
		if err != nil {
			return err
		}
	}

	productID, err := s.repo.WorkflowProduct(ctx, key.WorkflowID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, metric := range health.EvaluatedMetrics {
		var value, wowPrev, momPrev *float64
		if snap != nil {
			value = snap.RateFor(metric)
		}
		if prevWoW != nil {
			wowPrev = prevWoW.RateFor(metric)
		}
		if prevMoM != nil {
			momPrev = prevMoM.RateFor(metric)
		}

		delta := health.ComputeDelta(key.PeriodType, value, wowPrev, momPrev)

		target, ambiguous := health.SelectTarget(candidates[metric], health.TargetScope{
			MetricName: metric,
			WorkflowID: key.WorkflowID,
			ProductID:  productID,
			Channel:    key.Channel,
			PeriodType: key.PeriodType,
			Date:       key.PeriodStartDate,
		})
		if ambiguous {
			log.Printf("[health.Service] WARNING: overlapping targets at equal specificity for %s (workflow %s); using most recently created",
				metric, key.WorkflowID)
		}

		eval := health.Evaluate(metric, value, target, delta.WoW, cfg)

		flag := &domain.HealthFlag{
			WorkflowID:      key.WorkflowID,
			Channel:         key.Channel,
			PeriodType:      key.PeriodType,
			PeriodStartDate: key.PeriodStartDate,
			MetricName:      metric,
			Status:          eval.Status,
			Value:           value,
			Reason:          eval.Reason,
			DeltaWoW:        delta.WoW,
			DeltaMoM:        delta.MoM,
			ComputedAt:      now,
		}
		if target != nil {
			tv := target.TargetValue
			flag.TargetValue = &tv
		}

		if err := s.repo.UpsertFlag(ctx, flag); err != nil {
			return err
		}
	}
	return nil
}

// Flags lists persisted health flags.
func (s *Service) Flags(ctx context.Context, f FlagFilter) ([]domain.HealthFlag, error) {
	return s.repo.Flags(ctx, f)
}

// ResolveTarget resolves the most specific applicable target for an ad-hoc
// query. Returns nil when the metric is unconfigured at every scope level.
func (s *Service) ResolveTarget(ctx context.Context, scope health.TargetScope) (*domain.Target, error) {
	rows, err := s.repo.TargetCandidates(ctx, scope.MetricName)
	if err != nil {
		return nil, err
	}
	target, ambiguous := health.SelectTarget(rows, scope)
	if ambiguous {
		log.Printf("[health.Service] WARNING: overlapping targets at equal specificity for %s; using most recently created", scope.MetricName)
	}
	return target, nil
}

// Config returns the effective evaluation config (stored row or defaults).
func (s *Service) Config(ctx context.Context) domain.HealthConfig {
	return s.config(ctx)
}

func (s *Service) config(ctx context.Context) domain.HealthConfig {
	stored, err := s.repo.HealthConfig(ctx)
	if err != nil {
		log.Printf("[health.Service] config read failed, using defaults: %v", err)
		return s.defaults
	}
	if stored == nil {
		return s.defaults
	}
	return *stored
}
