package target

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
)

// Service implements target business logic.
type Service struct {
	repo Repository
}

// NewService creates a target service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single target.
func (s *Service) Get(ctx context.Context, id string) (*domain.Target, error) {
	return s.repo.Get(ctx, id)
}

// List returns targets matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Target, int, error) {
	return s.repo.List(ctx, f)
}

// CreateInput holds the fields for creating a new target.
type CreateInput struct {
	MetricName     string     `json:"metric_name"`
	WorkflowID     *string    `json:"workflow_id"`
	ProductID      *string    `json:"product_id"`
	Channel        *string    `json:"channel"`
	PeriodType     *string    `json:"period_type"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until"`
	TargetValue    float64    `json:"target_value"`
	AmberFloor     float64    `json:"amber_floor"`
	RedFloor       *float64   `json:"red_floor"`
}

// CreateResult carries the created target plus an overlap warning when the
// new row collides with an existing target at the same specificity level.
// The write still succeeds; the health engine breaks ties deterministically,
// but the data should be cleaned up.
type CreateResult struct {
	Target  *domain.Target `json:"target"`
	Warning string         `json:"warning,omitempty"`
}

// Create validates and persists a new target, checking for effective-date
// overlap against existing targets of equal specificity.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if input.MetricName == "" {
		return nil, ErrInvalidMetric
	}
	if input.AmberFloor <= 0 || input.AmberFloor > 1 {
		return nil, ErrInvalidFloor
	}

	t := &domain.Target{
		ID:             uuid.New().String(),
		MetricName:     input.MetricName,
		WorkflowID:     input.WorkflowID,
		ProductID:      input.ProductID,
		EffectiveFrom:  input.EffectiveFrom,
		EffectiveUntil: input.EffectiveUntil,
		TargetValue:    input.TargetValue,
		AmberFloor:     input.AmberFloor,
		RedFloor:       input.RedFloor,
	}
	if input.Channel != nil {
		c := domain.Channel(*input.Channel)
		t.Channel = &c
	}
	if input.PeriodType != nil {
		pt := domain.PeriodType(*input.PeriodType)
		t.PeriodType = &pt
	}
	if t.EffectiveFrom.IsZero() {
		t.EffectiveFrom = time.Now().UTC().Truncate(24 * time.Hour)
	}

	warning := s.overlapWarning(ctx, t)

	id, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &CreateResult{Target: t, Warning: warning}, nil
}

// Update modifies mutable target fields.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.AmberFloor != nil && (*u.AmberFloor <= 0 || *u.AmberFloor > 1) {
		return ErrInvalidFloor
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a target.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// overlapWarning checks existing targets for an equal-specificity row whose
// effective range intersects the new target's. Best effort: a listing
// failure only loses the warning, never the write.
func (s *Service) overlapWarning(ctx context.Context, t *domain.Target) string {
	existing, _, err := s.repo.List(ctx, ListFilter{MetricName: t.MetricName})
	if err != nil {
		log.Printf("[target.Service] overlap check skipped: %v", err)
		return ""
	}
	for i := range existing {
		e := &existing[i]
		if e.Specificity() != t.Specificity() {
			continue
		}
		if !sameScope(e, t) {
			continue
		}
		if rangesOverlap(e, t) {
			return "overlaps an existing target of equal specificity; the most recently created row will win at evaluation time"
		}
	}
	return ""
}

func sameScope(a, b *domain.Target) bool {
	return eqStr(a.WorkflowID, b.WorkflowID) &&
		eqStr(a.ProductID, b.ProductID) &&
		eqChannel(a.Channel, b.Channel) &&
		eqPeriod(a.PeriodType, b.PeriodType)
}

func rangesOverlap(a, b *domain.Target) bool {
	aEnd := a.EffectiveUntil
	bEnd := b.EffectiveUntil
	if aEnd != nil && aEnd.Before(b.EffectiveFrom) {
		return false
	}
	if bEnd != nil && bEnd.Before(a.EffectiveFrom) {
		return false
	}
	return true
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqChannel(a, b *domain.Channel) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqPeriod(a, b *domain.PeriodType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
