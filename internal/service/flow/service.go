package flow

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/health"
)

// Service implements flow business logic.
type Service struct {
	repo Repository
}

// NewService creates a flow service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single flow.
func (s *Service) Get(ctx context.Context, id string) (*domain.Flow, error) {
	return s.repo.Get(ctx, id)
}

// List returns flows matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Flow, int, error) {
	return s.repo.List(ctx, f)
}

// CreateInput holds the fields for creating a new flow.
type CreateInput struct {
	Name                    string           `json:"name"`
	ProductID               string           `json:"product_id"`
	Purpose                 string           `json:"purpose"`
	TriggerType             string           `json:"trigger_type"`
	Channels                []domain.Channel `json:"channels"`
	Frequency               string           `json:"frequency"`
	Live                    bool             `json:"live"`
	Priority                *int             `json:"priority"`
	SuppressionRules        *string          `json:"suppression_rules"`
	MaxFrequencyPerUserDays *int             `json:"max_frequency_per_user_days"`
}

// Create validates and persists a new flow.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Flow, error) {
	if input.Name == "" {
		return nil, ErrMissingName
	}
	if len(input.Channels) == 0 {
		return nil, ErrMissingChannels
	}
	if input.Priority != nil && (*input.Priority < 1 || *input.Priority > 100) {
		return nil, ErrInvalidPriority
	}

	fl := &domain.Flow{
		ID:                      uuid.New().String(),
		Name:                    input.Name,
		ProductID:               input.ProductID,
		Purpose:                 domain.FlowPurpose(input.Purpose),
		TriggerType:             domain.TriggerType(input.TriggerType),
		Channels:                input.Channels,
		Frequency:               input.Frequency,
		Live:                    input.Live,
		Priority:                input.Priority,
		SuppressionRules:        input.SuppressionRules,
		MaxFrequencyPerUserDays: input.MaxFrequencyPerUserDays,
	}

	id, err := s.repo.Create(ctx, fl)
	if err != nil {
		return nil, err
	}
	fl.ID = id
	return fl, nil
}

// Update modifies mutable flow fields.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) error {
	if u.Priority != nil && (*u.Priority < 1 || *u.Priority > 100) {
		return ErrInvalidPriority
	}
	return s.repo.Update(ctx, id, u)
}

// Delete removes a flow.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Conflicts loads the live flow set and scores every overlapping pair.
// Always computed fresh; the result reflects the flows as stored right now.
func (s *Service) Conflicts(ctx context.Context) ([]domain.FlowConflict, error) {
	flows, _, err := s.repo.List(ctx, ListFilter{LiveOnly: true})
	if err != nil {
		return nil, err
	}
	return health.DetectConflicts(flows), nil
}
