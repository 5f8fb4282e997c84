package planning

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
)

// Service implements planning business logic.
type Service struct {
	repo Repository
}

// NewService creates a planning service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// OpportunityInput holds the fields for creating an opportunity.
type OpportunityInput struct {
	Title         string   `json:"title"`
	ProductID     string   `json:"product_id"`
	Description   string   `json:"description"`
	EstimatedLift *float64 `json:"estimated_lift"`
	Owner         string   `json:"owner"`
}

// CreateOpportunity validates and persists a new opportunity in proposed
// status.
func (s *Service) CreateOpportunity(ctx context.Context, input OpportunityInput) (*domain.Opportunity, error) {
	if input.Title == "" {
		return nil, ErrMissingTitle
	}
	o := &domain.Opportunity{
		ID:            uuid.New().String(),
		Title:         input.Title,
		ProductID:     input.ProductID,
		Description:   input.Description,
		Status:        domain.OpportunityProposed,
		EstimatedLift: input.EstimatedLift,
		Owner:         input.Owner,
	}
	id, err := s.repo.CreateOpportunity(ctx, o)
	if err != nil {
		return nil, err
	}
	o.ID = id
	return o, nil
}

func (s *Service) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	return s.repo.GetOpportunity(ctx, id)
}

func (s *Service) ListOpportunities(ctx context.Context, f ListFilter) ([]domain.Opportunity, int, error) {
	return s.repo.ListOpportunities(ctx, f)
}

func (s *Service) UpdateOpportunity(ctx context.Context, id string, u OpportunityUpdate) error {
	return s.repo.UpdateOpportunity(ctx, id, u)
}

func (s *Service) DeleteOpportunity(ctx context.Context, id string) error {
	return s.repo.DeleteOpportunity(ctx, id)
}

// ExperimentInput holds the fields for creating an experiment.
type ExperimentInput struct {
	Name       string  `json:"name"`
	FlowID     *string `json:"flow_id"`
	Hypothesis string  `json:"hypothesis"`
	MetricName string  `json:"metric_name"`
}

// CreateExperiment validates and persists a new experiment in draft status.
func (s *Service) CreateExperiment(ctx context.Context, input ExperimentInput) (*domain.Experiment, error) {
	if input.Name == "" {
		return nil, ErrMissingTitle
	}
	e := &domain.Experiment{
		ID:         uuid.New().String(),
		Name:       input.Name,
		FlowID:     input.FlowID,
		Hypothesis: input.Hypothesis,
		MetricName: input.MetricName,
		Status:     domain.ExperimentDraft,
	}
	id, err := s.repo.CreateExperiment(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return e, nil
}

func (s *Service) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	return s.repo.GetExperiment(ctx, id)
}

func (s *Service) ListExperiments(ctx context.Context, f ListFilter) ([]domain.Experiment, int, error) {
	return s.repo.ListExperiments(ctx, f)
}

// StartExperiment transitions a draft experiment to running.
func (s *Service) StartExperiment(ctx context.Context, id string) error {
	e, err := s.repo.GetExperiment(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != domain.ExperimentDraft {
		return ErrInvalidTransition
	}
	status := string(domain.ExperimentRunning)
	return s.repo.UpdateExperiment(ctx, id, ExperimentUpdate{Status: &status})
}

// ConcludeExperiment transitions a running experiment to concluded with a
// result note.
func (s *Service) ConcludeExperiment(ctx context.Context, id, result string) error {
	e, err := s.repo.GetExperiment(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != domain.ExperimentRunning {
		return ErrInvalidTransition
	}
	status := string(domain.ExperimentConcluded)
	return s.repo.UpdateExperiment(ctx, id, ExperimentUpdate{Status: &status, Result: &result})
}

func (s *Service) UpdateExperiment(ctx context.Context, id string, u ExperimentUpdate) error {
	return s.repo.UpdateExperiment(ctx, id, u)
}

func (s *Service) DeleteExperiment(ctx context.Context, id string) error {
	return s.repo.DeleteExperiment(ctx, id)
}
