package planning

import (
	"context"

	"github.com/ignite/crm-atlas/internal/domain"
)

// ListFilter controls opportunity/experiment listing.
type ListFilter struct {
	ProductID string
	Status    string
	Limit     int
	Offset    int
}

// OpportunityUpdate holds mutable opportunity fields. Nil fields are not
// applied.
type OpportunityUpdate struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status"`
	EstimatedLift *float64 `json:"estimated_lift"`
	Owner         *string  `json:"owner"`
}

// ExperimentUpdate holds mutable experiment fields. Nil fields are not
// applied.
type ExperimentUpdate struct {
	Name       *string `json:"name"`
	Hypothesis *string `json:"hypothesis"`
	MetricName *string `json:"metric_name"`
	Status     *string `json:"status"`
	Result     *string `json:"result"`
}

// Repository defines the data access contract for planning records.
// Implementations must be safe for concurrent use.
type Repository interface {
	GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error)
	ListOpportunities(ctx context.Context, f ListFilter) ([]domain.Opportunity, int, error)
	CreateOpportunity(ctx context.Context, o *domain.Opportunity) (string, error)
	UpdateOpportunity(ctx context.Context, id string, u OpportunityUpdate) error
	DeleteOpportunity(ctx context.Context, id string) error

	GetExperiment(ctx context.Context, id string) (*domain.Experiment, error)
	ListExperiments(ctx context.Context, f ListFilter) ([]domain.Experiment, int, error)
	CreateExperiment(ctx context.Context, e *domain.Experiment) (string, error)
	UpdateExperiment(ctx context.Context, id string, u ExperimentUpdate) error
	DeleteExperiment(ctx context.Context, id string) error
}
