package flow

import (
	"context"

	"github.com/ignite/crm-atlas/internal/domain"
)

// ListFilter controls flow listing.
type ListFilter struct {
	ProductID string
	Purpose   string
	LiveOnly  bool
	Search    string
	Limit     int
	Offset    int
}

// UpdateFields holds the mutable fields for a flow update. Nil fields are
// not applied. ClearPriority / ClearSuppression explicitly null the
// corresponding column (a nil pointer alone means "leave unchanged").
type UpdateFields struct {
	Name                    *string          `json:"name"`
	Purpose                 *string          `json:"purpose"`
	TriggerType             *string          `json:"trigger_type"`
	Channels                []domain.Channel `json:"channels"`
	Frequency               *string          `json:"frequency"`
	Live                    *bool            `json:"live"`
	Priority                *int             `json:"priority"`
	ClearPriority           bool             `json:"clear_priority"`
	SuppressionRules        *string          `json:"suppression_rules"`
	ClearSuppression        bool             `json:"clear_suppression"`
	MaxFrequencyPerUserDays *int             `json:"max_frequency_per_user_days"`
}

// Repository defines the data access contract for flows.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single flow. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Flow, error)

	// List returns flows matching the filter, ordered by name.
	List(ctx context.Context, f ListFilter) ([]domain.Flow, int, error)

	// Create inserts a new flow and returns its ID.
	Create(ctx context.Context, fl *domain.Flow) (string, error)

	// Update modifies a flow. Only non-nil fields are applied.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes a flow.
	Delete(ctx context.Context, id string) error
}
