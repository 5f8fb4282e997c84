package target

import (
	"context"

	"github.com/ignite/crm-atlas/internal/domain"
)

// ListFilter controls target listing.
type ListFilter struct {
	MetricName string
	WorkflowID string
	ProductID  string
	Channel    string
	Limit      int
	Offset     int
}

// UpdateFields holds the mutable fields for a target update. Nil fields are
// not applied.
type UpdateFields struct {
	TargetValue    *float64 `json:"target_value"`
	AmberFloor     *float64 `json:"amber_floor"`
	RedFloor       *float64 `json:"red_floor"`
	EffectiveUntil *string  `json:"effective_until"` // YYYY-MM-DD; empty string clears
}

// Repository defines the data access contract for targets.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single target. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Target, error)

	// List returns targets matching the filter, most specific first.
	List(ctx context.Context, f ListFilter) ([]domain.Target, int, error)

	// Create inserts a new target and returns its ID.
	Create(ctx context.Context, t *domain.Target) (string, error)

	// Update modifies a target. Only non-nil fields are applied.
	Update(ctx context.Context, id string, u UpdateFields) error

	// Delete removes a target.
	Delete(ctx context.Context, id string) error
}
