package health

import (
	"context"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

// SnapshotKey identifies one recompute unit: a workflow/channel/period
// combination with data in the requested range.
type SnapshotKey struct {
	WorkflowID      string
	Channel         domain.Channel
	PeriodType      domain.PeriodType
	PeriodStartDate time.Time
}

// FlagFilter controls health-flag listing.
type FlagFilter struct {
	WorkflowID string
	Channel    string
	PeriodType string
	Status     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// Repository defines the data access contract for health recomputation and
// flag queries. Implementations must be safe for concurrent use.
type Repository interface {
	// SnapshotKeys returns the distinct snapshot combinations whose
	// period_start_date falls within [start, end].
	SnapshotKeys(ctx context.Context, start, end time.Time) ([]SnapshotKey, error)

	// Snapshot returns the snapshot for the given natural key, or nil when
	// no row exists. Absence is not an error.
	Snapshot(ctx context.Context, workflowID string, channel domain.Channel, periodType domain.PeriodType, date time.Time) (*domain.MetricSnapshot, error)

	// TargetCandidates returns every target row for the metric, regardless
	// of scope. The engine performs specificity selection.
	TargetCandidates(ctx context.Context, metricName string) ([]domain.Target, error)

	// HealthConfig returns the stored evaluation config, or nil when the
	// row has never been written (callers fall back to defaults).
	HealthConfig(ctx context.Context) (*domain.HealthConfig, error)

	// WorkflowProduct returns the product a workflow belongs to, or ""
	// when the workflow is unknown. Resolution still proceeds against
	// channel/global targets in that case.
	WorkflowProduct(ctx context.Context, workflowID string) (string, error)

	// UpsertFlag writes a flag by its natural key (workflow, channel,
	// period_type, period_start_date, metric_name); recomputes overwrite.
	UpsertFlag(ctx context.Context, flag *domain.HealthFlag) error

	// Flags lists persisted flags matching the filter, newest period first.
	Flags(ctx context.Context, f FlagFilter) ([]domain.HealthFlag, error)
}
