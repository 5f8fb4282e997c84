package domain

import (
	"time"
)

// PeriodType enumerates the reporting granularities a snapshot can cover.
type PeriodType string

const (
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

// Channel identifies a messaging channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// MetricSnapshot is one row of channel performance for a workflow over a
// single period. Snapshots are immutable once computed for a given natural
// key (workflow_id, channel, period_type, period_start_date); re-imports
// overwrite by that key.
type MetricSnapshot struct {
	ID              string     `json:"id" db:"id"`
	WorkflowID      string     `json:"workflow_id" db:"workflow_id"`
	Channel         Channel    `json:"channel" db:"channel"`
	PeriodType      PeriodType `json:"period_type" db:"period_type"`
	PeriodStartDate time.Time  `json:"period_start_date" db:"period_start_date"`

	Sends      int `json:"sends" db:"sends"`
	Delivered  int `json:"delivered" db:"delivered"`
	Opens      int `json:"opens" db:"opens"`
	Clicks     int `json:"clicks" db:"clicks"`
	Unsubs     int `json:"unsubs" db:"unsubs"`
	Bounces    int `json:"bounces" db:"bounces"`
	Complaints int `json:"complaints" db:"complaints"`

	// Derived rates, as percentages (e.g. 21.5 means 21.5%). Nil when the
	// importer could not derive them (zero sends).
	OpenRate      *float64 `json:"open_rate" db:"open_rate"`
	ClickRate     *float64 `json:"click_rate" db:"click_rate"`
	UnsubRate     *float64 `json:"unsub_rate" db:"unsub_rate"`
	BounceRate    *float64 `json:"bounce_rate" db:"bounce_rate"`
	ComplaintRate *float64 `json:"complaint_rate" db:"complaint_rate"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RateFor returns the named rate field, or nil if the metric name is not a
// rate this snapshot carries.
func (s *MetricSnapshot) RateFor(metricName string) *float64 {
	switch metricName {
	case "open_rate":
		return s.OpenRate
	case "click_rate":
		return s.ClickRate
	case "unsub_rate":
		return s.UnsubRate
	case "bounce_rate":
		return s.BounceRate
	case "complaint_rate":
		return s.ComplaintRate
	}
	return nil
}

// Target is a scoped KPI configuration row. Scope fields are nil for the
// levels the target does not bind; a target with all scope fields nil is
// global. Specificity ordering is workflow > product > channel > global.
type Target struct {
	ID         string     `json:"id" db:"id"`
	MetricName string     `json:"metric_name" db:"metric_name"`
	WorkflowID *string    `json:"workflow_id" db:"workflow_id"`
	ProductID  *string    `json:"product_id" db:"product_id"`
	Channel    *Channel   `json:"channel" db:"channel"`
	PeriodType *PeriodType `json:"period_type" db:"period_type"`

	EffectiveFrom  time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until" db:"effective_until"`

	TargetValue float64  `json:"target_value" db:"target_value"`
	AmberFloor  float64  `json:"amber_floor" db:"amber_floor"`
	RedFloor    *float64 `json:"red_floor" db:"red_floor"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Covers reports whether the target's effective range includes the date.
func (t *Target) Covers(date time.Time) bool {
	if date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveUntil != nil && date.After(*t.EffectiveUntil) {
		return false
	}
	return true
}

// Specificity returns the scope rank of the target: higher is more specific.
// workflow=3, product=2, channel=1, global=0.
func (t *Target) Specificity() int {
	switch {
	case t.WorkflowID != nil:
		return 3
	case t.ProductID != nil:
		return 2
	case t.Channel != nil:
		return 1
	}
	return 0
}

// RollupStrategy controls how per-product health is aggregated.
type RollupStrategy string

const (
	RollupWorstOf  RollupStrategy = "worst_of"
	RollupWeighted RollupStrategy = "weighted"
)

// HealthConfig holds the global evaluation knobs. There is a single row in
// the store; callers pass an explicit value into the evaluator rather than
// reading shared state.
type HealthConfig struct {
	// AmberFloor is the engagement-metric multiplier applied to a target to
	// derive the amber threshold when a target's own floor is unset.
	AmberFloor float64 `json:"amber_floor" db:"amber_floor"`

	// WoWAmberDrop and WoWRedDrop are fractional week-over-week decline
	// thresholds (0.15 means a 15% decline) for target-less evaluation.
	WoWAmberDrop float64 `json:"wow_amber_drop" db:"wow_amber_drop"`
	WoWRedDrop   float64 `json:"wow_red_drop" db:"wow_red_drop"`

	RollupStrategy RollupStrategy `json:"rollup_strategy" db:"rollup_strategy"`
}

// HealthStatus is the RAG classification of a metric.
type HealthStatus string

const (
	StatusGreen   HealthStatus = "green"
	StatusAmber   HealthStatus = "amber"
	StatusRed     HealthStatus = "red"
	StatusUnknown HealthStatus = "unknown"
)

// Rank orders statuses by severity for worst-of rollups. Unknown ranks below
// green: absence of data is not an incident.
func (s HealthStatus) Rank() int {
	switch s {
	case StatusRed:
		return 3
	case StatusAmber:
		return 2
	case StatusGreen:
		return 1
	}
	return 0
}

// HealthFlag is the persisted output of one RAG evaluation. Upserted on its
// natural key (workflow_id, channel, period_type, period_start_date,
// metric_name) so recomputation is idempotent.
type HealthFlag struct {
	ID              string       `json:"id" db:"id"`
	WorkflowID      string       `json:"workflow_id" db:"workflow_id"`
	Channel         Channel      `json:"channel" db:"channel"`
	PeriodType      PeriodType   `json:"period_type" db:"period_type"`
	PeriodStartDate time.Time    `json:"period_start_date" db:"period_start_date"`
	MetricName      string       `json:"metric_name" db:"metric_name"`
	Status          HealthStatus `json:"status" db:"status"`
	Value           *float64     `json:"value" db:"value"`
	TargetValue     *float64     `json:"target_value" db:"target_value"`
	Reason          string       `json:"reason" db:"reason"`
	DeltaWoW        *float64     `json:"delta_wow" db:"delta_wow"`
	DeltaMoM        *float64     `json:"delta_mom" db:"delta_mom"`
	ComputedAt      time.Time    `json:"computed_at" db:"computed_at"`
}
