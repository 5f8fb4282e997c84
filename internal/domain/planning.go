package domain

import "time"

// OpportunityStatus enumerates the pipeline states of a growth opportunity.
type OpportunityStatus string

const (
	OpportunityProposed  OpportunityStatus = "proposed"
	OpportunityScoping   OpportunityStatus = "scoping"
	OpportunityCommitted OpportunityStatus = "committed"
	OpportunityShipped   OpportunityStatus = "shipped"
	OpportunityDropped   OpportunityStatus = "dropped"
)

// Opportunity is a sized piece of lifecycle work the team may take on.
type Opportunity struct {
	ID            string            `json:"id" db:"id"`
	Title         string            `json:"title" db:"title"`
	ProductID     string            `json:"product_id" db:"product_id"`
	Description   string            `json:"description" db:"description"`
	Status        OpportunityStatus `json:"status" db:"status"`
	EstimatedLift *float64          `json:"estimated_lift" db:"estimated_lift"`
	Owner         string            `json:"owner" db:"owner"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// ExperimentStatus enumerates lifecycle states of an experiment.
type ExperimentStatus string

const (
	ExperimentDraft     ExperimentStatus = "draft"
	ExperimentRunning   ExperimentStatus = "running"
	ExperimentConcluded ExperimentStatus = "concluded"
	ExperimentAbandoned ExperimentStatus = "abandoned"
)

// Experiment tracks a messaging test against a flow.
type Experiment struct {
	ID         string           `json:"id" db:"id"`
	Name       string           `json:"name" db:"name"`
	FlowID     *string          `json:"flow_id" db:"flow_id"`
	Hypothesis string           `json:"hypothesis" db:"hypothesis"`
	MetricName string           `json:"metric_name" db:"metric_name"`
	Status     ExperimentStatus `json:"status" db:"status"`
	StartedAt  *time.Time       `json:"started_at" db:"started_at"`
	EndedAt    *time.Time       `json:"ended_at" db:"ended_at"`
	Result     *string          `json:"result" db:"result"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}
