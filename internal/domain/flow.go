package domain

import (
	"strings"
	"time"
)

// FlowPurpose categorizes what a messaging flow is for.
type FlowPurpose string

const (
	PurposeActivation    FlowPurpose = "activation"
	PurposeRetention     FlowPurpose = "retention"
	PurposeWinback       FlowPurpose = "winback"
	PurposeTransactional FlowPurpose = "transactional"
)

// TriggerType describes how a flow is started.
type TriggerType string

const (
	TriggerEventBased TriggerType = "event_based"
	TriggerScheduled  TriggerType = "scheduled"
	TriggerManual     TriggerType = "manual"
)

// Flow is a lifecycle-messaging flow. Priority is 1-100, lower = higher
// priority; nil means the team never assigned one, which the conflict
// detector treats as a risk signal.
type Flow struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	ProductID   string      `json:"product_id" db:"product_id"`
	Purpose     FlowPurpose `json:"purpose" db:"purpose"`
	TriggerType TriggerType `json:"trigger_type" db:"trigger_type"`
	Channels    []Channel   `json:"channels" db:"channels"`
	Frequency   string      `json:"frequency" db:"frequency"`
	Live        bool        `json:"live" db:"live"`

	Priority                *int    `json:"priority" db:"priority"`
	SuppressionRules        *string `json:"suppression_rules" db:"suppression_rules"`
	MaxFrequencyPerUserDays *int    `json:"max_frequency_per_user_days" db:"max_frequency_per_user_days"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SendsDaily reports whether the flow's frequency descriptor is "Daily",
// case-insensitively.
func (f *Flow) SendsDaily() bool {
	return strings.EqualFold(strings.TrimSpace(f.Frequency), "daily")
}

// HasSuppressionRules reports whether the flow has a non-empty suppression
// policy.
func (f *Flow) HasSuppressionRules() bool {
	return f.SuppressionRules != nil && strings.TrimSpace(*f.SuppressionRules) != ""
}

// HasChannel reports whether the flow sends on the given channel.
func (f *Flow) HasChannel(c Channel) bool {
	for _, fc := range f.Channels {
		if fc == c {
			return true
		}
	}
	return false
}

// RiskBand labels a conflict risk score for display.
type RiskBand string

const (
	RiskHigh   RiskBand = "High Risk"
	RiskMedium RiskBand = "Medium Risk"
	RiskLow    RiskBand = "Low Risk"
)

// BandForScore maps a conflict risk score to its display band.
func BandForScore(score int) RiskBand {
	switch {
	case score >= 5:
		return RiskHigh
	case score >= 3:
		return RiskMedium
	}
	return RiskLow
}

// FlowConflict is a derived pairing of two live flows that share at least one
// channel. Conflicts are computed on demand and never stored.
type FlowConflict struct {
	FlowAID        string    `json:"flow_a_id"`
	FlowAName      string    `json:"flow_a_name"`
	FlowBID        string    `json:"flow_b_id"`
	FlowBName      string    `json:"flow_b_name"`
	SharedChannels []Channel `json:"shared_channels"`
	RiskScore      int       `json:"risk_score"`
	RiskBand       RiskBand  `json:"risk_band"`
	RiskFactors    []string  `json:"risk_factors"`
}
