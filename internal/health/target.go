package health

import (
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

// TargetScope is the query context a target is resolved against.
type TargetScope struct {
	MetricName string
	WorkflowID string
	ProductID  string
	Channel    domain.Channel
	PeriodType domain.PeriodType
	Date       time.Time
}

// matches reports whether the candidate binds to this scope. Each non-nil
// scope field on the target must equal the query's value; a nil field is a
// wildcard at that level.
func matches(t *domain.Target, s TargetScope) bool {
	if t.MetricName != s.MetricName {
		return false
	}
	if t.PeriodType != nil && *t.PeriodType != s.PeriodType {
		return false
	}
	if t.WorkflowID != nil && *t.WorkflowID != s.WorkflowID {
		return false
	}
	if t.ProductID != nil && *t.ProductID != s.ProductID {
		return false
	}
	if t.Channel != nil && *t.Channel != s.Channel {
		return false
	}
	return t.Covers(s.Date)
}

// SelectTarget picks the single most specific target applicable to the scope
// from the candidate set, using fixed precedence workflow > product >
// channel > global. Returns nil when nothing applies; callers treat that as
// "unconfigured", never as an error.
//
// Two candidates at equal specificity covering the same date are a
// configuration error the UI should have prevented. The resolver stays
// deterministic anyway: most recently created wins. SelectTarget also
// reports the ambiguity so callers can log it.
func SelectTarget(candidates []domain.Target, scope TargetScope) (*domain.Target, bool) {
	var best *domain.Target
	ambiguous := false

	for i := range candidates {
		t := &candidates[i]
		if !matches(t, scope) {
			continue
		}
		if best == nil {
			best = t
			continue
		}
		switch {
		case t.Specificity() > best.Specificity():
			best = t
			ambiguous = false
		case t.Specificity() == best.Specificity():
			ambiguous = true
			if t.CreatedAt.After(best.CreatedAt) {
				best = t
			}
		}
	}

	if best == nil {
		return nil, false
	}
	out := *best
	return &out, ambiguous
}
