package health

import (
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

// Delta holds week-over-week and month-over-month percentage changes for a
// metric. Either side is nil when the comparison could not be computed
// (missing period, nil value, or a zero baseline).
type Delta struct {
	WoW *float64 `json:"delta_wow"`
	MoM *float64 `json:"delta_mom"`
}

// PercentChange returns ((current-previous)/previous)*100, or nil when
// either side is missing or the baseline is not strictly positive. A zero
// baseline would produce an infinite or meaningless percentage, so it
// degrades to nil instead.
func PercentChange(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	if *previous <= 0 {
		return nil
	}
	d := ((*current - *previous) / *previous) * 100
	return &d
}

// PrevWoWDate returns the period-start date of the week-over-week
// comparison: 7 days back for weekly periods, 30 days back otherwise.
func PrevWoWDate(periodType domain.PeriodType, date time.Time) time.Time {
	if periodType == domain.PeriodWeek {
		return date.AddDate(0, 0, -7)
	}
	return date.AddDate(0, 0, -30)
}

// PrevMoMDate returns the period-start date one calendar month back. Only
// meaningful for monthly periods; callers skip MoM entirely for weekly data.
func PrevMoMDate(date time.Time) time.Time {
	return date.AddDate(0, -1, 0)
}

// ComputeDelta derives WoW/MoM deltas for a metric given the current
// snapshot value and the values at the comparison dates. If the current
// value is nil no computation is attempted.
func ComputeDelta(periodType domain.PeriodType, current, prevWoW, prevMoM *float64) Delta {
	if current == nil {
		return Delta{}
	}
	d := Delta{WoW: PercentChange(current, prevWoW)}
	if periodType == domain.PeriodMonth {
		d.MoM = PercentChange(current, prevMoM)
	}
	return d
}
