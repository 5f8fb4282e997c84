package health

import (
	"fmt"

	"github.com/ignite/crm-atlas/internal/domain"
)

// Evaluation is the outcome of one RAG classification. Reason strings are
// shown verbatim in the dashboard and exported reports, so their formatting
// is part of the contract: guardrail metrics render with 2 decimal places,
// engagement metrics with 1.
type Evaluation struct {
	Status domain.HealthStatus `json:"status"`
	Reason string              `json:"reason"`
}

// defaultRedFloorRatio derives a red floor from a target's amber floor when
// the target doesn't set one. Inherited business rule, pending product-owner
// confirmation.
const defaultRedFloorRatio = 0.7

// Evaluate classifies a metric value into green/amber/red/unknown.
//
// Precedence: a nil value is always unknown. A nil target falls back to
// delta-only evaluation using the config's WoW drop thresholds; without a
// target only "declining" can be established, never "acceptable", so the
// non-declining case is unknown rather than green.
func Evaluate(metricName string, value *float64, target *domain.Target, deltaWoW *float64, cfg domain.HealthConfig) Evaluation {
	if value == nil {
		return Evaluation{Status: domain.StatusUnknown, Reason: "No data available"}
	}

	class := ClassifyMetric(metricName)

	if target == nil {
		return evaluateWithoutTarget(metricName, class, *value, deltaWoW, cfg)
	}

	switch class {
	case MetricGuardrail:
		return evaluateGuardrail(metricName, *value, target, deltaWoW, cfg)
	case MetricEngagement:
		return evaluateEngagement(metricName, *value, target, deltaWoW, cfg)
	}

	// Fail-safe: a metric with a resolved target but no evaluation rules
	// must never silently pass or fail.
	return Evaluation{
		Status: domain.StatusUnknown,
		Reason: fmt.Sprintf("Metric %q is not configured for evaluation", metricName),
	}
}

// decimals returns the display precision for the metric class.
func decimals(class MetricClass) int {
	if class == MetricGuardrail {
		return 2
	}
	return 1
}

func pct(v float64, dp int) string {
	return fmt.Sprintf("%.*f%%", dp, v)
}

func signedPct(v float64, dp int) string {
	return fmt.Sprintf("%+.*f%%", dp, v)
}

// wowSuffix appends the observed WoW delta to a value-based reason.
func wowSuffix(deltaWoW *float64, dp int) string {
	if deltaWoW == nil {
		return ""
	}
	return fmt.Sprintf(" (WoW %s)", signedPct(*deltaWoW, dp))
}

func evaluateWithoutTarget(metricName string, class MetricClass, value float64, deltaWoW *float64, cfg domain.HealthConfig) Evaluation {
	dp := decimals(class)

	if deltaWoW != nil {
		// Thresholds are fractions; deltas are percentage points.
		switch {
		case *deltaWoW <= -cfg.WoWRedDrop*100:
			return Evaluation{
				Status: domain.StatusRed,
				Reason: fmt.Sprintf("%s at %s fell %s WoW with no target configured (red drop threshold %.0f%%)",
					metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWRedDrop*100),
			}
		case *deltaWoW <= -cfg.WoWAmberDrop*100:
			return Evaluation{
				Status: domain.StatusAmber,
				Reason: fmt.Sprintf("%s at %s fell %s WoW with no target configured (amber drop threshold %.0f%%)",
					metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWAmberDrop*100),
			}
		}
	}

	return Evaluation{
		Status: domain.StatusUnknown,
		Reason: fmt.Sprintf("No target configured for %s", metricName),
	}
}

// evaluateGuardrail handles lower-is-better metrics. The red threshold is
// the target stretched by the inverse amber margin (target / amber_floor);
// WoW *increases* past the config thresholds also escalate.
func evaluateGuardrail(metricName string, value float64, target *domain.Target, deltaWoW *float64, cfg domain.HealthConfig) Evaluation {
	dp := decimals(MetricGuardrail)

	amberFloor := target.AmberFloor
	if amberFloor <= 0 {
		amberFloor = cfg.AmberFloor
	}
	redThreshold := target.TargetValue / amberFloor

	wowRise := deltaWoW != nil && *deltaWoW >= cfg.WoWRedDrop*100
	if value > redThreshold || wowRise {
		if value > redThreshold {
			return Evaluation{
				Status: domain.StatusRed,
				Reason: fmt.Sprintf("%s at %s is above red threshold %s (target %s)%s",
					metricName, pct(value, dp), pct(redThreshold, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
			}
		}
		return Evaluation{
			Status: domain.StatusRed,
			Reason: fmt.Sprintf("%s at %s rose %s WoW (red rise threshold %.0f%%)",
				metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWRedDrop*100),
		}
	}

	wowRise = deltaWoW != nil && *deltaWoW >= cfg.WoWAmberDrop*100
	if value > target.TargetValue || wowRise {
		if value > target.TargetValue {
			return Evaluation{
				Status: domain.StatusAmber,
				Reason: fmt.Sprintf("%s at %s is above target %s%s",
					metricName, pct(value, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
			}
		}
		return Evaluation{
			Status: domain.StatusAmber,
			Reason: fmt.Sprintf("%s at %s rose %s WoW (amber rise threshold %.0f%%)",
				metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWAmberDrop*100),
		}
	}

	return Evaluation{
		Status: domain.StatusGreen,
		Reason: fmt.Sprintf("%s at %s is within target %s%s",
			metricName, pct(value, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
	}
}

// evaluateEngagement handles higher-is-better metrics. Floors multiply the
// target downward; WoW *declines* past the config thresholds also escalate.
func evaluateEngagement(metricName string, value float64, target *domain.Target, deltaWoW *float64, cfg domain.HealthConfig) Evaluation {
	dp := decimals(MetricEngagement)

	amberFloor := target.AmberFloor
	if amberFloor <= 0 {
		amberFloor = cfg.AmberFloor
	}
	redFloor := amberFloor * defaultRedFloorRatio
	if target.RedFloor != nil {
		redFloor = *target.RedFloor
	}

	redThreshold := target.TargetValue * redFloor
	amberThreshold := target.TargetValue * amberFloor

	wowDrop := deltaWoW != nil && *deltaWoW <= -cfg.WoWRedDrop*100
	if value < redThreshold || wowDrop {
		if value < redThreshold {
			return Evaluation{
				Status: domain.StatusRed,
				Reason: fmt.Sprintf("%s at %s is below red threshold %s (target %s)%s",
					metricName, pct(value, dp), pct(redThreshold, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
			}
		}
		return Evaluation{
			Status: domain.StatusRed,
			Reason: fmt.Sprintf("%s at %s fell %s WoW (red drop threshold %.0f%%)",
				metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWRedDrop*100),
		}
	}

	wowDrop = deltaWoW != nil && *deltaWoW <= -cfg.WoWAmberDrop*100
	if value < amberThreshold || wowDrop {
		if value < amberThreshold {
			return Evaluation{
				Status: domain.StatusAmber,
				Reason: fmt.Sprintf("%s at %s is below amber threshold %s (target %s)%s",
					metricName, pct(value, dp), pct(amberThreshold, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
			}
		}
		return Evaluation{
			Status: domain.StatusAmber,
			Reason: fmt.Sprintf("%s at %s fell %s WoW (amber drop threshold %.0f%%)",
				metricName, pct(value, dp), signedPct(*deltaWoW, dp), cfg.WoWAmberDrop*100),
		}
	}

	return Evaluation{
		Status: domain.StatusGreen,
		Reason: fmt.Sprintf("%s at %s meets amber threshold %s (target %s)%s",
			metricName, pct(value, dp), pct(amberThreshold, dp), pct(target.TargetValue, dp), wowSuffix(deltaWoW, dp)),
	}
}
