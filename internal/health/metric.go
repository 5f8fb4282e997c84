package health

// MetricClass is the evaluation family of a metric, resolved once at the
// boundary so evaluator branches are exhaustive rather than string-keyed.
type MetricClass int

const (
	// MetricUnknown is any metric name the engine has no rules for.
	// Unrecognized metrics never silently pass or fail.
	MetricUnknown MetricClass = iota

	// MetricGuardrail metrics are lower-is-better (unsub, bounce, complaint
	// rates).
	MetricGuardrail

	// MetricEngagement metrics are higher-is-better (open, click rates).
	MetricEngagement
)

// ClassifyMetric maps a metric name to its evaluation class.
func ClassifyMetric(name string) MetricClass {
	switch name {
	case "unsub_rate", "bounce_rate", "complaint_rate":
		return MetricGuardrail
	case "open_rate", "click_rate":
		return MetricEngagement
	}
	return MetricUnknown
}

// EvaluatedMetrics lists every metric name the engine evaluates, in the
// order flags are computed and displayed.
var EvaluatedMetrics = []string{
	"open_rate",
	"click_rate",
	"unsub_rate",
	"bounce_rate",
	"complaint_rate",
}

func (c MetricClass) String() string {
	switch c {
	case MetricGuardrail:
		return "guardrail"
	case MetricEngagement:
		return "engagement"
	}
	return "unknown"
}
