package ingest

import "strings"

// CanonicalField is a normalized column name used across all import sources.
type CanonicalField string

const (
	FieldWorkflowID      CanonicalField = "workflow_id"
	FieldChannel         CanonicalField = "channel"
	FieldPeriodType      CanonicalField = "period_type"
	FieldPeriodStartDate CanonicalField = "period_start_date"
	FieldSends           CanonicalField = "sends"
	FieldDelivered       CanonicalField = "delivered"
	FieldOpens           CanonicalField = "opens"
	FieldClicks          CanonicalField = "clicks"
	FieldUnsubs          CanonicalField = "unsubs"
	FieldBounces         CanonicalField = "bounces"
	FieldComplaints      CanonicalField = "complaints"
	FieldOpenRate        CanonicalField = "open_rate"
	FieldClickRate       CanonicalField = "click_rate"
	FieldUnsubRate       CanonicalField = "unsub_rate"
	FieldBounceRate      CanonicalField = "bounce_rate"
	FieldComplaintRate   CanonicalField = "complaint_rate"
)

// columnAliases maps lowercase header names to canonical fields.
// When multiple raw headers mean the same thing, they all map here.
var columnAliases = map[string]CanonicalField{
	// Workflow
	"workflow_id":   FieldWorkflowID,
	"workflow":      FieldWorkflowID,
	"flow_id":       FieldWorkflowID,
	"flow":          FieldWorkflowID,
	"campaign_id":   FieldWorkflowID, // braze exports
	"canvas_id":     FieldWorkflowID,

	// Channel
	"channel":      FieldChannel,
	"medium":       FieldChannel,
	"message_type": FieldChannel,

	// Period
	"period_type": FieldPeriodType,
	"granularity": FieldPeriodType,
	"period":      FieldPeriodType,

	"period_start_date": FieldPeriodStartDate,
	"period_start":      FieldPeriodStartDate,
	"week_start":        FieldPeriodStartDate,
	"month_start":       FieldPeriodStartDate,
	"date":              FieldPeriodStartDate,

	// Counts
	"sends":      FieldSends,
	"sent":       FieldSends,
	"send_count": FieldSends,
	"sends_total": FieldSends,

	"delivered":       FieldDelivered,
	"deliveries":      FieldDelivered,
	"delivered_count": FieldDelivered,

	"opens":        FieldOpens,
	"unique_opens": FieldOpens,
	"open_count":   FieldOpens,

	"clicks":        FieldClicks,
	"unique_clicks": FieldClicks,
	"click_count":   FieldClicks,

	"unsubs":            FieldUnsubs,
	"unsubscribes":      FieldUnsubs,
	"unsubscribe_count": FieldUnsubs,
	"opt_outs":          FieldUnsubs,

	"bounces":      FieldBounces,
	"bounced":      FieldBounces,
	"bounce_count": FieldBounces,

	"complaints":      FieldComplaints,
	"spam_complaints": FieldComplaints,
	"spam_reports":    FieldComplaints,

	// Rates (optional; derived from counts when absent)
	"open_rate":       FieldOpenRate,
	"click_rate":      FieldClickRate,
	"ctr":             FieldClickRate,
	"unsub_rate":      FieldUnsubRate,
	"unsubscribe_rate": FieldUnsubRate,
	"bounce_rate":     FieldBounceRate,
	"complaint_rate":  FieldComplaintRate,
	"spam_rate":       FieldComplaintRate,
}

// MapColumns maps CSV header positions to canonical fields. Returns nil when
// the header has no workflow or period-start column, since rows could not be
// keyed.
func MapColumns(header []string) map[int]CanonicalField {
	mapping := make(map[int]CanonicalField)
	hasWorkflow, hasDate := false, false

	for i, raw := range header {
		key := strings.ToLower(strings.TrimSpace(raw))
		field, ok := columnAliases[key]
		if !ok {
			continue
		}
		// First alias wins when a header repeats a meaning.
		dup := false
		for _, existing := range mapping {
			if existing == field {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		mapping[i] = field
		switch field {
		case FieldWorkflowID:
			hasWorkflow = true
		case FieldPeriodStartDate:
			hasDate = true
		}
	}

	if !hasWorkflow || !hasDate {
		return nil
	}
	return mapping
}
