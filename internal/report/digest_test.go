package report

import (
	"strings"
	"testing"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestRenderWeekly(t *testing.T) {
	week := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	delta := -32.0

	input := DigestInput{
		WeekStart: week,
		FlowNames: map[string]string{"wf-1": "Welcome Series", "wf-2": "Winback"},
		Flags: []domain.HealthFlag{
			{
				WorkflowID: "wf-2", Channel: domain.ChannelEmail, MetricName: "click_rate",
				Status: domain.StatusGreen, Value: f64(3.2),
				Reason: "click_rate at 3.2% meets amber threshold 2.1% (target 3.0%)",
			},
			{
				WorkflowID: "wf-1", Channel: domain.ChannelEmail, MetricName: "open_rate",
				Status: domain.StatusRed, Value: f64(18.0), DeltaWoW: &delta,
				Reason: "open_rate at 18.0% fell -32.0% WoW (red drop threshold 30%)",
			},
		},
		Conflicts: []domain.FlowConflict{
			{FlowAName: "Welcome Series", FlowBName: "Winback", RiskScore: 6, RiskBand: domain.RiskHigh},
		},
	}

	out, err := NewRenderer().RenderWeekly(input)
	if err != nil {
		t.Fatalf("RenderWeekly() error: %v", err)
	}

	if !strings.Contains(out, "week of 2026-08-03") {
		t.Errorf("missing week header:\n%s", out)
	}
	if !strings.Contains(out, "1 metric(s) red this week") {
		t.Errorf("missing red count:\n%s", out)
	}
	if !strings.Contains(out, "▼ -32.0% WoW") {
		t.Errorf("missing WoW arrow:\n%s", out)
	}
	if !strings.Contains(out, "[High Risk] Welcome Series ↔ Winback (score 6)") {
		t.Errorf("missing conflict line:\n%s", out)
	}

	// Red flags render before green ones.
	redIdx := strings.Index(out, "Welcome Series · email · open_rate")
	greenIdx := strings.Index(out, "Winback · email · click_rate")
	if redIdx < 0 || greenIdx < 0 || redIdx > greenIdx {
		t.Errorf("flags not ordered by severity:\n%s", out)
	}
}

func TestRenderWeekly_NoData(t *testing.T) {
	out, err := NewRenderer().RenderWeekly(DigestInput{
		WeekStart: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RenderWeekly() error: %v", err)
	}
	if !strings.Contains(out, "No red metrics this week") {
		t.Errorf("empty digest missing all-clear line:\n%s", out)
	}
	if strings.Contains(out, "Top flow conflicts") {
		t.Errorf("empty digest should omit conflicts section:\n%s", out)
	}
}

func TestRenderTemplate_CustomTemplate(t *testing.T) {
	out, err := NewRenderer().RenderTemplate("custom", `{{ red_count }} red`, DigestInput{
		WeekStart: time.Now(),
		Flags: []domain.HealthFlag{
			{Status: domain.StatusRed, Reason: "x"},
			{Status: domain.StatusRed, Reason: "y"},
		},
	})
	if err != nil {
		t.Fatalf("RenderTemplate() error: %v", err)
	}
	if strings.TrimSpace(out) != "2 red" {
		t.Errorf("got %q, want \"2 red\"", out)
	}
}
