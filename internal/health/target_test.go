package health

import (
	"testing"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

func sptr(s string) *string { return &s }

func chptr(c domain.Channel) *domain.Channel { return &c }

func mkTarget(metric string, workflowID, productID *string, channel *domain.Channel, value float64, created time.Time) domain.Target {
	return domain.Target{
		ID:            created.Format("t-150405"),
		MetricName:    metric,
		WorkflowID:    workflowID,
		ProductID:     productID,
		Channel:       channel,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		TargetValue:   value,
		AmberFloor:    0.7,
		CreatedAt:     created,
	}
}

func testScope() TargetScope {
	return TargetScope{
		MetricName: "open_rate",
		WorkflowID: "wf-1",
		ProductID:  "prod-1",
		Channel:    domain.ChannelEmail,
		PeriodType: domain.PeriodWeek,
		Date:       time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestSelectTargetSpecificityOrdering(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	candidates := []domain.Target{
		mkTarget("open_rate", nil, nil, nil, 10, created),                         // global
		mkTarget("open_rate", nil, nil, chptr(domain.ChannelEmail), 12, created),  // channel
		mkTarget("open_rate", nil, sptr("prod-1"), nil, 15, created),              // product
		mkTarget("open_rate", sptr("wf-1"), nil, nil, 20, created),                // workflow
	}

	got, ambiguous := SelectTarget(candidates, testScope())
	if got == nil {
		t.Fatal("expected a target")
	}
	if got.TargetValue != 20 {
		t.Fatalf("expected workflow-scoped target (20), got %v", got.TargetValue)
	}
	if ambiguous {
		t.Error("distinct specificity levels are not ambiguous")
	}
}

func TestSelectTargetNoMatch(t *testing.T) {
	created := time.Now()
	candidates := []domain.Target{
		mkTarget("click_rate", nil, nil, nil, 5, created),                        // wrong metric
		mkTarget("open_rate", sptr("wf-other"), nil, nil, 20, created),           // wrong workflow
		mkTarget("open_rate", nil, nil, chptr(domain.ChannelPush), 12, created),  // wrong channel
	}
	got, _ := SelectTarget(candidates, testScope())
	if got != nil {
		t.Fatalf("expected nil (unconfigured), got %+v", got)
	}
}

func TestSelectTargetExpiredIsSkipped(t *testing.T) {
	created := time.Now()
	expired := mkTarget("open_rate", sptr("wf-1"), nil, nil, 20, created)
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	expired.EffectiveUntil = &until

	got, _ := SelectTarget([]domain.Target{expired}, testScope())
	if got != nil {
		t.Fatal("target outside its effective range must not resolve")
	}
}

func TestSelectTargetEqualSpecificityTieBreak(t *testing.T) {
	older := mkTarget("open_rate", sptr("wf-1"), nil, nil, 18, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := mkTarget("open_rate", sptr("wf-1"), nil, nil, 22, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	// Deterministic regardless of slice order: most recently created wins,
	// and the overlap is reported.
	for _, candidates := range [][]domain.Target{{older, newer}, {newer, older}} {
		got, ambiguous := SelectTarget(candidates, testScope())
		if got == nil || got.TargetValue != 22 {
			t.Fatalf("expected newest target (22), got %+v", got)
		}
		if !ambiguous {
			t.Error("overlapping equal-specificity targets should be flagged")
		}
	}
}

func TestSelectTargetPeriodTypeFilter(t *testing.T) {
	created := time.Now()
	monthly := mkTarget("open_rate", sptr("wf-1"), nil, nil, 20, created)
	pt := domain.PeriodMonth
	monthly.PeriodType = &pt

	got, _ := SelectTarget([]domain.Target{monthly}, testScope())
	if got != nil {
		t.Fatal("monthly target must not bind a weekly scope")
	}

	anyPeriod := mkTarget("open_rate", sptr("wf-1"), nil, nil, 20, created)
	got, _ = SelectTarget([]domain.Target{anyPeriod}, testScope())
	if got == nil {
		t.Fatal("nil period_type binds all period types")
	}
}
