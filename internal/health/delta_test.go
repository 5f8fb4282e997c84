package health

import (
	"testing"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
)

func TestPercentChange(t *testing.T) {
	cases := []struct {
		name     string
		current  *float64
		previous *float64
		want     *float64
	}{
		{"decline", f64(17.0), f64(20.0), f64(-15.0)},
		{"growth", f64(22.0), f64(20.0), f64(10.0)},
		{"flat", f64(20.0), f64(20.0), f64(0.0)},
		{"nil current", nil, f64(20.0), nil},
		{"nil previous", f64(20.0), nil, nil},
		{"zero baseline", f64(20.0), f64(0.0), nil},
		{"negative baseline", f64(20.0), f64(-5.0), nil},
	}
	for _, tc := range cases {
		got := PercentChange(tc.current, tc.previous)
		if (got == nil) != (tc.want == nil) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		if got != nil && *got != *tc.want {
			t.Errorf("%s: got %.2f, want %.2f", tc.name, *got, *tc.want)
		}
	}
}

func TestPrevWoWDate(t *testing.T) {
	d := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if got := PrevWoWDate(domain.PeriodWeek, d); !got.Equal(d.AddDate(0, 0, -7)) {
		t.Errorf("week: got %v", got)
	}
	if got := PrevWoWDate(domain.PeriodMonth, d); !got.Equal(d.AddDate(0, 0, -30)) {
		t.Errorf("month: got %v", got)
	}
}

func TestPrevMoMDate(t *testing.T) {
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := PrevMoMDate(d); !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}
}

func TestComputeDeltaNilCurrent(t *testing.T) {
	d := ComputeDelta(domain.PeriodWeek, nil, f64(10), f64(10))
	if d.WoW != nil || d.MoM != nil {
		t.Fatal("nil current must produce nil deltas")
	}
}

func TestComputeDeltaWeeklySkipsMoM(t *testing.T) {
	d := ComputeDelta(domain.PeriodWeek, f64(18), f64(20), f64(20))
	if d.WoW == nil || *d.WoW != -10.0 {
		t.Errorf("WoW = %v, want -10", d.WoW)
	}
	if d.MoM != nil {
		t.Error("weekly periods must not compute MoM")
	}
}

func TestComputeDeltaMonthly(t *testing.T) {
	d := ComputeDelta(domain.PeriodMonth, f64(24), f64(20), f64(16))
	if d.WoW == nil || *d.WoW != 20.0 {
		t.Errorf("WoW = %v, want 20", d.WoW)
	}
	if d.MoM == nil || *d.MoM != 50.0 {
		t.Errorf("MoM = %v, want 50", d.MoM)
	}
}

func TestComputeDeltaZeroBaselines(t *testing.T) {
	d := ComputeDelta(domain.PeriodMonth, f64(24), f64(0), f64(0))
	if d.WoW != nil || d.MoM != nil {
		t.Fatal("zero baselines must degrade to nil, never divide")
	}
}
