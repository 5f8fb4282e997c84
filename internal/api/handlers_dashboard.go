package api

import (
	"log"
	"net/http"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/report"
	flowsvc "github.com/ignite/crm-atlas/internal/service/flow"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
)

// GetChannelOverview returns the per-channel health rollup for the dashboard
// header. Defaults to the trailing 7 days.
func (h *Handlers) GetChannelOverview(w http.ResponseWriter, r *http.Request) {
	if h.dashboard == nil {
		respondError(w, http.StatusServiceUnavailable, "Dashboard service not configured")
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	if s, ok := queryDate(r, "since"); ok {
		since = s
	}

	overview, err := h.dashboard.ChannelOverview(r.Context(), since)
	if err != nil {
		log.Printf("ERROR: failed to build channel overview: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to build channel overview")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// GetWeeklyDigest renders the weekly health digest as markdown. Pass
// ?week_start=YYYY-MM-DD to render a past week; defaults to the most recent
// Monday.
func (h *Handlers) GetWeeklyDigest(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "Report renderer not configured")
		return
	}

	weekStart := mostRecentMonday(time.Now().UTC())
	if s, ok := queryDate(r, "week_start"); ok {
		weekStart = s
	}

	flags, err := h.health.Flags(r.Context(), healthsvc.FlagFilter{
		PeriodType: string(domain.PeriodWeek),
	})
	if err != nil {
		log.Printf("ERROR: failed to load flags for digest: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load health flags")
		return
	}

	conflicts, err := h.flows.Conflicts(r.Context())
	if err != nil {
		log.Printf("ERROR: failed to load conflicts for digest: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to detect flow conflicts")
		return
	}

	names, err := h.flowNames(r)
	if err != nil {
		log.Printf("ERROR: failed to load flow names for digest: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load flows")
		return
	}

	md, err := h.reports.RenderWeekly(report.DigestInput{
		WeekStart: weekStart,
		Flags:     flagsForWeek(flags, weekStart),
		Conflicts: conflicts,
		FlowNames: names,
	})
	if err != nil {
		log.Printf("ERROR: failed to render weekly digest: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to render digest")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

func (h *Handlers) flowNames(r *http.Request) (map[string]string, error) {
	flows, _, err := h.flows.List(r.Context(), flowsvc.ListFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(flows))
	for _, fl := range flows {
		names[fl.ID] = fl.Name
	}
	return names, nil
}

func flagsForWeek(flags []domain.HealthFlag, weekStart time.Time) []domain.HealthFlag {
	var out []domain.HealthFlag
	for _, f := range flags {
		if f.PeriodStartDate.Equal(weekStart) {
			out = append(out, f)
		}
	}
	return out
}

func mostRecentMonday(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
