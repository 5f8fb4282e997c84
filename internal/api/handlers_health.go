package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/health"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
)

// ListHealthFlags returns persisted flags matching the query filters.
func (h *Handlers) ListHealthFlags(w http.ResponseWriter, r *http.Request) {
	f := healthsvc.FlagFilter{
		WorkflowID: r.URL.Query().Get("workflow_id"),
		Channel:    r.URL.Query().Get("channel"),
		PeriodType: r.URL.Query().Get("period_type"),
		Status:     r.URL.Query().Get("status"),
		Limit:      queryInt(r, "limit", 500),
		Offset:     queryInt(r, "offset", 0),
	}
	if since, ok := queryDate(r, "since"); ok {
		f.Since = &since
	}

	flags, err := h.health.Flags(r.Context(), f)
	if err != nil {
		log.Printf("ERROR: failed to list health flags: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list health flags")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flags": flags,
		"total": len(flags),
	})
}

type recomputeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RecomputeHealth re-evaluates every snapshot in [start, end]. Partial
// failures are reported in the error count, never as a failed request.
func (h *Handlers) RecomputeHealth(w http.ResponseWriter, r *http.Request) {
	var req recomputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	start, err1 := time.Parse("2006-01-02", req.Start)
	end, err2 := time.Parse("2006-01-02", req.End)
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "start and end must be YYYY-MM-DD")
		return
	}

	result, err := h.health.RecomputeRange(r.Context(), start, end)
	if errors.Is(err, healthsvc.ErrInvalidRange) {
		respondError(w, http.StatusBadRequest, "start must not be after end")
		return
	}
	if err != nil {
		log.Printf("ERROR: recompute failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Recompute failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ResolveTarget answers "which target applies here" for a fully qualified
// scope. A scope with no configured target resolves to null, not an error.
func (h *Handlers) ResolveTarget(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		respondError(w, http.StatusBadRequest, "metric is required")
		return
	}
	date, ok := queryDate(r, "date")
	if !ok {
		date = time.Now().UTC()
	}

	scope := health.TargetScope{
		MetricName: metric,
		WorkflowID: r.URL.Query().Get("workflow_id"),
		ProductID:  r.URL.Query().Get("product_id"),
		Channel:    domain.Channel(r.URL.Query().Get("channel")),
		PeriodType: domain.PeriodType(r.URL.Query().Get("period_type")),
		Date:       date,
	}

	target, err := h.health.ResolveTarget(r.Context(), scope)
	if err != nil {
		log.Printf("ERROR: failed to resolve target: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to resolve target")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"target": target, // null when unconfigured
	})
}

// GetHealthConfig returns the active evaluation config (stored row or
// fallback defaults).
func (h *Handlers) GetHealthConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.health.Config(r.Context()))
}

// UpdateHealthConfig replaces the stored evaluation config.
func (h *Handlers) UpdateHealthConfig(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		respondError(w, http.StatusServiceUnavailable, "Config store not configured")
		return
	}

	var cfg domain.HealthConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if cfg.AmberFloor <= 0 || cfg.AmberFloor > 1 {
		respondError(w, http.StatusBadRequest, "amber_floor must be in (0, 1]")
		return
	}
	switch cfg.RollupStrategy {
	case domain.RollupWorstOf, domain.RollupWeighted:
	default:
		respondError(w, http.StatusBadRequest, "rollup_strategy must be worst_of or weighted")
		return
	}

	if err := h.snapshots.SaveHealthConfig(r.Context(), &cfg); err != nil {
		log.Printf("ERROR: failed to save health config: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to save config")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}
