package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	targetsvc "github.com/ignite/crm-atlas/internal/service/target"
)

// ListTargets returns targets matching the query filters, most specific
// first.
func (h *Handlers) ListTargets(w http.ResponseWriter, r *http.Request) {
	f := targetsvc.ListFilter{
		MetricName: r.URL.Query().Get("metric"),
		WorkflowID: r.URL.Query().Get("workflow_id"),
		ProductID:  r.URL.Query().Get("product_id"),
		Channel:    r.URL.Query().Get("channel"),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}

	targets, total, err := h.targets.List(r.Context(), f)
	if err != nil {
		log.Printf("ERROR: failed to list targets: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list targets")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"targets": targets,
		"total":   total,
	})
}

// GetTarget returns a single target by ID.
func (h *Handlers) GetTarget(w http.ResponseWriter, r *http.Request) {
	t, err := h.targets.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, targetsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Target not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to get target: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get target")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// CreateTarget creates a target. A 200 with a warning field means the write
// succeeded but overlaps an existing equal-specificity target.
func (h *Handlers) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var input targetsvc.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result, err := h.targets.Create(r.Context(), input)
	switch {
	case errors.Is(err, targetsvc.ErrInvalidMetric), errors.Is(err, targetsvc.ErrInvalidFloor):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("ERROR: failed to create target: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create target")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// UpdateTarget applies a partial update to a target.
func (h *Handlers) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	var u targetsvc.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.targets.Update(r.Context(), chi.URLParam(r, "id"), u)
	switch {
	case errors.Is(err, targetsvc.ErrNotFound):
		respondError(w, http.StatusNotFound, "Target not found")
		return
	case errors.Is(err, targetsvc.ErrInvalidFloor):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("ERROR: failed to update target: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update target")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Target updated"})
}

// DeleteTarget removes a target.
func (h *Handlers) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	err := h.targets.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, targetsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Target not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to delete target: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete target")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Target deleted"})
}
