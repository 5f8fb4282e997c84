package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	flowsvc "github.com/ignite/crm-atlas/internal/service/flow"
)

// ListFlows returns flows matching the query filters, ordered by name.
func (h *Handlers) ListFlows(w http.ResponseWriter, r *http.Request) {
	f := flowsvc.ListFilter{
		ProductID: r.URL.Query().Get("product_id"),
		Purpose:   r.URL.Query().Get("purpose"),
		LiveOnly:  r.URL.Query().Get("live") == "true",
		Search:    r.URL.Query().Get("q"),
		Limit:     queryInt(r, "limit", 100),
		Offset:    queryInt(r, "offset", 0),
	}

	flows, total, err := h.flows.List(r.Context(), f)
	if err != nil {
		log.Printf("ERROR: failed to list flows: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list flows")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flows": flows,
		"total": total,
	})
}

// GetFlow returns a single flow by ID.
func (h *Handlers) GetFlow(w http.ResponseWriter, r *http.Request) {
	fl, err := h.flows.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, flowsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Flow not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to get flow: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get flow")
		return
	}
	respondJSON(w, http.StatusOK, fl)
}

// CreateFlow registers a flow in the inventory.
func (h *Handlers) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var input flowsvc.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	fl, err := h.flows.Create(r.Context(), input)
	switch {
	case errors.Is(err, flowsvc.ErrMissingName),
		errors.Is(err, flowsvc.ErrMissingChannels),
		errors.Is(err, flowsvc.ErrInvalidPriority):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("ERROR: failed to create flow: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create flow")
		return
	}

	respondJSON(w, http.StatusCreated, fl)
}

// UpdateFlow applies a partial update to a flow.
func (h *Handlers) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	var u flowsvc.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.flows.Update(r.Context(), chi.URLParam(r, "id"), u)
	switch {
	case errors.Is(err, flowsvc.ErrNotFound):
		respondError(w, http.StatusNotFound, "Flow not found")
		return
	case errors.Is(err, flowsvc.ErrInvalidPriority):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("ERROR: failed to update flow: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update flow")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Flow updated"})
}

// DeleteFlow removes a flow from the inventory.
func (h *Handlers) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	err := h.flows.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, flowsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Flow not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to delete flow: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete flow")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Flow deleted"})
}

// GetFlowConflicts computes conflicts across live flows. Always evaluated
// fresh so edits show up immediately.
func (h *Handlers) GetFlowConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.flows.Conflicts(r.Context())
	if err != nil {
		log.Printf("ERROR: failed to detect flow conflicts: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to detect conflicts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"conflicts": conflicts,
		"total":     len(conflicts),
	})
}
