package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	planningsvc "github.com/ignite/crm-atlas/internal/service/planning"
)

func (h *Handlers) planningReady(w http.ResponseWriter) bool {
	if h.planning == nil {
		respondError(w, http.StatusServiceUnavailable, "Planning service not configured")
		return false
	}
	return true
}

// ListOpportunities returns opportunities matching the query filters.
func (h *Handlers) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	f := planningsvc.ListFilter{
		ProductID: r.URL.Query().Get("product_id"),
		Status:    r.URL.Query().Get("status"),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	}
	opps, total, err := h.planning.ListOpportunities(r.Context(), f)
	if err != nil {
		log.Printf("ERROR: failed to list opportunities: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list opportunities")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": opps,
		"total":         total,
	})
}

// CreateOpportunity adds an opportunity in proposed status.
func (h *Handlers) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	var input planningsvc.OpportunityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	o, err := h.planning.CreateOpportunity(r.Context(), input)
	if errors.Is(err, planningsvc.ErrMissingTitle) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to create opportunity: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create opportunity")
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

// GetOpportunity returns a single opportunity by ID.
func (h *Handlers) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	o, err := h.planning.GetOpportunity(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to get opportunity: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get opportunity")
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// UpdateOpportunity applies a partial update.
func (h *Handlers) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	var u planningsvc.OpportunityUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.planning.UpdateOpportunity(r.Context(), chi.URLParam(r, "id"), u)
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to update opportunity: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update opportunity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Opportunity updated"})
}

// DeleteOpportunity removes an opportunity.
func (h *Handlers) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	err := h.planning.DeleteOpportunity(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Opportunity not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to delete opportunity: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete opportunity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Opportunity deleted"})
}

// ListExperiments returns experiments matching the query filters.
func (h *Handlers) ListExperiments(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	f := planningsvc.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	exps, total, err := h.planning.ListExperiments(r.Context(), f)
	if err != nil {
		log.Printf("ERROR: failed to list experiments: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list experiments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"experiments": exps,
		"total":       total,
	})
}

// CreateExperiment adds a draft experiment.
func (h *Handlers) CreateExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	var input planningsvc.ExperimentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	e, err := h.planning.CreateExperiment(r.Context(), input)
	if errors.Is(err, planningsvc.ErrMissingTitle) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to create experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create experiment")
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

// GetExperiment returns a single experiment by ID.
func (h *Handlers) GetExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	e, err := h.planning.GetExperiment(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Experiment not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to get experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to get experiment")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// UpdateExperiment applies a partial update outside the lifecycle endpoints.
func (h *Handlers) UpdateExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	var u planningsvc.ExperimentUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.planning.UpdateExperiment(r.Context(), chi.URLParam(r, "id"), u)
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Experiment not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to update experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update experiment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Experiment updated"})
}

// DeleteExperiment removes an experiment.
func (h *Handlers) DeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	err := h.planning.DeleteExperiment(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, planningsvc.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Experiment not found")
		return
	}
	if err != nil {
		log.Printf("ERROR: failed to delete experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to delete experiment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Experiment deleted"})
}

// StartExperiment moves a draft experiment to running.
func (h *Handlers) StartExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	err := h.planning.StartExperiment(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, planningsvc.ErrNotFound):
		respondError(w, http.StatusNotFound, "Experiment not found")
	case errors.Is(err, planningsvc.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "Only draft experiments can be started")
	case err != nil:
		log.Printf("ERROR: failed to start experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to start experiment")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Experiment started"})
	}
}

type concludeRequest struct {
	Result string `json:"result"`
}

// ConcludeExperiment moves a running experiment to concluded with a result
// note.
func (h *Handlers) ConcludeExperiment(w http.ResponseWriter, r *http.Request) {
	if !h.planningReady(w) {
		return
	}

	var req concludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	err := h.planning.ConcludeExperiment(r.Context(), chi.URLParam(r, "id"), req.Result)
	switch {
	case errors.Is(err, planningsvc.ErrNotFound):
		respondError(w, http.StatusNotFound, "Experiment not found")
	case errors.Is(err, planningsvc.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "Only running experiments can be concluded")
	case err != nil:
		log.Printf("ERROR: failed to conclude experiment: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to conclude experiment")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Experiment concluded"})
	}
}
