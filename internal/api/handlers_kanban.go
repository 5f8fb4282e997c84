package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/crm-atlas/internal/kanban"
)

// GetIdeaBoard returns the whole campaign-ideas board.
func (h *Handlers) GetIdeaBoard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	board, err := h.kanban.GetBoard(r.Context())
	if err != nil {
		log.Printf("ERROR: failed to get idea board: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve board")
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// UpdateIdeaBoard replaces the whole board (drag-drop bulk writes).
func (h *Handlers) UpdateIdeaBoard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	var board kanban.Board
	if err := json.NewDecoder(r.Body).Decode(&board); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := h.kanban.UpdateBoard(r.Context(), &board); err != nil {
		log.Printf("ERROR: failed to update idea board: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to update board")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Board updated",
		"timestamp": time.Now(),
	})
}

// CreateIdeaCard adds an idea card.
func (h *Handlers) CreateIdeaCard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	var req kanban.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.kanban.CreateCard(r.Context(), req)
	if err != nil {
		log.Printf("ERROR: failed to create idea card: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

// UpdateIdeaCard edits an idea card.
func (h *Handlers) UpdateIdeaCard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	cardID := chi.URLParam(r, "cardId")
	var req kanban.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	card, err := h.kanban.UpdateCard(r.Context(), cardID, req)
	if err != nil {
		log.Printf("ERROR: failed to update idea card %s: %v", cardID, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// MoveIdeaCard moves a card between columns; moving into shipped stamps the
// shipped timestamp.
func (h *Handlers) MoveIdeaCard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	var req kanban.MoveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.CardID == "" {
		req.CardID = chi.URLParam(r, "cardId")
	}

	if err := h.kanban.MoveCard(r.Context(), req); err != nil {
		log.Printf("ERROR: failed to move idea card %s: %v", req.CardID, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Card moved"})
}

// DeleteIdeaCard removes an idea card.
func (h *Handlers) DeleteIdeaCard(w http.ResponseWriter, r *http.Request) {
	if h.kanban == nil {
		respondError(w, http.StatusServiceUnavailable, "Idea board not configured")
		return
	}

	cardID := chi.URLParam(r, "cardId")
	if err := h.kanban.DeleteCard(r.Context(), cardID); err != nil {
		log.Printf("ERROR: failed to delete idea card %s: %v", cardID, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}
