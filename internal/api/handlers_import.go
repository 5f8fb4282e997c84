package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxImportBytes caps CSV uploads at 50 MB.
const maxImportBytes = 50 << 20

// ImportSnapshotsCSV ingests a multipart CSV upload of metric snapshots.
// Row-level problems come back in row_errors; only an unreadable file is a
// request failure.
func (h *Handlers) ImportSnapshotsCSV(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		respondError(w, http.StatusServiceUnavailable, "Importer not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	result, err := h.importer.ImportFromReader(r.Context(), file, header.Filename)
	if err != nil {
		log.Printf("ERROR: import of %s failed: %v", header.Filename, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListWorkflowSnapshots returns recent snapshots for one workflow, newest
// first.
func (h *Handlers) ListWorkflowSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		respondError(w, http.StatusServiceUnavailable, "Snapshot store not configured")
		return
	}

	workflowID := chi.URLParam(r, "workflowId")
	snaps, err := h.snapshots.ListSnapshots(r.Context(), workflowID, queryInt(r, "limit", 100))
	if err != nil {
		log.Printf("ERROR: failed to list snapshots for %s: %v", workflowID, err)
		respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snaps,
		"total":     len(snaps),
	})
}
