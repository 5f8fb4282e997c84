package api

import (
	"net/http"
	"time"
)

// serverStartTime tracks uptime for the health probe.
var serverStartTime = time.Now()

// HealthCheck reports liveness. Unauthenticated.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(serverStartTime).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}
