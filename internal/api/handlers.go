package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/crm-atlas/internal/config"
	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/ingest"
	"github.com/ignite/crm-atlas/internal/kanban"
	"github.com/ignite/crm-atlas/internal/report"
	"github.com/ignite/crm-atlas/internal/service/dashboard"
	flowsvc "github.com/ignite/crm-atlas/internal/service/flow"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
	planningsvc "github.com/ignite/crm-atlas/internal/service/planning"
	targetsvc "github.com/ignite/crm-atlas/internal/service/target"
)

// SnapshotStore is the slice of snapshot persistence the API needs directly.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, workflowID string, limit int) ([]domain.MetricSnapshot, error)
	SaveHealthConfig(ctx context.Context, cfg *domain.HealthConfig) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	health    *healthsvc.Service
	targets   *targetsvc.Service
	flows     *flowsvc.Service
	planning  *planningsvc.Service
	kanban    *kanban.Service
	dashboard *dashboard.Service
	importer  *ingest.Importer
	snapshots SnapshotStore
	reports   *report.Renderer
	config    *config.Config
}

// NewHandlers creates a new Handlers instance
func NewHandlers(health *healthsvc.Service, targets *targetsvc.Service, flows *flowsvc.Service) *Handlers {
	return &Handlers{
		health:  health,
		targets: targets,
		flows:   flows,
	}
}

// SetConfig sets the application config
func (h *Handlers) SetConfig(cfg *config.Config) {
	h.config = cfg
}

// SetPlanningService sets the planning service
func (h *Handlers) SetPlanningService(svc *planningsvc.Service) {
	h.planning = svc
}

// SetKanbanService sets the idea board service
func (h *Handlers) SetKanbanService(svc *kanban.Service) {
	h.kanban = svc
}

// SetDashboardService sets the dashboard rollup service
func (h *Handlers) SetDashboardService(svc *dashboard.Service) {
	h.dashboard = svc
}

// SetImporter sets the CSV snapshot importer
func (h *Handlers) SetImporter(imp *ingest.Importer) {
	h.importer = imp
}

// SetSnapshotStore sets the snapshot store
func (h *Handlers) SetSnapshotStore(store SnapshotStore) {
	h.snapshots = store
}

// SetReportRenderer sets the digest renderer
func (h *Handlers) SetReportRenderer(r *report.Renderer) {
	h.reports = r
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Query helpers

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// queryDate parses a YYYY-MM-DD query param.
func queryDate(r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
