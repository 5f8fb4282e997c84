package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignite/crm-atlas/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
// Returns the top-level mux AND the /api sub-router so that late-registered
// route groups can be mounted inside /api and inherit its auth middleware.
func SetupRoutes(h *Handlers, authManager *auth.Manager) (*chi.Mux, chi.Router) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for auth cookies
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://atlas.ignite.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// API routes (protected by auth middleware)
	var apiRouter chi.Router
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	r.Route("/api", func(r chi.Router) {
		apiRouter = r // capture so late-registered groups can use it
		// Apply auth middleware to all API routes (skip in dev mode)
		if authManager != nil && !devMode {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if !authManager.IsAuthenticated(req) {
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusUnauthorized)
						w.Write([]byte(`{"error":"unauthorized"}`))
						return
					}
					next.ServeHTTP(w, req)
				})
			})
		}

		// Dashboard rollup
		r.Get("/dashboard/channels", h.GetChannelOverview)

		// Metric snapshots and CSV ingest
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/{workflowId}", h.ListWorkflowSnapshots)
		})
		r.Post("/import/csv", h.ImportSnapshotsCSV)

		// KPI targets
		r.Route("/targets", func(r chi.Router) {
			r.Get("/", h.ListTargets)
			r.Post("/", h.CreateTarget)
			r.Get("/resolve", h.ResolveTarget)
			r.Get("/{id}", h.GetTarget)
			r.Put("/{id}", h.UpdateTarget)
			r.Delete("/{id}", h.DeleteTarget)
		})

		// CRM flows and conflict detection
		r.Route("/flows", func(r chi.Router) {
			r.Get("/", h.ListFlows)
			r.Post("/", h.CreateFlow)
			r.Get("/conflicts", h.GetFlowConflicts)
			r.Get("/{id}", h.GetFlow)
			r.Put("/{id}", h.UpdateFlow)
			r.Delete("/{id}", h.DeleteFlow)
		})

		// Health flags and recompute
		r.Route("/health-flags", func(r chi.Router) {
			r.Get("/", h.ListHealthFlags)
			r.Post("/recompute", h.RecomputeHealth)
			r.Get("/config", h.GetHealthConfig)
			r.Put("/config", h.UpdateHealthConfig)
		})

		// Ideas board (kanban)
		r.Route("/ideas", func(r chi.Router) {
			r.Get("/board", h.GetIdeaBoard)
			r.Put("/board", h.UpdateIdeaBoard)
			r.Post("/cards", h.CreateIdeaCard)
			r.Put("/cards/{cardId}", h.UpdateIdeaCard)
			r.Put("/cards/{cardId}/move", h.MoveIdeaCard)
			r.Delete("/cards/{cardId}", h.DeleteIdeaCard)
		})

		// Opportunities
		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", h.ListOpportunities)
			r.Post("/", h.CreateOpportunity)
			r.Get("/{id}", h.GetOpportunity)
			r.Put("/{id}", h.UpdateOpportunity)
			r.Delete("/{id}", h.DeleteOpportunity)
		})

		// Experiments with lifecycle endpoints
		r.Route("/experiments", func(r chi.Router) {
			r.Get("/", h.ListExperiments)
			r.Post("/", h.CreateExperiment)
			r.Get("/{id}", h.GetExperiment)
			r.Put("/{id}", h.UpdateExperiment)
			r.Delete("/{id}", h.DeleteExperiment)
			r.Post("/{id}/start", h.StartExperiment)
			r.Post("/{id}/conclude", h.ConcludeExperiment)
		})

		// Weekly digest
		r.Get("/reports/weekly", h.GetWeeklyDigest)
	})

	// Serve static files for React frontend (SPA with fallback to index.html)
	spaHandler(r, "./web/dist")

	return r, apiRouter
}

// spaHandler serves static files and falls back to index.html for SPA routing
func spaHandler(r chi.Router, staticPath string) {
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		// Skip API routes
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/health") {
			http.NotFound(w, req)
			return
		}

		filePath := filepath.Join(staticPath, path)
		if _, err := os.Stat(filePath); err == nil {
			http.ServeFile(w, req, filePath)
			return
		}

		// For SPA routing, serve index.html for unknown paths
		indexPath := filepath.Join(staticPath, "index.html")
		http.ServeFile(w, req, indexPath)
	})
}
