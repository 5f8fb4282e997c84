package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/crm-atlas/internal/api"
	"github.com/ignite/crm-atlas/internal/auth"
	"github.com/ignite/crm-atlas/internal/config"
	"github.com/ignite/crm-atlas/internal/ingest"
	"github.com/ignite/crm-atlas/internal/kanban"
	"github.com/ignite/crm-atlas/internal/report"
	"github.com/ignite/crm-atlas/internal/repository/postgres"
	"github.com/ignite/crm-atlas/internal/service/dashboard"
	flowsvc "github.com/ignite/crm-atlas/internal/service/flow"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
	planningsvc "github.com/ignite/crm-atlas/internal/service/planning"
	targetsvc "github.com/ignite/crm-atlas/internal/service/target"
	"github.com/ignite/crm-atlas/internal/warehouse"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("CRM Atlas server starting (cmd/server/main.go)")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dbURL := cfg.Database.URL
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
	}
	log.Printf("DB URL host portion: ...@%s/...", extractHost(dbURL))
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Database connected successfully")

	// Redis (optional — the dashboard falls back to direct reads without it)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — dashboard caching disabled", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (dashboard caching enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — dashboard caching disabled")
	}

	// Repositories
	snapshotRepo := postgres.NewSnapshotRepo(db)
	targetRepo := postgres.NewTargetRepo(db)
	flowRepo := postgres.NewFlowRepo(db)
	planningRepo := postgres.NewPlanningRepo(db)
	boardStore := postgres.NewBoardStore(db)

	// Services
	healthService := healthsvc.NewService(snapshotRepo, cfg.Health.Domain())
	targetService := targetsvc.NewService(targetRepo)
	flowService := flowsvc.NewService(flowRepo)
	planningService := planningsvc.NewService(planningRepo)
	kanbanService := kanban.NewService(boardStore)
	dashboardService := dashboard.NewService(healthService, redisClient)
	importer := ingest.NewImporter(snapshotRepo)
	renderer := report.NewRenderer()

	// Optional S3 CSV ingest on an interval
	if cfg.Ingest.S3Enabled && cfg.Ingest.S3Bucket != "" {
		source, err := ingest.NewS3Source(ctx, cfg.Ingest.S3Bucket, cfg.Ingest.S3Prefix, cfg.Ingest.S3Region, cfg.Ingest.AWSProfile, importer)
		if err != nil {
			log.Printf("Warning: S3 ingest disabled: %v", err)
		} else {
			interval := time.Duration(cfg.Ingest.IntervalMinutes) * time.Minute
			if interval <= 0 {
				interval = time.Hour
			}
			go runS3Ingest(ctx, source, interval)
			log.Printf("S3 ingest enabled: s3://%s/%s every %s", cfg.Ingest.S3Bucket, cfg.Ingest.S3Prefix, interval)
		}
	}

	// Optional Snowflake warehouse pull, weekly granularity
	if cfg.Snowflake.Enabled {
		whClient, err := warehouse.NewClient(warehouse.Config{
			Account:      cfg.Snowflake.Account,
			User:         cfg.Snowflake.User,
			Password:     cfg.Snowflake.Password,
			Database:     cfg.Snowflake.Database,
			Schema:       cfg.Snowflake.Schema,
			Warehouse:    cfg.Snowflake.Warehouse,
			MetricsTable: cfg.Snowflake.MetricsTable,
		})
		if err != nil {
			log.Printf("Warning: Snowflake pull disabled: %v", err)
		} else {
			go runWarehousePull(ctx, whClient, snapshotRepo)
			log.Println("Snowflake weekly pull enabled")
		}
	}

	// Auth
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", host, port)
		if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" {
			baseURL = cfg.Server.BaseURL
		}
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled for domain: %s (callback: %s/auth/callback)", cfg.Auth.AllowedDomain, baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	// Handlers and routes
	handlers := api.NewHandlers(healthService, targetService, flowService)
	handlers.SetConfig(cfg)
	handlers.SetPlanningService(planningService)
	handlers.SetKanbanService(kanbanService)
	handlers.SetDashboardService(dashboardService)
	handlers.SetImporter(importer)
	handlers.SetSnapshotStore(snapshotRepo)
	handlers.SetReportRenderer(renderer)

	router, _ := api.SetupRoutes(handlers, authManager)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	log.Println("Server stopped")
}

// runS3Ingest pulls CSV drops from S3 on a fixed interval until ctx ends.
func runS3Ingest(ctx context.Context, source *ingest.S3Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pull := func() {
		result, err := source.PullAll(ctx)
		if err != nil {
			log.Printf("[ingest.S3Source] pull failed: %v", err)
			return
		}
		log.Printf("[ingest.S3Source] pull complete: %d imported, %d skipped", result.Imported, result.Skipped)
	}

	pull()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pull()
		}
	}
}

// runWarehousePull pulls the trailing four weeks from the warehouse once a
// day; the snapshot upsert makes repeated pulls idempotent.
func runWarehousePull(ctx context.Context, client *warehouse.Client, writer warehouse.SnapshotWriter) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	pull := func() {
		end := time.Now().UTC().Truncate(24 * time.Hour)
		start := end.AddDate(0, 0, -28)
		result, err := client.PullWeekly(ctx, start, end, writer)
		if err != nil {
			log.Printf("[warehouse.Client] pull failed: %v", err)
			return
		}
		log.Printf("[warehouse.Client] pull complete: %d snapshots, %d errors", result.Pulled, result.Errors)
	}

	pull()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pull()
		}
	}
}
