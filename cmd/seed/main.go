package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/repository/postgres"
)

// Loads a small demo dataset: three flows, channel and workflow targets, and
// four weeks of email snapshots with a deliberate open-rate decline on the
// winback flow so a recompute produces red/amber flags out of the box.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	ctx := context.Background()
	flows := postgres.NewFlowRepo(db)
	targets := postgres.NewTargetRepo(db)
	snapshots := postgres.NewSnapshotRepo(db)

	prio := func(p int) *int { return &p }
	suppress := "exclude purchasers last 7d"

	demoFlows := []domain.Flow{
		{
			ID: "flow-welcome", Name: "Welcome Series", ProductID: "prod-core",
			Purpose: domain.PurposeActivation, TriggerType: domain.TriggerEventBased,
			Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelPush},
			Frequency: "Daily", Live: true, Priority: prio(10), SuppressionRules: &suppress,
		},
		{
			ID: "flow-winback", Name: "Winback", ProductID: "prod-core",
			Purpose: domain.PurposeWinback, TriggerType: domain.TriggerScheduled,
			Channels: []domain.Channel{domain.ChannelEmail},
			Frequency: "Weekly", Live: true,
		},
		{
			ID: "flow-receipts", Name: "Order Receipts", ProductID: "prod-core",
			Purpose: domain.PurposeTransactional, TriggerType: domain.TriggerEventBased,
			Channels: []domain.Channel{domain.ChannelEmail},
			Frequency: "On event", Live: true, Priority: prio(1),
		},
	}
	for i := range demoFlows {
		if _, err := flows.Create(ctx, &demoFlows[i]); err != nil {
			log.Printf("seed flow %s: %v (already seeded?)", demoFlows[i].ID, err)
		}
	}

	email := domain.ChannelEmail
	weekly := domain.PeriodWeek
	red := 0.5
	demoTargets := []domain.Target{
		{
			ID: "target-open-global", MetricName: "open_rate",
			EffectiveFrom: date(2026, 1, 1),
			TargetValue:   25.0, AmberFloor: 0.8, RedFloor: &red,
		},
		{
			ID: "target-open-email", MetricName: "open_rate",
			Channel: &email, PeriodType: &weekly,
			EffectiveFrom: date(2026, 1, 1),
			TargetValue:   28.0, AmberFloor: 0.8,
		},
	}
	for i := range demoTargets {
		if _, err := targets.Create(ctx, &demoTargets[i]); err != nil {
			log.Printf("seed target %s: %v (already seeded?)", demoTargets[i].ID, err)
		}
	}

	// Four Mondays of email snapshots. Welcome holds steady; Winback decays.
	weeks := []time.Time{
		date(2026, 8, 3), date(2026, 8, 10), date(2026, 8, 17), date(2026, 8, 24),
	}
	welcomeOpens := []float64{27.2, 26.8, 27.5, 27.1}
	winbackOpens := []float64{24.0, 21.5, 16.8, 11.9}
	for i, wk := range weeks {
		seedSnapshot(ctx, snapshots, "flow-welcome", wk, 120000, welcomeOpens[i])
		seedSnapshot(ctx, snapshots, "flow-winback", wk, 45000, winbackOpens[i])
	}

	log.Println("Demo data loaded. Run a recompute over 2026-08-03..2026-08-24 to generate flags.")
}

func seedSnapshot(ctx context.Context, repo *postgres.SnapshotRepo, workflowID string, week time.Time, sends int, openRate float64) {
	opens := int(float64(sends) * openRate / 100)
	clickRate := openRate * 0.14
	s := &domain.MetricSnapshot{
		WorkflowID:      workflowID,
		Channel:         domain.ChannelEmail,
		PeriodType:      domain.PeriodWeek,
		PeriodStartDate: week,
		Sends:           sends,
		Opens:           opens,
		OpenRate:        &openRate,
		ClickRate:       &clickRate,
	}
	if err := repo.UpsertSnapshot(ctx, s); err != nil {
		log.Printf("seed snapshot %s %s: %v", workflowID, week.Format("2006-01-02"), err)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
