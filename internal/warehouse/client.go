package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/crm-atlas/internal/domain"
)

// Config holds Snowflake connection settings.
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string

	// Table holding per-workflow channel engagement rows.
	MetricsTable string
}

// Client reads engagement metrics out of the Snowflake warehouse. The
// warehouse is the system of record for send/open/click counts; the client
// pulls weekly rollups into local snapshots for evaluation.
type Client struct {
	config Config
	db     *sql.DB
}

// NewClient opens a Snowflake connection.
func NewClient(cfg Config) (*Client, error) {
	// DSN format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if cfg.MetricsTable == "" {
		cfg.MetricsTable = "WORKFLOW_CHANNEL_METRICS"
	}

	return &Client{config: cfg, db: db}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// SnapshotWriter persists pulled snapshots.
type SnapshotWriter interface {
	UpsertSnapshot(ctx context.Context, s *domain.MetricSnapshot) error
}

// PullResult summarizes one warehouse pull.
type PullResult struct {
	Pulled int `json:"pulled"`
	Errors int `json:"errors"`
}

// PullWeekly reads weekly engagement rollups whose week start falls within
// [start, end] and upserts them as snapshots. A bad row is counted and
// skipped, never fatal to the pull.
func (c *Client) PullWeekly(ctx context.Context, start, end time.Time, writer SnapshotWriter) (*PullResult, error) {
	query := fmt.Sprintf(`
		SELECT WORKFLOW_ID, CHANNEL, WEEK_START,
		       SENDS, DELIVERED, OPENS, CLICKS, UNSUBS, BOUNCES, COMPLAINTS
		FROM %s
		WHERE WEEK_START BETWEEN ? AND ?
		ORDER BY WEEK_START, WORKFLOW_ID
	`, c.config.MetricsTable)

	rows, err := c.db.QueryContext(ctx, query,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly metrics: %w", err)
	}
	defer rows.Close()

	res := &PullResult{}
	for rows.Next() {
		var (
			workflowID, channel string
			weekStart           time.Time
		)
		snap := domain.MetricSnapshot{PeriodType: domain.PeriodWeek}
		if err := rows.Scan(
			&workflowID, &channel, &weekStart,
			&snap.Sends, &snap.Delivered, &snap.Opens, &snap.Clicks,
			&snap.Unsubs, &snap.Bounces, &snap.Complaints,
		); err != nil {
			log.Printf("[warehouse.Client] scan row: %v", err)
			res.Errors++
			continue
		}
		snap.WorkflowID = workflowID
		snap.Channel = domain.Channel(channel)
		snap.PeriodStartDate = weekStart.UTC().Truncate(24 * time.Hour)
		deriveRates(&snap)

		if err := writer.UpsertSnapshot(ctx, &snap); err != nil {
			log.Printf("[warehouse.Client] upsert %s/%s: %v", workflowID, channel, err)
			res.Errors++
			continue
		}
		res.Pulled++
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("reading weekly metrics: %w", err)
	}
	return res, nil
}

// deriveRates fills percentage rates from counts. Zero sends leaves them nil.
func deriveRates(s *domain.MetricSnapshot) {
	if s.Sends <= 0 {
		return
	}
	pct := func(count int) *float64 {
		v := float64(count) / float64(s.Sends) * 100
		return &v
	}
	s.OpenRate = pct(s.Opens)
	s.ClickRate = pct(s.Clicks)
	s.UnsubRate = pct(s.Unsubs)
	s.BounceRate = pct(s.Bounces)
	s.ComplaintRate = pct(s.Complaints)
}
