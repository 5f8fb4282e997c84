package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/health"
)

// SnapshotRepo provides metric-snapshot access against PostgreSQL. It also
// implements health.Repository together with the target/flag queries below.
type SnapshotRepo struct{ db *sql.DB }

// NewSnapshotRepo creates a Postgres-backed snapshot repository.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

func (r *SnapshotRepo) SnapshotKeys(ctx context.Context, start, end time.Time) ([]health.SnapshotKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT workflow_id, channel, period_type, period_start_date
		FROM crm_metric_snapshots
		WHERE period_start_date BETWEEN $1 AND $2
		ORDER BY workflow_id, channel, period_start_date
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []health.SnapshotKey
	for rows.Next() {
		var k health.SnapshotKey
		if err := rows.Scan(&k.WorkflowID, &k.Channel, &k.PeriodType, &k.PeriodStartDate); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *SnapshotRepo) Snapshot(ctx context.Context, workflowID string, channel domain.Channel, periodType domain.PeriodType, date time.Time) (*domain.MetricSnapshot, error) {
	s := &domain.MetricSnapshot{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, channel, period_type, period_start_date,
		       sends, delivered, opens, clicks, unsubs, bounces, complaints,
		       open_rate, click_rate, unsub_rate, bounce_rate, complaint_rate,
		       created_at
		FROM crm_metric_snapshots
		WHERE workflow_id = $1 AND channel = $2 AND period_type = $3 AND period_start_date = $4
	`, workflowID, channel, periodType, date).Scan(
		&s.ID, &s.WorkflowID, &s.Channel, &s.PeriodType, &s.PeriodStartDate,
		&s.Sends, &s.Delivered, &s.Opens, &s.Clicks, &s.Unsubs, &s.Bounces, &s.Complaints,
		&s.OpenRate, &s.ClickRate, &s.UnsubRate, &s.BounceRate, &s.ComplaintRate,
		&s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

// UpsertSnapshot writes a snapshot by its natural key; re-imports overwrite.
func (r *SnapshotRepo) UpsertSnapshot(ctx context.Context, s *domain.MetricSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_metric_snapshots
			(id, workflow_id, channel, period_type, period_start_date,
			 sends, delivered, opens, clicks, unsubs, bounces, complaints,
			 open_rate, click_rate, unsub_rate, bounce_rate, complaint_rate, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,NOW())
		ON CONFLICT (workflow_id, channel, period_type, period_start_date) DO UPDATE SET
			sends = EXCLUDED.sends, delivered = EXCLUDED.delivered,
			opens = EXCLUDED.opens, clicks = EXCLUDED.clicks,
			unsubs = EXCLUDED.unsubs, bounces = EXCLUDED.bounces,
			complaints = EXCLUDED.complaints,
			open_rate = EXCLUDED.open_rate, click_rate = EXCLUDED.click_rate,
			unsub_rate = EXCLUDED.unsub_rate, bounce_rate = EXCLUDED.bounce_rate,
			complaint_rate = EXCLUDED.complaint_rate
	`, s.ID, s.WorkflowID, s.Channel, s.PeriodType, s.PeriodStartDate,
		s.Sends, s.Delivered, s.Opens, s.Clicks, s.Unsubs, s.Bounces, s.Complaints,
		s.OpenRate, s.ClickRate, s.UnsubRate, s.BounceRate, s.ComplaintRate)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns snapshots for a workflow ordered newest first.
func (r *SnapshotRepo) ListSnapshots(ctx context.Context, workflowID string, limit int) ([]domain.MetricSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, channel, period_type, period_start_date,
		       sends, delivered, opens, clicks, unsubs, bounces, complaints,
		       open_rate, click_rate, unsub_rate, bounce_rate, complaint_rate,
		       created_at
		FROM crm_metric_snapshots
		WHERE workflow_id = $1
		ORDER BY period_start_date DESC
		LIMIT $2
	`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricSnapshot
	for rows.Next() {
		var s domain.MetricSnapshot
		if err := rows.Scan(
			&s.ID, &s.WorkflowID, &s.Channel, &s.PeriodType, &s.PeriodStartDate,
			&s.Sends, &s.Delivered, &s.Opens, &s.Clicks, &s.Unsubs, &s.Bounces, &s.Complaints,
			&s.OpenRate, &s.ClickRate, &s.UnsubRate, &s.BounceRate, &s.ComplaintRate,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) WorkflowProduct(ctx context.Context, workflowID string) (string, error) {
	var productID string
	err := r.db.QueryRowContext(ctx,
		`SELECT product_id FROM crm_flows WHERE id = $1`, workflowID,
	).Scan(&productID)
	if err == sql.ErrNoRows {
		return "", nil // unknown workflow still resolves channel/global targets
	}
	if err != nil {
		return "", fmt.Errorf("workflow product: %w", err)
	}
	return productID, nil
}

func (r *SnapshotRepo) TargetCandidates(ctx context.Context, metricName string) ([]domain.Target, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, metric_name, workflow_id, product_id, channel, period_type,
		       effective_from, effective_until, target_value, amber_floor, red_floor,
		       created_at, updated_at
		FROM crm_kpi_targets
		WHERE metric_name = $1
		ORDER BY created_at DESC
	`, metricName)
	if err != nil {
		return nil, fmt.Errorf("target candidates: %w", err)
	}
	defer rows.Close()
	return scanTargets(rows)
}

func (r *SnapshotRepo) HealthConfig(ctx context.Context) (*domain.HealthConfig, error) {
	cfg := &domain.HealthConfig{}
	err := r.db.QueryRowContext(ctx, `
		SELECT amber_floor, wow_amber_drop, wow_red_drop, rollup_strategy
		FROM crm_health_config
		LIMIT 1
	`).Scan(&cfg.AmberFloor, &cfg.WoWAmberDrop, &cfg.WoWRedDrop, &cfg.RollupStrategy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("health config: %w", err)
	}
	return cfg, nil
}

// SaveHealthConfig replaces the single config row.
func (r *SnapshotRepo) SaveHealthConfig(ctx context.Context, cfg *domain.HealthConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_health_config (id, amber_floor, wow_amber_drop, wow_red_drop, rollup_strategy, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			amber_floor = EXCLUDED.amber_floor,
			wow_amber_drop = EXCLUDED.wow_amber_drop,
			wow_red_drop = EXCLUDED.wow_red_drop,
			rollup_strategy = EXCLUDED.rollup_strategy,
			updated_at = NOW()
	`, cfg.AmberFloor, cfg.WoWAmberDrop, cfg.WoWRedDrop, cfg.RollupStrategy)
	if err != nil {
		return fmt.Errorf("save health config: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) UpsertFlag(ctx context.Context, f *domain.HealthFlag) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_health_flags
			(id, workflow_id, channel, period_type, period_start_date, metric_name,
			 status, value, target_value, reason, delta_wow, delta_mom, computed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (workflow_id, channel, period_type, period_start_date, metric_name) DO UPDATE SET
			status = EXCLUDED.status, value = EXCLUDED.value,
			target_value = EXCLUDED.target_value, reason = EXCLUDED.reason,
			delta_wow = EXCLUDED.delta_wow, delta_mom = EXCLUDED.delta_mom,
			computed_at = EXCLUDED.computed_at
	`, f.ID, f.WorkflowID, f.Channel, f.PeriodType, f.PeriodStartDate, f.MetricName,
		f.Status, f.Value, f.TargetValue, f.Reason, f.DeltaWoW, f.DeltaMoM, f.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert flag: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Flags(ctx context.Context, f health.FlagFilter) ([]domain.HealthFlag, error) {
	q := `
		SELECT id, workflow_id, channel, period_type, period_start_date, metric_name,
		       status, value, target_value, reason, delta_wow, delta_mom, computed_at
		FROM crm_health_flags
		WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.WorkflowID != "" {
		q += fmt.Sprintf(" AND workflow_id = $%d", idx)
		args = append(args, f.WorkflowID)
		idx++
	}
	if f.Channel != "" {
		q += fmt.Sprintf(" AND channel = $%d", idx)
		args = append(args, f.Channel)
		idx++
	}
	if f.PeriodType != "" {
		q += fmt.Sprintf(" AND period_type = $%d", idx)
		args = append(args, f.PeriodType)
		idx++
	}
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Since != nil {
		q += fmt.Sprintf(" AND period_start_date >= $%d", idx)
		args = append(args, *f.Since)
		idx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	q += fmt.Sprintf(" ORDER BY period_start_date DESC, workflow_id, metric_name LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var out []domain.HealthFlag
	for rows.Next() {
		var fl domain.HealthFlag
		if err := rows.Scan(
			&fl.ID, &fl.WorkflowID, &fl.Channel, &fl.PeriodType, &fl.PeriodStartDate, &fl.MetricName,
			&fl.Status, &fl.Value, &fl.TargetValue, &fl.Reason, &fl.DeltaWoW, &fl.DeltaMoM, &fl.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out = append(out, fl)
	}
	return out, rows.Err()
}
