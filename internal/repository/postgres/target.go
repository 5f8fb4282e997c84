package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/target"
)

// TargetRepo implements target.Repository against PostgreSQL.
type TargetRepo struct{ db *sql.DB }

// NewTargetRepo creates a Postgres-backed target repository.
func NewTargetRepo(db *sql.DB) *TargetRepo { return &TargetRepo{db: db} }

const targetCols = `id, metric_name, workflow_id, product_id, channel, period_type,
	       effective_from, effective_until, target_value, amber_floor, red_floor,
	       created_at, updated_at`

func (r *TargetRepo) Get(ctx context.Context, id string) (*domain.Target, error) {
	t := &domain.Target{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+targetCols+`
		FROM crm_kpi_targets
		WHERE id = $1
	`, id).Scan(
		&t.ID, &t.MetricName, &t.WorkflowID, &t.ProductID, &t.Channel, &t.PeriodType,
		&t.EffectiveFrom, &t.EffectiveUntil, &t.TargetValue, &t.AmberFloor, &t.RedFloor,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, target.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	return t, nil
}

func (r *TargetRepo) List(ctx context.Context, f target.ListFilter) ([]domain.Target, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	add := func(cond string, val interface{}) {
		where += fmt.Sprintf(" AND "+cond, idx)
		args = append(args, val)
		idx++
	}
	if f.MetricName != "" {
		add("metric_name = $%d", f.MetricName)
	}
	if f.WorkflowID != "" {
		add("workflow_id = $%d", f.WorkflowID)
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.Channel != "" {
		add("channel = $%d", f.Channel)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crm_kpi_targets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count targets: %w", err)
	}

	// Most specific first: workflow > product > channel > global, then newest.
	q := "SELECT " + targetCols + " FROM crm_kpi_targets" + where + fmt.Sprintf(`
		ORDER BY (workflow_id IS NOT NULL) DESC,
		         (product_id IS NOT NULL) DESC,
		         (channel IS NOT NULL) DESC,
		         created_at DESC
		LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	out, err := scanTargets(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *TargetRepo) Create(ctx context.Context, t *domain.Target) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_kpi_targets
			(id, metric_name, workflow_id, product_id, channel, period_type,
			 effective_from, effective_until, target_value, amber_floor, red_floor,
			 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
	`, t.ID, t.MetricName, t.WorkflowID, t.ProductID, t.Channel, t.PeriodType,
		t.EffectiveFrom, t.EffectiveUntil, t.TargetValue, t.AmberFloor, t.RedFloor)
	if err != nil {
		return "", fmt.Errorf("create target: %w", err)
	}
	return t.ID, nil
}

func (r *TargetRepo) Update(ctx context.Context, id string, u target.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.TargetValue != nil {
		add("target_value", *u.TargetValue)
	}
	if u.AmberFloor != nil {
		add("amber_floor", *u.AmberFloor)
	}
	if u.RedFloor != nil {
		add("red_floor", *u.RedFloor)
	}
	if u.EffectiveUntil != nil {
		if *u.EffectiveUntil == "" {
			sets = append(sets, "effective_until = NULL")
		} else {
			until, err := time.Parse("2006-01-02", *u.EffectiveUntil)
			if err != nil {
				return fmt.Errorf("parse effective_until: %w", err)
			}
			add("effective_until", until)
		}
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE crm_kpi_targets SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update target: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return target.ErrNotFound
	}
	return nil
}

func (r *TargetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crm_kpi_targets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return target.ErrNotFound
	}
	return nil
}

func scanTargets(rows *sql.Rows) ([]domain.Target, error) {
	var out []domain.Target
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(
			&t.ID, &t.MetricName, &t.WorkflowID, &t.ProductID, &t.Channel, &t.PeriodType,
			&t.EffectiveFrom, &t.EffectiveUntil, &t.TargetValue, &t.AmberFloor, &t.RedFloor,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
