package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/planning"
)

// PlanningRepo implements planning.Repository against PostgreSQL.
type PlanningRepo struct{ db *sql.DB }

// NewPlanningRepo creates a Postgres-backed planning repository.
func NewPlanningRepo(db *sql.DB) *PlanningRepo { return &PlanningRepo{db: db} }

func (r *PlanningRepo) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	o := &domain.Opportunity{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, product_id, COALESCE(description,''), status,
		       estimated_lift, COALESCE(owner,''), created_at, updated_at
		FROM crm_opportunities
		WHERE id = $1
	`, id).Scan(
		&o.ID, &o.Title, &o.ProductID, &o.Description, &o.Status,
		&o.EstimatedLift, &o.Owner, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, planning.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

func (r *PlanningRepo) ListOpportunities(ctx context.Context, f planning.ListFilter) ([]domain.Opportunity, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.ProductID != "" {
		where += fmt.Sprintf(" AND product_id = $%d", idx)
		args = append(args, f.ProductID)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crm_opportunities"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}

	q := `
		SELECT id, title, product_id, COALESCE(description,''), status,
		       estimated_lift, COALESCE(owner,''), created_at, updated_at
		FROM crm_opportunities` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var o domain.Opportunity
		if err := rows.Scan(
			&o.ID, &o.Title, &o.ProductID, &o.Description, &o.Status,
			&o.EstimatedLift, &o.Owner, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *PlanningRepo) CreateOpportunity(ctx context.Context, o *domain.Opportunity) (string, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_opportunities
			(id, title, product_id, description, status, estimated_lift, owner, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, o.ID, o.Title, o.ProductID, o.Description, o.Status, o.EstimatedLift, o.Owner)
	if err != nil {
		return "", fmt.Errorf("create opportunity: %w", err)
	}
	return o.ID, nil
}

func (r *PlanningRepo) UpdateOpportunity(ctx context.Context, id string, u planning.OpportunityUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.EstimatedLift != nil {
		add("estimated_lift", *u.EstimatedLift)
	}
	if u.Owner != nil {
		add("owner", *u.Owner)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE crm_opportunities SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return planning.ErrNotFound
	}
	return nil
}

func (r *PlanningRepo) DeleteOpportunity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crm_opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return planning.ErrNotFound
	}
	return nil
}

func (r *PlanningRepo) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	e := &domain.Experiment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, flow_id, COALESCE(hypothesis,''), COALESCE(metric_name,''),
		       status, started_at, ended_at, result, created_at, updated_at
		FROM crm_experiments
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.Name, &e.FlowID, &e.Hypothesis, &e.MetricName,
		&e.Status, &e.StartedAt, &e.EndedAt, &e.Result, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, planning.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return e, nil
}

func (r *PlanningRepo) ListExperiments(ctx context.Context, f planning.ListFilter) ([]domain.Experiment, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crm_experiments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count experiments: %w", err)
	}

	q := `
		SELECT id, name, flow_id, COALESCE(hypothesis,''), COALESCE(metric_name,''),
		       status, started_at, ended_at, result, created_at, updated_at
		FROM crm_experiments` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []domain.Experiment
	for rows.Next() {
		var e domain.Experiment
		if err := rows.Scan(
			&e.ID, &e.Name, &e.FlowID, &e.Hypothesis, &e.MetricName,
			&e.Status, &e.StartedAt, &e.EndedAt, &e.Result, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *PlanningRepo) CreateExperiment(ctx context.Context, e *domain.Experiment) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_experiments
			(id, name, flow_id, hypothesis, metric_name, status, result, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, e.ID, e.Name, e.FlowID, e.Hypothesis, e.MetricName, e.Status, e.Result)
	if err != nil {
		return "", fmt.Errorf("create experiment: %w", err)
	}
	return e.ID, nil
}

func (r *PlanningRepo) UpdateExperiment(ctx context.Context, id string, u planning.ExperimentUpdate) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Hypothesis != nil {
		add("hypothesis", *u.Hypothesis)
	}
	if u.MetricName != nil {
		add("metric_name", *u.MetricName)
	}
	if u.Status != nil {
		add("status", *u.Status)
		// Lifecycle timestamps follow the transition.
		switch domain.ExperimentStatus(*u.Status) {
		case domain.ExperimentRunning:
			sets = append(sets, "started_at = COALESCE(started_at, NOW())")
		case domain.ExperimentConcluded, domain.ExperimentAbandoned:
			sets = append(sets, "ended_at = COALESCE(ended_at, NOW())")
		}
	}
	if u.Result != nil {
		add("result", *u.Result)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE crm_experiments SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update experiment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return planning.ErrNotFound
	}
	return nil
}

func (r *PlanningRepo) DeleteExperiment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crm_experiments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return planning.ErrNotFound
	}
	return nil
}
