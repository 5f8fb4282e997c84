package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/crm-atlas/internal/domain"
	"github.com/ignite/crm-atlas/internal/service/flow"
)

// FlowRepo implements flow.Repository against PostgreSQL. Channels are stored
// as a text[] column.
type FlowRepo struct{ db *sql.DB }

// NewFlowRepo creates a Postgres-backed flow repository.
func NewFlowRepo(db *sql.DB) *FlowRepo { return &FlowRepo{db: db} }

const flowCols = `id, name, product_id, purpose, trigger_type, channels, frequency, live,
	       priority, suppression_rules, max_frequency_per_user_days, created_at, updated_at`

func scanFlow(row interface{ Scan(...interface{}) error }, fl *domain.Flow) error {
	var channels pq.StringArray
	if err := row.Scan(
		&fl.ID, &fl.Name, &fl.ProductID, &fl.Purpose, &fl.TriggerType, &channels,
		&fl.Frequency, &fl.Live, &fl.Priority, &fl.SuppressionRules,
		&fl.MaxFrequencyPerUserDays, &fl.CreatedAt, &fl.UpdatedAt,
	); err != nil {
		return err
	}
	fl.Channels = make([]domain.Channel, len(channels))
	for i, c := range channels {
		fl.Channels[i] = domain.Channel(c)
	}
	return nil
}

func channelsArray(channels []domain.Channel) pq.StringArray {
	out := make(pq.StringArray, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}

func (r *FlowRepo) Get(ctx context.Context, id string) (*domain.Flow, error) {
	fl := &domain.Flow{}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+flowCols+`
		FROM crm_flows
		WHERE id = $1
	`, id)
	err := scanFlow(row, fl)
	if err == sql.ErrNoRows {
		return nil, flow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}
	return fl, nil
}

func (r *FlowRepo) List(ctx context.Context, f flow.ListFilter) ([]domain.Flow, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.ProductID != "" {
		where += fmt.Sprintf(" AND product_id = $%d", idx)
		args = append(args, f.ProductID)
		idx++
	}
	if f.Purpose != "" {
		where += fmt.Sprintf(" AND purpose = $%d", idx)
		args = append(args, f.Purpose)
		idx++
	}
	if f.LiveOnly {
		where += " AND live = TRUE"
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crm_flows"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count flows: %w", err)
	}

	q := "SELECT " + flowCols + " FROM crm_flows" + where +
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var out []domain.Flow
	for rows.Next() {
		var fl domain.Flow
		if err := scanFlow(rows, &fl); err != nil {
			return nil, 0, fmt.Errorf("scan flow: %w", err)
		}
		out = append(out, fl)
	}
	return out, total, rows.Err()
}

func (r *FlowRepo) Create(ctx context.Context, fl *domain.Flow) (string, error) {
	if fl.ID == "" {
		fl.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crm_flows
			(id, name, product_id, purpose, trigger_type, channels, frequency, live,
			 priority, suppression_rules, max_frequency_per_user_days, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
	`, fl.ID, fl.Name, fl.ProductID, fl.Purpose, fl.TriggerType, channelsArray(fl.Channels),
		fl.Frequency, fl.Live, fl.Priority, fl.SuppressionRules, fl.MaxFrequencyPerUserDays)
	if err != nil {
		return "", fmt.Errorf("create flow: %w", err)
	}
	return fl.ID, nil
}

func (r *FlowRepo) Update(ctx context.Context, id string, u flow.UpdateFields) error {
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
	if u.Purpose != nil {
		add("purpose", *u.Purpose)
	}
	if u.TriggerType != nil {
		add("trigger_type", *u.TriggerType)
	}
	if u.Channels != nil {
		add("channels", channelsArray(u.Channels))
	}
	if u.Frequency != nil {
		add("frequency", *u.Frequency)
	}
	if u.Live != nil {
		add("live", *u.Live)
	}
	if u.ClearPriority {
		sets = append(sets, "priority = NULL")
	} else if u.Priority != nil {
		add("priority", *u.Priority)
	}
	if u.ClearSuppression {
		sets = append(sets, "suppression_rules = NULL")
	} else if u.SuppressionRules != nil {
		add("suppression_rules", *u.SuppressionRules)
	}
	if u.MaxFrequencyPerUserDays != nil {
		add("max_frequency_per_user_days", *u.MaxFrequencyPerUserDays)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	q := fmt.Sprintf("UPDATE crm_flows SET %s WHERE id = $%d", joinComma(sets), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update flow: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return flow.ErrNotFound
	}
	return nil
}

func (r *FlowRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crm_flows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return flow.ErrNotFound
	}
	return nil
}
