package emergency

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/careops/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const alertCols = `id, patient_id, triggered_by, severity, location, description, status, acknowledged_by, acknowledged_at, resolved_by, resolved_at, cancelled_by, cancelled_at, response_notes, created_at, updated_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.PatientID, &a.TriggeredBy, &a.Severity, &a.Location, &a.Description,
		&a.Status, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.ResolvedBy, &a.ResolvedAt,
		&a.CancelledBy, &a.CancelledAt, &a.ResponseNotes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency_alert (id, patient_id, triggered_by, severity, location, description, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.PatientID, a.TriggeredBy, a.Severity, a.Location, a.Description, a.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.conn(ctx).QueryRow(ctx,
		`SELECT `+alertCols+` FROM emergency_alert WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Alert) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE emergency_alert SET status=$2, acknowledged_by=$3, acknowledged_at=$4,
			resolved_by=$5, resolved_at=$6, cancelled_by=$7, cancelled_at=$8, response_notes=$9, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.AcknowledgedBy, a.AcknowledgedAt,
		a.ResolvedBy, a.ResolvedAt, a.CancelledBy, a.CancelledAt, a.ResponseNotes)
	return err
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM emergency_alert WHERE status IN ('active','acknowledged')`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM emergency_alert
		WHERE status IN ('active','acknowledged')
		ORDER BY CASE severity
			WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1
		END DESC, created_at
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM emergency_alert`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+alertCols+` FROM emergency_alert ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Alert, error) {
	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
