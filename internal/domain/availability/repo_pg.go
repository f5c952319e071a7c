package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/careops/internal/platform/db"
)

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const templateCols = `id, doctor_id, day_of_week, start_time, end_time, valid_from, valid_until, created_at, updated_at`

func (r *templateRepoPG) scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.DoctorID, &t.DayOfWeek, &t.StartTime, &t.EndTime,
		&t.ValidFrom, &t.ValidUntil, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *templateRepoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability_template (id, doctor_id, day_of_week, start_time, end_time, valid_from, valid_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.DoctorID, t.DayOfWeek, t.StartTime, t.EndTime, t.ValidFrom, t.ValidUntil)
	return err
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	return r.scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM availability_template WHERE id = $1`, id))
}

func (r *templateRepoPG) Update(ctx context.Context, t *Template) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability_template SET day_of_week=$2, start_time=$3, end_time=$4,
			valid_from=$5, valid_until=$6, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.DayOfWeek, t.StartTime, t.EndTime, t.ValidFrom, t.ValidUntil)
	return err
}

func (r *templateRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM availability_template WHERE id = $1`, id)
	return err
}

func (r *templateRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Template, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM availability_template WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+templateCols+` FROM availability_template
		WHERE doctor_id = $1 ORDER BY day_of_week, start_time LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *templateRepoPG) ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+templateCols+` FROM availability_template
		WHERE doctor_id = $1
		  AND day_of_week = $2
		  AND (valid_from IS NULL OR valid_from <= $3)
		  AND (valid_until IS NULL OR valid_until >= $3)
		ORDER BY start_time`,
		doctorID, int(date.Weekday()), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
