package medication

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

const scheduleCols = `id, patient_id, medication_name, dosage, route, times, start_date, end_date, status, last_administered, next_dose_time, notes, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.PatientID, &s.MedicationName, &s.Dosage, &s.Route, &s.Times,
		&s.StartDate, &s.EndDate, &s.Status, &s.LastAdministered, &s.NextDoseTime,
		&s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_schedule (id, patient_id, medication_name, dosage, route, times, start_date, end_date, status, next_dose_time, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.PatientID, s.MedicationName, s.Dosage, s.Route, s.Times,
		s.StartDate, s.EndDate, s.Status, s.NextDoseTime, s.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM medication_schedule WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Schedule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication_schedule SET status=$2, last_administered=$3, next_dose_time=$4, notes=$5, end_date=$6, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Status, s.LastAdministered, s.NextDoseTime, s.Notes, s.EndDate)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication_schedule WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+` FROM medication_schedule
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication_schedule WHERE status = 'active'`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+` FROM medication_schedule
		WHERE status = 'active' ORDER BY next_dose_time NULLS LAST LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Schedule, error) {
	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
