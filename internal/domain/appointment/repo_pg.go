package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const appointmentCols = `id, patient_id, doctor_id, date, time, type, status, reason, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Type, &a.Status,
		&a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, date, time, type, status, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Type, a.Status, a.Reason, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET date=$2, time=$3, status=$4, reason=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Status, a.Reason, a.Notes)
	return err
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	if date != nil {
		where += ` AND date = $2`
		args = append(args, *date)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+appointmentCols+` FROM appointment %s ORDER BY date, time LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM appointment
		WHERE patient_id = $1 ORDER BY date DESC, time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) DoctorAvailable(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var available bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT is_available FROM doctor WHERE id = $1`, doctorID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		// Doctor records are managed elsewhere; an unknown doctor is
		// only gated by their availability templates.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return available, nil
}

func (r *repoPG) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT time FROM appointment
		WHERE doctor_id = $1 AND date = $2
		  AND status IN ('scheduled','confirmed','in_progress','rescheduled')
		ORDER BY time`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
