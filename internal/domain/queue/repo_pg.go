package queue

import (
	"context"
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

const entryCols = `id, appointment_id, doctor_id, patient_id, day, queue_number, position, status, estimated_wait_minutes, checked_in_at, called_at, seen_at, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.AppointmentID, &e.DoctorID, &e.PatientID, &e.Day,
		&e.QueueNumber, &e.Position, &e.Status, &e.EstimatedWaitMinutes,
		&e.CheckedInAt, &e.CalledAt, &e.SeenAt, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO queue_entry (id, appointment_id, doctor_id, patient_id, day, queue_number, position, status, estimated_wait_minutes, checked_in_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())`,
		e.ID, e.AppointmentID, e.DoctorID, e.PatientID, e.Day,
		e.QueueNumber, e.Position, e.Status, e.EstimatedWaitMinutes)
	return err
}

// CreateWithNextNumber computes MAX(queue_number)+1 inside the insert
// so concurrent first-touches for the same doctor/day collide on the
// unique index instead of silently duplicating a number.
func (r *repoPG) CreateWithNextNumber(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO queue_entry (id, appointment_id, doctor_id, patient_id, day, queue_number, position, status, estimated_wait_minutes, checked_in_at)
		VALUES ($1,$2,$3,$4,$5,
			(SELECT COALESCE(MAX(queue_number),0)+1 FROM queue_entry WHERE doctor_id=$3 AND day=$5),
			$6,$7,$8,NOW())
		RETURNING queue_number`,
		e.ID, e.AppointmentID, e.DoctorID, e.PatientID, e.Day,
		e.Position, e.Status, e.EstimatedWaitMinutes).Scan(&e.QueueNumber)
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM queue_entry WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) Update(ctx context.Context, e *Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE queue_entry SET status=$2, position=$3, estimated_wait_minutes=$4, called_at=$5, seen_at=$6, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Status, e.Position, e.EstimatedWaitMinutes, e.CalledAt, e.SeenAt)
	return err
}

func (r *repoPG) ListForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM queue_entry
		WHERE doctor_id = $1 AND day = $2 ORDER BY queue_number`,
		doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// RecomputePositions ranks the day's unfinished entries by queue
// number and persists the ranks. Completed entries drop to position 0.
func (r *repoPG) RecomputePositions(ctx context.Context, doctorID uuid.UUID, day time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE queue_entry q SET position = COALESCE(ranked.pos, 0), updated_at = NOW()
		FROM queue_entry base
		LEFT JOIN (
			SELECT id, ROW_NUMBER() OVER (ORDER BY queue_number) AS pos
			FROM queue_entry
			WHERE doctor_id = $1 AND day = $2 AND status <> 'completed'
		) ranked ON ranked.id = base.id
		WHERE q.id = base.id AND base.doctor_id = $1 AND base.day = $2`,
		doctorID, day)
	return err
}
