package bed

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

const allocationCols = `id, patient_id, bed_number, room_number, room_type, floor, status, is_active, allocated_by, allocated_at, expected_discharge_date, discharged_at, discharge_notes, created_at, updated_at`

func scanAllocation(row pgx.Row) (*Allocation, error) {
	var a Allocation
	err := row.Scan(&a.ID, &a.PatientID, &a.BedNumber, &a.RoomNumber, &a.RoomType, &a.Floor,
		&a.Status, &a.IsActive, &a.AllocatedBy, &a.AllocatedAt,
		&a.ExpectedDischargeDate, &a.DischargedAt, &a.DischargeNotes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Allocation) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed_allocation (id, patient_id, bed_number, room_number, room_type, floor, status, is_active, allocated_by, allocated_at, expected_discharge_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),$10)`,
		a.ID, a.PatientID, a.BedNumber, a.RoomNumber, a.RoomType, a.Floor,
		a.Status, a.IsActive, a.AllocatedBy, a.ExpectedDischargeDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Allocation, error) {
	return scanAllocation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allocationCols+` FROM bed_allocation WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Allocation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed_allocation SET status=$2, is_active=$3, discharged_at=$4, discharge_notes=$5, expected_discharge_date=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.IsActive, a.DischargedAt, a.DischargeNotes, a.ExpectedDischargeDate)
	return err
}

func (r *repoPG) ListActive(ctx context.Context, limit, offset int) ([]*Allocation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_allocation WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+allocationCols+` FROM bed_allocation
		WHERE is_active ORDER BY floor, room_number, bed_number LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Allocation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_allocation WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+allocationCols+` FROM bed_allocation
		WHERE patient_id = $1 ORDER BY allocated_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT status, COUNT(*) FROM bed_allocation WHERE is_active GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var s Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case StatusOccupied:
			s.Occupied = count
		case StatusReserved:
			s.Reserved = count
		case StatusMaintenance:
			s.Maintenance = count
		}
		s.Total += count
	}
	return &s, rows.Err()
}

func collect(rows pgx.Rows) ([]*Allocation, error) {
	var items []*Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
