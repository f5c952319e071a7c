package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists queue entries. CreateWithNextNumber assigns the
// next queue number for (doctor, day) atomically; the unique index on
// (doctor_id, day, queue_number) closes the assignment race and the
// caller retries on a unique violation.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	CreateWithNextNumber(ctx context.Context, e *Entry) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	ListForDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Entry, error)
	RecomputePositions(ctx context.Context, doctorID uuid.UUID, day time.Time) error
}

// AppointmentGateway is the appointment side the coordinator needs:
// a snapshot for lazy entry creation and status synchronization back
// to the parent appointment. Satisfied by appointment.Service.
type AppointmentGateway interface {
	Snapshot(ctx context.Context, id uuid.UUID) (doctorID, patientID uuid.UUID, date time.Time, status string, err error)
	SyncStatus(ctx context.Context, id uuid.UUID, status string) error
}
