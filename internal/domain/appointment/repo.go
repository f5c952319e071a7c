package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. BookedTimes doubles as the
// availability resolver's booking lookup.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	// DoctorAvailable reports whether the doctor accepts bookings at
	// all. Doctors without a record are treated as available.
	DoctorAvailable(ctx context.Context, doctorID uuid.UUID) (bool, error)
}
