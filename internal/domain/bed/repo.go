package bed

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists bed allocations. The partial unique index
// uq_bed_active rejects a second active holding allocation for the
// same (bed_number, room_number).
type Repository interface {
	Create(ctx context.Context, a *Allocation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Allocation, error)
	Update(ctx context.Context, a *Allocation) error
	ListActive(ctx context.Context, limit, offset int) ([]*Allocation, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Allocation, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
