package medication

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists medication schedules.
type Repository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Schedule, int, error)
}
