package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TemplateRepository persists weekly availability templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Template, int, error)
	// ListForDate returns the templates whose weekday matches date and
	// whose validity window covers it.
	ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Template, error)
}

// BookingLookup exposes the appointment side the resolver needs: the
// time labels already occupied for a doctor on a date.
type BookingLookup interface {
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
}
