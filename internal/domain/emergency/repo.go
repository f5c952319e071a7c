package emergency

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists emergency alerts.
type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	Update(ctx context.Context, a *Alert) error
	// ListActive returns unresolved alerts ordered by severity rank
	// (critical first) then age (oldest first).
	ListActive(ctx context.Context, limit, offset int) ([]*Alert, int, error)
	List(ctx context.Context, limit, offset int) ([]*Alert, int, error)
}
