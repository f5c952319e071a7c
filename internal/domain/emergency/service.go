package emergency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
)

// Service runs the alert lifecycle: trigger, acknowledge, resolve,
// cancel. Acknowledging twice re-stamps the acknowledger rather than
// failing, so the record always names whoever confirmed it last.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "emergency").Logger(),
	}
}

func (s *Service) Trigger(ctx context.Context, req *TriggerRequest) (*Alert, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a := &Alert{
		PatientID:   req.PatientID,
		TriggeredBy: auth.UserIDFromContext(ctx),
		Severity:    req.Severity,
		Location:    req.Location,
		Description: req.Description,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Warn().
		Str("alert_id", a.ID.String()).
		Str("severity", string(a.Severity)).
		Str("location", a.Location).
		Msg("emergency alert triggered")
	return s.Get(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("emergency alert")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, apperr.Conflict("alert is already %s", a.Status)
	}

	now := time.Now().UTC()
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = auth.UserIDFromContext(ctx)
	a.AcknowledgedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) Resolve(ctx context.Context, id uuid.UUID, req *ResolveRequest) (*Alert, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, apperr.Conflict("alert is already %s", a.Status)
	}

	now := time.Now().UTC()
	a.Status = StatusResolved
	a.ResolvedBy = auth.UserIDFromContext(ctx)
	a.ResolvedAt = &now
	a.ResponseNotes = req.ResponseNotes
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info().Str("alert_id", a.ID.String()).Msg("emergency alert resolved")
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, apperr.Conflict("alert is already %s", a.Status)
	}

	now := time.Now().UTC()
	a.Status = StatusCancelled
	a.CancelledBy = auth.UserIDFromContext(ctx)
	a.CancelledAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

// ListActive returns unresolved alerts, most urgent and oldest first.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	items, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Alert, int, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}
