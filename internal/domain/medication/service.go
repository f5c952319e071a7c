package medication

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
)

// Service owns the medication schedule lifecycle. All dose arithmetic
// runs in UTC; there is no background timer, the next dose is
// recomputed synchronously on every administration.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "medication").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Schedule, error) {
	times, start, end, err := req.Validate()
	if err != nil {
		return nil, err
	}

	next, err := firstDoseOnOrAfter(times, s.now(), start, end)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	sched := &Schedule{
		PatientID:      req.PatientID,
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Route:          req.Route,
		Times:          times,
		StartDate:      start,
		EndDate:        end,
		Status:         StatusActive,
		NextDoseTime:   next,
		Notes:          req.Notes,
	}
	if next == nil {
		// The validity window is already over, nothing to administer.
		sched.Status = StatusCompleted
	}
	if err := s.repo.Create(ctx, sched); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info().
		Str("schedule_id", sched.ID.String()).
		Str("medication", sched.MedicationName).
		Int("daily_doses", len(times)).
		Msg("medication schedule created")
	return s.Get(ctx, sched.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medication schedule")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return sched, nil
}

// MarkAdministered stamps the administration and advances NextDoseTime
// to the earliest listed time strictly after now, rolling to the next
// day when today's list is exhausted. Running past the end date
// completes the schedule.
func (s *Service) MarkAdministered(ctx context.Context, id uuid.UUID, req *AdministerRequest) (*Schedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sched.Status {
	case StatusActive, StatusMissed:
	default:
		return nil, apperr.Conflict("medication schedule is %s", sched.Status)
	}

	now := s.now()
	next, err := doseAfter(sched.Times, now, sched.StartDate, sched.EndDate)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	sched.LastAdministered = &now
	sched.NextDoseTime = next
	sched.Status = StatusActive
	if next == nil {
		sched.Status = StatusCompleted
	}
	if req.Notes != "" {
		if sched.Notes != "" {
			sched.Notes += "\n"
		}
		sched.Notes += req.Notes
	}
	if err := s.repo.Update(ctx, sched); err != nil {
		return nil, apperr.Internal(err)
	}
	return sched, nil
}

// MarkMissed flags an active schedule as missed. The next
// administration returns it to active.
func (s *Service) MarkMissed(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched.Status != StatusActive {
		return nil, apperr.Conflict("medication schedule is %s", sched.Status)
	}
	sched.Status = StatusMissed
	if err := s.repo.Update(ctx, sched); err != nil {
		return nil, apperr.Internal(err)
	}
	return sched, nil
}

// Stop halts an active or missed schedule permanently.
func (s *Service) Stop(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sched.Status {
	case StatusActive, StatusMissed:
	default:
		return nil, apperr.Conflict("medication schedule is %s", sched.Status)
	}
	sched.Status = StatusStopped
	sched.NextDoseTime = nil
	if err := s.repo.Update(ctx, sched); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info().Str("schedule_id", sched.ID.String()).Msg("medication schedule stopped")
	return sched, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Schedule, int, error) {
	items, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}
