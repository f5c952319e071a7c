package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/db"
	"github.com/careops/careops/pkg/clock"
)

// number assignment retries after a concurrent insert takes the number
// this one computed.
const assignRetries = 3

// Service coordinates the per-doctor daily waiting queue. Entries are
// created lazily on the first status update for an appointment and
// mirror their status back to it.
type Service struct {
	repo         Repository
	appointments AppointmentGateway
	slotMinutes  int
	logger       zerolog.Logger
}

func NewService(repo Repository, appointments AppointmentGateway, slotMinutes int, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		slotMinutes:  slotMinutes,
		logger:       logger.With().Str("service", "queue").Logger(),
	}
}

// UpdateStatus applies a queue-status update for an appointment,
// creating the entry on first touch. in_progress stamps called_at,
// completed stamps seen_at, and the parent appointment is kept in step.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, req *UpdateRequest) (*Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByAppointment(ctx, appointmentID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if e, err = s.createEntry(ctx, appointmentID, req); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, apperr.Internal(err)
	default:
		s.applyUpdate(e, req)
		if err := s.repo.Update(ctx, e); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	if err := s.repo.RecomputePositions(ctx, e.DoctorID, e.Day); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.appointments.SyncStatus(ctx, appointmentID, e.Status.appointmentStatus()); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", appointmentID.String()).
			Msg("appointment status sync failed")
	}

	e, err = s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e, nil
}

func (s *Service) createEntry(ctx context.Context, appointmentID uuid.UUID, req *UpdateRequest) (*Entry, error) {
	doctorID, patientID, date, status, err := s.appointments.Snapshot(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	switch status {
	case "cancelled", "no_show", "completed":
		return nil, apperr.Conflict("appointment is %s and cannot join the queue", status)
	}

	e := &Entry{
		AppointmentID:        appointmentID,
		DoctorID:             doctorID,
		PatientID:            patientID,
		Day:                  clock.Day(date),
		Status:               req.Status,
		EstimatedWaitMinutes: req.EstimatedWaitMinutes,
	}
	s.stamp(e, req.Status)

	if req.QueueNumber != nil {
		e.QueueNumber = *req.QueueNumber
		if err := s.repo.Create(ctx, e); err != nil {
			if db.UniqueViolation(err, "uq_queue_number") {
				return nil, apperr.Conflict("queue number %d is already assigned", e.QueueNumber)
			}
			if db.UniqueViolation(err, "uq_queue_appointment") {
				return s.repo.GetByAppointment(ctx, appointmentID)
			}
			return nil, apperr.Internal(err)
		}
		return e, nil
	}

	for attempt := 0; attempt < assignRetries; attempt++ {
		err := s.repo.CreateWithNextNumber(ctx, e)
		if err == nil {
			return e, nil
		}
		if db.UniqueViolation(err, "uq_queue_appointment") {
			// Concurrent first touch for the same appointment won.
			return s.repo.GetByAppointment(ctx, appointmentID)
		}
		if !db.UniqueViolation(err, "uq_queue_number") {
			return nil, apperr.Internal(err)
		}
	}
	return nil, apperr.Conflict("could not assign a queue number, try again")
}

func (s *Service) applyUpdate(e *Entry, req *UpdateRequest) {
	e.Status = req.Status
	if req.EstimatedWaitMinutes != nil {
		e.EstimatedWaitMinutes = req.EstimatedWaitMinutes
	}
	s.stamp(e, req.Status)
}

func (s *Service) stamp(e *Entry, status Status) {
	now := time.Now().UTC()
	switch status {
	case StatusInProgress:
		e.CalledAt = &now
	case StatusCompleted:
		e.SeenAt = &now
	}
}

// GetByAppointment returns the queue entry for an appointment.
func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByAppointment(ctx, appointmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("queue entry")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e, nil
}

// TodayQueue returns the doctor's queue for the current day in queue
// order, filling in a wait estimate for entries that have none.
func (s *Service) TodayQueue(ctx context.Context, doctorID uuid.UUID) ([]*Entry, error) {
	entries, err := s.repo.ListForDay(ctx, doctorID, clock.Day(time.Now()))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, e := range entries {
		if e.EstimatedWaitMinutes == nil && e.Status == StatusWaiting && e.Position > 0 {
			est := (e.Position - 1) * s.slotMinutes
			e.EstimatedWaitMinutes = &est
		}
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, nil
}
