package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careops/careops/internal/platform/apperr"
)

// Snapshot returns the identity fields the queue coordinator needs to
// create an entry for an appointment.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (doctorID, patientID uuid.UUID, date time.Time, status string, err error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, uuid.Nil, time.Time{}, "", apperr.NotFound("appointment")
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, "", apperr.Internal(err)
	}
	return a.DoctorID, a.PatientID, a.Date, string(a.Status), nil
}

// SyncStatus aligns an appointment with its queue entry. Unlike
// UpdateStatus it bypasses the transition table: the queue already
// observed the real-world event (patient called in, consultation
// finished) and the record follows it. Terminal appointments are left
// alone.
func (s *Service) SyncStatus(ctx context.Context, id uuid.UUID, status string) error {
	next := Status(status)
	if !next.Valid() {
		return apperr.Validation("unknown status %q", status)
	}
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("appointment")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if a.Status == next || a.Status.Terminal() {
		return nil
	}

	freed := a.Status.OccupiesSlot() && !next.OccupiesSlot()
	a.Status = next
	if err := s.repo.Update(ctx, a); err != nil {
		return apperr.Internal(err)
	}
	if freed {
		s.slots.Invalidate(ctx, a.DoctorID, a.Date)
	}
	return nil
}
