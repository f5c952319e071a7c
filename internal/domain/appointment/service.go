package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/domain/availability"
	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
	"github.com/careops/careops/internal/platform/db"
	"github.com/careops/careops/pkg/clock"
)

// SlotResolver is the availability side the scheduler needs: the open
// slots for a doctor's date, and cache invalidation after mutations.
// Satisfied by availability.Service.
type SlotResolver interface {
	Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) (*availability.Day, error)
	Invalidate(ctx context.Context, doctorID uuid.UUID, date time.Time)
}

// Service books, moves and closes appointments. The availability check
// before insert is advisory; the partial unique index on
// (doctor_id, date, time) for slot-occupying statuses is what actually
// closes the booking race.
type Service struct {
	repo   Repository
	slots  SlotResolver
	logger zerolog.Logger
}

func NewService(repo Repository, slots SlotResolver, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		slots:  slots,
		logger: logger.With().Str("service", "appointment").Logger(),
	}
}

func (s *Service) Book(ctx context.Context, req *BookRequest) (*Appointment, error) {
	date, hhmm, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if date.Before(clock.Day(time.Now())) {
		return nil, apperr.Validation("cannot book an appointment in the past")
	}
	if pid := auth.PatientIDFromContext(ctx); pid != "" && pid != req.PatientID.String() {
		return nil, apperr.Unauthorized("patients may only book their own appointments")
	}

	available, err := s.repo.DoctorAvailable(ctx, req.DoctorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !available {
		return nil, apperr.Conflict("doctor is not accepting appointments")
	}

	if err := s.checkSlotOpen(ctx, req.DoctorID, date, hhmm); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      hhmm,
		Type:      req.Type,
		Status:    StatusScheduled,
		Reason:    req.Reason,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if db.UniqueViolation(err, "uq_appointment_slot") {
			return nil, apperr.Conflict("time slot is already booked")
		}
		return nil, apperr.Internal(err)
	}
	s.slots.Invalidate(ctx, a.DoctorID, a.Date)
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("date", clock.FormatDate(a.Date)).
		Str("time", a.Time).
		Msg("appointment booked")
	return s.Get(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.checkOwnership(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req *RescheduleRequest) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, apperr.Conflict("appointment is %s and cannot be rescheduled", a.Status)
	}

	date, err := clock.ParseDate(req.Date)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	hhmm, err := clock.Normalize(req.Time)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if date.Before(clock.Day(time.Now())) {
		return nil, apperr.Validation("cannot reschedule into the past")
	}
	if date.Equal(a.Date) && hhmm == a.Time {
		return nil, apperr.Validation("appointment is already at the requested time")
	}

	if err := s.checkSlotOpen(ctx, a.DoctorID, date, hhmm); err != nil {
		return nil, err
	}

	oldDate, oldTime := a.Date, a.Time
	a.Date, a.Time = date, hhmm
	a.Status = StatusRescheduled
	note := fmt.Sprintf("rescheduled from %s %s", clock.FormatDate(oldDate), oldTime)
	if req.Reason != "" {
		note += ": " + req.Reason
	}
	a.appendNote(note)

	if err := s.repo.Update(ctx, a); err != nil {
		if db.UniqueViolation(err, "uq_appointment_slot") {
			return nil, apperr.Conflict("time slot is already booked")
		}
		return nil, apperr.Internal(err)
	}
	s.slots.Invalidate(ctx, a.DoctorID, oldDate)
	s.slots.Invalidate(ctx, a.DoctorID, a.Date)
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req *CancelRequest) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, apperr.Conflict("appointment is already %s", a.Status)
	}

	a.Status = StatusCancelled
	note := "cancelled"
	if req.Reason != "" {
		note += ": " + req.Reason
	}
	a.appendNote(note)

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	s.slots.Invalidate(ctx, a.DoctorID, a.Date)
	return a, nil
}

// UpdateStatus applies a bare lifecycle transition. Slot-freeing
// transitions invalidate the cached availability for the day.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.Valid() {
		return nil, apperr.Validation("unknown status %q", next)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(next) {
		return nil, apperr.Conflict("cannot transition appointment from %s to %s", a.Status, next)
	}

	freed := a.Status.OccupiesSlot() && !next.OccupiesSlot()
	a.Status = next
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	if freed {
		s.slots.Invalidate(ctx, a.DoctorID, a.Date)
	}
	return a, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date *time.Time, limit, offset int) ([]*Appointment, int, error) {
	items, total, err := s.repo.ListByDoctor(ctx, doctorID, date, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if pid := auth.PatientIDFromContext(ctx); pid != "" && pid != patientID.String() {
		return nil, 0, apperr.Unauthorized("patients may only view their own appointments")
	}
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

// checkSlotOpen verifies the requested time is one of the doctor's open
// slots: inside a template window and not already booked.
func (s *Service) checkSlotOpen(ctx context.Context, doctorID uuid.UUID, date time.Time, hhmm string) error {
	day, err := s.slots.Resolve(ctx, doctorID, date)
	if err != nil {
		return err
	}
	for _, open := range day.SlotTimes {
		if open == hhmm {
			return nil
		}
	}
	return apperr.Conflict("doctor is not available at %s on %s", hhmm, clock.FormatDate(date))
}

// checkOwnership restricts patient tokens to their own appointments.
// Staff tokens pass.
func (s *Service) checkOwnership(ctx context.Context, a *Appointment) error {
	pid := auth.PatientIDFromContext(ctx)
	if pid == "" || auth.IsStaff(ctx) {
		return nil
	}
	if pid != a.PatientID.String() {
		return apperr.Unauthorized("appointment belongs to another patient")
	}
	return nil
}
