package bed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/auth"
	"github.com/careops/careops/internal/platform/db"
)

// Service tracks bed occupancy. Exclusivity is closed by the partial
// unique index on (bed_number, room_number) for active holding
// allocations; the service translates the violation into a conflict.
type Service struct {
	repo   Repository
	tx     db.TxRunner
	logger zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("service", "bed").Logger(),
	}
}

func (s *Service) Allocate(ctx context.Context, req *AllocateRequest) (*Allocation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := StatusOccupied
	if req.Reserve {
		status = StatusReserved
	}
	a := &Allocation{
		PatientID:             req.PatientID,
		BedNumber:             req.BedNumber,
		RoomNumber:            req.RoomNumber,
		RoomType:              req.RoomType,
		Floor:                 req.Floor,
		Status:                status,
		IsActive:              true,
		AllocatedBy:           auth.UserIDFromContext(ctx),
		ExpectedDischargeDate: req.ExpectedDischargeDate,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if db.UniqueViolation(err, "uq_bed_active") {
			return nil, apperr.Conflict("bed %s in room %s is already occupied", req.BedNumber, req.RoomNumber)
		}
		return nil, apperr.Internal(err)
	}
	s.logger.Info().
		Str("allocation_id", a.ID.String()).
		Str("bed", a.BedNumber).
		Str("room", a.RoomNumber).
		Msg("bed allocated")
	return s.Get(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Allocation, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("bed allocation")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) Release(ctx context.Context, id uuid.UUID, req *ReleaseRequest) (*Allocation, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, apperr.Conflict("allocation is already released")
	}

	now := time.Now().UTC()
	a.Status = StatusAvailable
	a.IsActive = false
	if req.Maintenance {
		// The row stays active so the bed keeps blocking new
		// allocations; a second release returns it to service.
		a.Status = StatusMaintenance
		a.IsActive = true
	}
	a.DischargedAt = &now
	a.DischargeNotes = req.DischargeNotes
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info().
		Str("allocation_id", a.ID.String()).
		Str("bed", a.BedNumber).
		Str("room", a.RoomNumber).
		Msg("bed released")
	return a, nil
}

// Transfer releases the patient's current allocation and creates one
// for the target bed in a single transaction, so the patient is never
// left holding two beds and a failed target leaves the source intact.
func (s *Service) Transfer(ctx context.Context, id uuid.UUID, req *TransferRequest) (*Allocation, error) {
	if req.BedNumber == "" || req.RoomNumber == "" {
		return nil, apperr.Validation("bed_number and room_number are required")
	}

	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !src.IsActive {
		return nil, apperr.Conflict("allocation is already released")
	}
	if src.BedNumber == req.BedNumber && src.RoomNumber == req.RoomNumber {
		return nil, apperr.Validation("patient already occupies that bed")
	}

	dst := &Allocation{
		PatientID:             src.PatientID,
		BedNumber:             req.BedNumber,
		RoomNumber:            req.RoomNumber,
		RoomType:              req.RoomType,
		Floor:                 req.Floor,
		Status:                src.Status,
		IsActive:              true,
		AllocatedBy:           auth.UserIDFromContext(ctx),
		ExpectedDischargeDate: src.ExpectedDischargeDate,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		src.Status = StatusAvailable
		src.IsActive = false
		src.DischargedAt = &now
		notes := "transferred to bed " + req.BedNumber + " room " + req.RoomNumber
		if req.Notes != "" {
			notes += ": " + req.Notes
		}
		src.DischargeNotes = notes
		if err := s.repo.Update(ctx, src); err != nil {
			return apperr.Internal(err)
		}
		if err := s.repo.Create(ctx, dst); err != nil {
			if db.UniqueViolation(err, "uq_bed_active") {
				return apperr.Conflict("bed %s in room %s is already occupied", req.BedNumber, req.RoomNumber)
			}
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", dst.PatientID.String()).
		Str("from", src.BedNumber+"/"+src.RoomNumber).
		Str("to", dst.BedNumber+"/"+dst.RoomNumber).
		Msg("patient transferred")
	return s.Get(ctx, dst.ID)
}

func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Allocation, int, error) {
	items, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Allocation, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *Service) OccupancyStats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}
