package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/internal/platform/cache"
	"github.com/careops/careops/pkg/clock"
)

// Service resolves a doctor's open slots for a date and manages the
// weekly templates the resolution is derived from. Resolution is
// read-through cached; the scheduler invalidates on every booking
// mutation so cached answers are only ever stale for the TTL window.
type Service struct {
	repo        TemplateRepository
	bookings    BookingLookup
	cache       *cache.Cache
	slotMinutes int
	logger      zerolog.Logger
}

func NewService(repo TemplateRepository, bookings BookingLookup, c *cache.Cache, slotMinutes int, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		bookings:    bookings,
		cache:       c,
		slotMinutes: slotMinutes,
		logger:      logger.With().Str("service", "availability").Logger(),
	}
}

func (s *Service) CreateTemplate(ctx context.Context, t *Template) (*Template, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	created, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.invalidateDoctor(ctx, t.DoctorID)
	s.logger.Info().Str("template_id", t.ID.String()).Str("doctor_id", t.DoctorID.String()).Msg("availability template created")
	return created, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("availability template")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, t *Template) (*Template, error) {
	if _, err := s.GetTemplate(ctx, t.ID); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	updated, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.invalidateDoctor(ctx, t.DoctorID)
	return updated, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	s.invalidateDoctor(ctx, t.DoctorID)
	return nil
}

func (s *Service) ListTemplates(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Template, int, error) {
	items, total, err := s.repo.ListByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

// Resolve computes the open slots for a doctor on a calendar date:
// template windows expanded at the configured granularity, minus the
// times already booked. A doctor with no covering template gets an
// empty (not nil) slot list.
func (s *Service) Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Day, error) {
	date = clock.Day(date)
	key := cache.AvailabilityKey(doctorID.String(), clock.FormatDate(date))

	var day Day
	if s.cache.GetJSON(ctx, key, &day) {
		return &day, nil
	}

	templates, err := s.repo.ListForDate(ctx, doctorID, date)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	seen := make(map[string]bool)
	var times []string
	for _, t := range templates {
		slots, err := clock.Slots(t.StartTime, t.EndTime, s.slotMinutes)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		for _, hhmm := range slots {
			if !seen[hhmm] {
				seen[hhmm] = true
				times = append(times, hhmm)
			}
		}
	}
	sort.Strings(times)

	booked, err := s.bookings.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	taken := make(map[string]bool, len(booked))
	for _, hhmm := range booked {
		if norm, err := clock.Normalize(hhmm); err == nil {
			taken[norm] = true
		}
	}

	day = Day{
		DoctorID:       doctorID,
		Date:           clock.FormatDate(date),
		AvailableSlots: []string{},
		SlotTimes:      []string{},
	}
	for _, hhmm := range times {
		if taken[hhmm] {
			continue
		}
		label, err := clock.Label12h(hhmm)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		day.SlotTimes = append(day.SlotTimes, hhmm)
		day.AvailableSlots = append(day.AvailableSlots, label)
	}

	s.cache.SetJSON(ctx, key, &day)
	return &day, nil
}

// Invalidate drops the cached resolution for a doctor's date. The
// appointment scheduler calls this after every booking mutation.
func (s *Service) Invalidate(ctx context.Context, doctorID uuid.UUID, date time.Time) {
	s.cache.Delete(ctx, cache.AvailabilityKey(doctorID.String(), clock.FormatDate(clock.Day(date))))
}

// invalidateDoctor clears the next two weeks of cached resolutions
// after a template change. Dates further out fall to the TTL.
func (s *Service) invalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	today := clock.Day(time.Now())
	keys := make([]string, 0, 14)
	for i := 0; i < 14; i++ {
		d := today.AddDate(0, 0, i)
		keys = append(keys, cache.AvailabilityKey(doctorID.String(), clock.FormatDate(d)))
	}
	s.cache.Delete(ctx, keys...)
}
