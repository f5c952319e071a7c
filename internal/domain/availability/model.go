package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/pkg/clock"
)

// Template maps to the availability_template table. One row describes a
// weekly recurring working window for a doctor, e.g. Mondays 09:00-13:00.
// Templates are managed by staff and read-only to the scheduler.
type Template struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	DoctorID   uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DayOfWeek  int        `db:"day_of_week" json:"day_of_week"` // 0=Sunday .. 6=Saturday
	StartTime  string     `db:"start_time" json:"start_time"`   // "HH:MM"
	EndTime    string     `db:"end_time" json:"end_time"`       // "HH:MM", exclusive
	ValidFrom  *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Validate normalizes the time bounds and checks the template is coherent.
func (t *Template) Validate() error {
	if t.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id is required")
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return apperr.Validation("day_of_week must be 0 (Sunday) through 6 (Saturday)")
	}
	start, err := clock.Normalize(t.StartTime)
	if err != nil {
		return apperr.Validation("start_time: %v", err)
	}
	end, err := clock.Normalize(t.EndTime)
	if err != nil {
		return apperr.Validation("end_time: %v", err)
	}
	if start >= end {
		return apperr.Validation("start_time must be before end_time")
	}
	if t.ValidFrom != nil && t.ValidUntil != nil && t.ValidUntil.Before(*t.ValidFrom) {
		return apperr.Validation("valid_until must not precede valid_from")
	}
	t.StartTime, t.EndTime = start, end
	return nil
}

// CoversDate reports whether the template applies on the given calendar
// day: the weekday matches and the validity window (when set) contains it.
func (t *Template) CoversDate(date time.Time) bool {
	if int(date.Weekday()) != t.DayOfWeek {
		return false
	}
	day := clock.Day(date)
	if t.ValidFrom != nil && day.Before(clock.Day(*t.ValidFrom)) {
		return false
	}
	if t.ValidUntil != nil && day.After(clock.Day(*t.ValidUntil)) {
		return false
	}
	return true
}

// Day is the resolver's answer: the open slots for one doctor on one date.
// Slots carry 12-hour display labels; Times carries the matching 24-hour
// values for clients that book programmatically.
type Day struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
	SlotTimes      []string  `json:"slot_times"`
}
