package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/pkg/clock"
)

// Status is the appointment lifecycle state. Transitions are closed
// over the table below; anything not listed is rejected.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

var transitions = map[Status][]Status{
	StatusScheduled:   {StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:   {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusRescheduled: {StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusInProgress:  {StatusCompleted},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// OccupiesSlot reports whether an appointment in this status still
// holds its doctor/date/time slot. The partial unique index on the
// appointments table enforces the same predicate.
func (s Status) OccupiesSlot() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusRescheduled:
		return true
	}
	return false
}

// CanTransitionTo consults the transition table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment maps to the appointment table. Date is a UTC calendar
// day; Time is the slot start in 24-hour "HH:MM" form.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Type      string    `db:"type" json:"type,omitempty"`
	Status    Status    `db:"status" json:"status"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeLabel returns the 12-hour display form of the slot time.
func (a *Appointment) TimeLabel() string {
	label, err := clock.Label12h(a.Time)
	if err != nil {
		return a.Time
	}
	return label
}

func (a *Appointment) appendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if a.Notes == "" {
		a.Notes = note
		return
	}
	a.Notes += "\n" + note
}

// BookRequest is the payload for booking a new appointment.
type BookRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"` // "YYYY-MM-DD"
	Time      string    `json:"time"` // "HH:MM"
	Type      string    `json:"type"` // e.g. "consultation", "follow_up"
	Reason    string    `json:"reason"`
}

func (r *BookRequest) Validate() (date time.Time, hhmm string, err error) {
	if r.PatientID == uuid.Nil {
		return time.Time{}, "", apperr.Validation("patient_id is required")
	}
	if r.DoctorID == uuid.Nil {
		return time.Time{}, "", apperr.Validation("doctor_id is required")
	}
	date, err = clock.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, "", apperr.Validation("%v", err)
	}
	hhmm, err = clock.Normalize(r.Time)
	if err != nil {
		return time.Time{}, "", apperr.Validation("%v", err)
	}
	return date, hhmm, nil
}

// RescheduleRequest moves an existing appointment to a new slot.
type RescheduleRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// CancelRequest carries the optional cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// StatusRequest carries a bare lifecycle transition.
type StatusRequest struct {
	Status Status `json:"status"`
}
