package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
)

// Status of a waiting-room entry. The parent appointment is kept in
// step: waiting maps to a confirmed appointment, the rest map 1:1.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// appointmentStatus returns the appointment status this queue status
// synchronizes to.
func (s Status) appointmentStatus() string {
	if s == StatusWaiting {
		return "confirmed"
	}
	return string(s)
}

// Entry maps to the queue_entry table: the real-time waiting-room view
// of one same-day appointment. QueueNumber is assigned once per
// (doctor, day) and never reused; Position is recomputed as entries
// ahead complete.
type Entry struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	AppointmentID        uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	DoctorID             uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID            uuid.UUID  `db:"patient_id" json:"patient_id"`
	Day                  time.Time  `db:"day" json:"day"`
	QueueNumber          int        `db:"queue_number" json:"queue_number"`
	Position             int        `db:"position" json:"position"`
	Status               Status     `db:"status" json:"status"`
	EstimatedWaitMinutes *int       `db:"estimated_wait_minutes" json:"estimated_wait_minutes,omitempty"`
	CheckedInAt          time.Time  `db:"checked_in_at" json:"checked_in_at"`
	CalledAt             *time.Time `db:"called_at" json:"called_at,omitempty"`
	SeenAt               *time.Time `db:"seen_at" json:"seen_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// UpdateRequest is the payload for a queue-status update. QueueNumber
// is honored only on lazy creation; an existing entry's number is
// immutable.
type UpdateRequest struct {
	Status               Status `json:"status"`
	QueueNumber          *int   `json:"queue_number,omitempty"`
	EstimatedWaitMinutes *int   `json:"estimated_wait_minutes,omitempty"`
}

func (r *UpdateRequest) Validate() error {
	if !r.Status.Valid() {
		return apperr.Validation("unknown queue status %q", r.Status)
	}
	if r.QueueNumber != nil && *r.QueueNumber < 1 {
		return apperr.Validation("queue_number must be positive")
	}
	if r.EstimatedWaitMinutes != nil && *r.EstimatedWaitMinutes < 0 {
		return apperr.Validation("estimated_wait_minutes must not be negative")
	}
	return nil
}
