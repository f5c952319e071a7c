package medication

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
	"github.com/careops/careops/pkg/clock"
)

// Status of a medication schedule.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusMissed    Status = "missed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusStopped, StatusMissed:
		return true
	}
	return false
}

// Schedule maps to the medication_schedule table. Times is the sorted
// set of daily administration times, stored as jsonb. NextDoseTime is
// derived from Times and the validity window and recomputed on every
// administration; it is never authoritative on its own.
type Schedule struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	MedicationName   string     `db:"medication_name" json:"medication_name"`
	Dosage           string     `db:"dosage" json:"dosage"`
	Route            string     `db:"route" json:"route,omitempty"`
	Times            []string   `db:"times" json:"times"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	Status           Status     `db:"status" json:"status"`
	LastAdministered *time.Time `db:"last_administered" json:"last_administered,omitempty"`
	NextDoseTime     *time.Time `db:"next_dose_time" json:"next_dose_time,omitempty"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateRequest is the payload for starting a medication schedule.
type CreateRequest struct {
	PatientID      uuid.UUID `json:"patient_id"`
	MedicationName string    `json:"medication_name"`
	Dosage         string    `json:"dosage"`
	Route          string    `json:"route"`
	Times          []string  `json:"times"`
	StartDate      string    `json:"start_date"` // "YYYY-MM-DD"
	EndDate        string    `json:"end_date,omitempty"`
	Notes          string    `json:"notes"`
}

// Validate normalizes, de-duplicates and sorts the dose times and
// checks the validity window.
func (r *CreateRequest) Validate() (times []string, start time.Time, end *time.Time, err error) {
	if r.PatientID == uuid.Nil {
		return nil, time.Time{}, nil, apperr.Validation("patient_id is required")
	}
	if r.MedicationName == "" {
		return nil, time.Time{}, nil, apperr.Validation("medication_name is required")
	}
	if r.Dosage == "" {
		return nil, time.Time{}, nil, apperr.Validation("dosage is required")
	}
	if len(r.Times) == 0 {
		return nil, time.Time{}, nil, apperr.Validation("at least one administration time is required")
	}

	seen := make(map[string]bool, len(r.Times))
	for _, raw := range r.Times {
		norm, err := clock.Normalize(raw)
		if err != nil {
			return nil, time.Time{}, nil, apperr.Validation("times: %v", err)
		}
		if !seen[norm] {
			seen[norm] = true
			times = append(times, norm)
		}
	}
	sort.Strings(times)

	start, err = clock.ParseDate(r.StartDate)
	if err != nil {
		return nil, time.Time{}, nil, apperr.Validation("start_date: %v", err)
	}
	if r.EndDate != "" {
		e, err := clock.ParseDate(r.EndDate)
		if err != nil {
			return nil, time.Time{}, nil, apperr.Validation("end_date: %v", err)
		}
		if e.Before(start) {
			return nil, time.Time{}, nil, apperr.Validation("end_date must not precede start_date")
		}
		end = &e
	}
	return times, start, end, nil
}

// AdministerRequest carries the optional administration notes.
type AdministerRequest struct {
	Notes string `json:"notes"`
}
