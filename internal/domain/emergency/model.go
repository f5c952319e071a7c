package emergency

import (
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
)

// Severity of an alert. Ordering matters for the active-alert feed:
// critical sorts first.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank maps severity to a sortable weight, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Status of an alert. resolved and cancelled are terminal.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusCancelled    Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// Alert maps to the emergency_alert table. PatientID is optional: an
// alert can concern a location rather than a person. Every transition
// stamps its actor and time.
type Alert struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	TriggeredBy    string     `db:"triggered_by" json:"triggered_by"`
	Severity       Severity   `db:"severity" json:"severity"`
	Location       string     `db:"location" json:"location"`
	Description    string     `db:"description" json:"description"`
	Status         Status     `db:"status" json:"status"`
	AcknowledgedBy string     `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	ResolvedBy     string     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CancelledBy    string     `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	ResponseNotes  string     `db:"response_notes" json:"response_notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// TriggerRequest is the payload for raising an alert.
type TriggerRequest struct {
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	Severity    Severity   `json:"severity"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
}

func (r *TriggerRequest) Validate() error {
	if r.Description == "" {
		return apperr.Validation("description is required")
	}
	if !r.Severity.Valid() {
		return apperr.Validation("severity must be low, medium, high or critical")
	}
	return nil
}

// ResolveRequest carries the optional response notes.
type ResolveRequest struct {
	ResponseNotes string `json:"response_notes"`
}
