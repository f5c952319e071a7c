package bed

import (
	"time"

	"github.com/google/uuid"

	"github.com/careops/careops/internal/platform/apperr"
)

// Status of a bed allocation. occupied, reserved and maintenance all
// hold the bed; only available frees it for reallocation.
type Status string

const (
	StatusOccupied    Status = "occupied"
	StatusReserved    Status = "reserved"
	StatusAvailable   Status = "available"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOccupied, StatusReserved, StatusAvailable, StatusMaintenance:
		return true
	}
	return false
}

// Holding reports whether the status keeps the bed exclusively held.
// The partial unique index on (bed_number, room_number) enforces the
// same predicate for active allocations.
func (s Status) Holding() bool {
	return s == StatusOccupied || s == StatusReserved || s == StatusMaintenance
}

// Allocation maps to the bed_allocation table. A bed is identified by
// (bed_number, room_number); at most one active holding allocation may
// exist for it at a time.
type Allocation struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	BedNumber             string     `db:"bed_number" json:"bed_number"`
	RoomNumber            string     `db:"room_number" json:"room_number"`
	RoomType              string     `db:"room_type" json:"room_type"`
	Floor                 string     `db:"floor" json:"floor"`
	Status                Status     `db:"status" json:"status"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	AllocatedBy           string     `db:"allocated_by" json:"allocated_by"`
	AllocatedAt           time.Time  `db:"allocated_at" json:"allocated_at"`
	ExpectedDischargeDate *time.Time `db:"expected_discharge_date" json:"expected_discharge_date,omitempty"`
	DischargedAt          *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	DischargeNotes        string     `db:"discharge_notes" json:"discharge_notes,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// AllocateRequest is the payload for admitting a patient to a bed.
type AllocateRequest struct {
	PatientID             uuid.UUID  `json:"patient_id"`
	BedNumber             string     `json:"bed_number"`
	RoomNumber            string     `json:"room_number"`
	RoomType              string     `json:"room_type"`
	Floor                 string     `json:"floor"`
	Reserve               bool       `json:"reserve,omitempty"`
	ExpectedDischargeDate *time.Time `json:"expected_discharge_date,omitempty"`
}

func (r *AllocateRequest) Validate() error {
	if r.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if r.BedNumber == "" {
		return apperr.Validation("bed_number is required")
	}
	if r.RoomNumber == "" {
		return apperr.Validation("room_number is required")
	}
	return nil
}

// ReleaseRequest carries the optional discharge notes. Maintenance
// discharges the patient but keeps the bed out of service until it is
// released again.
type ReleaseRequest struct {
	DischargeNotes string `json:"discharge_notes"`
	Maintenance    bool   `json:"maintenance,omitempty"`
}

// TransferRequest moves a patient's active allocation to another bed.
type TransferRequest struct {
	BedNumber  string `json:"bed_number"`
	RoomNumber string `json:"room_number"`
	RoomType   string `json:"room_type"`
	Floor      string `json:"floor"`
	Notes      string `json:"notes"`
}

// Stats is the occupancy aggregation over active allocations.
type Stats struct {
	Occupied    int `json:"occupied"`
	Reserved    int `json:"reserved"`
	Maintenance int `json:"maintenance"`
	Total       int `json:"total"`
}
