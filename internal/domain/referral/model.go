package referral

import (
	"time"

	"github.com/google/uuid"
)

// Referral priorities.
const (
	PriorityRoutine   = "routine"
	PriorityUrgent    = "urgent"
	PriorityEmergency = "emergency"
)

// Referral maps to the shared.referrals table. Rows live in the shared
// schema because both hospitals must see the same row.
type Referral struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	FromHospitalID    uuid.UUID  `db:"from_hospital_id" json:"from_hospital_id"`
	ToHospitalID      uuid.UUID  `db:"to_hospital_id" json:"to_hospital_id"`
	Status            Status     `db:"status" json:"status"`
	Priority          string     `db:"priority" json:"priority"`
	Reason            string     `db:"reason" json:"reason"`
	Note              *string    `db:"note" json:"note,omitempty"`
	AmbulanceRequired bool       `db:"ambulance_required" json:"ambulance_required"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	RespondedAt       *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
