package antenatal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Pregnancy maps to the pregnancies table. EDD is always derived from LMP
// on the server; clients never set it.
type Pregnancy struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	LMP                time.Time `db:"lmp" json:"lmp"`
	EDD                time.Time `db:"edd" json:"edd"`
	Gravida            *int      `db:"gravida" json:"gravida,omitempty"`
	Para               *int      `db:"para" json:"para,omitempty"`
	RiskLevel          string    `db:"risk_level" json:"risk_level"`
	RiskFactors        []string  `db:"risk_factors" json:"risk_factors"`
	SpecialistReferral bool      `db:"specialist_referral" json:"specialist_referral"`
	ReferralFlagSet    bool      `db:"referral_flag_set" json:"-"`
	ManagementPlan     *string   `db:"management_plan" json:"management_plan,omitempty"`
	Status             string    `db:"status" json:"status"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduledVisit maps to the scheduled_visits table. Rows are replaced
// wholesale on regeneration and edited individually afterwards.
type ScheduledVisit struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PregnancyID uuid.UUID `db:"pregnancy_id" json:"pregnancy_id"`
	Seq         int       `db:"seq" json:"seq"`
	Week        int       `db:"week" json:"week"`
	Date        time.Time `db:"date" json:"date"`
	Purpose     string    `db:"purpose" json:"purpose"`
	Notify      bool      `db:"notify" json:"notify"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Registration statuses.
const (
	RegistrationInProgress = "in-progress"
	RegistrationFinalized  = "finalized"
)

// Registration section names, in intake order.
const (
	SectionBookingVisit   = "booking-visit"
	SectionMedicalHistory = "medical-history"
	SectionPhysicalExam   = "physical-exam"
	SectionLabRequests    = "lab-requests"
	SectionVisitPlan      = "visit-plan"
	SectionComplications  = "complications"
)

// SectionOrder is the fixed intake sequence of the registration pipeline.
var SectionOrder = []string{
	SectionBookingVisit,
	SectionMedicalHistory,
	SectionPhysicalExam,
	SectionLabRequests,
	SectionVisitPlan,
	SectionComplications,
}

// Section is one step of a registration with its saved payload.
type Section struct {
	Name        string          `db:"name" json:"name"`
	Payload     json.RawMessage `db:"payload" json:"payload,omitempty"`
	Complete    bool            `db:"complete" json:"complete"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// Registration maps to the registrations table plus its section rows.
// The server-held section state is the only resume point for the intake
// pipeline.
type Registration struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	PregnancyID   uuid.UUID           `db:"pregnancy_id" json:"pregnancy_id"`
	ActiveSection string              `db:"active_section" json:"active_section"`
	Status        string              `db:"status" json:"status"`
	Sections      map[string]*Section `json:"sections"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// CompleteCount returns how many sections are complete.
func (r *Registration) CompleteCount() int {
	n := 0
	for _, s := range r.Sections {
		if s.Complete {
			n++
		}
	}
	return n
}

// AllComplete reports whether every section in the pipeline is complete.
func (r *Registration) AllComplete() bool {
	return r.CompleteCount() == len(SectionOrder)
}
