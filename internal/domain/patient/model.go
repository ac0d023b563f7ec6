package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table in the tenant schema.
type Patient struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	MRN                   string    `db:"mrn" json:"mrn"`
	FirstName             string    `db:"first_name" json:"first_name"`
	LastName              string    `db:"last_name" json:"last_name"`
	DateOfBirth           time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender                string    `db:"gender" json:"gender"`
	BloodGroup            *string   `db:"blood_group" json:"blood_group,omitempty"`
	Phone                 *string   `db:"phone" json:"phone,omitempty"`
	Email                 *string   `db:"email" json:"email,omitempty"`
	Address               *string   `db:"address" json:"address,omitempty"`
	EmergencyContactName  *string   `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// MedicalRecord maps to the medical_records table.
type MedicalRecord struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	Diagnosis         string     `db:"diagnosis" json:"diagnosis"`
	Treatment         *string    `db:"treatment" json:"treatment,omitempty"`
	Prescription      *string    `db:"prescription" json:"prescription,omitempty"`
	Note              *string    `db:"note" json:"note,omitempty"`
	Allergies         []string   `db:"allergies" json:"allergies"`
	ChronicConditions []string   `db:"chronic_conditions" json:"chronic_conditions"`
	RecordedBy        *uuid.UUID `db:"recorded_by" json:"recorded_by,omitempty"`
	RecordedAt        time.Time  `db:"recorded_at" json:"recorded_at"`
}
