package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ErrInvalidTransition means the requested status change is not legal from
// the appointment's current status.
var ErrInvalidTransition = errors.New("invalid appointment transition")

// transitions enumerates the legal status changes. Cancelled and completed
// are terminal.
var transitions = map[string][]string{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// Appointment maps to the appointments table in the tenant schema.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Time      time.Time `db:"time" json:"time"`
	Reason    string    `db:"reason" json:"reason"`
	Status    string    `db:"status" json:"status"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SetStatus moves the appointment to a new status, enforcing the
// transition table.
func (a *Appointment) SetStatus(next string) error {
	for _, allowed := range transitions[a.Status] {
		if allowed == next {
			a.Status = next
			return nil
		}
	}
	return ErrInvalidTransition
}
