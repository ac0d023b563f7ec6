package antenatal

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type PregnancyRepository interface {
	Create(ctx context.Context, p *Pregnancy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error)
	Update(ctx context.Context, p *Pregnancy) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error)
}

type ScheduleRepository interface {
	// Replace swaps the stored schedule for the pregnancy in one transaction.
	Replace(ctx context.Context, pregnancyID uuid.UUID, visits []PlannedVisit) ([]*ScheduledVisit, error)
	ListByPregnancy(ctx context.Context, pregnancyID uuid.UUID) ([]*ScheduledVisit, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*ScheduledVisit, error)
	UpdateVisit(ctx context.Context, v *ScheduledVisit) error
}

type RegistrationRepository interface {
	Create(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	GetByPregnancy(ctx context.Context, pregnancyID uuid.UUID) (*Registration, error)
	// SaveSection persists a section payload and completion mark. The
	// section only counts as complete once this returns nil.
	SaveSection(ctx context.Context, registrationID uuid.UUID, name string, payload json.RawMessage) error
	Update(ctx context.Context, r *Registration) error
}
