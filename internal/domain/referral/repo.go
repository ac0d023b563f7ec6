package referral

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List to one side of the referral and/or a status.
// Zero values mean no filtering on that field.
type ListFilter struct {
	HospitalID uuid.UUID
	Side       string // "from", "to" or "" for either side
	Status     Status
}

type Repository interface {
	Create(ctx context.Context, r *Referral) error
	GetByID(ctx context.Context, id uuid.UUID) (*Referral, error)
	Update(ctx context.Context, r *Referral) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Referral, int, error)
}
