package hospital

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Hospital, error)
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	Update(ctx context.Context, h *Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByHospital(ctx context.Context, hospitalID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}

// StatsRepository reads aggregate counts from the tenant schema resolved
// from the request context. Referrals are cross-hospital and live in the
// shared schema, so their count is scoped by hospital id.
type StatsRepository interface {
	DashboardStats(ctx context.Context, hospitalID uuid.UUID) (*DashboardStats, error)
}
