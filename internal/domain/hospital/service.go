package hospital

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/events"
)

var validPlans = map[string]bool{
	"basic": true, "premium": true, "enterprise": true,
}

// SchemaProvisioner creates the tenant schema for a new hospital and runs
// migrations against it.
type SchemaProvisioner func(ctx context.Context, subdomain string) error

type Service struct {
	hospitals     Repository
	subscriptions SubscriptionRepository
	stats         StatsRepository
	provision     SchemaProvisioner
	publisher     events.Publisher
	logger        zerolog.Logger
}

func NewService(
	hospitals Repository,
	subscriptions SubscriptionRepository,
	stats StatsRepository,
	provision SchemaProvisioner,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		hospitals:     hospitals,
		subscriptions: subscriptions,
		stats:         stats,
		provision:     provision,
		publisher:     publisher,
		logger:        logger,
	}
}

// ProvisionInput carries the super-admin's request to onboard a hospital.
type ProvisionInput struct {
	Name          string  `json:"name"`
	AdminEmail    string  `json:"admin_email"`
	AdminPassword string  `json:"admin_password"`
	Plan          string  `json:"plan"`
	Address       *string `json:"address,omitempty"`
	Phone         *string `json:"phone,omitempty"`
}

// Provision onboards a hospital: derives a unique subdomain from the name,
// hashes the admin password, creates the hospital and subscription rows in
// the shared schema, and provisions the tenant schema.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*Hospital, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.AdminEmail == "" {
		return nil, fmt.Errorf("admin_email is required")
	}
	if len(in.AdminPassword) < 8 {
		return nil, fmt.Errorf("admin_password must be at least 8 characters")
	}
	if in.Plan == "" {
		in.Plan = "basic"
	}
	if !validPlans[in.Plan] {
		return nil, fmt.Errorf("invalid plan: %s", in.Plan)
	}

	subdomain, err := s.uniqueSubdomain(ctx, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	h := &Hospital{
		Name:              strings.TrimSpace(in.Name),
		Subdomain:         subdomain,
		AdminEmail:        in.AdminEmail,
		AdminPasswordHash: string(hash),
		Address:           in.Address,
		Phone:             in.Phone,
		Active:            true,
	}
	if err := s.hospitals.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create hospital: %w", err)
	}

	sub := &Subscription{
		HospitalID: h.ID,
		Plan:       in.Plan,
		StartDate:  time.Now().UTC(),
		Active:     true,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	if s.provision != nil {
		if err := s.provision(ctx, subdomain); err != nil {
			// Remove the shared rows so a retry can reuse the slug. The
			// subscription cascades with the hospital row.
			if derr := s.hospitals.Delete(ctx, h.ID); derr != nil {
				s.logger.Error().Err(derr).Str("hospital", subdomain).
					Msg("failed to remove hospital after provisioning error")
			}
			return nil, fmt.Errorf("provision tenant schema for %s: %w", subdomain, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeHospitalProvisioned,
			EntityID: h.ID.String(),
			Payload:  events.NewPayload(map[string]string{"subdomain": subdomain, "plan": in.Plan}),
		}); err != nil {
			s.logger.Warn().Err(err).Str("hospital", subdomain).Msg("failed to publish provisioned event")
		}
	}

	s.logger.Info().Str("hospital", subdomain).Str("plan", in.Plan).Msg("hospital provisioned")
	return h, nil
}

// uniqueSubdomain slugifies name and appends -2, -3, ... until the slug is
// free. excludeID skips the hospital being renamed.
func (s *Service) uniqueSubdomain(ctx context.Context, name string, excludeID uuid.UUID) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", fmt.Errorf("name %q yields an empty subdomain", name)
	}
	if !subdomainPattern.MatchString(base) {
		return "", fmt.Errorf("name %q yields invalid subdomain %q", name, base)
	}

	candidate := base
	for i := 2; ; i++ {
		exists, err := s.hospitals.SubdomainExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check subdomain %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		if excludeID != uuid.Nil {
			existing, err := s.hospitals.GetBySubdomain(ctx, candidate)
			if err == nil && existing.ID == excludeID {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Rename changes the hospital name and re-derives its subdomain.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, newName string) (*Hospital, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("name is required")
	}

	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("hospital not found: %w", err)
	}

	subdomain, err := s.uniqueSubdomain(ctx, newName, id)
	if err != nil {
		return nil, err
	}

	h.Name = strings.TrimSpace(newName)
	h.Subdomain = subdomain
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update hospital: %w", err)
	}
	return h, nil
}

// SetActive toggles a hospital. Deactivating also deactivates its
// subscription; reactivating leaves the subscription for the admin to renew.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("hospital not found: %w", err)
	}

	h.Active = active
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update hospital: %w", err)
	}

	if !active {
		sub, err := s.subscriptions.GetByHospital(ctx, id)
		if err == nil && sub.Active {
			sub.Active = false
			if err := s.subscriptions.Update(ctx, sub); err != nil {
				return nil, fmt.Errorf("deactivate subscription: %w", err)
			}
		}
	}
	return h, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) GetBySubdomain(ctx context.Context, subdomain string) (*Hospital, error) {
	return s.hospitals.GetBySubdomain(ctx, subdomain)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.hospitals.Delete(ctx, id)
}

func (s *Service) Subscription(ctx context.Context, hospitalID uuid.UUID) (*Subscription, error) {
	return s.subscriptions.GetByHospital(ctx, hospitalID)
}

// ChangePlan moves the hospital's subscription to another plan.
func (s *Service) ChangePlan(ctx context.Context, hospitalID uuid.UUID, plan string) (*Subscription, error) {
	if !validPlans[plan] {
		return nil, fmt.Errorf("invalid plan: %s", plan)
	}
	sub, err := s.subscriptions.GetByHospital(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("subscription not found: %w", err)
	}
	sub.Plan = plan
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

func (s *Service) Dashboard(ctx context.Context, hospitalID uuid.UUID) (*DashboardStats, error) {
	return s.stats.DashboardStats(ctx, hospitalID)
}

// VerifyAdminPassword checks a login attempt against the stored hash.
func (s *Service) VerifyAdminPassword(ctx context.Context, subdomain, password string) (*Hospital, error) {
	h, err := s.hospitals.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("hospital not found: %w", err)
	}
	if !h.Active {
		return nil, fmt.Errorf("hospital %s is deactivated", subdomain)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.AdminPasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return h, nil
}
