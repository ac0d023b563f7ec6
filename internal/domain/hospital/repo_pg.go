package hospital

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Hospital Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const hospitalCols = `id, name, subdomain, admin_email, admin_password_hash,
	address, phone, active, created_at, updated_at`

func (r *repoPG) scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Subdomain, &h.AdminEmail, &h.AdminPasswordHash,
		&h.Address, &h.Phone, &h.Active, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.hospitals (id, name, subdomain, admin_email, admin_password_hash,
			address, phone, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		h.ID, h.Name, h.Subdomain, h.AdminEmail, h.AdminPasswordHash,
		h.Address, h.Phone, h.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return r.scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM shared.hospitals WHERE id = $1`, id))
}

func (r *repoPG) GetBySubdomain(ctx context.Context, subdomain string) (*Hospital, error) {
	return r.scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM shared.hospitals WHERE subdomain = $1`, subdomain))
}

func (r *repoPG) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shared.hospitals WHERE subdomain = $1)`, subdomain).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE shared.hospitals SET name=$2, subdomain=$3, admin_email=$4,
			address=$5, phone=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Subdomain, h.AdminEmail,
		h.Address, h.Phone, h.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM shared.hospitals WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shared.hospitals`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+hospitalCols+` FROM shared.hospitals ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := r.scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}

// =========== Subscription Repository ===========

type subscriptionRepoPG struct{ pool *pgxpool.Pool }

func NewSubscriptionRepoPG(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepoPG{pool: pool}
}

const subscriptionCols = `id, hospital_id, plan, start_date, end_date, active, created_at, updated_at`

func (r *subscriptionRepoPG) scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.HospitalID, &s.Plan, &s.StartDate, &s.EndDate, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *subscriptionRepoPG) Create(ctx context.Context, s *Subscription) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.subscriptions (id, hospital_id, plan, start_date, end_date, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.HospitalID, s.Plan, s.StartDate, s.EndDate, s.Active)
	return err
}

func (r *subscriptionRepoPG) GetByHospital(ctx context.Context, hospitalID uuid.UUID) (*Subscription, error) {
	return r.scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionCols+` FROM shared.subscriptions WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT 1`, hospitalID))
}

func (r *subscriptionRepoPG) Update(ctx context.Context, s *Subscription) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE shared.subscriptions SET plan=$2, end_date=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Plan, s.EndDate, s.Active)
	return err
}

// =========== Stats Repository ===========

// statsRepoPG counts rows in the tenant schema pinned on the request's
// connection, so it must run behind the tenant middleware.
type statsRepoPG struct{ pool *pgxpool.Pool }

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *statsRepoPG) DashboardStats(ctx context.Context, hospitalID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM shared.referrals
				WHERE status IN ('pending', 'accepted')
				AND (from_hospital_id = $1 OR to_hospital_id = $1)),
			(SELECT COUNT(*) FROM chat_threads WHERE active)`,
		hospitalID,
	).Scan(&stats.TotalPatients, &stats.TotalAppointments, &stats.ActiveReferrals, &stats.ActiveChats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
