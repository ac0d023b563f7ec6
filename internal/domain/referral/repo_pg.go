package referral

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// repoPG stores referrals in the shared schema. It talks to the pool
// directly; referrals are cross-hospital and never live in a tenant schema.
type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const referralCols = `id, patient_id, from_hospital_id, to_hospital_id, status, priority, reason,
	note, ambulance_required, created_at, updated_at, responded_at, completed_at`

func scanReferral(row pgx.Row) (*Referral, error) {
	var r Referral
	err := row.Scan(&r.ID, &r.PatientID, &r.FromHospitalID, &r.ToHospitalID, &r.Status, &r.Priority,
		&r.Reason, &r.Note, &r.AmbulanceRequired, &r.CreatedAt, &r.UpdatedAt, &r.RespondedAt, &r.CompletedAt)
	return &r, err
}

func (r *repoPG) Create(ctx context.Context, ref *Referral) error {
	ref.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shared.referrals (id, patient_id, from_hospital_id, to_hospital_id, status,
			priority, reason, note, ambulance_required)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ref.ID, ref.PatientID, ref.FromHospitalID, ref.ToHospitalID, ref.Status,
		ref.Priority, ref.Reason, ref.Note, ref.AmbulanceRequired)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return scanReferral(r.pool.QueryRow(ctx,
		`SELECT `+referralCols+` FROM shared.referrals WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, ref *Referral) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE shared.referrals SET status=$2, note=$3, responded_at=$4, completed_at=$5, updated_at=NOW()
		WHERE id = $1`,
		ref.ID, ref.Status, ref.Note, ref.RespondedAt, ref.CompletedAt)
	return err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Referral, int, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.HospitalID != uuid.Nil {
		switch filter.Side {
		case "from":
			where = append(where, "from_hospital_id = "+arg(filter.HospitalID))
		case "to":
			where = append(where, "to_hospital_id = "+arg(filter.HospitalID))
		default:
			p := arg(filter.HospitalID)
			where = append(where, fmt.Sprintf("(from_hospital_id = %s OR to_hospital_id = %s)", p, p))
		}
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shared.referrals`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + referralCols + ` FROM shared.referrals` + clause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %s OFFSET %s", arg(limit), arg(offset))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ref)
	}
	return items, total, rows.Err()
}
