package antenatal

import (
	"context"
	"encoding/json"
	"fmt"

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

type txBeginner interface {
	queryable
	Begin(ctx context.Context) (pgx.Tx, error)
}

// =========== Pregnancy Repository ===========

type pregnancyRepoPG struct{ pool *pgxpool.Pool }

func NewPregnancyRepoPG(pool *pgxpool.Pool) PregnancyRepository {
	return &pregnancyRepoPG{pool: pool}
}

func (r *pregnancyRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const pregnancyCols = `id, patient_id, lmp, edd, gravida, para, risk_level, risk_factors,
	specialist_referral, referral_flag_set, management_plan, status, created_at, updated_at`

func (r *pregnancyRepoPG) scanPregnancy(row pgx.Row) (*Pregnancy, error) {
	var p Pregnancy
	err := row.Scan(&p.ID, &p.PatientID, &p.LMP, &p.EDD, &p.Gravida, &p.Para, &p.RiskLevel, &p.RiskFactors,
		&p.SpecialistReferral, &p.ReferralFlagSet, &p.ManagementPlan, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *pregnancyRepoPG) Create(ctx context.Context, p *Pregnancy) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pregnancies (id, patient_id, lmp, edd, gravida, para, risk_level, risk_factors,
			specialist_referral, referral_flag_set, management_plan, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.PatientID, p.LMP, p.EDD, p.Gravida, p.Para, p.RiskLevel, p.RiskFactors,
		p.SpecialistReferral, p.ReferralFlagSet, p.ManagementPlan, p.Status)
	return err
}

func (r *pregnancyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return r.scanPregnancy(r.conn(ctx).QueryRow(ctx, `SELECT `+pregnancyCols+` FROM pregnancies WHERE id = $1`, id))
}

func (r *pregnancyRepoPG) Update(ctx context.Context, p *Pregnancy) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE pregnancies SET lmp=$2, edd=$3, gravida=$4, para=$5, risk_level=$6, risk_factors=$7,
			specialist_referral=$8, referral_flag_set=$9, management_plan=$10, status=$11, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.LMP, p.EDD, p.Gravida, p.Para, p.RiskLevel, p.RiskFactors,
		p.SpecialistReferral, p.ReferralFlagSet, p.ManagementPlan, p.Status)
	return err
}

func (r *pregnancyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM pregnancies WHERE id = $1`, id)
	return err
}

func (r *pregnancyRepoPG) List(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pregnancies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pregnancyCols+` FROM pregnancies ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Pregnancy
	for rows.Next() {
		p, err := r.scanPregnancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *pregnancyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM pregnancies WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pregnancyCols+` FROM pregnancies WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Pregnancy
	for rows.Next() {
		p, err := r.scanPregnancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) txBeginner {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const visitCols = `id, pregnancy_id, seq, week, date, purpose, notify, created_at`

func (r *scheduleRepoPG) Replace(ctx context.Context, pregnancyID uuid.UUID, visits []PlannedVisit) ([]*ScheduledVisit, error) {
	tx, err := r.conn(ctx).Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scheduled_visits WHERE pregnancy_id = $1`, pregnancyID); err != nil {
		return nil, fmt.Errorf("clear schedule: %w", err)
	}

	stored := make([]*ScheduledVisit, 0, len(visits))
	for _, v := range visits {
		sv := &ScheduledVisit{
			ID:          uuid.New(),
			PregnancyID: pregnancyID,
			Seq:         v.Seq,
			Week:        v.Week,
			Date:        v.Date,
			Purpose:     v.Purpose,
			Notify:      true,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO scheduled_visits (id, pregnancy_id, seq, week, date, purpose, notify)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			sv.ID, sv.PregnancyID, sv.Seq, sv.Week, sv.Date, sv.Purpose, sv.Notify); err != nil {
			return nil, fmt.Errorf("insert visit week %d: %w", v.Week, err)
		}
		stored = append(stored, sv)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit schedule: %w", err)
	}
	return stored, nil
}

func (r *scheduleRepoPG) ListByPregnancy(ctx context.Context, pregnancyID uuid.UUID) ([]*ScheduledVisit, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM scheduled_visits WHERE pregnancy_id = $1 ORDER BY seq`, pregnancyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ScheduledVisit
	for rows.Next() {
		var v ScheduledVisit
		if err := rows.Scan(&v.ID, &v.PregnancyID, &v.Seq, &v.Week, &v.Date, &v.Purpose, &v.Notify, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, nil
}

func (r *scheduleRepoPG) GetVisit(ctx context.Context, id uuid.UUID) (*ScheduledVisit, error) {
	var v ScheduledVisit
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM scheduled_visits WHERE id = $1`, id).
		Scan(&v.ID, &v.PregnancyID, &v.Seq, &v.Week, &v.Date, &v.Purpose, &v.Notify, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *scheduleRepoPG) UpdateVisit(ctx context.Context, v *ScheduledVisit) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE scheduled_visits SET date=$2, notify=$3 WHERE id = $1`,
		v.ID, v.Date, v.Notify)
	return err
}

// =========== Registration Repository ===========

type registrationRepoPG struct{ pool *pgxpool.Pool }

func NewRegistrationRepoPG(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepoPG{pool: pool}
}

func (r *registrationRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *registrationRepoPG) Create(ctx context.Context, reg *Registration) error {
	reg.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO registrations (id, pregnancy_id, active_section, status)
		VALUES ($1,$2,$3,$4)`,
		reg.ID, reg.PregnancyID, reg.ActiveSection, reg.Status)
	return err
}

func (r *registrationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *registrationRepoPG) GetByPregnancy(ctx context.Context, pregnancyID uuid.UUID) (*Registration, error) {
	return r.get(ctx, `WHERE pregnancy_id = $1`, pregnancyID)
}

func (r *registrationRepoPG) get(ctx context.Context, where string, arg interface{}) (*Registration, error) {
	var reg Registration
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, pregnancy_id, active_section, status, created_at, updated_at FROM registrations `+where, arg).
		Scan(&reg.ID, &reg.PregnancyID, &reg.ActiveSection, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	reg.Sections = make(map[string]*Section, len(SectionOrder))
	for _, name := range SectionOrder {
		reg.Sections[name] = &Section{Name: name}
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT name, payload, complete, completed_at
		FROM registration_sections WHERE registration_id = $1`, reg.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Section
		if err := rows.Scan(&s.Name, &s.Payload, &s.Complete, &s.CompletedAt); err != nil {
			return nil, err
		}
		reg.Sections[s.Name] = &s
	}
	return &reg, rows.Err()
}

func (r *registrationRepoPG) SaveSection(ctx context.Context, registrationID uuid.UUID, name string, payload json.RawMessage) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO registration_sections (registration_id, name, payload, complete, completed_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (registration_id, name)
		DO UPDATE SET payload = EXCLUDED.payload, complete = TRUE, completed_at = NOW()`,
		registrationID, name, payload)
	return err
}

func (r *registrationRepoPG) Update(ctx context.Context, reg *Registration) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE registrations SET active_section=$2, status=$3, updated_at=NOW()
		WHERE id = $1`,
		reg.ID, reg.ActiveSection, reg.Status)
	return err
}
