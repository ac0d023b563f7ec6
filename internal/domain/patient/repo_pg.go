package patient

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

// =========== Patient Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, mrn, first_name, last_name, date_of_birth, gender, blood_group,
	phone, email, address, emergency_contact_name, emergency_contact_phone,
	created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.BloodGroup,
		&p.Phone, &p.Email, &p.Address, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, mrn, first_name, last_name, date_of_birth, gender, blood_group,
			phone, email, address, emergency_contact_name, emergency_contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Phone, p.Email, p.Address, p.EmergencyContactName, p.EmergencyContactPhone)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE mrn = $1`, mrn))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, date_of_birth=$4, gender=$5, blood_group=$6,
			phone=$7, email=$8, address=$9, emergency_contact_name=$10, emergency_contact_phone=$11,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Phone, p.Email, p.Address, p.EmergencyContactName, p.EmergencyContactPhone)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"
	where := `WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR mrn ILIKE $1`
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients `+where, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients `+where+` ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== Medical Record Repository ===========

type medicalRecordRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalRecordRepoPG(pool *pgxpool.Pool) MedicalRecordRepository {
	return &medicalRecordRepoPG{pool: pool}
}

func (r *medicalRecordRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, patient_id, diagnosis, treatment, prescription, note,
	allergies, chronic_conditions, recorded_by, recorded_at`

func (r *medicalRecordRepoPG) scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.PatientID, &m.Diagnosis, &m.Treatment, &m.Prescription, &m.Note,
		&m.Allergies, &m.ChronicConditions, &m.RecordedBy, &m.RecordedAt)
	return &m, err
}

func (r *medicalRecordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, diagnosis, treatment, prescription, note,
			allergies, chronic_conditions, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.PatientID, m.Diagnosis, m.Treatment, m.Prescription, m.Note,
		m.Allergies, m.ChronicConditions, m.RecordedBy)
	return err
}

func (r *medicalRecordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id))
}

func (r *medicalRecordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records SET diagnosis=$2, treatment=$3, prescription=$4, note=$5,
			allergies=$6, chronic_conditions=$7
		WHERE id = $1`,
		m.ID, m.Diagnosis, m.Treatment, m.Prescription, m.Note,
		m.Allergies, m.ChronicConditions)
	return err
}

func (r *medicalRecordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	return err
}

func (r *medicalRecordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalRecord
	for rows.Next() {
		m, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}
