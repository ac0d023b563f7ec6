package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var validGenders = map[string]bool{"M": true, "F": true, "O": true}

var validBloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

type Service struct {
	patients Repository
	records  MedicalRecordRepository
}

func NewService(patients Repository, records MedicalRecordRepository) *Service {
	return &Service{patients: patients, records: records}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if p.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if p.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.BloodGroup != nil && !validBloodGroups[*p.BloodGroup] {
		return fmt.Errorf("invalid blood group: %s", *p.BloodGroup)
	}

	if p.MRN == "" {
		mrn, err := GenerateMRN()
		if err != nil {
			return err
		}
		p.MRN = mrn
	} else if !ValidMRN(p.MRN) {
		return fmt.Errorf("invalid mrn format: %s", p.MRN)
	}

	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	if !ValidMRN(mrn) {
		return nil, fmt.Errorf("invalid mrn format: %s", mrn)
	}
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.Gender != "" && !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.BloodGroup != nil && !validBloodGroups[*p.BloodGroup] {
		return fmt.Errorf("invalid blood group: %s", *p.BloodGroup)
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.patients.List(ctx, limit, offset)
	}
	return s.patients.Search(ctx, query, limit, offset)
}

// -- Medical Records --

func (s *Service) CreateRecord(ctx context.Context, m *MedicalRecord) error {
	if m.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if strings.TrimSpace(m.Diagnosis) == "" {
		return fmt.Errorf("diagnosis is required")
	}
	if _, err := s.patients.GetByID(ctx, m.PatientID); err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	return s.records.Create(ctx, m)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *Service) UpdateRecord(ctx context.Context, m *MedicalRecord) error {
	return s.records.Update(ctx, m)
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	return s.records.Delete(ctx, id)
}

func (s *Service) ListRecordsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}
