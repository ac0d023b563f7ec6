package antenatal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/notification"
)

// Pregnancy statuses.
const (
	PregnancyActive    = "active"
	PregnancyDelivered = "delivered"
	PregnancyClosed    = "closed"
)

var validPregnancyStatuses = map[string]bool{
	PregnancyActive: true, PregnancyDelivered: true, PregnancyClosed: true,
}

type Service struct {
	pregnancies   PregnancyRepository
	schedules     ScheduleRepository
	registrations RegistrationRepository
	patients      patient.Repository
	notifier      *notification.Manager
	publisher     events.Publisher
	logger        zerolog.Logger
}

func NewService(
	pregnancies PregnancyRepository,
	schedules ScheduleRepository,
	registrations RegistrationRepository,
	patients patient.Repository,
	notifier *notification.Manager,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		pregnancies:   pregnancies,
		schedules:     schedules,
		registrations: registrations,
		patients:      patients,
		notifier:      notifier,
		publisher:     publisher,
		logger:        logger,
	}
}

// CreatePregnancyInput opens a pregnancy episode. EDD is derived from LMP
// server-side; any client-supplied value is ignored.
type CreatePregnancyInput struct {
	PatientID      uuid.UUID `json:"patient_id"`
	LMP            time.Time `json:"lmp"`
	Gravida        *int      `json:"gravida,omitempty"`
	Para           *int      `json:"para,omitempty"`
	ManagementPlan *string   `json:"management_plan,omitempty"`
}

func (s *Service) CreatePregnancy(ctx context.Context, input CreatePregnancyInput) (*Pregnancy, error) {
	if input.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}
	edd, err := ExpectedDueDate(input.LMP)
	if err != nil {
		return nil, err
	}
	if input.LMP.After(time.Now()) {
		return nil, fmt.Errorf("last menstrual period cannot be in the future")
	}

	p := &Pregnancy{
		PatientID:      input.PatientID,
		LMP:            input.LMP,
		EDD:            edd,
		Gravida:        input.Gravida,
		Para:           input.Para,
		RiskLevel:      RiskLow,
		RiskFactors:    []string{},
		ManagementPlan: input.ManagementPlan,
		Status:         PregnancyActive,
	}
	if err := s.pregnancies.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create pregnancy: %w", err)
	}
	return p, nil
}

func (s *Service) GetPregnancy(ctx context.Context, id uuid.UUID) (*Pregnancy, error) {
	return s.pregnancies.GetByID(ctx, id)
}

func (s *Service) ListPregnancies(ctx context.Context, limit, offset int) ([]*Pregnancy, int, error) {
	return s.pregnancies.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Pregnancy, int, error) {
	return s.pregnancies.ListByPatient(ctx, patientID, limit, offset)
}

// UpdatePregnancyInput edits an open pregnancy. A changed LMP re-derives the
// EDD and invalidates any stored schedule.
type UpdatePregnancyInput struct {
	LMP            *time.Time `json:"lmp,omitempty"`
	Gravida        *int       `json:"gravida,omitempty"`
	Para           *int       `json:"para,omitempty"`
	ManagementPlan *string    `json:"management_plan,omitempty"`
	Status         *string    `json:"status,omitempty"`
}

func (s *Service) UpdatePregnancy(ctx context.Context, id uuid.UUID, input UpdatePregnancyInput) (*Pregnancy, error) {
	p, err := s.pregnancies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.LMP != nil && !input.LMP.Equal(p.LMP) {
		edd, err := ExpectedDueDate(*input.LMP)
		if err != nil {
			return nil, err
		}
		if input.LMP.After(time.Now()) {
			return nil, fmt.Errorf("last menstrual period cannot be in the future")
		}
		p.LMP = *input.LMP
		p.EDD = edd
	}
	if input.Gravida != nil {
		p.Gravida = input.Gravida
	}
	if input.Para != nil {
		p.Para = input.Para
	}
	if input.ManagementPlan != nil {
		p.ManagementPlan = input.ManagementPlan
	}
	if input.Status != nil {
		if !validPregnancyStatuses[*input.Status] {
			return nil, fmt.Errorf("invalid status: %s", *input.Status)
		}
		p.Status = *input.Status
	}

	if err := s.pregnancies.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update pregnancy: %w", err)
	}
	return p, nil
}

func (s *Service) DeletePregnancy(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pregnancies.GetByID(ctx, id); err != nil {
		return err
	}
	return s.pregnancies.Delete(ctx, id)
}

// AssessRiskInput replaces the pregnancy's risk-factor tags. The referral
// flag is optional; when absent and the assessment lands on high risk for a
// pregnancy whose flag was never set explicitly, the flag is forced on.
type AssessRiskInput struct {
	RiskFactors        []string `json:"risk_factors"`
	SpecialistReferral *bool    `json:"specialist_referral,omitempty"`
}

// AssessRisk rescores the pregnancy and, when the tier changed, regenerates
// the visit schedule in the same call so the stored plan matches the new tier.
func (s *Service) AssessRisk(ctx context.Context, id uuid.UUID, input AssessRiskInput) (*Pregnancy, error) {
	p, err := s.pregnancies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, tag := range input.RiskFactors {
		if !KnownRiskFactor(tag) {
			return nil, fmt.Errorf("unknown risk factor: %s", tag)
		}
	}

	previous := p.RiskLevel
	p.RiskFactors = normalizeTags(input.RiskFactors)
	p.RiskLevel = ScoreRisk(p.RiskFactors)

	if input.SpecialistReferral != nil {
		p.SpecialistReferral = *input.SpecialistReferral
		p.ReferralFlagSet = true
	} else if p.RiskLevel == RiskHigh && !p.ReferralFlagSet {
		p.SpecialistReferral = true
	}

	if err := s.pregnancies.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update pregnancy: %w", err)
	}

	if p.RiskLevel != previous {
		if _, err := s.RegenerateSchedule(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("regenerate schedule after risk change: %w", err)
		}
	}
	return p, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// RegenerateSchedule rebuilds the stored visit plan from the pregnancy's
// current EDD and risk tier, replacing any previous plan wholesale.
func (s *Service) RegenerateSchedule(ctx context.Context, pregnancyID uuid.UUID) ([]*ScheduledVisit, error) {
	p, err := s.pregnancies.GetByID(ctx, pregnancyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	currentWeek, err := GestationalAge(p.EDD, now)
	if err != nil {
		return nil, err
	}
	planned, err := GenerateSchedule(p.EDD, p.RiskLevel == RiskHigh, currentWeek, now)
	if err != nil {
		return nil, err
	}
	visits, err := s.schedules.Replace(ctx, p.ID, planned)
	if err != nil {
		return nil, fmt.Errorf("store schedule: %w", err)
	}
	return visits, nil
}

func (s *Service) ListSchedule(ctx context.Context, pregnancyID uuid.UUID) ([]*ScheduledVisit, error) {
	if _, err := s.pregnancies.GetByID(ctx, pregnancyID); err != nil {
		return nil, err
	}
	return s.schedules.ListByPregnancy(ctx, pregnancyID)
}

// UpdateVisitInput adjusts a single planned visit. Only the date and the
// notify flag are editable; week, purpose and ordering stay fixed.
type UpdateVisitInput struct {
	Date   *time.Time `json:"date,omitempty"`
	Notify *bool      `json:"notify,omitempty"`
}

func (s *Service) UpdateVisit(ctx context.Context, visitID uuid.UUID, input UpdateVisitInput) (*ScheduledVisit, error) {
	v, err := s.schedules.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, fmt.Errorf("visit date is required")
		}
		v.Date = *input.Date
	}
	if input.Notify != nil {
		v.Notify = *input.Notify
	}
	if err := s.schedules.UpdateVisit(ctx, v); err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return v, nil
}

// StartRegistration opens the intake pipeline for a pregnancy at the first
// section. A pregnancy has at most one registration.
func (s *Service) StartRegistration(ctx context.Context, pregnancyID uuid.UUID) (*Registration, error) {
	if _, err := s.pregnancies.GetByID(ctx, pregnancyID); err != nil {
		return nil, err
	}
	if existing, err := s.registrations.GetByPregnancy(ctx, pregnancyID); err == nil {
		return existing, nil
	}

	reg := &Registration{
		PregnancyID:   pregnancyID,
		ActiveSection: SectionOrder[0],
		Status:        RegistrationInProgress,
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	return s.registrations.GetByID(ctx, reg.ID)
}

func (s *Service) GetRegistration(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return s.registrations.GetByID(ctx, id)
}

// CompleteSection saves a section payload and marks it complete. The active
// pointer advances only when the completed section is the active one, and
// only after the write succeeds; sections may be revisited without moving
// the pointer backward.
func (s *Service) CompleteSection(ctx context.Context, registrationID uuid.UUID, name string, payload []byte) (*Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status == RegistrationFinalized {
		return nil, fmt.Errorf("registration is already finalized")
	}
	idx := sectionIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("unknown section: %s", name)
	}

	if err := s.registrations.SaveSection(ctx, reg.ID, name, payload); err != nil {
		return nil, fmt.Errorf("save section %s: %w", name, err)
	}

	if reg.ActiveSection == name && idx+1 < len(SectionOrder) {
		reg.ActiveSection = SectionOrder[idx+1]
		if err := s.registrations.Update(ctx, reg); err != nil {
			return nil, fmt.Errorf("advance registration: %w", err)
		}
	}
	return s.registrations.GetByID(ctx, reg.ID)
}

func sectionIndex(name string) int {
	for i, s := range SectionOrder {
		if s == name {
			return i
		}
	}
	return -1
}

// FinalizeRegistration closes the intake pipeline. Every section must be
// complete. The finalized event and the patient's first visit reminder are
// best effort and never fail the finalization.
func (s *Service) FinalizeRegistration(ctx context.Context, registrationID uuid.UUID) (*Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status == RegistrationFinalized {
		return reg, nil
	}
	if !reg.AllComplete() {
		return nil, fmt.Errorf("registration has %d of %d sections complete", reg.CompleteCount(), len(SectionOrder))
	}

	reg.Status = RegistrationFinalized
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("finalize registration: %w", err)
	}

	s.sendFirstVisitReminder(ctx, reg)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeRegistrationFinalized,
			Hospital: db.HospitalFromContext(ctx),
			EntityID: reg.ID.String(),
			Payload:  events.NewPayload(map[string]string{"pregnancy_id": reg.PregnancyID.String()}),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("registration_id", reg.ID.String()).
				Msg("failed to publish registration finalized event")
		}
	}
	return reg, nil
}

func (s *Service) sendFirstVisitReminder(ctx context.Context, reg *Registration) {
	if s.notifier == nil {
		return
	}
	p, err := s.pregnancies.GetByID(ctx, reg.PregnancyID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reminder skipped: pregnancy lookup failed")
		return
	}
	pt, err := s.patients.GetByID(ctx, p.PatientID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reminder skipped: patient lookup failed")
		return
	}
	if pt.Phone == nil {
		s.logger.Info().Str("patient_id", pt.ID.String()).Msg("reminder skipped: patient has no phone")
		return
	}
	visits, err := s.schedules.ListByPregnancy(ctx, p.ID)
	if err != nil || len(visits) == 0 {
		s.logger.Info().Str("pregnancy_id", p.ID.String()).Msg("reminder skipped: no scheduled visits")
		return
	}

	first := visits[0]
	_, err = s.notifier.SendFromTemplate(ctx, "visit-reminder", map[string]string{
		"patient_name": pt.FirstName + " " + pt.LastName,
		"week":         fmt.Sprintf("%d", first.Week),
		"purpose":      first.Purpose,
		"date":         first.Date.Format("2 January 2006"),
		"hospital":     db.HospitalFromContext(ctx),
	}, *pt.Phone)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", pt.ID.String()).
			Msg("failed to send first visit reminder")
	}
}
