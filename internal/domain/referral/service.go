package referral

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/notification"
)

var validPriorities = map[string]bool{
	PriorityRoutine: true, PriorityUrgent: true, PriorityEmergency: true,
}

type Service struct {
	referrals Repository
	hospitals hospital.Repository
	patients  patient.Repository
	notifier  *notification.Manager
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(
	referrals Repository,
	hospitals hospital.Repository,
	patients patient.Repository,
	notifier *notification.Manager,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		referrals: referrals,
		hospitals: hospitals,
		patients:  patients,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// ActorHospital resolves the hospital acting in this request from the
// tenant slug on the context.
func (s *Service) ActorHospital(ctx context.Context) (*hospital.Hospital, error) {
	slug := db.HospitalFromContext(ctx)
	if slug == "" {
		return nil, fmt.Errorf("no hospital in request context")
	}
	return s.hospitals.GetBySubdomain(ctx, slug)
}

// CreateInput opens a referral from the acting hospital to another one.
type CreateInput struct {
	PatientID         uuid.UUID `json:"patient_id"`
	ToHospitalID      uuid.UUID `json:"to_hospital_id"`
	Priority          string    `json:"priority"`
	Reason            string    `json:"reason"`
	Note              *string   `json:"note,omitempty"`
	AmbulanceRequired bool      `json:"ambulance_required"`
}

func (s *Service) Create(ctx context.Context, fromHospitalID uuid.UUID, input CreateInput) (*Referral, error) {
	if input.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if input.ToHospitalID == uuid.Nil {
		return nil, fmt.Errorf("to_hospital_id is required")
	}
	if input.ToHospitalID == fromHospitalID {
		return nil, fmt.Errorf("cannot refer a patient to the same hospital")
	}
	if input.Priority == "" {
		input.Priority = PriorityRoutine
	}
	if !validPriorities[input.Priority] {
		return nil, fmt.Errorf("invalid priority: %s", input.Priority)
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}

	pt, err := s.patients.GetByID(ctx, input.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}
	if _, err := s.hospitals.GetByID(ctx, fromHospitalID); err != nil {
		return nil, fmt.Errorf("referring hospital not found: %w", err)
	}
	to, err := s.hospitals.GetByID(ctx, input.ToHospitalID)
	if err != nil {
		return nil, fmt.Errorf("receiving hospital not found: %w", err)
	}
	if !to.Active {
		return nil, fmt.Errorf("receiving hospital is deactivated")
	}

	ref := &Referral{
		PatientID:         input.PatientID,
		FromHospitalID:    fromHospitalID,
		ToHospitalID:      input.ToHospitalID,
		Status:            StatusPending,
		Priority:          input.Priority,
		Reason:            input.Reason,
		Note:              input.Note,
		AmbulanceRequired: input.AmbulanceRequired,
	}
	if err := s.referrals.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}

	s.publish(ctx, events.TypeReferralCreated, ref)
	s.notifyReceived(ctx, ref, pt, to)
	return ref, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Referral, error) {
	return s.referrals.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Referral, int, error) {
	return s.referrals.List(ctx, filter, limit, offset)
}

// Transition applies an action on behalf of the acting hospital and stamps
// the response or completion time.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action Action, actorHospitalID uuid.UUID) (*Referral, error) {
	ref, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ref.Transition(action, actorHospitalID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.referrals.Update(ctx, ref); err != nil {
		return nil, fmt.Errorf("update referral: %w", err)
	}

	s.publish(ctx, events.TypeReferralTransitioned, ref)
	if ref.Status == StatusAccepted {
		s.notifyAccepted(ctx, ref)
	}
	return ref, nil
}

// Actions returns the actions the acting hospital may take on a referral.
func (s *Service) Actions(ctx context.Context, id uuid.UUID, actorHospitalID uuid.UUID) ([]Action, error) {
	ref, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ref.AllowedActions(actorHospitalID), nil
}

func (s *Service) publish(ctx context.Context, eventType string, ref *Referral) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:     eventType,
		Hospital: db.HospitalFromContext(ctx),
		EntityID: ref.ID.String(),
		Payload: events.NewPayload(map[string]string{
			"status":           string(ref.Status),
			"from_hospital_id": ref.FromHospitalID.String(),
			"to_hospital_id":   ref.ToHospitalID.String(),
		}),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("referral_id", ref.ID.String()).
			Msg("failed to publish referral event")
	}
}

func (s *Service) notifyReceived(ctx context.Context, ref *Referral, pt *patient.Patient, to *hospital.Hospital) {
	if s.notifier == nil {
		return
	}
	from, err := s.hospitals.GetByID(ctx, ref.FromHospitalID)
	if err != nil {
		return
	}
	_, err = s.notifier.SendFromTemplate(ctx, "referral-received", map[string]string{
		"patient_name":  pt.FirstName + " " + pt.LastName,
		"from_hospital": from.Name,
		"reason":        ref.Reason,
		"urgency":       ref.Priority,
	}, to.AdminEmail)
	if err != nil {
		s.logger.Warn().Err(err).Str("referral_id", ref.ID.String()).
			Msg("failed to notify receiving hospital")
	}
}

func (s *Service) notifyAccepted(ctx context.Context, ref *Referral) {
	if s.notifier == nil {
		return
	}
	from, err := s.hospitals.GetByID(ctx, ref.FromHospitalID)
	if err != nil {
		return
	}
	to, err := s.hospitals.GetByID(ctx, ref.ToHospitalID)
	if err != nil {
		return
	}
	// The patient row lives in the referring hospital's schema and may not
	// be visible from the accepting tenant's connection.
	patientName := ref.PatientID.String()
	if pt, err := s.patients.GetByID(ctx, ref.PatientID); err == nil {
		patientName = pt.FirstName + " " + pt.LastName
	}
	_, err = s.notifier.SendFromTemplate(ctx, "referral-accepted", map[string]string{
		"patient_name": patientName,
		"to_hospital":  to.Name,
	}, from.AdminEmail)
	if err != nil {
		s.logger.Warn().Err(err).Str("referral_id", ref.ID.String()).
			Msg("failed to notify referring hospital")
	}
}
