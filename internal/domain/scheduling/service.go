package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/notification"
)

type Service struct {
	appointments Repository
	patients     patient.Repository
	notifier     *notification.Manager
	publisher    events.Publisher
	logger       zerolog.Logger
}

func NewService(
	appointments Repository,
	patients patient.Repository,
	notifier *notification.Manager,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		notifier:     notifier,
		publisher:    publisher,
		logger:       logger,
	}
}

// BookInput creates an appointment in the scheduled state.
type BookInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Time      time.Time `json:"time"`
	Reason    string    `json:"reason"`
	Note      *string   `json:"note,omitempty"`
}

func (s *Service) Book(ctx context.Context, input BookInput) (*Appointment, error) {
	if input.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if input.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if input.Time.IsZero() {
		return nil, fmt.Errorf("appointment time is required")
	}
	if input.Time.Before(time.Now()) {
		return nil, fmt.Errorf("appointment time cannot be in the past")
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}

	a := &Appointment{
		PatientID: input.PatientID,
		DoctorID:  input.DoctorID,
		Time:      input.Time,
		Reason:    input.Reason,
		Status:    StatusScheduled,
		Note:      input.Note,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, events.Event{
			Type:     events.TypeAppointmentBooked,
			Hospital: db.HospitalFromContext(ctx),
			EntityID: a.ID.String(),
			Payload:  events.NewPayload(map[string]string{"patient_id": a.PatientID.String()}),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
				Msg("failed to publish appointment event")
		}
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// RescheduleInput edits the appointment's time, reason or note without
// touching its status.
type RescheduleInput struct {
	Time   *time.Time `json:"time,omitempty"`
	Reason *string    `json:"reason,omitempty"`
	Note   *string    `json:"note,omitempty"`
}

func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, input RescheduleInput) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled || a.Status == StatusCompleted {
		return nil, fmt.Errorf("appointment is %s", a.Status)
	}

	if input.Time != nil {
		if input.Time.Before(time.Now()) {
			return nil, fmt.Errorf("appointment time cannot be in the past")
		}
		a.Time = *input.Time
	}
	if input.Reason != nil {
		if *input.Reason == "" {
			return nil, fmt.Errorf("reason is required")
		}
		a.Reason = *input.Reason
	}
	if input.Note != nil {
		a.Note = input.Note
	}

	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return a, nil
}

// SetStatus moves the appointment through its lifecycle. Confirmation
// triggers a reminder to the patient; the reminder is best effort.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	if a.Status == StatusConfirmed {
		s.sendReminder(ctx, a)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.appointments.Delete(ctx, id)
}

func (s *Service) sendReminder(ctx context.Context, a *Appointment) {
	if s.notifier == nil {
		return
	}
	pt, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reminder skipped: patient lookup failed")
		return
	}
	recipient := ""
	if pt.Email != nil {
		recipient = *pt.Email
	} else if pt.Phone != nil {
		recipient = *pt.Phone
	}
	if recipient == "" {
		s.logger.Info().Str("patient_id", pt.ID.String()).Msg("reminder skipped: patient unreachable")
		return
	}

	_, err = s.notifier.SendFromTemplate(ctx, "appointment-reminder", map[string]string{
		"patient_name": pt.FirstName + " " + pt.LastName,
		"date":         a.Time.Format("2 January 2006"),
		"time":         a.Time.Format("15:04"),
		"provider":     a.DoctorID.String(),
	}, recipient)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
			Msg("failed to send appointment reminder")
	}
}
