package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/patient"
)

type Service struct {
	threads  ThreadRepository
	messages MessageRepository
	patients patient.Repository
	logger   zerolog.Logger
}

func NewService(
	threads ThreadRepository,
	messages MessageRepository,
	patients patient.Repository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		threads:  threads,
		messages: messages,
		patients: patients,
		logger:   logger,
	}
}

// OpenThreadInput starts a conversation about a patient.
type OpenThreadInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	Subject   string    `json:"subject"`
}

func (s *Service) OpenThread(ctx context.Context, input OpenThreadInput) (*Thread, error) {
	if input.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if input.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if _, err := s.patients.GetByID(ctx, input.PatientID); err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}

	t := &Thread{
		PatientID: input.PatientID,
		Subject:   input.Subject,
		Active:    true,
	}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return t, nil
}

func (s *Service) GetThread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	return s.threads.GetByID(ctx, id)
}

func (s *Service) ListThreadsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Thread, int, error) {
	return s.threads.ListByPatient(ctx, patientID, limit, offset)
}

// CloseThread deactivates a thread. Posting to a closed thread fails;
// reading stays allowed.
func (s *Service) CloseThread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	t, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return t, nil
	}
	t.Active = false
	if err := s.threads.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("close thread: %w", err)
	}
	return t, nil
}

// PostInput adds a message to a thread on behalf of the sender.
type PostInput struct {
	Body string `json:"body"`
}

func (s *Service) PostMessage(ctx context.Context, threadID uuid.UUID, senderID, body string) (*Message, error) {
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if senderID == "" {
		return nil, fmt.Errorf("sender is required")
	}
	t, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("thread not found: %w", err)
	}
	if !t.Active {
		return nil, fmt.Errorf("thread is closed")
	}

	m := &Message{
		ThreadID: threadID,
		SenderID: senderID,
		Body:     body,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// Keeps thread ordering by recent activity.
	if err := s.threads.Update(ctx, t); err != nil {
		s.logger.Warn().Err(err).Str("thread_id", t.ID.String()).Msg("failed to bump thread")
	}
	return m, nil
}

func (s *Service) ListMessages(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return nil, 0, fmt.Errorf("thread not found: %w", err)
	}
	return s.messages.ListByThread(ctx, threadID, limit, offset)
}

// MarkRead stamps a message as read. Repeated calls keep the first stamp.
func (s *Service) MarkRead(ctx context.Context, messageID uuid.UUID) (*Message, error) {
	if _, err := s.messages.GetByID(ctx, messageID); err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, messageID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return s.messages.GetByID(ctx, messageID)
}
