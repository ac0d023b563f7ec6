package messaging

import (
	"context"

	"github.com/google/uuid"
)

type ThreadRepository interface {
	Create(ctx context.Context, t *Thread) error
	GetByID(ctx context.Context, id uuid.UUID) (*Thread, error)
	Update(ctx context.Context, t *Thread) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Thread, int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListByThread(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*Message, int, error)
	// MarkRead stamps read_at if it is still null. Safe to call repeatedly.
	MarkRead(ctx context.Context, id uuid.UUID) error
}
