package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Thread maps to the chat_threads table in the tenant schema.
type Thread struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Subject   string    `db:"subject" json:"subject"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Message maps to the chat_messages table. ReadAt is nil until the message
// is marked read; marking again is a no-op.
type Message struct {
	ID       uuid.UUID  `db:"id" json:"id"`
	ThreadID uuid.UUID  `db:"thread_id" json:"thread_id"`
	SenderID string     `db:"sender_id" json:"sender_id"`
	Body     string     `db:"body" json:"body"`
	SentAt   time.Time  `db:"sent_at" json:"sent_at"`
	ReadAt   *time.Time `db:"read_at" json:"read_at,omitempty"`
}
