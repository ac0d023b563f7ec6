package messaging

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

type threadRepoPG struct{ pool *pgxpool.Pool }

func NewThreadRepoPG(pool *pgxpool.Pool) ThreadRepository {
	return &threadRepoPG{pool: pool}
}

func (r *threadRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const threadCols = `id, patient_id, subject, active, created_at, updated_at`

func (r *threadRepoPG) Create(ctx context.Context, t *Thread) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO chat_threads (id, patient_id, subject, active)
		VALUES ($1,$2,$3,$4)`,
		t.ID, t.PatientID, t.Subject, t.Active)
	return err
}

func (r *threadRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Thread, error) {
	var t Thread
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+threadCols+` FROM chat_threads WHERE id = $1`, id).
		Scan(&t.ID, &t.PatientID, &t.Subject, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *threadRepoPG) Update(ctx context.Context, t *Thread) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE chat_threads SET subject=$2, active=$3, updated_at=NOW() WHERE id = $1`,
		t.ID, t.Subject, t.Active)
	return err
}

func (r *threadRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Thread, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_threads WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+threadCols+` FROM chat_threads WHERE patient_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.PatientID, &t.Subject, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &t)
	}
	return items, total, rows.Err()
}

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const messageCols = `id, thread_id, sender_id, body, sent_at, read_at`

func (r *messageRepoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chat_messages (id, thread_id, sender_id, body)
		VALUES ($1,$2,$3,$4) RETURNING sent_at`,
		m.ID, m.ThreadID, m.SenderID, m.Body).Scan(&m.SentAt)
}

func (r *messageRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	var m Message
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM chat_messages WHERE id = $1`, id).
		Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.SentAt, &m.ReadAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepoPG) ListByThread(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE thread_id = $1`, threadID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+messageCols+` FROM chat_messages WHERE thread_id = $1 ORDER BY sent_at LIMIT $2 OFFSET $3`,
		threadID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.SentAt, &m.ReadAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &m)
	}
	return items, total, rows.Err()
}

func (r *messageRepoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE chat_messages SET read_at = NOW() WHERE id = $1 AND read_at IS NULL`, id)
	return err
}
