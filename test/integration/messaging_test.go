package integration

import (
	"context"
	"testing"

	"github.com/carelink/carelink/internal/domain/messaging"
)

func TestChatThreadRoundtrip(t *testing.T) {
	ctx := context.Background()
	slug := uniqueSlug("chat")
	createHospitalSchema(t, ctx, slug)
	defer dropHospitalSchema(t, ctx, slug)

	p := createTestPatient(t, ctx, slug, "Maame", "Agyeman", "MRN-0300")

	err := withHospitalConn(ctx, slug, func(ctx context.Context) error {
		threads := messaging.NewThreadRepoPG(globalDB.Pool)
		messages := messaging.NewMessageRepoPG(globalDB.Pool)

		th := &messaging.Thread{PatientID: p.ID, Subject: "lab results", Active: true}
		if err := threads.Create(ctx, th); err != nil {
			return err
		}

		m := &messaging.Message{ThreadID: th.ID, SenderID: "dr-mensah", Body: "Results are in."}
		if err := messages.Create(ctx, m); err != nil {
			return err
		}
		if m.SentAt.IsZero() {
			t.Error("sent_at not returned on insert")
		}

		// First read stamps, second read leaves the stamp alone.
		if err := messages.MarkRead(ctx, m.ID); err != nil {
			return err
		}
		first, err := messages.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		if first.ReadAt == nil {
			t.Fatal("read_at not stamped")
		}
		if err := messages.MarkRead(ctx, m.ID); err != nil {
			return err
		}
		second, err := messages.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		if !second.ReadAt.Equal(*first.ReadAt) {
			t.Error("repeated mark-read moved the stamp")
		}

		items, total, err := messages.ListByThread(ctx, th.ID, 50, 0)
		if err != nil {
			return err
		}
		if total != 1 || len(items) != 1 {
			t.Errorf("list returned %d messages, want 1", total)
		}

		listed, total, err := threads.ListByPatient(ctx, p.ID, 20, 0)
		if err != nil {
			return err
		}
		if total != 1 || !listed[0].Active {
			t.Errorf("thread list = %d rows, active=%v", total, listed[0].Active)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("chat roundtrip: %v", err)
	}
}
