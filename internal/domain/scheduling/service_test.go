package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/notification"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("not found")
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByMRN(_ context.Context, mrn string) (*patient.Patient, error) {
	return nil, fmt.Errorf("not found")
}

func (m *mockPatientRepo) Update(_ context.Context, p *patient.Patient) error { return nil }
func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) Search(_ context.Context, query string, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

type capturingPublisher struct {
	published []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type testEnv struct {
	svc       *Service
	repo      *mockRepo
	patients  *mockPatientRepo
	email     *notification.MockEmailSender
	publisher *capturingPublisher
	patient   *patient.Patient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      newMockRepo(),
		patients:  newMockPatientRepo(),
		email:     &notification.MockEmailSender{},
		publisher: &capturingPublisher{},
	}
	notifier := notification.NewManager(env.email, &notification.MockSMSSender{}, notification.NewTemplateEngine(), 100, 100)
	env.svc = NewService(env.repo, env.patients, notifier, env.publisher, zerolog.Nop())

	email := "ama@example.com"
	env.patient = &patient.Patient{FirstName: "Ama", LastName: "Mensah", Email: &email}
	if err := env.patients.Create(context.Background(), env.patient); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return env
}

func (env *testEnv) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := env.svc.Book(context.Background(), BookInput{
		PatientID: env.patient.ID,
		DoctorID:  uuid.New(),
		Time:      time.Now().Add(48 * time.Hour),
		Reason:    "routine antenatal check",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestBook(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)

	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if len(env.publisher.published) != 1 || env.publisher.published[0].Type != events.TypeAppointmentBooked {
		t.Errorf("events = %+v", env.publisher.published)
	}
}

func TestBook_Validation(t *testing.T) {
	env := newTestEnv(t)
	future := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name  string
		input BookInput
	}{
		{"missing patient", BookInput{DoctorID: uuid.New(), Time: future, Reason: "x"}},
		{"missing doctor", BookInput{PatientID: env.patient.ID, Time: future, Reason: "x"}},
		{"missing time", BookInput{PatientID: env.patient.ID, DoctorID: uuid.New(), Reason: "x"}},
		{"past time", BookInput{PatientID: env.patient.ID, DoctorID: uuid.New(), Time: time.Now().Add(-time.Hour), Reason: "x"}},
		{"missing reason", BookInput{PatientID: env.patient.ID, DoctorID: uuid.New(), Time: future}},
		{"unknown patient", BookInput{PatientID: uuid.New(), DoctorID: uuid.New(), Time: future, Reason: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.Book(context.Background(), tc.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfirmSendsReminder(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)

	confirmed, err := env.svc.SetStatus(context.Background(), a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %s", confirmed.Status)
	}
	calls := env.email.Calls()
	if len(calls) != 1 || calls[0].To != *env.patient.Email {
		t.Errorf("reminder calls = %+v", calls)
	}
}

func TestConfirm_ReminderFailureDoesNotFailConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.email.ShouldFail = true
	env.email.FailError = "smtp down"
	a := env.book(t)

	confirmed, err := env.svc.SetStatus(context.Background(), a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm should not fail on reminder error: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %s", confirmed.Status)
	}
}

func TestSetStatus_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)

	if _, err := env.svc.SetStatus(context.Background(), a.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}

	stored, _ := env.svc.Get(context.Background(), a.ID)
	if stored.Status != StatusScheduled {
		t.Errorf("stored status = %s, want scheduled", stored.Status)
	}
}

func TestCancelDoesNotRemind(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)

	if _, err := env.svc.SetStatus(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(env.email.Calls()) != 0 {
		t.Error("cancellation must not send a reminder")
	}
}

func TestReschedule(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)

	newTime := time.Now().Add(72 * time.Hour)
	updated, err := env.svc.Reschedule(context.Background(), a.ID, RescheduleInput{Time: &newTime})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !updated.Time.Equal(newTime) {
		t.Errorf("time = %s, want %s", updated.Time, newTime)
	}
	if updated.Status != StatusScheduled {
		t.Errorf("reschedule changed status to %s", updated.Status)
	}
}

func TestReschedule_TerminalStates(t *testing.T) {
	env := newTestEnv(t)
	a := env.book(t)
	if _, err := env.svc.SetStatus(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	newTime := time.Now().Add(72 * time.Hour)
	if _, err := env.svc.Reschedule(context.Background(), a.ID, RescheduleInput{Time: &newTime}); err == nil {
		t.Error("expected error rescheduling a cancelled appointment")
	}
}
