package referral

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/db"
	"github.com/carelink/carelink/internal/platform/events"
	"github.com/carelink/carelink/internal/platform/notification"
)

type mockRepo struct {
	referrals map[uuid.UUID]*Referral
}

func newMockRepo() *mockRepo {
	return &mockRepo{referrals: make(map[uuid.UUID]*Referral)}
}

func (m *mockRepo) Create(_ context.Context, r *Referral) error {
	r.ID = uuid.New()
	cp := *r
	m.referrals[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Referral, error) {
	r, ok := m.referrals[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, r *Referral) error {
	if _, ok := m.referrals[r.ID]; !ok {
		return fmt.Errorf("not found")
	}
	cp := *r
	m.referrals[r.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Referral, int, error) {
	var items []*Referral
	for _, r := range m.referrals {
		if filter.HospitalID != uuid.Nil {
			switch filter.Side {
			case "from":
				if r.FromHospitalID != filter.HospitalID {
					continue
				}
			case "to":
				if r.ToHospitalID != filter.HospitalID {
					continue
				}
			default:
				if r.FromHospitalID != filter.HospitalID && r.ToHospitalID != filter.HospitalID {
					continue
				}
			}
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		items = append(items, r)
	}
	return items, len(items), nil
}

type mockHospitalRepo struct {
	hospitals map[uuid.UUID]*hospital.Hospital
}

func newMockHospitalRepo() *mockHospitalRepo {
	return &mockHospitalRepo{hospitals: make(map[uuid.UUID]*hospital.Hospital)}
}

func (m *mockHospitalRepo) Create(_ context.Context, h *hospital.Hospital) error {
	h.ID = uuid.New()
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockHospitalRepo) GetByID(_ context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return h, nil
}

func (m *mockHospitalRepo) GetBySubdomain(_ context.Context, subdomain string) (*hospital.Hospital, error) {
	for _, h := range m.hospitals {
		if h.Subdomain == subdomain {
			return h, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockHospitalRepo) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	_, err := m.GetBySubdomain(context.Background(), subdomain)
	return err == nil, nil
}

func (m *mockHospitalRepo) Update(_ context.Context, h *hospital.Hospital) error { return nil }
func (m *mockHospitalRepo) Delete(_ context.Context, id uuid.UUID) error         { return nil }

func (m *mockHospitalRepo) List(_ context.Context, limit, offset int) ([]*hospital.Hospital, int, error) {
	return nil, 0, nil
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
	referrals *mockRepo
	hospitals *mockHospitalRepo
	patients  *mockPatientRepo
	email     *notification.MockEmailSender
	publisher *capturingPublisher
	from      *hospital.Hospital
	to        *hospital.Hospital
	patient   *patient.Patient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		referrals: newMockRepo(),
		hospitals: newMockHospitalRepo(),
		patients:  newMockPatientRepo(),
		email:     &notification.MockEmailSender{},
		publisher: &capturingPublisher{},
	}
	notifier := notification.NewManager(env.email, &notification.MockSMSSender{}, notification.NewTemplateEngine(), 100, 100)
	env.svc = NewService(env.referrals, env.hospitals, env.patients, notifier, env.publisher, zerolog.Nop())

	env.from = &hospital.Hospital{Name: "Korle Bu", Subdomain: "korle-bu", AdminEmail: "admin@korlebu.example", Active: true}
	env.to = &hospital.Hospital{Name: "Ridge", Subdomain: "ridge", AdminEmail: "admin@ridge.example", Active: true}
	for _, h := range []*hospital.Hospital{env.from, env.to} {
		if err := env.hospitals.Create(context.Background(), h); err != nil {
			t.Fatalf("create hospital: %v", err)
		}
	}
	env.patient = &patient.Patient{FirstName: "Ama", LastName: "Mensah"}
	if err := env.patients.Create(context.Background(), env.patient); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return env
}

func (env *testEnv) create(t *testing.T) *Referral {
	t.Helper()
	ref, err := env.svc.Create(context.Background(), env.from.ID, CreateInput{
		PatientID:    env.patient.ID,
		ToHospitalID: env.to.ID,
		Priority:     PriorityUrgent,
		Reason:       "suspected pre-eclampsia",
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	return ref
}

func TestCreateReferral(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)

	if ref.Status != StatusPending {
		t.Errorf("status = %s, want pending", ref.Status)
	}
	if len(env.publisher.published) != 1 || env.publisher.published[0].Type != events.TypeReferralCreated {
		t.Errorf("events = %+v", env.publisher.published)
	}
	calls := env.email.Calls()
	if len(calls) != 1 || calls[0].To != env.to.AdminEmail {
		t.Errorf("receiving hospital was not notified: %+v", calls)
	}
}

func TestCreateReferral_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing patient", CreateInput{ToHospitalID: env.to.ID, Reason: "x"}},
		{"missing target", CreateInput{PatientID: env.patient.ID, Reason: "x"}},
		{"self referral", CreateInput{PatientID: env.patient.ID, ToHospitalID: env.from.ID, Reason: "x"}},
		{"unknown patient", CreateInput{PatientID: uuid.New(), ToHospitalID: env.to.ID, Reason: "x"}},
		{"unknown hospital", CreateInput{PatientID: env.patient.ID, ToHospitalID: uuid.New(), Reason: "x"}},
		{"bad priority", CreateInput{PatientID: env.patient.ID, ToHospitalID: env.to.ID, Reason: "x", Priority: "asap"}},
		{"missing reason", CreateInput{PatientID: env.patient.ID, ToHospitalID: env.to.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.Create(ctx, env.from.ID, tc.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCreateReferral_InactiveTarget(t *testing.T) {
	env := newTestEnv(t)
	env.to.Active = false

	_, err := env.svc.Create(context.Background(), env.from.ID, CreateInput{
		PatientID:    env.patient.ID,
		ToHospitalID: env.to.ID,
		Reason:       "x",
	})
	if err == nil {
		t.Error("expected error for deactivated hospital")
	}
}

func TestCreateReferral_DefaultsPriority(t *testing.T) {
	env := newTestEnv(t)
	ref, err := env.svc.Create(context.Background(), env.from.ID, CreateInput{
		PatientID:    env.patient.ID,
		ToHospitalID: env.to.ID,
		Reason:       "x",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref.Priority != PriorityRoutine {
		t.Errorf("priority = %s, want routine", ref.Priority)
	}
}

func TestTransition_AcceptNotifiesAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)
	before := len(env.email.Calls())

	updated, err := env.svc.Transition(context.Background(), ref.ID, ActionAccept, env.to.ID)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != StatusAccepted || updated.RespondedAt == nil {
		t.Errorf("referral = %+v", updated)
	}

	last := env.publisher.published[len(env.publisher.published)-1]
	if last.Type != events.TypeReferralTransitioned {
		t.Errorf("last event type = %s", last.Type)
	}
	calls := env.email.Calls()
	if len(calls) != before+1 || calls[len(calls)-1].To != env.from.AdminEmail {
		t.Errorf("referring hospital was not notified: %+v", calls)
	}
}

func TestTransition_ErrorsPropagate(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)

	if _, err := env.svc.Transition(context.Background(), ref.ID, ActionAccept, env.from.ID); err != ErrNotActor {
		t.Errorf("err = %v, want ErrNotActor", err)
	}
	if _, err := env.svc.Transition(context.Background(), ref.ID, ActionComplete, env.to.ID); err != ErrInvalidTransition {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}

	// Failed transitions must not persist anything.
	stored, _ := env.svc.Get(context.Background(), ref.ID)
	if stored.Status != StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status)
	}
}

func TestTransition_FullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)
	ctx := context.Background()

	if _, err := env.svc.Transition(ctx, ref.ID, ActionAccept, env.to.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	done, err := env.svc.Transition(ctx, ref.ID, ActionComplete, env.from.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedAt == nil {
		t.Errorf("referral = %+v", done)
	}
}

func TestListFiltering(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)
	if _, err := env.svc.Transition(context.Background(), ref.ID, ActionAccept, env.to.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	env.create(t)

	items, total, err := env.svc.List(context.Background(), ListFilter{HospitalID: env.to.ID, Side: "to"}, 50, 0)
	if err != nil || total != 2 {
		t.Fatalf("list to-side: %v (%d items)", err, len(items))
	}

	items, _, err = env.svc.List(context.Background(), ListFilter{HospitalID: env.to.ID, Status: StatusPending}, 50, 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("list pending: %v (%d items)", err, len(items))
	}

	items, _, err = env.svc.List(context.Background(), ListFilter{HospitalID: uuid.New()}, 50, 0)
	if err != nil || len(items) != 0 {
		t.Fatalf("list stranger: %v (%d items)", err, len(items))
	}
}

func TestActorHospital(t *testing.T) {
	env := newTestEnv(t)

	ctx := context.WithValue(context.Background(), db.HospitalSlugKey, "korle-bu")
	actor, err := env.svc.ActorHospital(ctx)
	if err != nil {
		t.Fatalf("resolve actor: %v", err)
	}
	if actor.ID != env.from.ID {
		t.Errorf("actor = %s, want %s", actor.ID, env.from.ID)
	}

	if _, err := env.svc.ActorHospital(context.Background()); err == nil {
		t.Error("expected error without hospital in context")
	}
}

func TestActions(t *testing.T) {
	env := newTestEnv(t)
	ref := env.create(t)

	actions, err := env.svc.Actions(context.Background(), ref.ID, env.to.ID)
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if len(actions) != 2 {
		t.Errorf("receiver actions = %v", actions)
	}

	actions, _ = env.svc.Actions(context.Background(), ref.ID, env.from.ID)
	if len(actions) != 0 {
		t.Errorf("sender actions on pending = %v", actions)
	}
}
