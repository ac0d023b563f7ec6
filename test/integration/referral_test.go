package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/hospital"
	"github.com/carelink/carelink/internal/domain/referral"
)

// createTestHospital inserts a hospital row into the shared schema.
func createTestHospital(t *testing.T, ctx context.Context, name, subdomain string) *hospital.Hospital {
	t.Helper()
	repo := hospital.NewRepoPG(globalDB.Pool)
	h := &hospital.Hospital{
		Name:              name,
		Subdomain:         subdomain,
		AdminEmail:        "admin@" + subdomain + ".example",
		AdminPasswordHash: "x",
		Active:            true,
	}
	if err := repo.Create(ctx, h); err != nil {
		t.Fatalf("create hospital %s: %v", subdomain, err)
	}
	return h
}

func TestReferralLifecycle(t *testing.T) {
	ctx := context.Background()

	from := createTestHospital(t, ctx, "Korle Bu", uniqueSlug("korle"))
	to := createTestHospital(t, ctx, "Ridge", uniqueSlug("ridge"))
	repo := referral.NewRepoPG(globalDB.Pool)

	ref := &referral.Referral{
		PatientID:      uuid.New(),
		FromHospitalID: from.ID,
		ToHospitalID:   to.ID,
		Status:         referral.StatusPending,
		Priority:       "urgent",
		Reason:         "suspected pre-eclampsia, needs specialist review",
	}
	if err := repo.Create(ctx, ref); err != nil {
		t.Fatalf("create referral: %v", err)
	}

	got, err := repo.GetByID(ctx, ref.ID)
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if got.Status != referral.StatusPending || got.RespondedAt != nil {
		t.Fatalf("fresh referral = %+v", got)
	}

	// Accept by the receiving hospital, then persist the stamped row.
	if err := got.Transition(referral.ActionAccept, to.ID, time.Now()); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("persist accept: %v", err)
	}

	got, err = repo.GetByID(ctx, ref.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != referral.StatusAccepted || got.RespondedAt == nil {
		t.Fatalf("after accept = %+v", got)
	}

	// Complete by the referring hospital.
	if err := got.Transition(referral.ActionComplete, from.ID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("persist complete: %v", err)
	}

	got, err = repo.GetByID(ctx, ref.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != referral.StatusCompleted || got.CompletedAt == nil {
		t.Fatalf("after complete = %+v", got)
	}
}

func TestReferralListFiltering(t *testing.T) {
	ctx := context.Background()

	a := createTestHospital(t, ctx, "Hospital A", uniqueSlug("hospa"))
	b := createTestHospital(t, ctx, "Hospital B", uniqueSlug("hospb"))
	repo := referral.NewRepoPG(globalDB.Pool)

	outbound := &referral.Referral{
		PatientID: uuid.New(), FromHospitalID: a.ID, ToHospitalID: b.ID,
		Status: referral.StatusPending, Priority: "routine", Reason: "outbound",
	}
	inbound := &referral.Referral{
		PatientID: uuid.New(), FromHospitalID: b.ID, ToHospitalID: a.ID,
		Status: referral.StatusPending, Priority: "routine", Reason: "inbound",
	}
	for _, r := range []*referral.Referral{outbound, inbound} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := repo.List(ctx, referral.ListFilter{HospitalID: a.ID, Side: "from"}, 20, 0)
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if total != 1 || items[0].ID != outbound.ID {
		t.Errorf("from side returned %d rows", total)
	}

	_, total, err = repo.List(ctx, referral.ListFilter{HospitalID: a.ID, Side: "to"}, 20, 0)
	if err != nil {
		t.Fatalf("list to: %v", err)
	}
	if total != 1 {
		t.Errorf("to side returned %d rows", total)
	}

	_, total, err = repo.List(ctx, referral.ListFilter{HospitalID: a.ID}, 20, 0)
	if err != nil {
		t.Fatalf("list either: %v", err)
	}
	if total != 2 {
		t.Errorf("either side returned %d rows, want 2", total)
	}
}
