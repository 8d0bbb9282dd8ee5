package moderation_test

import (
	"context"
	"errors"
	"testing"

	"vcert/internal/faults"
	"vcert/internal/moderation"
	"vcert/internal/store"
	"vcert/internal/testsupport"
)

func seed(t *testing.T) (*moderation.Service, *store.Store, *store.User, *store.Certificate) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	operator, err := st.UpsertUser(ctx, 100, "op", "Operator", "")
	if err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	admin, err := st.UpsertUser(ctx, 200, "admin", "Admin", "")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	cert, err := st.CreateCertificate(ctx, store.NewCertificate{
		OperatorID:   operator.ID,
		CarBrand:     "Toyota",
		CarModel:     "Camry",
		LicensePlate: "A123BC777",
		VIN:          "JTDBT923771012345",
		RollNumber:   "RL-100",
		RollPhoto:    "roll-photo",
		CarPhoto:     "car-photo",
	})
	if err != nil {
		t.Fatalf("seed certificate: %v", err)
	}
	return moderation.NewService(st), st, admin, cert
}

func TestApprove(t *testing.T) {
	svc, _, admin, cert := seed(t)

	got, err := svc.Approve(context.Background(), cert.ID, admin.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != store.StatusApproved {
		t.Fatalf("status = %q", got.Status)
	}

	_, err = svc.Approve(context.Background(), cert.ID, admin.ID)
	if !errors.Is(err, moderation.ErrAlreadyProcessed) {
		t.Fatalf("second approve: got %v", err)
	}
}

func TestApproveUnknownCertificate(t *testing.T) {
	svc, _, admin, _ := seed(t)

	_, err := svc.Approve(context.Background(), 12345, admin.ID)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("unknown id: got %v, want not-found", err)
	}
	if errors.Is(err, moderation.ErrAlreadyProcessed) {
		t.Fatal("unknown id must not read as an already-decided certificate")
	}
}

func TestTwoPhaseReject(t *testing.T) {
	svc, _, admin, cert := seed(t)
	ctx := context.Background()

	if _, ok := svc.PendingReject(admin.TelegramID); ok {
		t.Fatal("no reject should be parked yet")
	}
	svc.StartReject(admin.TelegramID, cert.ID)
	if id, ok := svc.PendingReject(admin.TelegramID); !ok || id != cert.ID {
		t.Fatalf("parked reject = %d/%v", id, ok)
	}

	got, reason, err := svc.SubmitReason(ctx, admin.TelegramID, admin.ID, "  Фото рулона нечитаемо  ")
	if err != nil {
		t.Fatalf("submit reason: %v", err)
	}
	if reason != "Фото рулона нечитаемо" {
		t.Fatalf("reason = %q", reason)
	}
	if got.Status != store.StatusRejected || got.RejectionReason != reason {
		t.Fatalf("certificate = %q/%q", got.Status, got.RejectionReason)
	}
	if _, ok := svc.PendingReject(admin.TelegramID); ok {
		t.Fatal("parked reject should be cleared after commit")
	}
}

func TestShortReasonKeepsRejectParked(t *testing.T) {
	svc, _, admin, cert := seed(t)

	svc.StartReject(admin.TelegramID, cert.ID)
	_, _, err := svc.SubmitReason(context.Background(), admin.TelegramID, admin.ID, "нет")
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("short reason: got %v", err)
	}
	if _, ok := svc.PendingReject(admin.TelegramID); !ok {
		t.Fatal("invalid reason must keep the reject parked")
	}
}

func TestRejectLosesToEarlierApproval(t *testing.T) {
	svc, _, admin, cert := seed(t)
	ctx := context.Background()

	svc.StartReject(admin.TelegramID, cert.ID)
	if _, err := svc.Approve(ctx, cert.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, _, err := svc.SubmitReason(ctx, admin.TelegramID, admin.ID, "Номер рулона не совпадает")
	if !errors.Is(err, moderation.ErrAlreadyProcessed) {
		t.Fatalf("losing reject: got %v", err)
	}
	if _, ok := svc.PendingReject(admin.TelegramID); ok {
		t.Fatal("losing commit must still clear the parked reject")
	}

	got, err := svc.Approve(ctx, cert.ID, admin.ID)
	if !errors.Is(err, moderation.ErrAlreadyProcessed) {
		t.Fatalf("got %v / %v", got, err)
	}
}

func TestStartRejectReplacesEarlierTarget(t *testing.T) {
	svc, st, admin, first := seed(t)
	ctx := context.Background()

	second, err := st.CreateCertificate(ctx, store.NewCertificate{
		OperatorID:   first.OperatorID,
		CarBrand:     "Lada",
		CarModel:     "Vesta",
		LicensePlate: "B456DE199",
		VIN:          "XTA21099912345678",
		RollNumber:   "RL-200",
		RollPhoto:    "roll-photo-2",
		CarPhoto:     "car-photo-2",
	})
	if err != nil {
		t.Fatalf("second certificate: %v", err)
	}

	svc.StartReject(admin.TelegramID, first.ID)
	svc.StartReject(admin.TelegramID, second.ID)

	got, _, err := svc.SubmitReason(ctx, admin.TelegramID, admin.ID, "Данные не совпадают с рулоном")
	if err != nil {
		t.Fatalf("submit reason: %v", err)
	}
	if got.ID != second.ID {
		t.Fatalf("rejected %d, want %d", got.ID, second.ID)
	}

	firstReloaded, err := st.CertificateByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("reload first: %v", err)
	}
	if firstReloaded.Status != store.StatusPending {
		t.Fatalf("first certificate = %q, want pending", firstReloaded.Status)
	}
}
