// Package moderation implements the admin decision workflow. Approval is
// a single conditional write; rejection is two-phase: the admin first
// starts a reject, which parks the certificate id under their actor id,
// and their next text message supplies the reason. Both commit paths
// recheck that the certificate is still pending, so two admins racing on
// the same certificate leaves exactly one decision recorded.
package moderation

import (
	"context"

	"vcert/internal/faults"
	"vcert/internal/session"
	"vcert/internal/store"
	"vcert/internal/validate"
)

// ErrAlreadyProcessed is returned when a decision loses the pending check.
var ErrAlreadyProcessed = faults.Conflict("⚠️ Этот сертификат уже был обработан")

// Service coordinates certificate decisions.
type Service struct {
	store   *store.Store
	reasons *session.Store[int64]
}

// NewService builds a moderation Service over the store.
func NewService(st *store.Store) *Service {
	return &Service{
		store:   st,
		reasons: session.NewStore[int64](0),
	}
}

// Approve marks the certificate approved on behalf of adminID and returns
// the updated record. A certificate that was already decided yields
// ErrAlreadyProcessed; an unknown id yields not-found. The conditional
// update cannot tell the two apart, so a lost write is followed by a
// lookup to classify it.
func (s *Service) Approve(ctx context.Context, certID, adminID int64) (*store.Certificate, error) {
	won, err := s.store.ApproveCertificate(ctx, certID, adminID)
	if err != nil {
		return nil, err
	}
	cert, err := s.store.CertificateByID(ctx, certID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyProcessed
	}
	return cert, nil
}

// StartReject parks certID as awaiting a reason from actorID. Starting a
// second reject before supplying a reason replaces the first.
func (s *Service) StartReject(actorID, certID int64) {
	s.reasons.Put(actorID, certID)
}

// PendingReject reports whether actorID owes a rejection reason and for
// which certificate.
func (s *Service) PendingReject(actorID int64) (int64, bool) {
	return s.reasons.Get(actorID)
}

// CancelReject drops any parked rejection for actorID.
func (s *Service) CancelReject(actorID int64) {
	s.reasons.Delete(actorID)
}

// SubmitReason completes a parked rejection with the given reason text.
// A reason that fails validation leaves the parked rejection in place so
// the admin can try again; any commit attempt, winning or losing, clears
// it. Returns the updated certificate and the validated reason.
func (s *Service) SubmitReason(ctx context.Context, actorID, adminID int64, text string) (*store.Certificate, string, error) {
	certID, ok := s.reasons.Get(actorID)
	if !ok {
		return nil, "", faults.Wrap(faults.ErrNotFound, "moderation", "submit_reason", "no rejection in progress", nil)
	}

	reason, err := validate.RejectionReason(text)
	if err != nil {
		return nil, "", err
	}

	s.reasons.Delete(actorID)

	won, err := s.store.RejectCertificate(ctx, certID, adminID, reason)
	if err != nil {
		return nil, "", err
	}
	if !won {
		return nil, "", ErrAlreadyProcessed
	}
	cert, err := s.store.CertificateByID(ctx, certID)
	if err != nil {
		return nil, "", err
	}
	return cert, reason, nil
}

// Pending lists certificates awaiting a decision, oldest first.
func (s *Service) Pending(ctx context.Context) ([]*store.Certificate, error) {
	return s.store.PendingCertificates(ctx)
}
