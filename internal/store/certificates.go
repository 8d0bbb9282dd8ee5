package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vcert/internal/faults"
)

const certificateColumns = "id, serial, operator_id, admin_id, car_brand, car_model, license_plate, vin, roll_number, roll_photo, car_photo, status, rejection_reason, created_at, decided_at"

// NewCertificate carries the fields collected by a completed capture session.
type NewCertificate struct {
	OperatorID   int64
	CarBrand     string
	CarModel     string
	LicensePlate string
	VIN          string
	RollNumber   string
	RollPhoto    string
	CarPhoto     string
}

// CreateCertificate inserts a pending certificate. Uniqueness of the license
// plate and VIN is enforced by the schema; a losing concurrent insert gets
// ErrPlateExists or ErrVINExists and nothing is written.
func (s *Store) CreateCertificate(ctx context.Context, draft NewCertificate) (*Certificate, error) {
	ctx = ensureContext(ctx)
	serial := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `
		INSERT INTO certificates (serial, operator_id, car_brand, car_model, license_plate, vin, roll_number, roll_photo, car_photo, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)`
	res, err := s.execWithRetry(ctx, query,
		serial, draft.OperatorID, draft.CarBrand, draft.CarModel,
		draft.LicensePlate, draft.VIN, draft.RollNumber,
		draft.RollPhoto, draft.CarPhoto, now)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return nil, mapped
		}
		return nil, faults.Wrap(faults.ErrDependency, "store", "create_certificate", "insert certificate", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "create_certificate", "last insert id", err)
	}
	return s.CertificateByID(ctx, id)
}

// CertificateByID fetches a certificate by internal id.
func (s *Store) CertificateByID(ctx context.Context, id int64) (*Certificate, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+certificateColumns+" FROM certificates WHERE id = ?", id)
	return scanCertificate(row)
}

// ApproveCertificate marks a pending certificate approved and records the
// deciding admin. It returns false when the certificate was no longer
// pending, meaning another moderator decided first.
func (s *Store) ApproveCertificate(ctx context.Context, id, adminID int64) (bool, error) {
	return s.decide(ctx, id, adminID, StatusApproved, "")
}

// RejectCertificate marks a pending certificate rejected with the given
// reason. It returns false when the certificate was no longer pending.
func (s *Store) RejectCertificate(ctx context.Context, id, adminID int64, reason string) (bool, error) {
	return s.decide(ctx, id, adminID, StatusRejected, reason)
}

func (s *Store) decide(ctx context.Context, id, adminID int64, status Status, reason string) (bool, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `
		UPDATE certificates
		SET status = ?, admin_id = ?, rejection_reason = ?, decided_at = ?
		WHERE id = ? AND status = 'pending'`
	res, err := s.execWithRetry(ctx, query, string(status), adminID, nullableString(reason), now, id)
	if err != nil {
		return false, faults.Wrap(faults.ErrDependency, "store", "decide_certificate", "update certificate", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, faults.Wrap(faults.ErrDependency, "store", "decide_certificate", "rows affected", err)
	}
	return affected > 0, nil
}

// PendingCertificates lists pending certificates oldest first.
func (s *Store) PendingCertificates(ctx context.Context) ([]*Certificate, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+certificateColumns+" FROM certificates WHERE status = 'pending' ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "pending_certificates", "query certificates", err)
	}
	defer rows.Close()
	return collectCertificates(rows)
}

// FindApprovedByQuery locates an approved certificate by license plate or
// VIN. The query is uppercased the same way capture normalizes those fields.
func (s *Store) FindApprovedByQuery(ctx context.Context, query string) (*Certificate, error) {
	ctx = ensureContext(ctx)
	needle := strings.ToUpper(strings.TrimSpace(query))
	if needle == "" {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "find_approved", "empty query", nil)
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+certificateColumns+" FROM certificates WHERE status = 'approved' AND (license_plate = ? OR vin = ?)",
		needle, needle)
	return scanCertificate(row)
}

// CertificatesByOperator lists an operator's submissions newest first.
func (s *Store) CertificatesByOperator(ctx context.Context, operatorID int64) ([]*Certificate, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+certificateColumns+" FROM certificates WHERE operator_id = ? ORDER BY created_at DESC, id DESC", operatorID)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "certificates_by_operator", "query certificates", err)
	}
	defer rows.Close()
	return collectCertificates(rows)
}

// StatusCounts aggregates certificate totals for the statistics commands.
func (s *Store) StatusCounts(ctx context.Context) (StatusCounts, error) {
	ctx = ensureContext(ctx)
	todayPrefix := time.Now().UTC().Format("2006-01-02")
	var counts StatusCounts
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN created_at LIKE ? THEN 1 ELSE 0 END), 0)
		FROM certificates`, todayPrefix+"%")
	if err := row.Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected, &counts.CreatedToday); err != nil {
		return StatusCounts{}, faults.Wrap(faults.ErrDependency, "store", "status_counts", "scan counts", err)
	}
	return counts, nil
}

// OperatorStats aggregates one operator's submission totals.
func (s *Store) OperatorStats(ctx context.Context, operatorID int64) (OperatorStats, error) {
	ctx = ensureContext(ctx)
	var stats OperatorStats
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)
		FROM certificates WHERE operator_id = ?`, operatorID)
	if err := row.Scan(&stats.Total, &stats.Approved, &stats.Pending); err != nil {
		return OperatorStats{}, faults.Wrap(faults.ErrDependency, "store", "operator_stats", "scan stats", err)
	}
	return stats, nil
}

func scanCertificate(row *sql.Row) (*Certificate, error) {
	var (
		cert      Certificate
		adminID   sql.NullInt64
		reason    sql.NullString
		status    string
		createdAt string
		decidedAt sql.NullString
	)
	err := row.Scan(&cert.ID, &cert.Serial, &cert.OperatorID, &adminID,
		&cert.CarBrand, &cert.CarModel, &cert.LicensePlate, &cert.VIN,
		&cert.RollNumber, &cert.RollPhoto, &cert.CarPhoto,
		&status, &reason, &createdAt, &decidedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "scan_certificate", "certificate not found", nil)
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "scan_certificate", "scan certificate row", err)
	}
	fillCertificate(&cert, adminID, reason, status, createdAt, decidedAt)
	return &cert, nil
}

func collectCertificates(rows *sql.Rows) ([]*Certificate, error) {
	var certs []*Certificate
	for rows.Next() {
		var (
			cert      Certificate
			adminID   sql.NullInt64
			reason    sql.NullString
			status    string
			createdAt string
			decidedAt sql.NullString
		)
		if err := rows.Scan(&cert.ID, &cert.Serial, &cert.OperatorID, &adminID,
			&cert.CarBrand, &cert.CarModel, &cert.LicensePlate, &cert.VIN,
			&cert.RollNumber, &cert.RollPhoto, &cert.CarPhoto,
			&status, &reason, &createdAt, &decidedAt); err != nil {
			return nil, faults.Wrap(faults.ErrDependency, "store", "collect_certificates", "scan certificate row", err)
		}
		fillCertificate(&cert, adminID, reason, status, createdAt, decidedAt)
		certs = append(certs, &cert)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "collect_certificates", "iterate certificate rows", err)
	}
	return certs, nil
}

func fillCertificate(cert *Certificate, adminID sql.NullInt64, reason sql.NullString, status, createdAt string, decidedAt sql.NullString) {
	if adminID.Valid {
		id := adminID.Int64
		cert.AdminID = &id
	}
	cert.RejectionReason = reason.String
	cert.Status = Status(status)
	if t, err := parseTimeString(createdAt); err == nil {
		cert.CreatedAt = t
	}
	if decidedAt.Valid {
		if t, err := parseTimeString(decidedAt.String); err == nil {
			cert.DecidedAt = &t
		}
	}
}

// Describe returns a short human label for chat messages.
func (c *Certificate) Describe() string {
	return fmt.Sprintf("%s %s (%s)", c.CarBrand, c.CarModel, c.LicensePlate)
}
