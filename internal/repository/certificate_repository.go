package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/citizen-services/internal/model"
)

// CertificateRepo persists issued certificates.  Rows are never updated.
type CertificateRepo struct {
	db *sql.DB
}

func NewCertificateRepo(db *sql.DB) *CertificateRepo { return &CertificateRepo{db: db} }

const certificateColumns = `id, application_id, certificate_number, certificate_type, issued_date, issued_by,
	citizen_name, certificate_data, digital_signature`

// Create inserts c.  The unique key on application_id turns a second
// certificate for the same application into ErrDuplicate, also across
// processes.
func (r *CertificateRepo) Create(ctx context.Context, c model.Certificate) error {
	data := c.CertificateData
	if data == nil {
		data = model.CertificateData{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode certificate data: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO certificates (`+certificateColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		c.ID, c.ApplicationID, c.CertificateNumber, c.CertificateType, c.IssuedDate, c.IssuedBy,
		c.CitizenName, payload, c.DigitalSignature)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *CertificateRepo) GetByID(ctx context.Context, id string) (model.Certificate, error) {
	return scanCertificate(r.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE id = ?`, id))
}

func (r *CertificateRepo) GetByApplicationID(ctx context.Context, applicationID string) (model.Certificate, error) {
	return scanCertificate(r.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE application_id = ?`, applicationID))
}

func (r *CertificateRepo) GetByNumber(ctx context.Context, number string) (model.Certificate, error) {
	return scanCertificate(r.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE certificate_number = ?`, number))
}

// ListByApplicationIDs returns the certificates of the given applications,
// newest first.
func (r *CertificateRepo) ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Certificate, error) {
	out := make([]model.Certificate, 0)
	if len(applicationIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(applicationIDs))
	for i, id := range applicationIDs {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(applicationIDs)), ",")
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE application_id IN (`+placeholders+`)
		 ORDER BY issued_date DESC, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCertificate(s scanner) (model.Certificate, error) {
	var (
		c    model.Certificate
		data []byte
	)
	err := s.Scan(&c.ID, &c.ApplicationID, &c.CertificateNumber, &c.CertificateType, &c.IssuedDate,
		&c.IssuedBy, &c.CitizenName, &data, &c.DigitalSignature)
	if err != nil {
		return model.Certificate{}, notFound(err)
	}
	c.CertificateData = model.CertificateData{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.CertificateData); err != nil {
			return model.Certificate{}, fmt.Errorf("certificate %s data: %w", c.ID, err)
		}
	}
	return c, nil
}
