package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/citizen-services/internal/model"
)

// ApplicationRepo persists applications in the 'applications' table.  Form
// data and documents are stored as JSON columns; the form is decoded into
// the variant of the row's service type on read.
type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *ApplicationRepo) DB() *sql.DB { return r.db }

const applicationColumns = `id, application_id, citizen_id, service_type, service_name, status, priority,
	form_data, submitted_date, last_updated, assigned_officer, approved_by, remarks, documents, version`

// Create inserts a. The stored version is a.Version, or 1 when unset.
func (r *ApplicationRepo) Create(ctx context.Context, a model.Application) error {
	form, docs, err := encodeApplication(a)
	if err != nil {
		return err
	}
	if a.Version == 0 {
		a.Version = 1
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.ApplicationID, a.CitizenID, a.ServiceType, a.ServiceName, string(a.Status), a.Priority,
		form, a.SubmittedDate, a.LastUpdated, a.AssignedOfficer, a.ApprovedBy, a.Remarks, docs, a.Version)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID fetches an application by primary key.
func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (model.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

// ListByCitizen returns the citizen's applications, newest first.
func (r *ApplicationRepo) ListByCitizen(ctx context.Context, citizenID string) ([]model.Application, error) {
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE citizen_id = ? ORDER BY submitted_date DESC, id`,
		citizenID)
}

// ListByServiceType returns the department queue for serviceType, newest
// first.  An empty status returns every status.
func (r *ApplicationRepo) ListByServiceType(ctx context.Context, serviceType string, status model.ApplicationStatus) ([]model.Application, error) {
	if status == "" {
		return r.list(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE service_type = ? ORDER BY submitted_date DESC, id`,
			serviceType)
	}
	return r.list(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE service_type = ? AND status = ? ORDER BY submitted_date DESC, id`,
		serviceType, string(status))
}

// Update writes the mutable fields of a when the stored version equals
// a.Version and bumps the stored version.  It returns ErrStale when another
// writer got there first and ErrNotFound when the row is gone.
func (r *ApplicationRepo) Update(ctx context.Context, a model.Application) error {
	form, docs, err := encodeApplication(a)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications
		    SET service_name = ?, status = ?, priority = ?, form_data = ?, last_updated = ?,
		        assigned_officer = ?, approved_by = ?, remarks = ?, documents = ?, version = version + 1
		  WHERE id = ? AND version = ?`,
		a.ServiceName, string(a.Status), a.Priority, form, a.LastUpdated,
		a.AssignedOfficer, a.ApprovedBy, a.Remarks, docs, a.ID, a.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM applications WHERE id = ?`, a.ID).Scan(&one); err != nil {
		return notFound(err)
	}
	return ErrStale
}

func (r *ApplicationRepo) list(ctx context.Context, q string, args ...any) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (model.Application, error) {
	var (
		a      model.Application
		status string
		form   []byte
		docs   []byte
	)
	err := s.Scan(&a.ID, &a.ApplicationID, &a.CitizenID, &a.ServiceType, &a.ServiceName, &status, &a.Priority,
		&form, &a.SubmittedDate, &a.LastUpdated, &a.AssignedOfficer, &a.ApprovedBy, &a.Remarks, &docs, &a.Version)
	if err != nil {
		return model.Application{}, notFound(err)
	}
	a.Status = model.ApplicationStatus(status)
	if a.FormData, err = model.DecodeFormData(a.ServiceType, form); err != nil {
		return model.Application{}, fmt.Errorf("application %s: %w", a.ID, err)
	}
	a.Documents = []model.DocumentInfo{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &a.Documents); err != nil {
			return model.Application{}, fmt.Errorf("application %s documents: %w", a.ID, err)
		}
	}
	return a, nil
}

func encodeApplication(a model.Application) (form, docs []byte, err error) {
	form = []byte("{}")
	if a.FormData != nil {
		if form, err = json.Marshal(a.FormData); err != nil {
			return nil, nil, fmt.Errorf("encode form data: %w", err)
		}
	}
	documents := a.Documents
	if documents == nil {
		documents = []model.DocumentInfo{}
	}
	if docs, err = json.Marshal(documents); err != nil {
		return nil, nil, fmt.Errorf("encode documents: %w", err)
	}
	return form, docs, nil
}
