package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/citizen-services/internal/model"
)

// UserRepo persists citizens and department officers in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,user_type,identifier,password_hash,full_name,mobile_number,email,department,is_active,created_at"

// Create inserts u.  The identifier is stored trimmed; a taken identifier
// yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.UserType, strings.TrimSpace(u.Identifier), u.PasswordHash, u.FullName,
		u.MobileNumber, u.Email, u.Department, u.IsActive, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByIdentifier fetches a user by login identifier.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE identifier=? LIMIT 1",
		strings.TrimSpace(identifier))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.UserType, &u.Identifier, &u.PasswordHash, &u.FullName,
		&u.MobileNumber, &u.Email, &u.Department, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}
