package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/citizen-services/internal/certificate"
	"github.com/iliyamo/citizen-services/internal/lifecycle"
	"github.com/iliyamo/citizen-services/internal/repository"
)

// Failure kinds returned by the services.  Callers test them with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = lifecycle.ErrInvalidTransition
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnknownTemplate    = certificate.ErrUnknownTemplate
	ErrNotApproved        = errors.New("application is not approved")
	ErrConflict           = errors.New("concurrent update")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr translates repository sentinels into service failure kinds.
func storeErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrAlreadyExists)
	case errors.Is(err, repository.ErrStale):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}
