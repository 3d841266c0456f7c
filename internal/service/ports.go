package service

import (
	"context"
	"time"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/queue"
)

// ApplicationRepository is the application record store.  Update is a
// compare-and-swap on Version returning repository.ErrStale on mismatch.
type ApplicationRepository interface {
	Create(ctx context.Context, a model.Application) error
	GetByID(ctx context.Context, id string) (model.Application, error)
	ListByCitizen(ctx context.Context, citizenID string) ([]model.Application, error)
	ListByServiceType(ctx context.Context, serviceType string, status model.ApplicationStatus) ([]model.Application, error)
	Update(ctx context.Context, a model.Application) error
}

// CertificateRepository is the certificate record store.  Create must
// reject a second certificate for one application with
// repository.ErrDuplicate atomically.
type CertificateRepository interface {
	Create(ctx context.Context, c model.Certificate) error
	GetByID(ctx context.Context, id string) (model.Certificate, error)
	GetByApplicationID(ctx context.Context, applicationID string) (model.Certificate, error)
	GetByNumber(ctx context.Context, number string) (model.Certificate, error)
	ListByApplicationIDs(ctx context.Context, applicationIDs []string) ([]model.Certificate, error)
}

// UserRepository is the user record store.
type UserRepository interface {
	Create(ctx context.Context, u model.User) error
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// EventPublisher delivers workflow events.  Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.ApplicationEvent) error
}
