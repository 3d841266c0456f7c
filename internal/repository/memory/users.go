// Package memory holds in-memory record stores with the same contracts as
// the MySQL repositories.  They back STORE_DRIVER=memory and the service
// tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/repository"
)

// UserStore keeps users keyed by id with a unique identifier index.
type UserStore struct {
	mu           sync.RWMutex
	byID         map[string]model.User
	byIdentifier map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{byID: map[string]model.User{}, byIdentifier: map[string]string{}}
}

func (s *UserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Identifier = strings.TrimSpace(u.Identifier)
	if _, ok := s.byIdentifier[u.Identifier]; ok {
		return fmt.Errorf("identifier %q: %w", u.Identifier, repository.ErrDuplicate)
	}
	if _, ok := s.byID[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, repository.ErrDuplicate)
	}
	s.byID[u.ID] = u
	s.byIdentifier[u.Identifier] = u.ID
	return nil
}

func (s *UserStore) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byIdentifier[strings.TrimSpace(identifier)]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", identifier, repository.ErrNotFound)
	}
	return s.byID[id], nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return u, nil
}

type refreshRecord struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// TokenStore keeps refresh token hashes.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*refreshRecord
	now    func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: map[string]*refreshRecord{}, now: time.Now}
}

func (s *TokenStore) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[tokenHash]; ok {
		return repository.ErrDuplicate
	}
	s.tokens[tokenHash] = &refreshRecord{userID: userID, expiresAt: exp}
	return nil
}

func (s *TokenStore) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[tokenHash]
	if !ok || rec.revoked || s.now().After(rec.expiresAt) {
		return "", repository.ErrNotFound
	}
	return rec.userID, nil
}

func (s *TokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.tokens[tokenHash]; ok {
		rec.revoked = true
	}
	return nil
}

func (s *TokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.tokens {
		if rec.userID == userID {
			rec.revoked = true
		}
	}
	return nil
}
