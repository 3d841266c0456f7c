package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/repository"
)

// CertificateStore keeps certificates keyed by id with unique application
// and number indexes.  The uniqueness check and insert happen under one
// lock.
type CertificateStore struct {
	mu            sync.RWMutex
	byID          map[string]model.Certificate
	byApplication map[string]string
	byNumber      map[string]string
}

func NewCertificateStore() *CertificateStore {
	return &CertificateStore{
		byID:          map[string]model.Certificate{},
		byApplication: map[string]string{},
		byNumber:      map[string]string{},
	}
}

func (s *CertificateStore) Create(_ context.Context, c model.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byApplication[c.ApplicationID]; ok {
		return fmt.Errorf("certificate for application %s: %w", c.ApplicationID, repository.ErrDuplicate)
	}
	if _, ok := s.byNumber[c.CertificateNumber]; ok {
		return fmt.Errorf("certificate number %s: %w", c.CertificateNumber, repository.ErrDuplicate)
	}
	if _, ok := s.byID[c.ID]; ok {
		return fmt.Errorf("certificate %s: %w", c.ID, repository.ErrDuplicate)
	}
	c.CertificateData = maps.Clone(c.CertificateData)
	s.byID[c.ID] = c
	s.byApplication[c.ApplicationID] = c.ID
	s.byNumber[c.CertificateNumber] = c.ID
	return nil
}

func (s *CertificateStore) GetByID(_ context.Context, id string) (model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *CertificateStore) GetByApplicationID(_ context.Context, applicationID string) (model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.byApplication[applicationID])
}

func (s *CertificateStore) GetByNumber(_ context.Context, number string) (model.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(s.byNumber[number])
}

func (s *CertificateStore) ListByApplicationIDs(_ context.Context, applicationIDs []string) ([]model.Certificate, error) {
	s.mu.RLock()
	out := make([]model.Certificate, 0, len(applicationIDs))
	for _, appID := range applicationIDs {
		if id, ok := s.byApplication[appID]; ok {
			c, _ := s.get(id)
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Certificate) int {
		if c := b.IssuedDate.Compare(a.IssuedDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// get expects the read lock to be held.
func (s *CertificateStore) get(id string) (model.Certificate, error) {
	c, ok := s.byID[id]
	if !ok {
		return model.Certificate{}, fmt.Errorf("certificate: %w", repository.ErrNotFound)
	}
	c.CertificateData = maps.Clone(c.CertificateData)
	return c, nil
}
