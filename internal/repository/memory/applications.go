package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/repository"
)

// ApplicationStore keeps applications keyed by id.  Updates are
// compare-and-swap on Version, like the MySQL repository.
type ApplicationStore struct {
	mu   sync.RWMutex
	apps map[string]model.Application
}

func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{apps: map[string]model.Application{}}
}

func (s *ApplicationStore) Create(_ context.Context, a model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[a.ID]; ok {
		return fmt.Errorf("application %s: %w", a.ID, repository.ErrDuplicate)
	}
	if a.Version == 0 {
		a.Version = 1
	}
	s.apps[a.ID] = cloneApplication(a)
	return nil
}

func (s *ApplicationStore) GetByID(_ context.Context, id string) (model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[id]
	if !ok {
		return model.Application{}, fmt.Errorf("application %s: %w", id, repository.ErrNotFound)
	}
	return cloneApplication(a), nil
}

func (s *ApplicationStore) ListByCitizen(_ context.Context, citizenID string) ([]model.Application, error) {
	return s.filter(func(a model.Application) bool { return a.CitizenID == citizenID }), nil
}

func (s *ApplicationStore) ListByServiceType(_ context.Context, serviceType string, status model.ApplicationStatus) ([]model.Application, error) {
	return s.filter(func(a model.Application) bool {
		return a.ServiceType == serviceType && (status == "" || a.Status == status)
	}), nil
}

func (s *ApplicationStore) Update(_ context.Context, a model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.apps[a.ID]
	if !ok {
		return fmt.Errorf("application %s: %w", a.ID, repository.ErrNotFound)
	}
	if cur.Version != a.Version {
		return fmt.Errorf("application %s at version %d: %w", a.ID, a.Version, repository.ErrStale)
	}
	// identity fields are fixed at creation
	a.ApplicationID = cur.ApplicationID
	a.CitizenID = cur.CitizenID
	a.ServiceType = cur.ServiceType
	a.SubmittedDate = cur.SubmittedDate
	a.Version = cur.Version + 1
	s.apps[a.ID] = cloneApplication(a)
	return nil
}

// filter returns matching applications, newest first.
func (s *ApplicationStore) filter(keep func(model.Application) bool) []model.Application {
	s.mu.RLock()
	out := make([]model.Application, 0)
	for _, a := range s.apps {
		if keep(a) {
			out = append(out, cloneApplication(a))
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.Application) int {
		if c := b.SubmittedDate.Compare(a.SubmittedDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func cloneApplication(a model.Application) model.Application {
	a.Documents = slices.Clone(a.Documents)
	if a.Documents == nil {
		a.Documents = []model.DocumentInfo{}
	}
	if g, ok := a.FormData.(model.GenericForm); ok {
		c := make(model.GenericForm, len(g))
		for k, v := range g {
			c[k] = v
		}
		a.FormData = c
	}
	return a
}
