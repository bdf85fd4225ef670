package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/registry/internal/domain"
)

// Credentials is the admin login/password pair, held only as digests.
type Credentials struct {
	LoginHash    uint64
	PasswordHash uint64
}

// NewCredentials digests the configured admin login and password once.
func NewCredentials(login, password string) Credentials {
	return Credentials{
		LoginHash:    domain.Digest(login),
		PasswordHash: domain.Digest(password),
	}
}

// Store is the single owner of registry state: services, outstanding
// registration tokens, subscribers and admin credentials.
//
// Every method is one critical section over the whole store. Callers get
// copies, never references into the maps. No method performs I/O.
type Store struct {
	mu          sync.Mutex
	services    map[string]*domain.Service // Identifier -> Service
	order       []string                   // insertion order, keeps listings stable
	tokens      map[uint64]struct{}        // digests of unspent registration tokens
	subscribers []domain.Subscriber
	creds       Credentials
	newID       func() string
}

// NewStore creates an empty store guarded by the given admin credentials.
func NewStore(creds Credentials) *Store {
	return &Store{
		services: make(map[string]*domain.Service),
		tokens:   make(map[uint64]struct{}),
		creds:    creds,
		newID:    uuid.NewString,
	}
}

// ─────────────────────────────────────────────────────────────────
// Services
// ─────────────────────────────────────────────────────────────────

// InsertService stores a new service under a freshly generated identifier
// and returns the stored copy. Any identifier on svc is ignored.
func (s *Store) InsertService(svc domain.Service) domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.services[id]; !taken {
			break
		}
		id = s.newID()
	}

	svc.Identifier = id
	stored := svc
	s.services[id] = &stored
	s.order = append(s.order, id)
	return svc
}

// GetService returns a copy of the service or domain.ErrNotFound.
func (s *Store) GetService(id string) (domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, domain.ErrNotFound
	}
	return *svc, nil
}

// SetAccepted toggles the acceptance flag and returns the updated copy.
func (s *Store) SetAccepted(id string, accepted bool) (domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, domain.ErrNotFound
	}
	svc.IsAccepted = accepted
	return *svc, nil
}

// SetAvailable records a probe result. Unknown identifiers are ignored so a
// late probe can never resurrect a service. It reports whether the stored
// value changed.
func (s *Store) SetAvailable(id string, available bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok || svc.Available == available {
		return false
	}
	svc.Available = available
	return true
}

// ListServices returns accepted services matching f, in registration order,
// truncated to f.Limit when set.
func (s *Store) ListServices(f domain.Filter) []domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Service, 0, len(s.order))
	for _, id := range s.order {
		if f.Limit != nil && len(out) >= *f.Limit {
			break
		}
		if svc := s.services[id]; f.Match(*svc) {
			out = append(out, *svc)
		}
	}
	return out
}

// AcceptedServices snapshots every accepted service regardless of availability.
func (s *Store) AcceptedServices() []domain.Service {
	return s.ListServices(domain.Filter{})
}

// Counts returns the number of known, accepted and available services.
func (s *Store) Counts() (total, accepted, available int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, svc := range s.services {
		if svc.IsAccepted {
			accepted++
			if svc.Available {
				available++
			}
		}
	}
	return len(s.services), accepted, available
}

// ─────────────────────────────────────────────────────────────────
// Tokens & credentials
// ─────────────────────────────────────────────────────────────────

// IssueToken creates a single-use registration token. Only its digest is kept.
func (s *Store) IssueToken() string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[domain.Digest(token)] = struct{}{}
	return token
}

// ConsumeToken atomically checks and removes a token. A token is never
// reported valid twice.
func (s *Store) ConsumeToken(token string) bool {
	h := domain.Digest(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[h]; !ok {
		return false
	}
	delete(s.tokens, h)
	return true
}

// PendingTokens returns the number of issued, unspent tokens.
func (s *Store) PendingTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}

// CheckCredentials compares the digests of login and password with the
// admin credentials.
func (s *Store) CheckCredentials(login, password string) bool {
	lh, ph := domain.Digest(login), domain.Digest(password)

	s.mu.Lock()
	defer s.mu.Unlock()

	loginOK := domain.DigestEqual(lh, s.creds.LoginHash)
	passwordOK := domain.DigestEqual(ph, s.creds.PasswordHash)
	return loginOK && passwordOK
}

// ─────────────────────────────────────────────────────────────────
// Subscribers
// ─────────────────────────────────────────────────────────────────

// AddSubscriber appends a subscription. The target must already exist.
func (s *Store) AddSubscriber(sub domain.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[sub.TargetIdentifier]; !ok {
		return domain.ErrNotFound
	}
	s.subscribers = append(s.subscribers, sub)
	return nil
}

// SubscribersOf snapshots, in one critical section, the subscriptions
// targeting id together with the current state of that service.
// ok is false when the service is unknown.
func (s *Store) SubscribersOf(id string) (subs []domain.Subscriber, current domain.Service, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, found := s.services[id]
	if !found {
		return nil, domain.Service{}, false
	}
	for _, sub := range s.subscribers {
		if sub.TargetIdentifier == id {
			subs = append(subs, sub)
		}
	}
	return subs, *svc, true
}

// SubscriberCount returns the number of subscriptions.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subscribers)
}
