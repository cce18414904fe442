// Package session holds the signed-in identity shared by the backend client,
// the bootstrap flow and the UI.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nepalihub/portal/internal/domain"
)

// Phase tracks how much the current session can be trusted
type Phase int

const (
	// PhaseAnonymous means nobody is signed in
	PhaseAnonymous Phase = iota
	// PhaseTentative means credentials were restored from storage but not yet confirmed
	PhaseTentative
	// PhaseVerified means the backend confirmed the credentials
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseTentative:
		return "tentative"
	case PhaseVerified:
		return "verified"
	default:
		return "anonymous"
	}
}

// State is a snapshot of the session
type State struct {
	User    *domain.User
	Token   string
	Phase   Phase
	Loading bool
	Error   string
}

// IsAuthenticated reports whether both a user and a token are present
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Role returns the user's role, or "" when anonymous
func (s State) Role() domain.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Store owns the session and mirrors it to persisted storage.
// It is the TokenSource and SessionHandle injected into the backend client.
type Store struct {
	mu      sync.RWMutex
	state   State
	storage domain.SessionStorage
	logger  *slog.Logger

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// NewStore creates an anonymous session. storage may be nil for a
// session that is never persisted.
func NewStore(storage domain.SessionStorage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: storage,
		logger:  logger,
		subs:    make(map[int]func(State)),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Token returns the current bearer token, or "" when anonymous
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// IsAuthenticated reports whether a user and token are both held
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated()
}

// SetCredentials installs a freshly issued token and user (a login) and
// persists both. The session becomes verified.
func (s *Store) SetCredentials(token string, user domain.User) error {
	if token == "" {
		return domain.NewError(domain.KindValidation, "session.set", "token is required")
	}

	s.mu.Lock()
	u := user
	s.state = State{User: &u, Token: token, Phase: PhaseVerified}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persist(token, user); err != nil {
		s.logger.Warn("Failed to persist session", "error", err)
	}
	s.notify(snap)
	return nil
}

// Restore loads persisted credentials as a tentative session. It returns
// false when storage holds no complete session; partial or unreadable
// records are cleared.
func (s *Store) Restore() bool {
	if s.storage == nil {
		return false
	}

	token, user, err := s.storage.LoadSession()
	if err != nil || token == "" || user == nil {
		if err != nil || token != "" || user != nil {
			s.logger.Info("Clearing incomplete persisted session", "error", err)
			if cerr := s.storage.ClearSession(); cerr != nil {
				s.logger.Warn("Failed to clear persisted session", "error", cerr)
			}
		}
		return false
	}

	s.mu.Lock()
	s.state = State{User: user, Token: token, Phase: PhaseTentative, Loading: true}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Verify replaces the user with the backend's canonical record and marks
// the session verified. It is ignored when token no longer matches the
// current session, so a late validation cannot resurrect a replaced login.
func (s *Store) Verify(token string, user domain.User) bool {
	s.mu.Lock()
	if token == "" || s.state.Token != token {
		s.mu.Unlock()
		return false
	}
	u := user
	// the current-user endpoint may omit fields the login returned
	if prev := s.state.User; prev != nil {
		if u.ID == "" {
			u.ID = prev.ID
		}
		if u.Role == "" {
			u.Role = prev.Role
		}
	}
	s.state.User = &u
	s.state.Phase = PhaseVerified
	s.state.Loading = false
	s.state.Error = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persist(token, u); err != nil {
		s.logger.Warn("Failed to persist session", "error", err)
	}
	s.notify(snap)
	return true
}

// Invalidate logs out only if token is still the current one
func (s *Store) Invalidate(token string) bool {
	s.mu.Lock()
	if s.state.Token != token {
		s.mu.Unlock()
		return false
	}
	s.state = State{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.afterLogout(token != "", snap)
	return true
}

// Logout clears the session and the persisted keys
func (s *Store) Logout() {
	s.mu.Lock()
	wasAuthenticated := s.state.IsAuthenticated()
	s.state = State{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.afterLogout(wasAuthenticated, snap)
}

func (s *Store) afterLogout(wasAuthenticated bool, snap State) {
	if s.storage != nil {
		if err := s.storage.ClearSession(); err != nil {
			s.logger.Warn("Failed to clear persisted session", "error", err)
		}
	}
	if wasAuthenticated {
		s.logger.Info("Session ended")
	}
	s.notify(snap)
}

// SetLoading marks an auth request in flight
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	if loading {
		s.state.Error = ""
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetError records a failed auth request
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = msg
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) persist(token string, user domain.User) error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.SaveSession(token, user); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
