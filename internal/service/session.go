package service

import (
	"context"
	"log/slog"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/session"
)

// SessionService runs the login, registration and logout flows against
// the backend and records the outcome in the session store.
type SessionService struct {
	auth   domain.AuthAPI
	store  *session.Store
	logger *slog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(auth domain.AuthAPI, store *session.Store, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{auth: auth, store: store, logger: logger}
}

// Login exchanges credentials for a token and installs the session
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.store.SetLoading(true)

	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.store.SetError(domain.Message(err))
		s.logger.Info("Login failed", "email", email, "kind", domain.KindOf(err).String())
		return nil, err
	}

	user := result.User
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if err := s.store.SetCredentials(result.Token, user); err != nil {
		s.store.SetError(domain.Message(err))
		return nil, err
	}

	s.logger.Info("Logged in", "user", user.ID, "role", user.Role)
	return &user, nil
}

// Register creates an account without signing in
func (s *SessionService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	s.store.SetLoading(true)

	user, err := s.auth.Register(ctx, req)
	if err != nil {
		s.store.SetError(domain.Message(err))
		return nil, err
	}

	s.store.SetLoading(false)
	s.logger.Info("Registered account", "email", req.Email)
	return user, nil
}

// Logout ends the session locally. The backend keeps no session state.
func (s *SessionService) Logout() {
	s.store.Logout()
}

// WhoAmI confirms the session with the backend and returns the
// canonical user. A rejected token logs the session out.
func (s *SessionService) WhoAmI(ctx context.Context) (*domain.User, error) {
	token := s.store.Token()
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.store.Verify(token, *user)

	st := s.store.Snapshot()
	if st.User == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return st.User, nil
}
