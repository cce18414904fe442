package store

import (
	"encoding/json"
	"fmt"

	"github.com/nepalihub/portal/internal/domain"
)

// Persisted session keys
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var _ domain.SessionStorage = (*Store)(nil)

// LoadSession returns the persisted token and user. A user record that no
// longer decodes is reported as an error so the caller can clear it.
func (s *Store) LoadSession() (string, *domain.User, error) {
	var token string
	if raw, ok := s.getRaw(bucketSession, KeyToken); ok {
		token = string(raw)
	}

	raw, ok := s.getRaw(bucketSession, KeyUser)
	if !ok {
		return token, nil, nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return token, nil, fmt.Errorf("decode persisted user: %w", err)
	}
	return token, &user, nil
}

// SaveSession writes both keys
func (s *Store) SaveSession(token string, user domain.User) error {
	if err := s.setRaw(bucketSession, KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.set(bucketSession, KeyUser, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ClearSession removes both keys
func (s *Store) ClearSession() error {
	return s.delete(bucketSession, KeyToken, KeyUser)
}
