package session

import (
	"fmt"
	"slices"

	"github.com/nepalihub/portal/internal/domain"
)

// RequireRole checks that st is signed in with one of allowed.
// An empty allowed list accepts any signed-in user.
func RequireRole(st State, allowed ...domain.Role) error {
	if !st.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	if len(allowed) == 0 || slices.Contains(allowed, st.User.Role) {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindForbidden,
		Op:      "session.guard",
		Message: fmt.Sprintf("role %q may not perform this action", st.User.Role),
	}
}

// RequireVerified is RequireRole plus a backend-confirmed session
func RequireVerified(st State, allowed ...domain.Role) error {
	if err := RequireRole(st, allowed...); err != nil {
		return err
	}
	if st.Phase != PhaseVerified {
		return &domain.Error{
			Kind:    domain.KindUnauthorized,
			Op:      "session.guard",
			Message: "session not yet confirmed",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	return nil
}
