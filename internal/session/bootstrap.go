package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nepalihub/portal/internal/domain"
)

// Bootstrap restores a persisted session at startup and validates it
// against the backend.
type Bootstrap struct {
	store   *Store
	fetcher domain.CurrentUserFetcher
	logger  *slog.Logger
}

// NewBootstrap creates a bootstrap for store using fetcher to confirm the
// restored credentials.
func NewBootstrap(store *Store, fetcher domain.CurrentUserFetcher, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{store: store, fetcher: fetcher, logger: logger}
}

// Run hydrates the store from storage and then asks the backend for the
// current user. A confirmed user verifies the session; any other outcome
// clears it. A cancelled context leaves the tentative session in place.
func (b *Bootstrap) Run(ctx context.Context) error {
	if !b.store.Restore() {
		return nil
	}

	token := b.store.Token()
	b.logger.Debug("Validating restored session")

	user, err := b.fetcher.CurrentUser(ctx)
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			b.logger.Debug("Session validation interrupted", "error", err)
			b.store.SetLoading(false)
			return err
		}
		b.logger.Info("Restored session rejected", "error", err)
		b.store.Invalidate(token)
		return err
	}
	if user == nil {
		b.store.Invalidate(token)
		return domain.NewError(domain.KindUnauthorized, "session.bootstrap", "current user unavailable")
	}

	if !b.store.Verify(token, *user) {
		b.logger.Debug("Session replaced during validation")
	}
	return nil
}

// Start runs the bootstrap in the background. The returned channel
// receives Run's result and is then closed.
func (b *Bootstrap) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- b.Run(ctx)
	}()
	return done
}
