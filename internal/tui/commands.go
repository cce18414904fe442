package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/session"
)

// Command factories for async operations

// fetchTimeout bounds one collection fetch including its retries
const fetchTimeout = 60 * time.Second

// fetchMode selects which collection action a fetch performs
type fetchMode int

const (
	fetchNext fetchMode = iota
	fetchRetry
	fetchRefresh
)

// FetchCmd loads the next page of a collection, or retries or reloads it
func FetchCmd(ctx context.Context, g *collection.Gallery, kind collection.Kind, mode fetchMode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		var err error
		switch mode {
		case fetchRetry:
			err = g.Retry(ctx, kind)
		case fetchRefresh:
			err = g.Refresh(ctx, kind)
		default:
			err = g.Fetch(ctx, kind)
		}
		return FetchDoneMsg{Kind: kind, Err: err}
	}
}

// InvalidateThenCmd drops the cached pages of kind, then runs next. A
// failed invalidation is logged and next still runs.
func InvalidateThenCmd(ctx context.Context, cache CacheInvalidator, kind collection.Kind, logger *slog.Logger, next tea.Cmd) tea.Cmd {
	return func() tea.Msg {
		if err := cache.InvalidateKind(ctx, kind); err != nil {
			logger.Warn("failed to drop cached pages", "kind", kind, "error", err)
		}
		return next()
	}
}

// WaitForChangeCmd waits for the next collection transition
func WaitForChangeCmd(ch <-chan CollectionChangedMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForSessionCmd waits for the next session snapshot
func WaitForSessionCmd(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return SessionChangedMsg{State: st}
	}
}

// WaitForBootstrapCmd waits for the background session validation
func WaitForBootstrapCmd(done <-chan error) tea.Cmd {
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		return BootstrapDoneMsg{Err: <-done}
	}
}

// LaunchCmd hands a URL to the player
func LaunchCmd(l Launcher, url string) tea.Cmd {
	return func() tea.Msg {
		return LaunchedMsg{URL: url, Err: l.Launch(url)}
	}
}

// CopyCmd copies a URL to the system clipboard
func CopyCmd(write func(string) error, url string) tea.Cmd {
	if write == nil {
		write = clipboard.WriteAll
	}
	return func() tea.Msg {
		return CopiedMsg{URL: url, Err: write(url)}
	}
}
