package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/retry"
)

// ErrSuperseded is returned by Fetch when a newer dispatch or a list reset
// happened while the fetch was in flight. Its result was discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// FetchFunc retrieves one page starting at pageToken ("" for the first page)
type FetchFunc[T any] func(ctx context.Context, pageSize int, pageToken string) (domain.Page[T], error)

// Observer is notified after every state transition
type Observer interface {
	OnChange(kind Kind, status Status)
}

// NoOpObserver ignores all notifications
type NoOpObserver struct{}

func (NoOpObserver) OnChange(Kind, Status) {}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(kind Kind, status Status)

func (f ObserverFunc) OnChange(kind Kind, status Status) { f(kind, status) }

// Options configure a collection
type Options struct {
	PageSize     int          // defaults to DefaultPageSize
	Retry        retry.Config // policy wrapped around each fetch
	ErrorMessage string       // fallback message for failures without one
	Observer     Observer
	Logger       *slog.Logger
}

// DefaultPageSize is the number of items requested per page
const DefaultPageSize = 9

// Collection owns the state of one paginated collection and drives its
// fetch lifecycle. Transitions are serialized by a mutex; fetches run on
// the caller's goroutine.
type Collection[T any] struct {
	kind     Kind
	fetch    FetchFunc[T]
	pageSize int
	retry    retry.Config
	errMsg   string
	observer Observer
	logger   *slog.Logger

	mu    sync.Mutex
	state State[T]
}

// New creates an empty collection
func New[T any](kind Kind, fetch FetchFunc[T], opts Options) *Collection[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.ErrorMessage == "" {
		opts.ErrorMessage = kind.DefaultErrorMessage()
	}
	if opts.Observer == nil {
		opts.Observer = NoOpObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Collection[T]{
		kind:     kind,
		fetch:    fetch,
		pageSize: opts.PageSize,
		retry:    opts.Retry,
		errMsg:   opts.ErrorMessage,
		observer: opts.Observer,
		logger:   opts.Logger,
		state:    NewState[T](),
	}
}

// Kind returns the collection's kind
func (c *Collection[T]) Kind() Kind {
	return c.kind
}

// Snapshot returns a copy of the current state
func (c *Collection[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Status returns the item-free summary of the current state
func (c *Collection[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status()
}

// Fetch requests the next page and applies the result.
//
// It refuses with domain.ErrRetryLimit, without touching the network, once a
// configuration error was seen or MaxRetries consecutive fetches failed. It
// is a no-op once the last page has been loaded. A fetch whose generation
// is no longer current when it completes is discarded with ErrSuperseded.
func (c *Collection[T]) Fetch(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CanFetch() {
		c.mu.Unlock()
		return domain.ErrRetryLimit
	}
	if !c.state.HasMore && c.state.fetched {
		c.mu.Unlock()
		return nil
	}
	c.state.Generation++
	gen := c.state.Generation
	token := c.state.PageToken
	c.state.Pending()
	status := c.state.Status()
	c.mu.Unlock()

	c.observer.OnChange(c.kind, status)

	op := func(ctx context.Context) (domain.Page[T], error) {
		return c.fetch(ctx, c.pageSize, token)
	}
	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("collection fetch failed, retrying",
				"kind", c.kind, "attempt", attempt, "delay", delay, "error", err)
		}
	}
	page, err := retry.Do(ctx, op, cfg)

	c.mu.Lock()
	if gen != c.state.Generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded fetch", "kind", c.kind, "generation", gen)
		return ErrSuperseded
	}
	switch {
	case err == nil:
		c.state.Fulfilled(page)
	case ctx.Err() != nil:
		c.state.Cancelled()
	default:
		c.state.Rejected(err, c.errMsg)
	}
	status = c.state.Status()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("collection fetch failed",
			"kind", c.kind, "config_error", status.HasConfigError, "retry_count", status.RetryCount, "error", err)
	} else {
		c.logger.Debug("collection page loaded", "kind", c.kind, "count", status.Count, "has_more", status.HasMore)
	}

	c.observer.OnChange(c.kind, status)
	return err
}

// Refresh discards loaded pages and fetches the first page again
func (c *Collection[T]) Refresh(ctx context.Context) error {
	c.ResetList()
	return c.Fetch(ctx)
}

// Retry clears the retry ceiling and configuration flag, then fetches
func (c *Collection[T]) Retry(ctx context.Context) error {
	c.ResetRetryCount()
	return c.Fetch(ctx)
}

// ResetRetryCount zeroes the retry count and clears the configuration flag
func (c *Collection[T]) ResetRetryCount() {
	c.mu.Lock()
	c.state.ResetRetryCount()
	status := c.state.Status()
	c.mu.Unlock()
	c.observer.OnChange(c.kind, status)
}

// ResetList clears loaded pages. In-flight fetches are superseded.
func (c *Collection[T]) ResetList() {
	c.mu.Lock()
	c.state.ResetList()
	status := c.state.Status()
	c.mu.Unlock()
	c.observer.OnChange(c.kind, status)
}
