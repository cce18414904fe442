package collection

import (
	"slices"

	"github.com/nepalihub/portal/internal/domain"
)

// MaxRetries is the number of consecutive failed fetches after which a
// collection stops fetching until its retry count is reset.
const MaxRetries = 3

// Phase is the coarse lifecycle position of a collection
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
	PhaseConfigError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	case PhaseConfigError:
		return "config_error"
	default:
		return "idle"
	}
}

// State is the accumulated state of one paginated collection.
// It changes only through the transition methods below.
type State[T any] struct {
	Items          []T
	Loading        bool
	Error          string
	RetryCount     int
	HasConfigError bool
	PageToken      string
	HasMore        bool

	// Generation increments on every dispatch and list reset. Results from
	// an older generation are discarded.
	Generation uint64

	fetched bool
}

// NewState returns an empty collection state
func NewState[T any]() State[T] {
	return State[T]{Items: []T{}, HasMore: true}
}

// CanFetch reports whether an automatic fetch is allowed
func (s State[T]) CanFetch() bool {
	return !s.HasConfigError && s.RetryCount < MaxRetries
}

// Pending marks a fetch as in flight
func (s *State[T]) Pending() {
	s.Loading = true
	s.Error = ""
}

// Fulfilled appends a page of results
func (s *State[T]) Fulfilled(page domain.Page[T]) {
	s.Loading = false
	s.Items = append(s.Items, page.Items...)
	s.PageToken = page.NextPageToken
	s.HasMore = page.NextPageToken != ""
	s.RetryCount = 0
	s.HasConfigError = false
	s.Error = ""
	s.fetched = true
}

// Rejected records a failed fetch. Configuration errors are sticky and do
// not count as retries; other failures increment the retry count.
func (s *State[T]) Rejected(err error, fallback string) {
	s.Loading = false

	msg := domain.Message(err)
	if domain.IsConfigError(err) {
		s.Error = msg
		s.HasConfigError = true
		return
	}

	if msg == "" {
		msg = fallback
	}
	s.Error = msg
	if s.RetryCount < MaxRetries {
		s.RetryCount++
	}
}

// Cancelled clears the loading flag after the caller abandoned a fetch
func (s *State[T]) Cancelled() {
	s.Loading = false
}

// ResetRetryCount allows fetching again after a manual retry
func (s *State[T]) ResetRetryCount() {
	s.RetryCount = 0
	s.HasConfigError = false
}

// ResetList discards accumulated pages
func (s *State[T]) ResetList() {
	s.Items = []T{}
	s.PageToken = ""
	s.HasMore = true
	s.Loading = false
	s.Error = ""
	s.Generation++
	s.fetched = false
}

// Phase derives the lifecycle position from the fields
func (s State[T]) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.HasConfigError:
		return PhaseConfigError
	case s.Error != "":
		return PhaseError
	case s.fetched:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// Clone returns a copy whose item slice is not shared
func (s State[T]) Clone() State[T] {
	s.Items = slices.Clone(s.Items)
	if s.Items == nil {
		s.Items = []T{}
	}
	return s
}

// Status summarizes a state without its items
type Status struct {
	Phase          Phase
	Count          int
	Loading        bool
	Error          string
	RetryCount     int
	HasConfigError bool
	HasMore        bool
}

// Status returns the item-free summary of s
func (s State[T]) Status() Status {
	return Status{
		Phase:          s.Phase(),
		Count:          len(s.Items),
		Loading:        s.Loading,
		Error:          s.Error,
		RetryCount:     s.RetryCount,
		HasConfigError: s.HasConfigError,
		HasMore:        s.HasMore,
	}
}

// CanRetry reports whether the UI should offer a manual retry
func (s Status) CanRetry() bool {
	return !s.Loading && (s.Error != "" || s.HasConfigError)
}
