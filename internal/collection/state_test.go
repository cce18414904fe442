package collection

import (
	"errors"
	"testing"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewState(t *testing.T) {
	s := NewState[string]()
	assert.Empty(t, s.Items)
	assert.NotNil(t, s.Items)
	assert.True(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.True(t, s.CanFetch())
}

func TestFulfilledAppendsPages(t *testing.T) {
	s := NewState[int]()

	s.Pending()
	s.Fulfilled(domain.Page[int]{Items: []int{1, 2, 3}, NextPageToken: "abc"})
	assert.Equal(t, []int{1, 2, 3}, s.Items)
	assert.Equal(t, "abc", s.PageToken)
	assert.True(t, s.HasMore)

	s.Pending()
	s.Fulfilled(domain.Page[int]{Items: []int{4, 5}})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items)
	assert.Empty(t, s.PageToken)
	assert.False(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseSuccess, s.Phase())
}

func TestPendingClearsError(t *testing.T) {
	s := NewState[int]()
	s.Rejected(errors.New("boom"), "fallback")
	assert.Equal(t, "boom", s.Error)

	s.Pending()
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, PhaseLoading, s.Phase())
}

func TestRejectedTransientIncrementsRetryCount(t *testing.T) {
	s := NewState[int]()
	for i := 1; i <= MaxRetries; i++ {
		s.Pending()
		s.Rejected(domain.NewError(domain.KindTransient, "op", "Service unavailable"), "fallback")
		assert.Equal(t, i, s.RetryCount)
		assert.Equal(t, "Service unavailable", s.Error)
	}
	assert.False(t, s.CanFetch())

	// never exceeds the ceiling
	s.Rejected(errors.New("again"), "fallback")
	assert.Equal(t, MaxRetries, s.RetryCount)
	assert.Equal(t, PhaseError, s.Phase())
}

func TestRejectedUsesFallbackMessage(t *testing.T) {
	s := NewState[int]()
	s.Rejected(domain.WrapError(domain.KindTransient, "op", errors.New("")), "Failed to fetch videos")
	assert.Equal(t, "Failed to fetch videos", s.Error)
}

func TestRejectedConfigIsStickyAndKeepsRetryCount(t *testing.T) {
	s := NewState[int]()
	s.Rejected(errors.New("blip"), "fallback")
	assert.Equal(t, 1, s.RetryCount)

	s.Rejected(domain.NewError(domain.KindConfig, "youtube", "YouTube API key is not configured"), "fallback")
	assert.True(t, s.HasConfigError)
	assert.Equal(t, 1, s.RetryCount)
	assert.Equal(t, "YouTube API key is not configured", s.Error)
	assert.False(t, s.CanFetch())
	assert.Equal(t, PhaseConfigError, s.Phase())
}

func TestFulfilledResetsRetryAndConfigFlags(t *testing.T) {
	s := NewState[int]()
	s.Rejected(errors.New("a"), "")
	s.Rejected(errors.New("b"), "")
	s.HasConfigError = true

	s.Fulfilled(domain.Page[int]{Items: []int{1}})
	assert.Zero(t, s.RetryCount)
	assert.False(t, s.HasConfigError)
	assert.Empty(t, s.Error)
}

func TestResetRetryCount(t *testing.T) {
	s := NewState[int]()
	s.Rejected(errors.New("a"), "")
	s.Rejected(domain.NewError(domain.KindConfig, "", "bad key"), "")

	s.ResetRetryCount()
	assert.Zero(t, s.RetryCount)
	assert.False(t, s.HasConfigError)
	assert.True(t, s.CanFetch())
}

func TestResetListRestoresInitialShape(t *testing.T) {
	states := map[string]func() State[int]{
		"after pages": func() State[int] {
			s := NewState[int]()
			s.Fulfilled(domain.Page[int]{Items: []int{1, 2}, NextPageToken: "x"})
			s.Fulfilled(domain.Page[int]{Items: []int{3}})
			return s
		},
		"while loading with error": func() State[int] {
			s := NewState[int]()
			s.Rejected(errors.New("boom"), "")
			s.Pending()
			s.Error = "stale"
			return s
		},
		"fresh": NewState[int],
	}

	for name, build := range states {
		t.Run(name, func(t *testing.T) {
			s := build()
			gen := s.Generation
			s.ResetList()

			assert.Equal(t, []int{}, s.Items)
			assert.Empty(t, s.PageToken)
			assert.True(t, s.HasMore)
			assert.False(t, s.Loading)
			assert.Empty(t, s.Error)
			assert.Equal(t, gen+1, s.Generation)
			assert.Equal(t, PhaseIdle, s.Phase())
		})
	}
}

func TestCloneDoesNotShareItems(t *testing.T) {
	s := NewState[int]()
	s.Fulfilled(domain.Page[int]{Items: []int{1, 2}})

	c := s.Clone()
	c.Items[0] = 99
	assert.Equal(t, 1, s.Items[0])
}

func TestStatusCanRetry(t *testing.T) {
	assert.False(t, Status{}.CanRetry())
	assert.True(t, Status{Error: "x"}.CanRetry())
	assert.True(t, Status{HasConfigError: true}.CanRetry())
	assert.False(t, Status{Error: "x", Loading: true}.CanRetry())
}
