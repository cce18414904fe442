package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/retry"
	"github.com/nepalihub/portal/internal/service"
	"github.com/nepalihub/portal/internal/session"
	"github.com/nepalihub/portal/internal/store"
)

// fakeCatalog serves fixed pages
type fakeCatalog struct {
	mu        sync.Mutex
	videos    map[string]domain.Page[domain.Video]
	playlists domain.Page[domain.Playlist]
	err       error
	calls     int
}

func (f *fakeCatalog) FetchVideos(_ context.Context, _ int, token string) (domain.Page[domain.Video], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Page[domain.Video]{}, f.err
	}
	return f.videos[token], nil
}

func (f *fakeCatalog) FetchPopularVideos(ctx context.Context, size int, token string) (domain.Page[domain.Video], error) {
	return f.FetchVideos(ctx, size, token)
}

func (f *fakeCatalog) FetchPlaylists(context.Context, int, string) (domain.Page[domain.Playlist], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.playlists, f.err
}

func (f *fakeCatalog) FetchPlaylistItems(context.Context, string, int, string) (domain.Page[domain.PlaylistItem], error) {
	return domain.Page[domain.PlaylistItem]{}, nil
}

type fakeLauncher struct{ urls []string }

func (l *fakeLauncher) Launch(url string) error {
	l.urls = append(l.urls, url)
	return nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		videos: map[string]domain.Page[domain.Video]{
			"": {Items: []domain.Video{
				{ID: "v1", Title: "Dashain Festival Highlights", Duration: "4:05", Views: "1.2K"},
				{ID: "v2", Title: "Momo Cooking Class", Duration: "12:30", Views: "980"},
			}, NextPageToken: "p2"},
			"p2": {Items: []domain.Video{{ID: "v3", Title: "Tihar Lights", Duration: "2:00", Views: "50"}}},
		},
		playlists: domain.Page[domain.Playlist]{Items: []domain.Playlist{{ID: "pl1", Title: "Cultural Nights", VideoCount: 7}}},
	}
}

func newTestModel(t *testing.T, cat *fakeCatalog, opts Options) *Model {
	t.Helper()
	opts.Catalog = cat
	opts.Retry = retry.Config{Sleep: func(context.Context, time.Duration) error { return nil }}
	m := NewModel(context.Background(), opts)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// run executes a command and feeds its message back into the model
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestGalleryLoadsActiveTab(t *testing.T) {
	m := newTestModel(t, newCatalog(), Options{})

	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	view := m.View()
	assert.Contains(t, view, "Dashain Festival Highlights")
	assert.Contains(t, view, "Latest (2)")
	assert.Contains(t, view, "guest")

	e, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "v1", e.ID)
}

func TestDefaultTabFromOptions(t *testing.T) {
	m := newTestModel(t, newCatalog(), Options{DefaultTab: collection.KindPlaylists})
	assert.Equal(t, collection.KindPlaylists, m.ActiveKind())
}

func TestTabSwitchLoadsIdleCollectionOnce(t *testing.T) {
	cat := newCatalog()
	m := newTestModel(t, cat, Options{})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, collection.KindPopularVideos, m.kind())
	run(t, m, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, collection.KindPlaylists, m.kind())
	run(t, m, cmd)
	assert.Contains(t, m.View(), "Cultural Nights")
	assert.Contains(t, m.View(), "7 videos")

	// back to an already loaded tab
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Nil(t, cmd)
	assert.Equal(t, 3, cat.calls)
}

func TestCursorAtEndLoadsNextPage(t *testing.T) {
	m := newTestModel(t, newCatalog(), Options{})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	_, cmd := m.Update(keyRune('j'))
	run(t, m, cmd)

	assert.Len(t, m.Gallery.Latest.Snapshot().Items, 3)
	assert.False(t, m.Gallery.Latest.Snapshot().HasMore)

	// no more pages to load
	_, cmd = m.Update(keyRune('G'))
	assert.Nil(t, cmd)
}

func TestFilterNarrowsRows(t *testing.T) {
	m := newTestModel(t, newCatalog(), Options{})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	m.Update(keyRune('/'))
	for _, r := range "momo" {
		m.Update(keyRune(r))
	}
	require.Len(t, m.matches, 1)
	e, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "v2", e.ID)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filtering)
	assert.NotContains(t, m.View(), "Dashain")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.matches)
	assert.Contains(t, m.View(), "Dashain")
}

func TestOpenAndCopySelectedURL(t *testing.T) {
	launcher := &fakeLauncher{}
	var copied string
	m := newTestModel(t, newCatalog(), Options{
		Launcher:  launcher,
		Clipboard: func(s string) error { copied = s; return nil },
	})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=v1"}, launcher.urls)
	assert.Contains(t, m.StatusMsg, "Opened")

	_, cmd = m.Update(keyRune('y'))
	run(t, m, cmd)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", copied)
	assert.Equal(t, "Copied https://www.youtube.com/watch?v=v1", m.StatusMsg)
	assert.False(t, m.StatusIsErr)
}

func TestCopyFailureIsReported(t *testing.T) {
	m := newTestModel(t, newCatalog(), Options{
		Clipboard: func(string) error { return errors.New("no clipboard") },
	})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	_, cmd := m.Update(keyRune('y'))
	run(t, m, cmd)
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "no clipboard")
}

func TestConfigErrorStopsFetchingUntilRetry(t *testing.T) {
	cat := newCatalog()
	cat.err = domain.NewError(domain.KindConfig, "youtube.videos", "YouTube API key is not configured")
	m := newTestModel(t, cat, Options{})

	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))
	assert.Contains(t, m.View(), "YouTube API key is not configured")
	assert.Equal(t, 1, cat.calls)

	// n is refused by the collection without a request
	_, cmd := m.Update(keyRune('n'))
	run(t, m, cmd)
	assert.Equal(t, 1, cat.calls)
	assert.Contains(t, m.StatusMsg, domain.ErrRetryLimit.Error())

	cat.err = nil
	_, cmd = m.Update(keyRune('r'))
	run(t, m, cmd)
	assert.Equal(t, 2, cat.calls)
	assert.Contains(t, m.View(), "Momo Cooking Class")
}

func TestSessionBadgeFollowsStore(t *testing.T) {
	st := session.NewStore(nil, nil)
	m := newTestModel(t, newCatalog(), Options{Session: st})

	require.NoError(t, st.SetCredentials("jwt", domain.User{ID: "u1", DisplayName: "Asha", Role: domain.RoleEditor}))
	run(t, m, WaitForSessionCmd(m.sessions))
	assert.Contains(t, m.View(), "Asha · editor")

	m.Update(keyRune('L'))
	run(t, m, WaitForSessionCmd(m.sessions))
	assert.False(t, m.SessionState.IsAuthenticated())
	assert.Equal(t, "Signed out", m.StatusMsg)
}

func TestToggleDescriptions(t *testing.T) {
	cat := newCatalog()
	cat.videos[""] = domain.Page[domain.Video]{Items: []domain.Video{{ID: "v1", Title: "Talk", Description: "An evening of\nstories"}}}
	m := newTestModel(t, cat, Options{})
	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))

	assert.NotContains(t, m.View(), "An evening of stories")
	m.Update(keyRune('d'))
	assert.Contains(t, m.View(), "An evening of stories")
}

func TestHighlightParts(t *testing.T) {
	parts := highlightParts("Momo Night", []int{0, 1})
	require.Len(t, parts, 2)
	assert.Equal(t, "Mo", parts[0].Text)
	assert.NotNil(t, parts[0].Foreground)
	assert.Equal(t, "mo Night", parts[1].Text)
	assert.Nil(t, parts[1].Foreground)
}

func TestApplyFilterEmptyQuery(t *testing.T) {
	assert.Nil(t, applyFilter([]entry{{Title: "a"}}, "  "))
	matches := applyFilter([]entry{{Title: "Tihar"}, {Title: "Holi"}}, "HOL")
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Index)
}

func TestReloadBypassesCachedPages(t *testing.T) {
	cat := newCatalog()
	m := NewModel(context.Background(), Options{
		Catalog: service.NewCatalogService(cat, time.Hour, nil, store.NewMemory()),
		Retry:   retry.Config{Sleep: func(context.Context, time.Duration) error { return nil }},
	})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	run(t, m, m.fetch(collection.KindLatestVideos, fetchNext))
	require.Equal(t, 1, cat.calls)

	cat.mu.Lock()
	cat.videos[""] = domain.Page[domain.Video]{Items: []domain.Video{{ID: "v9", Title: "Losar Parade"}}}
	cat.mu.Unlock()

	_, cmd := m.Update(keyRune('R'))
	run(t, m, cmd)

	assert.Equal(t, 2, cat.calls)
	view := m.View()
	assert.Contains(t, view, "Losar Parade")
	assert.NotContains(t, view, "Dashain Festival Highlights")
}
