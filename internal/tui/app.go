package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/retry"
	"github.com/nepalihub/portal/internal/session"
	"github.com/nepalihub/portal/internal/tui/styles"
)

// Launcher opens a URL in the player or browser
type Launcher interface {
	Launch(url string) error
}

// CacheInvalidator is implemented by catalogs that cache pages per
// collection. Reload drops the collection's pages before refetching.
type CacheInvalidator interface {
	InvalidateKind(ctx context.Context, kind collection.Kind) error
}

// ChromeHeight is the tab bar, status line and footer
const ChromeHeight = 5

// Options configure the gallery
type Options struct {
	Catalog          domain.CatalogSource
	PageSize         int
	Retry            retry.Config
	Session          *session.Store
	Bootstrap        *session.Bootstrap // optional, validated in the background
	Launcher         Launcher
	DefaultTab       collection.Kind
	ShowDescriptions bool
	Logger           *slog.Logger

	// Clipboard overrides the system clipboard writer
	Clipboard func(string) error
}

// Model is the main Bubble Tea model for the gallery
type Model struct {
	ctx    context.Context
	logger *slog.Logger

	// Services
	Gallery   *collection.Gallery
	Session   *session.Store
	Bootstrap *session.Bootstrap
	Launcher  Launcher
	clipboard func(string) error
	cache     CacheInvalidator

	// Event channels
	changes     chan CollectionChangedMsg
	sessions    chan session.State
	bootDone    <-chan error
	unsubscribe func()

	// UI components
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model

	// UI state
	Tab              int
	cursor           map[collection.Kind]int
	offset           map[collection.Kind]int
	filtering        bool
	matches          []filterMatch
	ShowDescriptions bool
	ShowHelp         bool
	SessionState     session.State
	StatusMsg        string
	StatusIsErr      bool

	// Dimensions
	Width  int
	Height int
	Ready  bool
}

// NewModel creates the gallery model. Collections are wired to a channel
// observer so state transitions repaint the view.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	changes := make(chan CollectionChangedMsg, 16)
	gallery := collection.NewGallery(opts.Catalog, collection.Options{
		PageSize: opts.PageSize,
		Retry:    opts.Retry,
		Observer: NewChannelObserver(changes),
		Logger:   opts.Logger,
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Prompt = "/"
	ti.PromptStyle = styles.FilterPromptStyle
	ti.Placeholder = "filter titles"

	m := &Model{
		ctx:              ctx,
		logger:           opts.Logger,
		Gallery:          gallery,
		Session:          opts.Session,
		Bootstrap:        opts.Bootstrap,
		Launcher:         opts.Launcher,
		clipboard:        opts.Clipboard,
		changes:          changes,
		keys:             DefaultKeyMap(),
		help:             help.New(),
		spinner:          sp,
		filter:           ti,
		cursor:           make(map[collection.Kind]int),
		offset:           make(map[collection.Kind]int),
		ShowDescriptions: opts.ShowDescriptions,
	}
	if inv, ok := opts.Catalog.(CacheInvalidator); ok {
		m.cache = inv
	}

	for i, k := range collection.Kinds {
		if k == opts.DefaultTab {
			m.Tab = i
		}
	}

	if opts.Session != nil {
		m.sessions = make(chan session.State, 1)
		m.unsubscribe = subscribeSession(opts.Session, m.sessions)
		m.SessionState = opts.Session.Snapshot()
	}
	return m
}

// Init starts the spinner, the first page of the active tab and the
// background session validation
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		WaitForChangeCmd(m.changes),
		m.fetch(m.kind(), fetchNext),
	}
	if m.sessions != nil {
		cmds = append(cmds, WaitForSessionCmd(m.sessions))
	}
	if m.Bootstrap != nil {
		m.bootDone = m.Bootstrap.Start(m.ctx)
		cmds = append(cmds, WaitForBootstrapCmd(m.bootDone))
	}
	return tea.Batch(cmds...)
}

// Close detaches the model from the session store
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Update handles all messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.Ready = true
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case CollectionChangedMsg:
		if msg.Kind == m.kind() {
			m.refilter()
		}
		return m, WaitForChangeCmd(m.changes)

	case FetchDoneMsg:
		m.handleFetchDone(msg)
		return m, nil

	case SessionChangedMsg:
		prev := m.SessionState
		m.SessionState = msg.State
		if prev.IsAuthenticated() && !msg.State.IsAuthenticated() {
			m.setStatus("Signed out", false)
		}
		return m, WaitForSessionCmd(m.sessions)

	case BootstrapDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.setStatus("Session not restored: "+domain.Message(msg.Err), true)
		}
		return m, nil

	case LaunchedMsg:
		if msg.Err != nil {
			m.setStatus("Failed to open: "+msg.Err.Error(), true)
		} else {
			m.setStatus("Opened "+msg.URL, false)
		}
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			m.setStatus("Copy failed: "+msg.Err.Error(), true)
		} else {
			m.setStatus("Copied "+msg.URL, false)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleFetchDone(msg FetchDoneMsg) {
	switch {
	case msg.Err == nil:
		if msg.Kind == m.kind() {
			m.StatusMsg = ""
			m.refilter()
		}
	case errors.Is(msg.Err, collection.ErrSuperseded), errors.Is(msg.Err, context.Canceled):
		// a newer request owns the collection
	case errors.Is(msg.Err, domain.ErrRetryLimit):
		if msg.Kind == m.kind() {
			m.setStatus(msg.Err.Error()+" (press r to retry)", true)
		}
	default:
		m.logger.Debug("gallery fetch failed", "kind", msg.Kind, "error", msg.Err)
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
	case key.Matches(msg, m.keys.Escape):
		m.clearFilter()
		m.StatusMsg = ""
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, m.maybeLoadMore()
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.visibleRows())
		return m, m.maybeLoadMore()
	case key.Matches(msg, m.keys.Home):
		m.move(-m.rowCount())
	case key.Matches(msg, m.keys.End):
		m.move(m.rowCount())
		return m, m.maybeLoadMore()
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab(-1)
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Open):
		if e, ok := m.selected(); ok && m.Launcher != nil {
			return m, LaunchCmd(m.Launcher, e.URL)
		}
	case key.Matches(msg, m.keys.Copy):
		if e, ok := m.selected(); ok {
			return m, CopyCmd(m.clipboard, e.URL)
		}
	case key.Matches(msg, m.keys.More):
		return m, m.fetch(m.kind(), fetchNext)
	case key.Matches(msg, m.keys.Retry):
		m.StatusMsg = ""
		return m, m.fetch(m.kind(), fetchRetry)
	case key.Matches(msg, m.keys.Refresh):
		m.cursor[m.kind()] = 0
		m.offset[m.kind()] = 0
		return m, m.fetch(m.kind(), fetchRefresh)
	case key.Matches(msg, m.keys.Descriptions):
		m.ShowDescriptions = !m.ShowDescriptions
	case key.Matches(msg, m.keys.Logout):
		if m.Session != nil && m.SessionState.IsAuthenticated() {
			m.Session.Logout()
		}
	}
	return m, nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.clearFilter()
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	m.cursor[m.kind()] = 0
	m.offset[m.kind()] = 0
	return m, cmd
}

// kind returns the collection of the active tab
// ActiveKind is the collection shown on the current tab
func (m *Model) ActiveKind() collection.Kind {
	return m.kind()
}

func (m *Model) kind() collection.Kind {
	return collection.Kinds[m.Tab]
}

// fetch builds a fetch command. A plain fetch of a collection already
// loading is skipped.
func (m *Model) fetch(kind collection.Kind, mode fetchMode) tea.Cmd {
	if mode == fetchNext {
		if st, err := m.Gallery.Status(kind); err == nil && st.Loading {
			return nil
		}
	}
	cmd := FetchCmd(m.ctx, m.Gallery, kind, mode)
	if mode != fetchRefresh || m.cache == nil {
		return cmd
	}
	return InvalidateThenCmd(m.ctx, m.cache, kind, m.logger, cmd)
}

// switchTab moves to another tab and loads it the first time it is shown
func (m *Model) switchTab(delta int) tea.Cmd {
	m.clearFilter()
	n := len(collection.Kinds)
	m.Tab = (m.Tab + delta + n) % n
	m.StatusMsg = ""

	st, err := m.Gallery.Status(m.kind())
	if err == nil && st.Phase == collection.PhaseIdle {
		return m.fetch(m.kind(), fetchNext)
	}
	return nil
}

// maybeLoadMore fetches the next page when the cursor reaches the last
// loaded row. The collection itself refuses once its retry limit is hit.
func (m *Model) maybeLoadMore() tea.Cmd {
	if m.matches != nil {
		return nil
	}
	st, err := m.Gallery.Status(m.kind())
	if err != nil || st.Loading || !st.HasMore || st.Error != "" {
		return nil
	}
	if m.cursor[m.kind()] < st.Count-1 {
		return nil
	}
	return m.fetch(m.kind(), fetchNext)
}

// rows returns the visible entries of the active tab with their matches
func (m *Model) rows() ([]entry, []filterMatch) {
	items := entriesFor(m.Gallery, m.kind())
	if m.matches == nil {
		return items, nil
	}
	return items, m.matches
}

func (m *Model) rowCount() int {
	items, matches := m.rows()
	if matches != nil {
		return len(matches)
	}
	return len(items)
}

// selected returns the entry under the cursor
func (m *Model) selected() (entry, bool) {
	items, matches := m.rows()
	i := m.cursor[m.kind()]
	if matches != nil {
		if i < 0 || i >= len(matches) {
			return entry{}, false
		}
		return items[matches[i].Index], true
	}
	if i < 0 || i >= len(items) {
		return entry{}, false
	}
	return items[i], true
}

func (m *Model) move(delta int) {
	m.cursor[m.kind()] += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	k := m.kind()
	n := m.rowCount()
	c := m.cursor[k]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursor[k] = c

	visible := m.visibleRows()
	off := m.offset[k]
	if c < off {
		off = c
	}
	if c >= off+visible {
		off = c - visible + 1
	}
	m.offset[k] = off
}

// visibleRows is how many entries fit between the chrome lines
func (m *Model) visibleRows() int {
	per := 2
	if m.ShowDescriptions {
		per = 3
	}
	rows := (m.Height - ChromeHeight) / per
	if rows < 1 {
		return 1
	}
	return rows
}

func (m *Model) refilter() {
	if m.filter.Value() == "" {
		m.matches = nil
	} else {
		m.matches = applyFilter(entriesFor(m.Gallery, m.kind()), m.filter.Value())
	}
	m.clampCursor()
}

func (m *Model) clearFilter() {
	m.filtering = false
	m.filter.SetValue("")
	m.filter.Blur()
	m.matches = nil
	m.clampCursor()
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}

// Run starts the gallery and blocks until the user quits. The returned
// model carries the tab and toggles the user left it with.
func Run(ctx context.Context, opts Options) (*Model, error) {
	m := NewModel(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return m, fmt.Errorf("run gallery: %w", err)
	}
	if fm, ok := final.(*Model); ok {
		m = fm
	}
	return m, nil
}
