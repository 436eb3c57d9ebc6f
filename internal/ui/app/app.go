// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/prefs"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/store"
	"github.com/jeranaias/moly-tui/internal/ui/chat"
	"github.com/jeranaias/moly-tui/internal/ui/components"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/view"
)

const (
	// refreshBurst is how many refreshes may run back to back before the
	// limiter starts refusing.
	refreshBurst = 2

	// refreshEvery is the sustained rate of manual refreshes.
	refreshEvery = 5 * time.Second
)

// Watcher signals file changes. *watch.FileWatcher implements it.
type Watcher interface {
	Changes() <-chan struct{}
}

// Options configures the root model.
type Options struct {
	Store    *store.Store
	Streamer chat.Streamer

	// RefreshInterval schedules automatic model refreshes; 0 disables them.
	RefreshInterval time.Duration

	// RefreshOnStart fetches every provider when the program starts.
	RefreshOnStart bool

	// ConfigWatcher and ReloadProviders implement config hot reload.
	ConfigWatcher   Watcher
	ReloadProviders func() ([]provider.Descriptor, error)

	// McpWatcher and ReloadMCP implement MCP file hot reload.
	McpWatcher Watcher
	ReloadMCP  func() (mcp.Config, error)

	Logger *zap.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	store  *store.Store
	snap   *store.Snapshot
	coord  *view.Coordinator
	keys   chat.KeyMap
	theme  *styles.Theme
	logger *zap.Logger

	header *components.Header
	status *components.StatusBar
	help   help.Model

	panels map[view.ID]panel
	chat   *chatPanel

	runner  *chat.StreamRunner
	sender  *programSender
	spinner spinner.Model
	spin    bool

	limiter         *rate.Limiter
	refreshing      bool
	refreshInterval time.Duration
	refreshOnStart  bool

	configWatcher   Watcher
	reloadProviders func() ([]provider.Descriptor, error)
	mcpWatcher      Watcher
	reloadMCP       func() (mcp.Config, error)

	showHelp bool
	width    int
	height   int

	// changes is the store's redraw signal.
	changes     <-chan uint64
	unsubscribe func()

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates the root model. The visible view is the one stored in the
// preferences.
func New(opts Options) *Model {
	logger := logging.OrNop(opts.Logger).Named("ui")
	snap := opts.Store.Snapshot()
	theme := styles.NewTheme(themeMode(snap.Preferences.Theme))
	ctx, cancel := context.WithCancel(context.Background())

	sender := &programSender{}
	m := &Model{
		store:           opts.Store,
		snap:            snap,
		coord:           view.NewCoordinator(snap.ActiveView()),
		keys:            chat.DefaultKeyMap(),
		theme:           theme,
		logger:          logger,
		header:          components.NewHeader(theme),
		status:          components.NewStatusBar(theme),
		help:            help.New(),
		runner:          chat.NewStreamRunner(sender, opts.Streamer, opts.Logger),
		sender:          sender,
		spinner:         spinner.New(spinner.WithSpinner(styles.Spinner)),
		limiter:         rate.NewLimiter(rate.Every(refreshEvery), refreshBurst),
		refreshInterval: opts.RefreshInterval,
		refreshOnStart:  opts.RefreshOnStart,
		configWatcher:   opts.ConfigWatcher,
		reloadProviders: opts.ReloadProviders,
		mcpWatcher:      opts.McpWatcher,
		reloadMCP:       opts.ReloadMCP,
		width:           80,
		height:          24,
		ctx:             ctx,
		cancel:          cancel,
	}
	m.changes, m.unsubscribe = opts.Store.Subscribe()

	m.chat = newChatPanel(theme)
	m.panels = map[view.ID]panel{
		view.Chat:     m.chat,
		view.Models:   newModelsPanel(),
		view.Settings: newSettingsPanel(),
		view.Mcp:      newMcpPanel(),
	}
	m.header.SetActive(m.coord.Visible())
	m.status.Shortcuts = m.keys.ShortHelp()
	m.sync()
	return m
}

// Attach connects the stream runner to the running program. Call it before
// Program.Run.
func (m *Model) Attach(s chat.Sender) {
	m.sender.set(s)
}

// Close stops running turns and workers. It is safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		m.cancel()
		m.runner.Close()
	})
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.panels[m.coord.Visible()].focus(), m.waitForRevision()}
	if m.refreshOnStart {
		cmds = append(cmds, m.refresh(false))
	}
	if m.refreshInterval > 0 {
		cmds = append(cmds, tickRefresh(m.refreshInterval))
	}
	if m.configWatcher != nil {
		cmds = append(cmds, waitForChange(m.configWatcher, configChangedMsg{}))
	}
	if m.mcpWatcher != nil {
		cmds = append(cmds, waitForChange(m.mcpWatcher, mcpChangedMsg{}))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case chat.TurnMsg:
		m.dispatch(msg.Action)
		return m, nil

	case storeChangedMsg:
		// dispatch syncs at once; this catches revisions applied elsewhere.
		if msg.Revision != m.snap.Revision {
			m.sync()
		}
		return m, m.waitForRevision()

	case modelsLoadedMsg:
		return m, m.handleModelsLoaded(msg)

	case refreshTickMsg:
		return m, tea.Batch(m.refresh(false), tickRefresh(m.refreshInterval))

	case configChangedMsg:
		return m, tea.Batch(m.loadProviders(), waitForChange(m.configWatcher, configChangedMsg{}))

	case configLoadedMsg:
		return m, m.handleConfigLoaded(msg)

	case mcpChangedMsg:
		return m, tea.Batch(m.loadMCP(), waitForChange(m.mcpWatcher, mcpChangedMsg{}))

	case mcpLoadedMsg:
		m.handleMcpLoaded(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spin = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.chat.redraw(m)
		return m, cmd
	}

	// Everything else (cursor blink and friends) goes to the input.
	return m, m.chat.updateInput(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.NextView):
		return m.navigate(m.coord.Visible().Next())
	case key.Matches(msg, m.keys.PrevView):
		return m.navigate(m.coord.Visible().Prev())
	case key.Matches(msg, m.keys.ChatView):
		return m.navigate(view.Chat)
	case key.Matches(msg, m.keys.ModelsView):
		return m.navigate(view.Models)
	case key.Matches(msg, m.keys.SettingsView):
		return m.navigate(view.Settings)
	case key.Matches(msg, m.keys.McpView):
		return m.navigate(view.Mcp)
	case key.Matches(msg, m.keys.ToggleTheme):
		m.dispatch(store.SetTheme{Theme: m.snap.Preferences.Theme.Toggle()})
		return nil
	case key.Matches(msg, m.keys.ToggleSidebar):
		m.dispatch(store.SetSidebarExpanded{Expanded: !m.snap.Preferences.SidebarExpanded})
		return nil
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(true)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resize(m.width, m.height)
		return nil
	}
	return m.panels[m.coord.Visible()].update(m, msg)
}

// =============================================================================
// STATE
// =============================================================================

// dispatch applies an action. Stale results are dropped quietly; a missing
// conversation, provider or model is shown in the status bar. It reports
// whether the action was applied.
func (m *Model) dispatch(a store.Action) bool {
	err := m.store.Apply(a)
	switch {
	case err == nil:
		m.sync()
		return true
	case errors.Is(err, store.ErrStaleResult):
		m.logger.Debug("stale result discarded", zap.Error(err))
	case errors.Is(err, store.ErrNotFound):
		m.status.SetError(err.Error())
	default:
		m.logger.Warn("action rejected", zap.Error(err))
	}
	return false
}

// sync adopts the latest snapshot and re-attaches the visible panel.
func (m *Model) sync() {
	snap := m.store.Snapshot()
	if mode := themeMode(snap.Preferences.Theme); mode != m.theme.Mode {
		m.setTheme(mode)
	}
	m.snap = snap

	m.status.Provider = ""
	if d, ok := snap.Provider(snap.ActiveProvider); ok {
		m.status.Provider = d.DisplayName()
	}
	m.status.Model = chatModel(snap)
	m.status.Status = m.statusFor(snap)

	m.reacquire(m.coord.Visible())
}

// reacquire re-reads the snapshot into a panel unless it is already attached
// at the current revision.
func (m *Model) reacquire(v view.ID) bool {
	p := m.panels[v]
	snap := m.snap
	return p.attachment().Reacquire(snap.Revision, func() {
		p.acquire(m, snap)
	})
}

// navigate makes v the visible view.
func (m *Model) navigate(v view.ID) tea.Cmd {
	prev := m.coord.Visible()
	if v == prev {
		return nil
	}

	// The coordinator moves first so the sync run by dispatch acquires the
	// incoming panel, never the outgoing one.
	events := m.coord.Activate(v)
	for _, ev := range events {
		if ev.Kind == view.BecameHidden {
			m.panels[ev.View].attachment().Detach()
			m.panels[ev.View].blur()
		}
	}
	if !m.dispatch(store.SetActiveView{View: v}) {
		m.coord.Activate(prev)
		m.reacquire(prev)
		return m.panels[prev].focus()
	}
	for _, ev := range events {
		if ev.Kind == view.BecameVisible {
			m.reacquire(ev.View)
		}
	}
	m.header.SetActive(v)
	return m.panels[v].focus()
}

func (m *Model) setTheme(mode styles.Mode) {
	theme := styles.NewTheme(mode)
	theme.SetSize(m.width, m.height)
	m.theme = theme
	m.header.SetTheme(theme)
	m.status.SetTheme(theme)
	m.chat.setTheme(theme)

	// Cached renderings carry the old colors.
	for _, p := range m.panels {
		p.attachment().Detach()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.help.Width = width
	m.chat.layout(m)
}

// busy reports whether something worth a spinner is running.
func (m *Model) busy() bool {
	if m.refreshing {
		return true
	}
	c, ok := m.snap.CurrentConversation()
	if !ok {
		return false
	}
	_, streaming := c.Streaming()
	return streaming
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spin {
		return nil
	}
	m.spin = true
	return m.spinner.Tick
}

func (m *Model) statusFor(snap *store.Snapshot) components.Status {
	if c, ok := snap.CurrentConversation(); ok {
		if _, streaming := c.Streaming(); streaming {
			return components.StatusStreaming
		}
	}
	if m.refreshing {
		return components.StatusLoading
	}
	if m.status.IsError {
		return components.StatusError
	}
	return components.StatusReady
}

// chatModel returns the model new turns in the current conversation use.
func chatModel(snap *store.Snapshot) provider.ModelRef {
	if c, ok := snap.CurrentConversation(); ok {
		return c.Model
	}
	if ref := snap.Preferences.LastSelectedModel; ref != nil {
		return *ref
	}
	return provider.ModelRef{}
}

func themeMode(t prefs.Theme) styles.Mode {
	if t == prefs.ThemeDark {
		return styles.Dark
	}
	return styles.Light
}

// =============================================================================
// PROGRAM SENDER
// =============================================================================

// programSender forwards to the program once attached. Messages sent before
// Attach are dropped.
type programSender struct {
	mu sync.Mutex
	s  chat.Sender
}

func (p *programSender) set(s chat.Sender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s = s
}

func (p *programSender) Send(msg tea.Msg) {
	p.mu.Lock()
	s := p.s
	p.mu.Unlock()
	if s != nil {
		s.Send(msg)
	}
}
