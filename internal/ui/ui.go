package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/duetfm/duet/internal/auth"
	"github.com/duetfm/duet/internal/models"
	"github.com/duetfm/duet/internal/playback"
	"github.com/duetfm/duet/internal/services"
	"github.com/duetfm/duet/internal/shared"
	"github.com/duetfm/duet/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	PlaylistListView
	TrackListView
)

// libraryTab selects which library the playlist view is showing.
type libraryTab int

const (
	tabSpotify libraryTab = iota
	tabSoundCloud
	tabShared
)

func (t libraryTab) String() string {
	switch t {
	case tabSpotify:
		return "Spotify"
	case tabSoundCloud:
		return "SoundCloud"
	default:
		return "Shared"
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	tab         libraryTab
	spotify     services.Catalog
	soundcloud  services.Catalog
	engine      *tasks.SharedEngine
	coordinator *playback.Coordinator
	store       *auth.Store
	invalid     <-chan models.Source

	width  int
	height int

	playlistList list.Model
	listReady    bool
	sharedLists  []models.SharedPlaylist
	trackList    list.Model
	selected     *models.Playlist

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies. invalid,
// if non-nil, receives providers whose credentials failed revalidation.
func NewModel(ctx context.Context, spotify, soundcloud services.Catalog, engine *tasks.SharedEngine, coordinator *playback.Coordinator, store *auth.Store, invalid <-chan models.Source) *Model {
	view := LoginView
	if store.Credential(models.SourceSpotify) != "" || store.Credential(models.SourceSoundCloud) != "" {
		view = PlaylistListView
	}

	return &Model{
		ctx:         ctx,
		view:        view,
		spotify:     spotify,
		soundcloud:  soundcloud,
		engine:      engine,
		coordinator: coordinator,
		store:       store,
		invalid:     invalid,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the transport tick and, when a session exists, loads the
// first library.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.waitForInvalid()}
	if m.view == PlaylistListView {
		cmds = append(cmds, m.fetchPlaylists(m.currentTab()))
	}
	return tea.Batch(cmds...)
}

// currentTab returns the active tab, skipping providers with no session.
func (m *Model) currentTab() libraryTab {
	if m.tab == tabSpotify && m.store.Credential(models.SourceSpotify) == "" {
		return tabSoundCloud
	}
	if m.tab == tabSoundCloud && m.store.Credential(models.SourceSoundCloud) == "" {
		return tabSpotify
	}
	return m.tab
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.playlistList.SetSize(msg.Width-4, msg.Height-10)
		}
		if m.trackList.Width() != 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.sharedLists = msg.shared
		items := make([]list.Item, 0, len(msg.playlists)+len(msg.shared))
		for _, pl := range msg.playlists {
			items = append(items, playlistItem{playlist: pl})
		}
		for i := range msg.shared {
			sh := &msg.shared[i]
			items = append(items, playlistItem{playlist: sh.Flatten(), shared: sh})
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("%s Playlists", msg.tab)
		m.playlistList.SetSize(m.width-4, m.height-10)
		m.listReady = true
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.selected = msg.playlist
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = msg.playlist.Title
		m.trackList.SetSize(m.width-4, m.height-10)
		m.view = TrackListView
		return m, nil

	case tickMsg:
		return m, m.tick()

	case sessionInvalidMsg:
		// Only the affected provider falls back; a live session on the
		// other provider keeps its views usable.
		if m.store.Credential(models.SourceSpotify) == "" && m.store.Credential(models.SourceSoundCloud) == "" {
			m.view = LoginView
		}
		return m, m.waitForInvalid()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case PlaylistListView:
		body = m.renderPlaylistList()
	case TrackListView:
		body = m.renderTrackList()
	}

	return fmt.Sprintf("%s\n%s", body, m.renderTransport())
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.store.Credential(models.SourceSpotify) == "" && m.store.Credential(models.SourceSoundCloud) == "" {
			return m, nil
		}
		m.view = PlaylistListView
		m.tab = m.currentTab()
		return m, m.fetchPlaylists(m.tab)
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.tab = m.nextTab()
		return m, m.fetchPlaylists(m.tab)
	case "enter":
		if selected, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.fetchTracks(selected)
		}
		return m, nil
	}

	if cmd, handled := m.handleTransportKeys(msg); handled {
		return m, cmd
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		index := m.trackList.Index()
		return m, m.control(func() {
			snap := m.coordinator.Snapshot()
			if snap.Track != nil && snap.Index == index && snap.Playlist == m.selected.Title {
				if snap.Playing {
					m.coordinator.Pause(m.ctx)
				} else {
					m.coordinator.Resume(m.ctx)
				}
				return
			}
			m.coordinator.Play(m.ctx, m.selected, index)
		})
	}

	if cmd, handled := m.handleTransportKeys(msg); handled {
		return m, cmd
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

// handleTransportKeys covers the playback controls shared by the browsing
// views. Returns handled=false for keys the caller should route to lists.
func (m *Model) handleTransportKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case " ":
		return m.control(func() {
			if m.coordinator.Snapshot().Playing {
				m.coordinator.Pause(m.ctx)
			} else {
				m.coordinator.Resume(m.ctx)
			}
		}), true
	case "n":
		return m.control(func() { m.coordinator.SkipForward(m.ctx) }), true
	case "p":
		return m.control(func() { m.coordinator.SkipBackward(m.ctx) }), true
	case "right", "l":
		return m.control(func() {
			snap := m.coordinator.Snapshot()
			m.coordinator.Seek(m.ctx, snap.PositionMS+5000)
		}), true
	case "left", "h":
		return m.control(func() {
			snap := m.coordinator.Snapshot()
			m.coordinator.Seek(m.ctx, snap.PositionMS-5000)
		}), true
	case "s":
		snap := m.coordinator.Snapshot()
		m.coordinator.SetShuffle(!snap.Shuffled)
		return nil, true
	case "x":
		m.coordinator.DismissNotice()
		return nil, true
	}
	return nil, false
}

// control runs a playback action off the update loop and forces a
// transport re-render when it finishes. Failures surface as coordinator
// notices, not errors.
func (m *Model) control(action func()) tea.Cmd {
	return func() tea.Msg {
		action()
		return tickMsg(time.Now())
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		if m.listReady {
			m.playlistList, cmd = m.playlistList.Update(msg)
		}
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) nextTab() libraryTab {
	next := (m.tab + 1) % 3
	for next != m.tab {
		switch next {
		case tabSpotify:
			if m.store.Credential(models.SourceSpotify) != "" {
				return next
			}
		case tabSoundCloud:
			if m.store.Credential(models.SourceSoundCloud) != "" {
				return next
			}
		case tabShared:
			return next
		}
		next = (next + 1) % 3
	}
	return m.tab
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForInvalid forwards validator purges into the message loop.
func (m *Model) waitForInvalid() tea.Cmd {
	if m.invalid == nil {
		return nil
	}
	return func() tea.Msg {
		provider, ok := <-m.invalid
		if !ok {
			return nil
		}
		return sessionInvalidMsg{provider: provider}
	}
}

func (m *Model) fetchPlaylists(tab libraryTab) tea.Cmd {
	return func() tea.Msg {
		switch tab {
		case tabSpotify:
			playlists, err := m.spotify.Playlists(m.ctx)
			return playlistsFetchedMsg{tab: tab, playlists: playlists, err: err}
		case tabSoundCloud:
			playlists, err := m.soundcloud.Playlists(m.ctx)
			return playlistsFetchedMsg{tab: tab, playlists: playlists, err: err}
		default:
			sharedLists, err := m.engine.Build(m.ctx, nil)
			return playlistsFetchedMsg{tab: tab, shared: sharedLists, err: err}
		}
	}
}

func (m *Model) fetchTracks(item playlistItem) tea.Cmd {
	return func() tea.Msg {
		if item.shared != nil {
			flat := item.shared.Flatten()
			return tracksFetchedMsg{playlist: &flat}
		}

		catalog := m.spotify
		if item.playlist.Source == models.SourceSoundCloud {
			catalog = m.soundcloud
		}
		playlist, err := catalog.Playlist(m.ctx, item.playlist.ID)
		return tracksFetchedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("duet")

	status := func(provider models.Source, badge string) string {
		if m.store.Credential(provider) != "" {
			return fmt.Sprintf("  %s  %s", badge, styles.ok.Render("connected"))
		}
		return fmt.Sprintf("  %s  %s", badge, styles.warn.Render(fmt.Sprintf("not connected, run: duet auth %s", provider)))
	}

	body := fmt.Sprintf("%s\n%s\n",
		status(models.SourceSpotify, spotifyBadge.Render("Spotify")),
		status(models.SourceSoundCloud, soundcloudBadge.Render("SoundCloud")))

	hint := styles.help.Render("enter: continue with connected services • q: quit")
	return fmt.Sprintf("%s\n%s\n%s", title, body, hint)
}

func (m *Model) renderPlaylistList() string {
	if !m.listReady {
		return styles.help.Render("Loading playlists...")
	}

	view := m.playlistList.View()
	if m.err != nil {
		view = fmt.Sprintf("%s\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), view)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.tab, m.keys.play, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", view, helpView)
}

func (m *Model) renderTrackList() string {
	view := m.trackList.View()
	if m.err != nil {
		view = fmt.Sprintf("%s\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), view)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.next, m.keys.shuffle, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", view, helpView)
}

// renderTransport renders the persistent playback bar from a coordinator
// snapshot.
func (m *Model) renderTransport() string {
	snap := m.coordinator.Snapshot()

	var line string
	if snap.Track == nil {
		line = styles.help.Render("nothing playing")
	} else {
		state := "⏸"
		if snap.Playing {
			state = "▶"
		}

		badge := spotifyBadge.Render("[spotify]")
		if snap.Track.Source == models.SourceSoundCloud {
			badge = soundcloudBadge.Render("[soundcloud]")
		}

		line = fmt.Sprintf("%s %s - %s %s %s/%s",
			state, snap.Track.Title, snap.Track.Artist, badge,
			shared.FormatDuration(snap.PositionMS), shared.FormatDuration(snap.DurationMS))
		if snap.Shuffled {
			line = fmt.Sprintf("%s %s", line, sharedBadge.Render("[shuffle]"))
		}
	}

	if snap.Notice != nil {
		notice := styles.warn.Render(fmt.Sprintf("! %s: %s (x to dismiss)", snap.Notice.Kind, snap.Notice.Message))
		return fmt.Sprintf("%s\n%s", line, notice)
	}
	return line
}
