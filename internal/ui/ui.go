package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotify-tools/internal/models"
	"github.com/desertthunder/spotify-tools/internal/services"
	"github.com/desertthunder/spotify-tools/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	ShuffleView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	session      services.Session
	engine       *tasks.ShuffleEngine
	public       bool
	width        int
	height       int
	loading      bool
	playlistList list.Model
	playlists    []models.Playlist
	selected     *models.Playlist
	progressChan chan tasks.ProgressUpdate
	doneChan     chan shuffleComplete
	progress     tasks.ProgressUpdate
	result       *tasks.ShuffleResult
	err          error
	help         help.Model
	keys         keyMap
	record       func(*tasks.ShuffleResult)
}

// ModelOption configures a [Model].
type ModelOption func(*Model)

// WithRecorder calls fn with every successful shuffle as soon as it completes,
// so results survive a restart or a later failure.
func WithRecorder(fn func(*tasks.ShuffleResult)) ModelOption {
	return func(m *Model) { m.record = fn }
}

// NewModel creates a new TUI model. Shuffled copies are created public when public is set.
func NewModel(ctx context.Context, session services.Session, engine *tasks.ShuffleEngine, public bool, opts ...ModelOption) *Model {
	playlistList := list.New(nil, playlistDelegate(), 0, 0)
	playlistList.Title = "Spotify Playlists"

	m := &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		session:      session,
		engine:       engine,
		public:       public,
		loading:      true,
		playlistList: playlistList,
		help:         help.New(),
		keys:         newKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Result returns the shuffle shown in the result view, if any. It is cleared on restart.
func (m *Model) Result() *tasks.ShuffleResult { return m.result }

// Init initializes the TUI by fetching playlists from Spotify.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ShuffleView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		m.playlists = data.playlists
		return m, m.playlistList.SetItems(playlistItems(data.playlists))

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.doneChan)

	case MsgShuffleComplete:
		data := msg.data.(shuffleComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		if data.err == nil && data.result != nil && m.record != nil {
			m.record(data.result)
		}
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case ShuffleView:
		return m.renderShuffle()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.choose):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			selected := pl.playlist
			m.selected = &selected
			m.view = ConfirmView
			return m, nil
		}
	}

	return m.updateList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ShuffleView
		return m, m.startShuffle()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = nil
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
		m.loading = true
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != PlaylistListView {
		return m, nil
	}
	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.session.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

// startShuffle runs the engine in its own goroutine. The result is parked on
// doneChan before progressChan is closed.
func (m *Model) startShuffle() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan shuffleComplete, 1)
	m.progressChan = progress
	m.doneChan = done

	opts := tasks.RunOptions{PlaylistID: m.selected.ID, Public: m.public}
	go func() {
		result, err := m.engine.Run(m.ctx, opts, progress)
		done <- shuffleComplete{result: result, err: err}
		close(progress)
	}()

	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan shuffleComplete) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			c := <-done
			return shuffleCompleteMsg(c.result, c.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	if m.loading {
		return styles.help.Render("Loading playlists...")
	}

	helpView := m.help.ShortHelpView(m.keys.forView(PlaylistListView))
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Shuffle '%s' into a new playlist?", m.selected.Name))

	visibility := "private"
	if m.public {
		visibility = "public"
	}
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nNew playlist: %s\n", m.selected.Name, m.selected.TrackCount, visibility)

	helpView := m.help.ShortHelpView(m.keys.forView(ConfirmView))

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderShuffle() string {
	title := styles.title.Render("Shuffling Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source playlist..."
	case tasks.FetchTracks:
		phase = fmt.Sprintf("Loading tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Shuffle:
		phase = "Shuffling..."
	case tasks.ResolveUser:
		phase = "Resolving current user..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (batch %d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Rollback:
		phase = styles.warn.Render("Removing partial playlist...")
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.forView(ResultView))

	if m.err != nil {
		failed := styles.err.Render(fmt.Sprintf("Shuffle failed: %v", m.err))
		if m.result != nil && m.result.Destination != nil {
			failed += "\n\n" + styles.warn.Render(fmt.Sprintf(
				"Partial playlist kept: %s (%d tracks added)",
				m.result.Destination.Name, m.result.TracksAdded,
			)) + "\n" + styles.link.Render(m.result.Destination.URL)
		}
		return fmt.Sprintf("%s\n\n%s", failed, helpView)
	}

	if m.result == nil || m.result.Destination == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Shuffle Complete!")
	info := fmt.Sprintf(
		"\nSource: %s (%d items)\nDestination: %s (%d tracks)\n%s",
		m.result.Source.Name,
		m.result.TotalItems,
		m.result.Destination.Name,
		m.result.TracksAdded,
		styles.link.Render(m.result.Destination.URL),
	)

	var skipped string
	if m.result.Skipped > 0 {
		skipped = "\n\n" + styles.warn.Render(fmt.Sprintf("Skipped %d local or unavailable items", m.result.Skipped))
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, skipped, helpView)
}
