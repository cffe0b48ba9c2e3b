package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/catalog"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Controller is the music host the TUI drives.
type Controller interface {
	Library() []models.Track
	Catalogs() []models.ProviderKind
	CatalogName(kind models.ProviderKind) string
	AddLink(input string) (models.Track, bool, error)
	AddResult(kind models.ProviderKind, index int) (models.Track, bool, error)
	Remove(kind models.ProviderKind, id string) error
	Search(ctx context.Context, kind models.ProviderKind, q string) error
	Popular(ctx context.Context, kind models.ProviderKind) error
	Results(kind models.ProviderKind) (catalog.Snapshot, error)
	PlayTrack(ctx context.Context, t models.Track) error
	TogglePause() error
	Stop() error
	Acknowledge() bool
	Playback() playback.Snapshot
	Events() <-chan playback.Snapshot
}

var _ Controller = (*controller.Music)(nil)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputLink
)

// chrome is the number of lines drawn around the active list.
const chrome = 10

// tab is one page of the TUI: the library or a provider's results.
type tab struct {
	library   bool
	kind      models.ProviderKind
	name      string
	list      list.Model
	snapshot  catalog.Snapshot
	searching bool
}

func (t *tab) selected() (models.Track, bool) {
	item, ok := t.list.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	music  Controller
	logger *log.Logger

	tabs   []*tab
	active int

	input input
	now   playback.Snapshot

	status    string
	statusErr bool

	width  int
	height int
	help   help.Model
	keys   keyMap
}

type input struct {
	textinput.Model
	mode inputMode
}

// NewModel creates a new TUI model over music. A nil logger discards output.
func NewModel(ctx context.Context, music Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ti := textinput.New()
	ti.CharLimit = 512

	m := &Model{
		ctx:    ctx,
		music:  music,
		logger: logger,
		input:  input{Model: ti},
		help:   help.New(),
		keys:   newKeyMap(),
	}

	m.tabs = append(m.tabs, &tab{library: true, name: "Library", list: newTrackList()})
	for _, kind := range music.Catalogs() {
		m.tabs = append(m.tabs, &tab{kind: kind, name: music.CatalogName(kind), list: newTrackList()})
	}

	m.now = music.Playback()
	m.refreshLibrary()
	return m
}

// Init starts listening for playback changes.
func (m *Model) Init() tea.Cmd {
	return m.waitForPlayback()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, t := range m.tabs {
			t.list.SetSize(msg.Width-4, max(msg.Height-chrome, 3))
		}
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		if m.input.mode != inputNone {
			return m.handleInputKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		res := msg.data.(searchResult)
		t := m.tabFor(res.kind)
		if t == nil || errors.Is(res.err, shared.ErrSuperseded) {
			return m, nil
		}
		t.searching = false
		m.refreshCatalog(t)
		if res.err != nil {
			m.logger.Warn("search failed", "provider", res.kind, "error", res.err)
		}
		return m, nil

	case MsgPlayDone:
		res := msg.data.(playResult)
		if res.err != nil && !errors.Is(res.err, shared.ErrSuperseded) {
			m.logger.Error("playback failed", "track", res.track.Identity(), "error", res.err)
			m.setError(res.err)
		} else if res.err == nil {
			m.clearStatus()
		}
		m.syncPlayback()
		return m, nil

	case MsgPlayback:
		// Events are wakeups; the controller's current snapshot is authoritative.
		m.syncPlayback()
		return m, m.waitForPlayback()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.current()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.active = (m.active + 1) % len(m.tabs)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
		return m, nil
	case key.Matches(msg, m.keys.play):
		track, ok := t.selected()
		if !ok {
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Loading %s…", track.Title()))
		return m, m.play(track)
	case key.Matches(msg, m.keys.pause):
		m.run(m.music.TogglePause)
		return m, nil
	case key.Matches(msg, m.keys.stop):
		m.run(m.music.Stop)
		return m, nil
	case key.Matches(msg, m.keys.dismiss):
		m.music.Acknowledge()
		m.clearStatus()
		m.syncPlayback()
		return m, nil
	case key.Matches(msg, m.keys.link):
		return m, m.focus(inputLink, "Paste a YouTube link")
	}

	if t.library {
		if key.Matches(msg, m.keys.remove) {
			m.removeSelected(t)
			return m, nil
		}
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.search):
		return m, m.focus(inputSearch, "Search "+t.name)
	case key.Matches(msg, m.keys.popular):
		t.searching = true
		return m, m.search(t.kind, "")
	case key.Matches(msg, m.keys.add):
		m.addSelected(t)
		return m, nil
	}
	return m.updateList(msg)
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.dismiss):
		m.blur()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		value := strings.TrimSpace(m.input.Value())
		mode := m.input.mode
		m.blur()
		if value == "" {
			return m, nil
		}
		if mode == inputLink {
			m.addLink(value)
			return m, nil
		}
		t := m.current()
		t.searching = true
		return m, m.search(t.kind, value)
	}

	var cmd tea.Cmd
	m.input.Model, cmd = m.input.Model.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	t := m.current()
	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return m, cmd
}

func (m *Model) focus(mode inputMode, placeholder string) tea.Cmd {
	m.input.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) blur() {
	m.input.mode = inputNone
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) addLink(value string) {
	track, added, err := m.music.AddLink(value)
	if err != nil {
		m.setError(fmt.Errorf("%s: %w", services.Classify(err), err))
		return
	}
	m.refreshLibrary()
	m.active = 0
	m.reportAdded(track, added)
}

func (m *Model) addSelected(t *tab) {
	if _, ok := t.selected(); !ok {
		return
	}
	track, added, err := m.music.AddResult(t.kind, t.list.Index())
	if err != nil {
		m.setError(err)
		return
	}
	m.refreshLibrary()
	m.reportAdded(track, added)
}

func (m *Model) reportAdded(track models.Track, added bool) {
	if added {
		m.logger.Info("added track", "track", track.Identity())
		m.setStatus(fmt.Sprintf("Added %s - %s", track.Artist(), track.Title()))
		return
	}
	m.setStatus(fmt.Sprintf("%s is already in the library", track.Title()))
}

func (m *Model) removeSelected(t *tab) {
	track, ok := t.selected()
	if !ok {
		return
	}
	if err := m.music.Remove(track.Kind(), track.ID()); err != nil {
		m.setError(err)
		return
	}
	m.logger.Info("removed track", "track", track.Identity())
	m.refreshLibrary()
	m.syncPlayback()
	m.setStatus(fmt.Sprintf("Removed %s", track.Title()))
}

// run applies a synchronous playback action.
func (m *Model) run(action func() error) {
	if err := action(); err != nil {
		m.setError(err)
	}
	m.syncPlayback()
}

func (m *Model) search(kind models.ProviderKind, q string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if q == "" {
			err = m.music.Popular(m.ctx, kind)
		} else {
			err = m.music.Search(m.ctx, kind, q)
		}
		return searchDoneMsg(kind, err)
	}
}

func (m *Model) play(t models.Track) tea.Cmd {
	return func() tea.Msg {
		return playDoneMsg(t, m.music.PlayTrack(m.ctx, t))
	}
}

func (m *Model) waitForPlayback() tea.Cmd {
	events := m.music.Events()
	return func() tea.Msg {
		s, ok := <-events
		if !ok {
			return nil
		}
		return playbackMsg(s)
	}
}

func (m *Model) current() *tab {
	return m.tabs[m.active]
}

func (m *Model) tabFor(kind models.ProviderKind) *tab {
	for _, t := range m.tabs {
		if !t.library && t.kind == kind {
			return t
		}
	}
	return nil
}

func (m *Model) nowPlaying() models.Identity {
	if !m.now.HasTrack() {
		return models.Identity{}
	}
	return m.now.Track.Identity()
}

func (m *Model) refreshLibrary() {
	m.tabs[0].list.SetItems(trackItems(m.music.Library(), m.nowPlaying()))
}

func (m *Model) refreshCatalog(t *tab) {
	snap, err := m.music.Results(t.kind)
	if err != nil {
		m.setError(err)
		return
	}
	t.snapshot = snap
	t.list.SetItems(trackItems(snap.Results, m.nowPlaying()))
	t.list.ResetSelected()
}

func (m *Model) syncPlayback() {
	m.now = m.music.Playback()
	now := m.nowPlaying()
	for _, t := range m.tabs {
		items := t.list.Items()
		for i, it := range items {
			item := it.(trackItem)
			item.playing = item.track.Identity() == now
			items[i] = item
		}
		t.list.SetItems(items)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// View renders the tabs, the active list and the now-playing bar.
func (m *Model) View() string {
	var b strings.Builder
	t := m.current()

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	if !t.library {
		b.WriteString(m.renderCatalogStatus(t))
		b.WriteString("\n")
	}
	b.WriteString(t.list.View())
	b.WriteString("\n")

	if m.input.mode != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(styles.err.Render("Error: " + m.status))
		} else {
			b.WriteString(styles.ok.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderTabs() string {
	names := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		name := t.name
		if t.library {
			name = fmt.Sprintf("%s (%d)", t.name, len(t.list.Items()))
		}
		if i == m.active {
			names[i] = styles.activeTab.Render(name)
		} else {
			names[i] = styles.tab.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, names...)
}

func (m *Model) renderCatalogStatus(t *tab) string {
	if t.searching {
		return styles.warn.Render("Searching…")
	}

	snap := t.snapshot
	switch snap.Status {
	case catalog.StatusSucceeded:
		if snap.Query == "" {
			return styles.ok.Render(fmt.Sprintf("%d popular tracks", len(snap.Results)))
		}
		return styles.ok.Render(fmt.Sprintf("%d results for %q", len(snap.Results), snap.Query))
	case catalog.StatusFailed:
		return styles.err.Render(fmt.Sprintf("Search failed (%s): %v", services.Classify(snap.Err), snap.Err))
	default:
		return styles.help.Render("Press / to search or p for popular tracks")
	}
}

func (m *Model) renderNowPlaying() string {
	s := m.now
	if !s.HasTrack() {
		return styles.playing.Render(styles.help.Render("Nothing playing"))
	}

	track := fmt.Sprintf("%s - %s [%s] via %s", s.Track.Artist(), s.Track.Title(), s.Track.FormattedDuration(), s.Track.Kind().Label())

	var line string
	switch s.State {
	case playback.StateLoading:
		line = styles.warn.Render("… " + track)
	case playback.StatePlaying:
		line = "▶ " + track
	case playback.StatePaused:
		line = "⏸ " + track
	case playback.StateEnded:
		line = "■ " + track + " (ended)"
	case playback.StateFailed:
		line = styles.err.Render(fmt.Sprintf("✗ %s: %v (esc to dismiss)", track, s.Err))
	default:
		line = track
	}
	return styles.playing.Render(line)
}

func (m *Model) helpKeys() []key.Binding {
	if m.input.mode != inputNone {
		return []key.Binding{m.keys.submit, m.keys.dismiss}
	}

	keys := []key.Binding{m.keys.play, m.keys.pause, m.keys.stop}
	if m.current().library {
		keys = append(keys, m.keys.remove)
	} else {
		keys = append(keys, m.keys.search, m.keys.popular, m.keys.add)
	}
	return append(keys, m.keys.link, m.keys.next, m.keys.quit)
}
