package app

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/roadnoise/internal/intensity"
	"github.com/jwulff/roadnoise/internal/playback"
	"github.com/jwulff/roadnoise/internal/segview"
	"github.com/jwulff/roadnoise/internal/timeline"
	"github.com/jwulff/roadnoise/internal/timer"
	"github.com/jwulff/roadnoise/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	loadTimeout          = 30 * time.Second
	transientErrorPeriod = 5 * time.Second

	playErrorPrefix = "Could not play audio file: "
)

// Options wires the model to its collaborators.
type Options struct {
	// Source is the timeline location passed to timeline.Load.
	Source string
	// AssetBase is what segment output files resolve against.
	AssetBase string
	// Player is the audio backend. Nil runs the chart without audio.
	Player playback.Player
	// Changes delivers a value whenever the source changes. Optional.
	Changes <-chan struct{}
	// Rand seeds the fallback synthesizer. Nil uses a random seed.
	Rand *rand.Rand
}

// Model is the root bubbletea model for the roadnoise TUI.
type Model struct {
	opts Options
	ctrl *playback.Controller

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	// Timeline
	doc       *timeline.Document
	views     []*segview.View
	loading   bool
	reloading bool

	// Navigation. hovered is the view under the pointer or keyboard
	// focus, -1 when none.
	cursor  int
	scroll  int
	hovered int

	// UI state
	showDetails bool
	animating   bool
	width       int
	height      int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a Model that starts by loading opts.Source.
func New(opts Options) Model {
	if opts.Source == "" {
		opts.Source = timeline.DefaultSource
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	h := help.New()
	h.Styles.ShortKey = ui.FooterKeyStyle
	h.Styles.ShortDesc = ui.FooterDescStyle
	h.Styles.ShortSeparator = ui.DividerStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.SpinnerStyle

	return Model{
		opts:    opts,
		ctrl:    playback.NewController(opts.Player, opts.AssetBase),
		keys:    defaultKeyMap(),
		help:    h,
		spinner: s,
		loading: true,
		hovered: -1,
	}
}

// Init loads the timeline and starts listening to the player and watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, loadCmd(m.opts.Source, m.opts.Rand)}
	if m.opts.Player != nil {
		cmds = append(cmds, waitForPlayerEvent(m.opts.Player.Events()))
	}
	if m.opts.Changes != nil {
		cmds = append(cmds, waitForChange(m.opts.Changes))
	}
	return tea.Batch(cmds...)
}

// loadCmd reads the initial document, synthesizing one when the source is
// unavailable.
func loadCmd(source string, rng *rand.Rand) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return TimelineLoadedMsg{Doc: timeline.LoadOrSynthesize(ctx, source, rng)}
	}
}

// reloadCmd rereads a changed source. Failures keep the current document.
func reloadCmd(source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		doc, err := timeline.Load(ctx, source)
		if err != nil {
			return TimelineReloadFailedMsg{Err: err}
		}
		return TimelineLoadedMsg{Doc: doc, Reload: true}
	}
}

// waitForChange blocks until the watcher reports a change.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return TimelineChangedMsg{}
	}
}

// waitForPlayerEvent reads the next lifecycle event from the player.
func waitForPlayerEvent(events <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return playerClosedMsg{}
		}
		return PlayerEventMsg{Event: ev}
	}
}

func sampleTickCmd(tok timer.Token) tea.Cmd {
	return tea.Tick(playback.SampleInterval, func(time.Time) tea.Msg {
		return SampleTickMsg{Token: tok}
	})
}

// positionCmd reads the player position off the event loop.
func positionCmd(p playback.Player, tok timer.Token) tea.Cmd {
	return func() tea.Msg {
		pos, err := p.Position()
		return ProgressMsg{Token: tok, Position: pos, Err: err}
	}
}

func hoverTickCmd(index int, tok timer.Token) tea.Cmd {
	return tea.Tick(segview.HoverDelay, func(time.Time) tea.Msg {
		return HoverTickMsg{Index: index, Token: tok}
	})
}

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Second/playback.AnimationFPS, func(time.Time) tea.Msg {
		return AnimationTickMsg{}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(transientErrorPeriod, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TimelineLoadedMsg:
		m.setTimeline(msg.Doc, msg.Reload)
		return m, nil

	case TimelineReloadFailedMsg:
		m.reloading = false
		log.Printf("timeline: reload failed: %v; keeping current document", msg.Err)
		return m, nil

	case TimelineChangedMsg:
		var cmds []tea.Cmd
		if m.opts.Changes != nil {
			cmds = append(cmds, waitForChange(m.opts.Changes))
		}
		if !m.reloading && !m.loading {
			m.reloading = true
			cmds = append(cmds, reloadCmd(m.opts.Source))
		}
		return m, tea.Batch(cmds...)

	case PlayerEventMsg:
		cmds := []tea.Cmd{waitForPlayerEvent(m.opts.Player.Events())}
		if err := m.ctrl.HandleEvent(msg.Event); err != nil {
			cmds = append(cmds, m.showError(playErrorPrefix+err.Error()))
		}
		cmds = append(cmds, m.startAnimation())
		return m, tea.Batch(cmds...)

	case playerClosedMsg:
		log.Printf("app: player event stream closed")
		return m, nil

	case SampleTickMsg:
		if m.opts.Player == nil || !m.ctrl.SamplerLive(msg.Token) {
			return m, nil
		}
		return m, positionCmd(m.opts.Player, msg.Token)

	case ProgressMsg:
		if msg.Err != nil {
			log.Printf("app: read position: %v", msg.Err)
			if !m.ctrl.SamplerLive(msg.Token) {
				return m, nil
			}
			return m, sampleTickCmd(msg.Token)
		}
		if m.ctrl.ApplyProgress(msg.Token, msg.Position) {
			return m, sampleTickCmd(msg.Token)
		}
		return m, nil

	case HoverTickMsg:
		if msg.Index >= 0 && msg.Index < len(m.views) && m.views[msg.Index].FireHover(msg.Token) {
			m.ensureCursorVisible()
		}
		return m, nil

	case AnimationTickMsg:
		moving := false
		for _, v := range m.views {
			if v.Progress.Step() {
				moving = true
			}
		}
		if moving {
			return m, animationTickCmd()
		}
		m.animating = false
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// setTimeline replaces the document. Playback stops and the old views go
// away with their timers.
func (m *Model) setTimeline(doc *timeline.Document, reload bool) {
	if m.doc != nil {
		m.ctrl.Stop()
		segview.Teardown(m.views)
	}
	m.doc = doc
	m.views = segview.NewViews(doc)
	m.loading = false
	m.reloading = false
	m.hovered = -1
	m.scroll = 0
	m.cursor = min(m.cursor, max(0, len(m.views)-1))
	m.ensureCursorVisible()
	if reload {
		log.Printf("timeline: reloaded %s (%d recordings)", doc.Source, doc.Len())
	}
}

// showError sets a transient error and schedules its removal.
func (m *Model) showError(text string) tea.Cmd {
	m.errorMessage = text
	m.errorTransient = true
	return clearTransientErrorCmd()
}

// activate plays, pauses or resumes the segment of view i.
func (m Model) activate(i int) (Model, tea.Cmd) {
	if i < 0 || i >= len(m.views) {
		return m, nil
	}
	v := m.views[i]

	var cmds []tea.Cmd
	tok, err := m.ctrl.Activate(v.Segment, v.Progress)
	if err != nil {
		prefix := "Playback error: "
		if m.ctrl.Session().State == playback.Idle {
			prefix = playErrorPrefix
		}
		cmds = append(cmds, m.showError(prefix+err.Error()))
	}
	if tok != 0 {
		cmds = append(cmds, sampleTickCmd(tok))
	}
	cmds = append(cmds, m.startAnimation())
	return m, tea.Batch(cmds...)
}

// startAnimation begins the easing loop when a handle is moving back.
func (m *Model) startAnimation() tea.Cmd {
	if m.animating {
		return nil
	}
	for _, v := range m.views {
		if v.Progress.Animating() {
			m.animating = true
			return animationTickCmd()
		}
	}
	return nil
}

// setHover moves the hover to view i, or clears it for i < 0.
func (m *Model) setHover(i int) tea.Cmd {
	if i == m.hovered {
		return nil
	}
	if m.hovered >= 0 && m.hovered < len(m.views) {
		m.views[m.hovered].Leave()
	}
	if i < 0 || i >= len(m.views) {
		m.hovered = -1
		return nil
	}
	m.hovered = i
	tok, ok := m.views[i].Enter()
	if !ok {
		return nil
	}
	return hoverTickCmd(i, tok)
}

func (m *Model) shutdown() {
	m.ctrl.Close()
	segview.Teardown(m.views)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)

	case key.Matches(msg, m.keys.PageUp):
		return m.moveCursor(-m.pageSize())

	case key.Matches(msg, m.keys.PageDown):
		return m.moveCursor(m.pageSize())

	case key.Matches(msg, m.keys.Top):
		return m.moveCursor(-len(m.views))

	case key.Matches(msg, m.keys.Bottom):
		return m.moveCursor(len(m.views))

	case key.Matches(msg, m.keys.Play):
		return m.activate(m.cursor)

	case key.Matches(msg, m.keys.Pause):
		if err := m.ctrl.Pause(); err != nil {
			return m, m.showError("Playback error: " + err.Error())
		}
		return m, nil

	case key.Matches(msg, m.keys.Info):
		m.showDetails = !m.showDetails
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.loading || m.reloading {
			return m, nil
		}
		m.reloading = true
		return m, reloadCmd(m.opts.Source)
	}

	return m, nil
}

// handleMouse maps the pointer to a bar: motion hovers, a left press
// activates and the wheel scrolls.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollBy(-1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.scrollBy(1)
		return m, nil
	}

	idx := m.viewAt(msg.Y)
	hover := m.setHover(idx)
	if idx >= 0 {
		m.cursor = idx
	}
	if idx >= 0 && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		next, cmd := m.activate(idx)
		return next, tea.Batch(hover, cmd)
	}
	return m, hover
}

func (m Model) moveCursor(delta int) (Model, tea.Cmd) {
	if len(m.views) == 0 {
		return m, nil
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.views)-1)
	cmd := m.setHover(m.cursor)
	m.ensureCursorVisible()
	return m, cmd
}

func (m *Model) scrollBy(delta int) {
	m.scroll = min(max(m.scroll+delta, 0), max(0, len(m.views)-1))
}

func (m Model) pageSize() int {
	return max(1, m.listHeight()-1)
}

// ensureCursorVisible scrolls so every line of the cursor row is shown.
func (m *Model) ensureCursorVisible() {
	if len(m.views) == 0 {
		m.scroll = 0
		return
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
		return
	}
	h := m.listHeight()
	for m.scroll < m.cursor && m.rowsBetween(m.scroll, m.cursor) > h {
		m.scroll++
	}
}

// rowsBetween counts the lines of views from..to inclusive.
func (m Model) rowsBetween(from, to int) int {
	n := 0
	for i := from; i <= to && i < len(m.views); i++ {
		n += m.views[i].Height()
	}
	return n
}

// viewAt returns the view drawn on screen line y, or -1.
func (m Model) viewAt(y int) int {
	row := y - lipgloss.Height(m.renderTop())
	if row < 0 || row >= m.listHeight() {
		return -1
	}
	line := 0
	for i := m.scroll; i < len(m.views); i++ {
		h := m.views[i].Height()
		if row < line+h {
			return i
		}
		line += h
	}
	return -1
}

func (m Model) listHeight() int {
	if m.height == 0 {
		return 20
	}
	reserved := lipgloss.Height(m.renderTop()) + 1 // footer
	if m.errorMessage != "" {
		reserved++
	}
	return max(1, m.height-reserved)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	if m.loading {
		return m.spinner.View() + ui.DimStyle.Render(" Loading timeline...")
	}

	sections := []string{m.renderTop(), m.renderList()}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

// renderTop draws everything above the bar list.
func (m Model) renderTop() string {
	sections := []string{
		m.renderHeader(),
		ui.DimStyle.Render("A day on a busy road. Each bar is one recording segment."),
		ui.DimStyle.Render("Color shows average intensity, length shows peak loudness (RMS)."),
		m.renderDetails(),
		m.renderLegend(),
		m.renderPlayIndicator(),
		ui.DividerStyle.Render(strings.Repeat("─", max(m.width, 1))),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("ROAD NOISE")
	if m.doc == nil {
		return title
	}
	var date string
	if m.doc.Date != "" {
		date = ui.DimStyle.Render(" — " + m.doc.Date)
	}
	var badge string
	if m.doc.Synthetic {
		badge = " " + ui.SampleBadgeStyle.Render("[SAMPLE DATA]")
	}
	return title + date + badge
}

func (m Model) renderDetails() string {
	if !m.showDetails {
		return ui.DimStyle.Render("▸ Additional info for nerds")
	}

	lines := []string{
		ui.SubtitleStyle.Render("▾ Additional info for nerds"),
		"The audio was anonymized before publishing:",
		"  1. RMS computed over 250 ms frames",
		"  2. pink and brown noise shaped by those dynamics",
		"  3. frequency shaping with an FIR filter",
		"  4. light compression and limiting",
		"  5. MP3 at 96 kbps, 16 kHz",
		"",
	}
	if m.doc != nil {
		lines = append(lines,
			fmt.Sprintf("source:     %s", m.doc.Source),
			fmt.Sprintf("recordings: %d", m.doc.Len()),
			fmt.Sprintf("max peak:   %.3f RMS", m.doc.MaxPeak()),
			fmt.Sprintf("duration:   %s", time.Duration(m.doc.TotalDuration*float64(time.Second)).Round(time.Second)),
		)
	}
	player := "mpv"
	if m.opts.Player == nil {
		player = "unavailable"
	}
	lines = append(lines, fmt.Sprintf("player:     %s (%s)", player, m.ctrl.Session().State))

	return ui.InfoBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderLegend() string {
	var parts []string
	for _, b := range intensity.Bands() {
		parts = append(parts, ui.BandStyle(b).Render("■")+" "+ui.DimStyle.Render(b.String()))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderPlayIndicator() string {
	s := m.ctrl.Session()
	if s.Selected == nil || s.State == playback.Idle {
		return ui.IdleStyle.Render("▶ Click a bar to play")
	}
	at := s.Selected.Timestamp.Local().Format("15:04:05")
	if s.State == playback.Paused {
		return ui.IdleStyle.Render("▶ Paused " + at)
	}
	line := ui.PlayingStyle.Render("‖ Playing " + at)
	if s.Starting {
		line += ui.DimStyle.Render(" (loading)")
	}
	return line
}

func (m Model) renderList() string {
	height := m.listHeight()
	var lines []string
	if len(m.views) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No recordings in this timeline."))
	}

	opts := segview.RenderOptions{
		Width:   m.width,
		MaxPeak: m.doc.MaxPeak(),
		Session: m.ctrl.Session(),
	}
	for i := m.scroll; i < len(m.views) && len(lines) < height; i++ {
		opts.Cursor = i == m.cursor
		lines = append(lines, strings.Split(m.views[i].Render(opts), "\n")...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	return m.help.View(m.keys)
}
