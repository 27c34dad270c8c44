// Package tui is the interactive session page: the chat, the generation
// progress and the playback controls.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/orchestrator"
	"github.com/iksnae/hypnojourney/internal/player"
)

// Session is the orchestrator surface the page drives.
type Session interface {
	Snapshot() orchestrator.TranscriptState
	SubmitChatTurn(ctx context.Context, text string) orchestrator.TranscriptState
	BeginGeneration(ctx context.Context, req internal.SessionRequest) (<-chan orchestrator.Event, error)
	Finalize(artifact *orchestrator.AudioArtifact, st internal.SessionType) (internal.SavedSessionRecord, error)
}

// Resolver maps an audio handle to a playable file.
type Resolver interface {
	Resolve(audioURL string) (string, error)
}

type mode int

const (
	modeChat mode = iota
	modeGenerating
	modePlayer
	modeError
)

// Options configures a session page.
type Options struct {
	SessionType internal.SessionType
	Locale      internal.Locale
	Session     Session
	Resolver    Resolver
	// Backend may be nil when no audio player is installed; the session is
	// still generated and saved.
	Backend player.Backend
	// AutoStart begins generation as soon as the chat completes. Otherwise
	// the user confirms with enter.
	AutoStart bool
}

type turnMsg struct{ state orchestrator.TranscriptState }

type eventMsg struct{ ev orchestrator.Event }

// pipelineDoneMsg is sent when the event channel closes
type pipelineDoneMsg struct{}

type beginFailedMsg struct{ err error }

type savedMsg struct {
	record internal.SavedSessionRecord
	err    error
}

type tickMsg time.Time

// Model is the bubbletea model of the session page.
type Model struct {
	opts Options
	ctx  context.Context

	mode       mode
	transcript []internal.ChatTurn
	complete   bool
	request    *internal.SessionRequest
	waiting    bool
	input      textinput.Model

	events  <-chan orchestrator.Event
	stage   orchestrator.Stage
	percent float64
	bar     progress.Model

	artifact *orchestrator.AudioArtifact
	record   *internal.SavedSessionRecord
	player   *player.Player
	notice   string
	failure  string

	width, height int
}

// NewModel returns the page in chat mode.
func NewModel(ctx context.Context, opts Options) Model {
	in := textinput.New()
	in.Placeholder = opts.Locale.T.ChatPlaceholder
	in.CharLimit = 500
	in.Focus()

	snap := opts.Session.Snapshot()
	return Model{
		opts:       opts,
		ctx:        ctx,
		transcript: snap.Transcript,
		complete:   snap.Complete,
		request:    snap.Request,
		input:      in,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:      80,
		height:     24,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Player returns the playback controls once audio is ready.
func (m Model) Player() *player.Player {
	return m.player
}

// Record returns the saved record once the session was finalized.
func (m Model) Record() *internal.SavedSessionRecord {
	return m.record
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(60, max(10, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeChat:
			return m.updateChat(msg)
		case modePlayer:
			return m.updatePlayer(msg)
		case modeError:
			return m.updateError(msg)
		}
		return m, nil

	case turnMsg:
		m.waiting = false
		m.transcript = msg.state.Transcript
		m.complete = msg.state.Complete
		m.request = msg.state.Request
		if m.complete {
			m.input.Blur()
			if m.opts.AutoStart {
				return m.begin()
			}
		}
		return m, nil

	case beginFailedMsg:
		m.mode = modeError
		m.failure = msg.err.Error()
		return m, nil

	case eventMsg:
		return m.handleEvent(msg.ev)

	case pipelineDoneMsg:
		m.events = nil
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render(fmt.Sprintf("%s: %v", m.opts.Locale.T.Error, msg.err))
			return m, nil
		}
		m.record = &msg.record
		m.notice = successStyle.Render("✓ " + m.opts.Locale.T.Save + ": " + msg.record.Title)
		return m, nil

	case tickMsg:
		if m.mode != modePlayer || m.player == nil {
			return m, nil
		}
		return m, tick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		if m.complete || m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.complete {
		return m.begin()
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()
	m.waiting = true
	// echo the user turn while the reply is on its way
	m.transcript = append(m.transcript, internal.ChatTurn{Speaker: internal.SpeakerUser, Text: text})

	session, ctx := m.opts.Session, m.ctx
	return m, func() tea.Msg {
		return turnMsg{state: session.SubmitChatTurn(ctx, text)}
	}
}

func (m Model) begin() (tea.Model, tea.Cmd) {
	if m.request == nil {
		return m, nil
	}
	events, err := m.opts.Session.BeginGeneration(m.ctx, *m.request)
	if err != nil {
		return m, func() tea.Msg { return beginFailedMsg{err: err} }
	}
	m.mode = modeGenerating
	m.failure = ""
	m.stage = orchestrator.StageScript
	m.percent = 0
	m.events = events
	return m, waitForEvent(events)
}

func waitForEvent(events <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return pipelineDoneMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func (m Model) handleEvent(ev orchestrator.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case *orchestrator.ProgressEvent:
		m.stage = ev.Stage
		m.percent = ev.Percent
		return m, waitForEvent(m.events)

	case *orchestrator.ErrorEvent:
		m.mode = modeError
		m.failure = ev.Message
		return m, waitForEvent(m.events)

	case *orchestrator.ArtifactEvent:
		m.artifact = ev.Artifact
		m.mode = modePlayer
		if err := m.setupPlayer(); err != nil {
			m.notice = errorStyle.Render(err.Error())
		}
		session, artifact, st := m.opts.Session, ev.Artifact, m.opts.SessionType
		save := func() tea.Msg {
			rec, err := session.Finalize(artifact, st)
			return savedMsg{record: rec, err: err}
		}
		return m, tea.Batch(waitForEvent(m.events), save, tick())
	}
	return m, waitForEvent(m.events)
}

func (m *Model) setupPlayer() error {
	if m.opts.Backend == nil || m.opts.Resolver == nil {
		return player.ErrNoPlayer
	}
	path, err := m.opts.Resolver.Resolve(m.artifact.Handle)
	if err != nil {
		return err
	}
	m.player = player.New(m.opts.Backend, path, player.EstimateDuration(int64(len(m.artifact.Data))))
	return nil
}

func (m Model) updatePlayer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.player == nil {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	var err error
	switch msg.String() {
	case " ", "p":
		err = m.player.Toggle()
	case "s":
		err = m.player.Stop()
	case "left", "h":
		err = m.player.Seek(-player.SeekStep)
	case "right", "l":
		err = m.player.Seek(player.SeekStep)
	case "+", "=", "up":
		err = m.player.SetVolume(m.player.Snapshot().Volume + player.VolumeStep)
	case "-", "down":
		err = m.player.SetVolume(m.player.Snapshot().Volume - player.VolumeStep)
	case "q":
		return m, tea.Quit
	}
	if err != nil {
		m.notice = errorStyle.Render(err.Error())
	}
	return m, nil
}

func (m Model) updateError(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r", "enter":
		return m.begin()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) View() string {
	t := m.opts.Locale.T
	var b strings.Builder

	b.WriteString(titleStyle.Render(t.AppName+" · "+m.opts.Locale.SessionTitle(m.opts.SessionType)) + "\n\n")

	switch m.mode {
	case modeChat:
		b.WriteString(m.viewChat())
	case modeGenerating:
		b.WriteString(m.viewProgress())
	case modePlayer:
		b.WriteString(m.viewPlayer())
	case modeError:
		b.WriteString(errorStyle.Render(t.Error+": "+m.failure) + "\n\n")
		b.WriteString(helpStyle.Render("r retry · q quit"))
	}

	if m.notice != "" {
		b.WriteString("\n\n" + m.notice)
	}
	return b.String()
}

func (m Model) align(s string) string {
	if m.opts.Locale.Dir() == "rtl" {
		return lipgloss.NewStyle().Width(m.width - 2).Align(lipgloss.Right).Render(s)
	}
	return s
}

func (m Model) viewChat() string {
	var b strings.Builder
	for _, turn := range m.transcript {
		style := assistantStyle
		if turn.Speaker == internal.SpeakerUser {
			style = userStyle
		}
		b.WriteString(m.align(style.Width(min(70, m.width-4)).Render(turn.Text)) + "\n\n")
	}

	switch {
	case m.waiting:
		b.WriteString(dimStyle.Render("…") + "\n")
	case m.complete && !m.opts.AutoStart:
		b.WriteString(helpStyle.Render("enter "+m.opts.Locale.T.StartSession+" · esc quit") + "\n")
	case !m.complete:
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter send · esc quit") + "\n")
	}
	return b.String()
}

func (m Model) viewProgress() string {
	t := m.opts.Locale.T
	label := t.GeneratingScript
	if m.stage == orchestrator.StageAudio {
		label = t.GeneratingAudio
	}
	return fmt.Sprintf("%s\n\n%s %.0f%%\n", label, m.bar.ViewAs(m.percent/100), m.percent)
}

func (m Model) viewPlayer() string {
	t := m.opts.Locale.T
	var b strings.Builder

	if m.artifact != nil {
		b.WriteString(dimStyle.Render(humanize.Bytes(uint64(len(m.artifact.Data)))+" audio/mpeg") + "\n")
	}
	if m.record != nil {
		b.WriteString(dimStyle.Render(t.Created+": "+humanize.Time(m.record.CreatedAt())) + "\n")
	}
	if m.player == nil {
		return b.String()
	}

	tr := m.player.Snapshot()
	state := t.Play
	if tr.Status == player.Playing {
		state = t.Pause
	}
	controls := fmt.Sprintf("%s %s / %s\n%s\n%s: %.0f%%",
		m.bar.ViewAs(tr.Fraction()),
		player.FormatTime(tr.Position), player.FormatTime(tr.Duration),
		state,
		t.Volume, tr.Volume*100)
	b.WriteString(boxStyle.Render(controls) + "\n")
	b.WriteString(helpStyle.Render("space play/pause · s stop · ←/→ 10s · +/- volume · q quit"))
	return b.String()
}
