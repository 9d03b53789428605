// Package ui renders the reading session as a terminal program: scripture
// with live verse highlighting, then discussion questions per family
// member.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/versecast/reading"
)

// Position polling drives highlight updates while audio plays.
const tickInterval = 250 * time.Millisecond

type pane int

const (
	scripturePane pane = iota
	questionsPane
)

// Config carries what the UI needs beyond the session itself.
type Config struct {
	Provider  reading.PassageProvider
	Generator reading.QuestionGenerator
	Loader    reading.NarrationLoader
}

type (
	tickMsg          time.Time
	contentLoadedMsg struct{}
	loadFailedMsg    struct{ err error }
	actionFailedMsg  struct{ err error }
)

// Model is the bubbletea model for one reading session.
type Model struct {
	session *reading.Session
	cfg     Config

	spinner spinner.Model
	pane    pane
	width   int
	height  int

	notice    string
	noticeSet time.Time
	loadErr   error
	quitting  bool
}

// NewModel builds the model for a session still in the loading state.
func NewModel(session *reading.Session, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		session: session,
		cfg:     cfg,
		spinner: sp,
		pane:    scripturePane,
	}
}

// NewProgram wraps the model in a tea program.
func NewProgram(session *reading.Session, cfg Config) *tea.Program {
	return tea.NewProgram(NewModel(session, cfg), tea.WithAltScreen())
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadContent(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadContent() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Load(context.Background(), m.cfg.Provider, m.cfg.Generator, m.cfg.Loader)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return contentLoadedMsg{}
	}
}

func (m Model) playQuestion() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.PlayQuestion(context.Background(), m.cfg.Loader); err != nil {
			return actionFailedMsg{err: err}
		}
		return nil
	}
}

func (m Model) complete() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Complete(context.Background()); err != nil {
			return actionFailedMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if n := m.session.Notice(); n != "" {
			m.notice = n
			m.noticeSet = time.Time(msg)
		}
		// Notices fade after a few seconds.
		if m.notice != "" && time.Time(msg).Sub(m.noticeSet) > 4*time.Second {
			m.notice = ""
		}
		return m, tick()

	case contentLoadedMsg:
		return m, nil

	case loadFailedMsg:
		log.Error("loading reading failed", "error", msg.err)
		m.loadErr = msg.err
		return m, nil

	case actionFailedMsg:
		// The session already posted a user-facing notice; the next tick
		// picks it up.
		log.Debug("session action failed", "error", msg.err)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.pane == scripturePane {
			m.pane = questionsPane
		} else {
			m.pane = scripturePane
		}
		return m, nil

	case " ", "p":
		return m, m.togglePlayback()

	case "n":
		if m.session.State() == reading.StateScriptureComplete {
			return m, m.playQuestion()
		}
		return m, nil

	case "c":
		if m.session.State() == reading.StateAllComplete || m.pane == questionsPane {
			return m, m.complete()
		}
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.pane == questionsPane {
			m.session.ToggleAnswered(int(msg.String()[0] - '1'))
		}
		return m, nil
	}

	return m, nil
}

func (m Model) togglePlayback() tea.Cmd {
	if m.session.IsPlaying() {
		return func() tea.Msg {
			if err := m.session.Pause(); err != nil {
				return actionFailedMsg{err: err}
			}
			return nil
		}
	}

	state := m.session.State()
	if state == reading.StatePlayingScripture || state == reading.StatePlayingQuestion {
		return func() tea.Msg {
			if err := m.session.Resume(); err != nil {
				return actionFailedMsg{err: err}
			}
			return nil
		}
	}

	return func() tea.Msg {
		if err := m.session.PlayScripture(); err != nil {
			return actionFailedMsg{err: err}
		}
		return nil
	}
}
