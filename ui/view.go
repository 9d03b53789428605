package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/versecast/reading"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	referenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	currentVerseStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("220")).
				Foreground(lipgloss.Color("16")).
				Bold(true)

	pastVerseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	questionNameStyle = lipgloss.NewStyle().Bold(true)

	answeredStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("211")).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	docStyle = lipgloss.NewStyle().Padding(1, 2)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.loadErr != nil {
		return docStyle.Render(errStyle.Render("Could not load today's reading: " + m.loadErr.Error()))
	}
	if m.session.State() == reading.StateLoading {
		return docStyle.Render(m.spinner.View() + " Loading today's reading...")
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("Today's Reading"))
	b.WriteString("  ")
	b.WriteString(referenceStyle.Render(m.session.Reference()))
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.pane == scripturePane {
		b.WriteString(m.renderScripture())
	} else {
		b.WriteString(m.renderQuestions())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())

	return docStyle.Render(b.String())
}

func (m Model) renderTabs() string {
	scripture := "Scripture"
	questions := "Questions"
	if m.pane == scripturePane {
		scripture = activeTabStyle.Render(scripture)
		questions = dimStyle.Render(questions)
	} else {
		scripture = dimStyle.Render(scripture)
		questions = activeTabStyle.Render(questions)
	}
	return scripture + "  " + questions
}

// renderScripture shows the passage with the narrated verse highlighted and
// already-read verses tinted.
func (m Model) renderScripture() string {
	verses := m.session.Verses()
	current := m.session.CurrentVerse()

	parts := make([]string, 0, len(verses))
	for i, v := range verses {
		switch {
		case i == current:
			parts = append(parts, currentVerseStyle.Render(v.Text))
		case current >= 0 && i < current:
			parts = append(parts, pastVerseStyle.Render(v.Text))
		default:
			parts = append(parts, v.Text)
		}
	}

	text := strings.Join(parts, " ")
	width := m.width - 6
	if width < 20 {
		width = 72
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func (m Model) renderQuestions() string {
	questions := m.session.Questions()
	if len(questions) == 0 {
		return dimStyle.Render("No questions yet.")
	}

	currentIndex := m.session.QuestionIndex()
	state := m.session.State()

	var b strings.Builder
	for i, q := range questions {
		marker := "  "
		if i == currentIndex && (state == reading.StateScriptureComplete || state == reading.StatePlayingQuestion) {
			marker = "▶ "
		}

		check := "[ ]"
		if m.session.Answered(i) {
			check = "[x]"
		}

		line := fmt.Sprintf("%s%s %s (age %d)", marker, check, questionNameStyle.Render(q.Name), q.Age)
		b.WriteString(line)
		b.WriteString("\n")

		question := "    " + q.Question
		if m.session.Answered(i) {
			question = answeredStyle.Render(question)
		}
		b.WriteString(question)
		if i < len(questions)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	var status string

	switch m.session.State() {
	case reading.StateReady:
		if m.session.NarrationReady() {
			status = "▶ space: play scripture"
		} else {
			status = m.spinner.View() + " preparing narration..."
		}
	case reading.StatePlayingScripture:
		if m.session.IsPlaying() {
			status = "▶ playing scripture · space: pause"
		} else {
			status = "⏸ paused · space: resume"
		}
	case reading.StateScriptureComplete:
		status = "scripture complete · n: play question · space: replay"
	case reading.StatePlayingQuestion:
		if m.session.IsPlaying() {
			status = fmt.Sprintf("▶ question %d of %d · space: pause", m.session.QuestionIndex()+1, len(m.session.Questions()))
		} else {
			status = "⏸ paused · space: resume"
		}
	case reading.StateAllComplete:
		status = "all questions played · c: mark complete"
	}

	bar := dimStyle.Render(status + "  ·  tab: switch pane · q: quit")
	if m.notice != "" {
		bar += "  " + noticeStyle.Render(m.notice)
	}
	return bar
}
