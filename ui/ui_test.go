package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/versecast/internal/audioplayer"
	"github.com/dgnsrekt/versecast/internal/passage"
	"github.com/dgnsrekt/versecast/internal/questions"
	"github.com/dgnsrekt/versecast/narration"
	"github.com/dgnsrekt/versecast/reading"
)

type stubProvider struct{}

func (stubProvider) Fetch(_ context.Context, book string, chapter int) (*passage.Passage, error) {
	return &passage.Passage{
		Book:      book,
		Chapter:   chapter,
		Content:   "[1] In the beginning God created. [2] And God said, Let there be light.",
		Reference: "Genesis 1",
	}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _, _ string, members []questions.FamilyMember) ([]questions.Question, error) {
	qs := make([]questions.Question, len(members))
	for i, m := range members {
		qs[i] = questions.Question{Name: m.Name, Age: m.Age, Question: "What did you hear?"}
	}
	return qs, nil
}

type stubLoader struct{}

func (stubLoader) Load(_ context.Context, text, voice string) (*narration.Narration, error) {
	return &narration.Narration{Audio: []byte("mp3:" + text), Voice: voice, Source: "local"}, nil
}

type stubLogger struct{ records int }

func (l *stubLogger) Record(context.Context, reading.CompletedSession) error {
	l.records++
	return nil
}

func loadedModel(t *testing.T) (Model, *audioplayer.MockPlayer, *reading.Session) {
	t.Helper()

	player := audioplayer.NewMockPlayer()
	player.FixedDuration = 10
	session := reading.NewSession(player, &stubLogger{}, "Genesis", 1, "alloy")
	session.SetFamily([]questions.FamilyMember{{Name: "Noah", Age: 6}})

	cfg := Config{Provider: stubProvider{}, Generator: stubGenerator{}, Loader: stubLoader{}}
	if err := session.Load(context.Background(), cfg.Provider, cfg.Generator, cfg.Loader); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// The background preload is fast with a stub loader; wait for it so key
	// handling is deterministic.
	deadline := time.Now().Add(2 * time.Second)
	for !session.NarrationReady() {
		if time.Now().After(deadline) {
			t.Fatal("narration never preloaded")
		}
		time.Sleep(time.Millisecond)
	}

	return NewModel(session, cfg), player, session
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewWhileLoading(t *testing.T) {
	player := audioplayer.NewMockPlayer()
	session := reading.NewSession(player, &stubLogger{}, "Genesis", 1, "alloy")
	m := NewModel(session, Config{})

	view := m.View()
	if !strings.Contains(view, "Loading today's reading") {
		t.Errorf("loading view = %q", view)
	}
}

func TestViewShowsReferenceAndVerses(t *testing.T) {
	m, _, _ := loadedModel(t)

	view := m.View()
	if !strings.Contains(view, "Genesis 1") {
		t.Error("view missing reference")
	}
	if !strings.Contains(view, "In the beginning") {
		t.Error("view missing scripture text")
	}
}

func TestSpaceStartsScripture(t *testing.T) {
	m, player, session := loadedModel(t)

	_, cmd := m.Update(keyMsg(" "))
	if cmd == nil {
		t.Fatal("space should produce a command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("playback command failed: %#v", msg)
	}

	if session.State() != reading.StatePlayingScripture {
		t.Errorf("state = %v, want playing-scripture", session.State())
	}
	if player.PlayCalls() != 1 {
		t.Errorf("player Play calls = %d, want 1", player.PlayCalls())
	}
}

func TestSpaceTogglesPause(t *testing.T) {
	m, player, session := loadedModel(t)

	if msg := m.togglePlayback()(); msg != nil {
		t.Fatalf("play failed: %#v", msg)
	}
	if msg := m.togglePlayback()(); msg != nil {
		t.Fatalf("pause failed: %#v", msg)
	}
	if session.IsPlaying() {
		t.Error("session should be paused")
	}
	if msg := m.togglePlayback()(); msg != nil {
		t.Fatalf("resume failed: %#v", msg)
	}
	if !session.IsPlaying() {
		t.Error("session should be playing again")
	}
	if player.PauseCalls() != 1 || player.ResumeCalls() != 1 {
		t.Errorf("pause/resume calls = %d/%d", player.PauseCalls(), player.ResumeCalls())
	}
}

func TestTabSwitchesPane(t *testing.T) {
	m, _, _ := loadedModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.pane != questionsPane {
		t.Fatalf("pane = %v, want questions", m.pane)
	}

	view := m.View()
	if !strings.Contains(view, "Noah") || !strings.Contains(view, "What did you hear?") {
		t.Errorf("questions view missing content: %q", view)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.pane != scripturePane {
		t.Errorf("pane = %v, want scripture", m.pane)
	}
}

func TestNumberTogglesAnswered(t *testing.T) {
	m, _, session := loadedModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)

	m.Update(keyMsg("1"))
	if !session.Answered(0) {
		t.Error("question 1 should be marked answered")
	}
}

func TestNoticeAppearsOnTick(t *testing.T) {
	player := audioplayer.NewMockPlayer()
	session := reading.NewSession(player, &stubLogger{}, "Genesis", 1, "alloy")
	m := NewModel(session, Config{Loader: stubLoader{}})

	// Playing before the narration loads posts a notice on the session.
	if err := session.PlayScripture(); err == nil {
		t.Fatal("expected ErrAudioNotReady")
	}

	updated, _ := m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if !strings.Contains(m.notice, "still loading") {
		t.Errorf("notice = %q, want audio-loading notice", m.notice)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := loadedModel(t)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if msg := cmd(); msg == nil {
		t.Error("quit command returned nil msg")
	}
}
