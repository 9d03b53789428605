// Package reading drives a family scripture reading session: narrated
// scripture with verse highlighting, then one discussion question per
// family member.
package reading

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/versecast/highlight"
	"github.com/dgnsrekt/versecast/internal/audioplayer"
	"github.com/dgnsrekt/versecast/internal/questions"
	"github.com/dgnsrekt/versecast/narration"
	"github.com/dgnsrekt/versecast/verse"
)

// ErrAudioNotReady is returned when playback is requested before the
// narration finished loading.
var ErrAudioNotReady = errors.New("reading: audio is still loading")

// User-facing notices surfaced through Notice.
const (
	noticeAudioLoading   = "Audio is still loading, please wait..."
	noticePlaybackFailed = "Audio playback failed"
	noticeSaveFailed     = "Failed to save progress"
	noticeSaved          = "Great job! See you tomorrow!"
)

// CompletedSession is the record written when a family finishes a reading.
type CompletedSession struct {
	Book          string               `json:"book"`
	Chapter       int                  `json:"chapter"`
	Reference     string               `json:"reference"`
	ScriptureText string               `json:"scripture_text"`
	Questions     []questions.Question `json:"questions"`
	CompletedAt   time.Time            `json:"completed_at"`
}

// SessionLogger persists completed sessions.
type SessionLogger interface {
	Record(ctx context.Context, session CompletedSession) error
}

// Session owns one reading from loading through completion. All methods are
// safe for concurrent use; player callbacks arrive on the player's
// goroutine and are serialized through the session lock.
type Session struct {
	mu      sync.Mutex
	machine *StateMachine
	player  audioplayer.Player
	logger  SessionLogger

	book    string
	chapter int
	voice   string

	family []questions.FamilyMember

	reference string
	passage   string
	verses    []verse.Verse
	questions []questions.Question

	scripture   *narration.Narration
	highlighter highlight.Highlighter

	questionIndex int
	answered      map[int]bool

	isPlaying bool
	completed bool
	notice    string
}

// NewSession creates a session in the loading state. Content and narration
// arrive later through Load or the attach methods.
func NewSession(player audioplayer.Player, logger SessionLogger, book string, chapter int, voice string) *Session {
	s := &Session{
		machine:  NewStateMachine(),
		player:   player,
		logger:   logger,
		book:     book,
		chapter:  chapter,
		voice:    voice,
		answered: make(map[int]bool),
	}

	s.machine.OnExit(StatePlayingScripture, s.playbackEnded)
	s.machine.OnExit(StatePlayingQuestion, s.playbackEnded)

	player.SetOnFinished(s.handleFinished)
	player.SetOnError(s.handlePlaybackError)

	return s
}

// playbackEnded runs while the session lock is held, on every exit from a
// playing state. The player is stopped if the exit was not a natural end,
// so no clip keeps sounding across a state change.
func (s *Session) playbackEnded() {
	if s.player.IsPlaying() {
		_ = s.player.Stop()
	}
	s.isPlaying = false
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Reference returns the human-readable passage reference.
func (s *Session) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// Verses returns the segmented passage.
func (s *Session) Verses() []verse.Verse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verses
}

// Questions returns the generated discussion questions.
func (s *Session) Questions() []questions.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// QuestionIndex returns the index of the question currently up.
func (s *Session) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionIndex
}

// IsPlaying reports whether narration audio is actively playing.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPlaying
}

// NarrationReady reports whether scripture narration has loaded.
func (s *Session) NarrationReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scripture != nil
}

// Notice returns and clears the pending user-facing message.
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

// attachContent installs fetched passage content and questions, moving the
// session from loading to ready.
func (s *Session) attachContent(reference, passageText string, verses []verse.Verse, qs []questions.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reference = reference
	s.passage = passageText
	s.verses = verses
	s.questions = qs
	s.machine.Transition(StateReady)
}

// attachNarration installs the preloaded scripture narration. Playback
// requests made before this call are rejected with ErrAudioNotReady.
func (s *Session) attachNarration(n *narration.Narration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripture = n
}

// PlayScripture starts scripture narration from the beginning.
func (s *Session) PlayScripture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scripture == nil {
		s.notice = noticeAudioLoading
		return ErrAudioNotReady
	}

	if !s.machine.Transition(StatePlayingScripture) {
		return errors.New("reading: cannot play scripture while " + s.machine.Current().String())
	}

	if err := s.player.Play(s.scripture.Audio); err != nil {
		s.machine.Transition(StateReady)
		s.notice = noticePlaybackFailed
		return err
	}

	s.highlighter = highlight.ForTiming(s.scripture.Timing, s.verses, s.player.Duration())
	s.isPlaying = true
	return nil
}

// PlayQuestion narrates the question currently up. The narration is loaded
// through the cache-backed loader on first play.
func (s *Session) PlayQuestion(ctx context.Context, loader NarrationLoader) error {
	s.mu.Lock()
	if s.machine.Current() != StateScriptureComplete {
		current := s.machine.Current()
		s.mu.Unlock()
		return errors.New("reading: cannot play question while " + current.String())
	}
	if s.questionIndex >= len(s.questions) {
		s.mu.Unlock()
		return errors.New("reading: no question remaining")
	}
	q := s.questions[s.questionIndex]
	voice := s.voice
	s.mu.Unlock()

	// Loading may hit the network, so the lock is released around it.
	text := "Question for " + q.Name + ". " + q.Question
	n, err := loader.Load(ctx, text, voice)
	if err != nil {
		s.mu.Lock()
		s.notice = noticePlaybackFailed
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Transition(StatePlayingQuestion) {
		return errors.New("reading: cannot play question while " + s.machine.Current().String())
	}
	if err := s.player.Play(n.Audio); err != nil {
		s.machine.Transition(StateScriptureComplete)
		s.notice = noticePlaybackFailed
		return err
	}

	s.isPlaying = true
	return nil
}

// Pause suspends playback without changing session state.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.player.Pause(); err != nil {
		return err
	}
	s.isPlaying = false
	return nil
}

// Resume continues paused playback.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.player.Resume(); err != nil {
		return err
	}
	s.isPlaying = true
	return nil
}

// handleFinished runs when the player reaches the natural end of a clip.
func (s *Session) handleFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.machine.Current() {
	case StatePlayingScripture:
		s.highlighter = nil
		s.machine.Transition(StateScriptureComplete)

	case StatePlayingQuestion:
		if s.questionIndex < len(s.questions)-1 {
			s.questionIndex++
			s.machine.Transition(StateScriptureComplete)
		} else {
			s.machine.Transition(StateAllComplete)
		}
	}
}

// handlePlaybackError runs on a mid-clip device failure. Playback flags and
// highlighting reset but the session state is left alone so the family can
// retry from where they were.
func (s *Session) handlePlaybackError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Error("playback failed", "error", err)
	s.isPlaying = false
	s.highlighter = nil
	s.notice = noticePlaybackFailed
}

// CurrentVerse returns the zero-based index of the verse being narrated,
// or highlight.NoVerse when nothing is highlighted.
func (s *Session) CurrentVerse() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Current() != StatePlayingScripture || s.highlighter == nil {
		return highlight.NoVerse
	}
	return s.highlighter.VerseAt(s.player.Position())
}

// ToggleAnswered flips the answered mark on a question.
func (s *Session) ToggleAnswered(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.questions) {
		return
	}
	if s.answered[index] {
		delete(s.answered, index)
	} else {
		s.answered[index] = true
	}
}

// Answered reports whether a question has been marked answered.
func (s *Session) Answered(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered[index]
}

// Complete records the finished session. The record is written at most
// once; a logging failure is surfaced as a notice and the session stays
// completable so the family can retry.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return nil
	}
	record := CompletedSession{
		Book:          s.book,
		Chapter:       s.chapter,
		Reference:     s.reference,
		ScriptureText: s.passage,
		Questions:     s.questions,
		CompletedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()

	if err := s.logger.Record(ctx, record); err != nil {
		log.Error("recording session failed", "error", err)
		s.mu.Lock()
		s.notice = noticeSaveFailed
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.completed = true
	s.notice = noticeSaved
	s.mu.Unlock()
	return nil
}
