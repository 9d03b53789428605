package reading

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/versecast/internal/passage"
	"github.com/dgnsrekt/versecast/internal/questions"
	"github.com/dgnsrekt/versecast/narration"
	"github.com/dgnsrekt/versecast/verse"
)

// PassageProvider fetches scripture text.
type PassageProvider interface {
	Fetch(ctx context.Context, book string, chapter int) (*passage.Passage, error)
}

// QuestionGenerator produces discussion questions for a passage.
type QuestionGenerator interface {
	Generate(ctx context.Context, passageText, reference string, members []questions.FamilyMember) ([]questions.Question, error)
}

// NarrationLoader resolves text to cached or freshly synthesized narration.
type NarrationLoader interface {
	Load(ctx context.Context, text, voice string) (*narration.Narration, error)
}

// Load fetches the passage, generates questions, and moves the session to
// ready. Scripture narration is preloaded in the background so the session
// becomes interactive before synthesis finishes; PlayScripture rejects with
// ErrAudioNotReady until the preload lands.
func (s *Session) Load(ctx context.Context, provider PassageProvider, generator QuestionGenerator, loader NarrationLoader) error {
	p, err := provider.Fetch(ctx, s.book, s.chapter)
	if err != nil {
		return fmt.Errorf("reading: fetch passage: %w", err)
	}

	cleaned := verse.CleanContent(p.Content)
	verses := verse.Segment(cleaned)

	qs, err := generator.Generate(ctx, cleaned, p.Reference, s.members())
	if err != nil {
		return fmt.Errorf("reading: generate questions: %w", err)
	}

	s.attachContent(p.Reference, cleaned, verses, qs)

	go s.preloadNarration(ctx, loader, p.Reference, cleaned)

	return nil
}

// SetFamily sets the members questions are generated for. It must be called
// before Load.
func (s *Session) SetFamily(members []questions.FamilyMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.family = members
}

func (s *Session) members() []questions.FamilyMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.family
}

// preloadNarration synthesizes or fetches the scripture narration. The
// narrated text leads with the reference so listeners hear where they are.
func (s *Session) preloadNarration(ctx context.Context, loader NarrationLoader, reference, passageText string) {
	text := reference + ". " + passageText

	n, err := loader.Load(ctx, text, s.voice)
	if err != nil {
		// Playback requests keep rejecting with ErrAudioNotReady, which is
		// how the failure surfaces to the family.
		log.Error("narration preload failed", "error", err)
		return
	}

	log.Debug("scripture narration ready", "source", n.Source, "bytes", len(n.Audio))
	s.attachNarration(n)
}
