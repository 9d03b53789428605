package sessionlog

import (
	"context"
	"testing"
	"time"

	"github.com/dgnsrekt/versecast/internal/questions"
	"github.com/dgnsrekt/versecast/reading"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error: %v", err)
	}
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func sessionAt(when time.Time, chapter int) reading.CompletedSession {
	return reading.CompletedSession{
		Book:          "Genesis",
		Chapter:       chapter,
		Reference:     "Genesis 1",
		ScriptureText: "[1] In the beginning",
		Questions: []questions.Question{
			{Name: "Noah", Age: 6, Question: "What did God make?"},
		},
		CompletedAt: when,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		if err := s.Record(ctx, sessionAt(base.AddDate(0, 0, i), i)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d sessions, want 3", len(got))
	}

	// Newest first.
	for i, wantChapter := range []int{3, 2, 1} {
		if got[i].Chapter != wantChapter {
			t.Errorf("session %d chapter = %d, want %d", i, got[i].Chapter, wantChapter)
		}
	}

	first := got[0]
	if first.Book != "Genesis" || first.Reference != "Genesis 1" {
		t.Errorf("session header = %s %q", first.Book, first.Reference)
	}
	if len(first.Questions) != 1 || first.Questions[0].Name != "Noah" {
		t.Errorf("session questions = %#v", first.Questions)
	}
}

func TestRecentLimits(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		if err := s.Record(ctx, sessionAt(base.AddDate(0, 0, i), i)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent(2) error: %v", err)
	}
	if len(got) != 2 || got[0].Chapter != 5 || got[1].Chapter != 4 {
		t.Errorf("Recent(2) = chapters %v", []int{got[0].Chapter, got[1].Chapter})
	}

	if got, err := s.Recent(0); err != nil || got != nil {
		t.Errorf("Recent(0) = %v, %v, want nil, nil", got, err)
	}
}

func TestCount(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if n, err := s.Count(); err != nil || n != 0 {
		t.Fatalf("Count() on empty store = %d, %v", n, err)
	}

	base := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		if err := s.Record(ctx, sessionAt(base.AddDate(0, 0, i), i)); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	if n, err := s.Count(); err != nil || n != 4 {
		t.Errorf("Count() = %d, %v, want 4", n, err)
	}
}

func TestRecordHonorsContext(t *testing.T) {
	s := openStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Record(ctx, sessionAt(time.Now(), 1)); err == nil {
		t.Error("Record with canceled context should fail")
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Record(context.Background(), sessionAt(time.Now().UTC(), 7)); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close() //nolint:errcheck

	got, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 1 || got[0].Chapter != 7 {
		t.Errorf("after reopen Recent() = %#v", got)
	}
}
