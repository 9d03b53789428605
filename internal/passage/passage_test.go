package passage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBookID(t *testing.T) {
	tests := []struct {
		book string
		want string
	}{
		{"Genesis", "GEN"},
		{"1 Peter", "1PE"},
		{"Philippians", "PHP"},
		{"REV", "REV"},
		{"Obadiah", "Obadiah"},
	}

	for _, tt := range tests {
		if got := BookID(tt.book); got != tt.want {
			t.Errorf("BookID(%q) = %q, want %q", tt.book, got, tt.want)
		}
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := NewProvider(""); err != ErrNotConfigured {
		t.Errorf("NewProvider(\"\") error = %v, want ErrNotConfigured", err)
	}
}

func TestFetch(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"content":"<p>[1] In the beginning</p>","reference":"Genesis 1"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewProvider() error: %v", err)
	}

	got, err := p.Fetch(context.Background(), "Genesis", 1)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if gotPath != "/bibles/"+DefaultTranslation+"/passages/GEN.1" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api-key header = %q, want test-key", gotKey)
	}
	if got.Content != "<p>[1] In the beginning</p>" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Reference != "Genesis 1" {
		t.Errorf("Reference = %q, want Genesis 1", got.Reference)
	}
	if got.Book != "Genesis" || got.Chapter != 1 {
		t.Errorf("Book/Chapter = %q/%d", got.Book, got.Chapter)
	}
}

func TestFetchCustomTranslation(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":{"content":"x","reference":"y"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p, err := NewProvider("k", WithBaseURL(srv.URL), WithTranslation("other-bible-id"))
	if err != nil {
		t.Fatalf("NewProvider() error: %v", err)
	}
	if _, err := p.Fetch(context.Background(), "John", 3); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotPath != "/bibles/other-bible-id/passages/JHN.3" {
		t.Errorf("request path = %q", gotPath)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := NewProvider("k", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewProvider() error: %v", err)
	}
	if _, err := p.Fetch(context.Background(), "Genesis", 99); err == nil {
		t.Error("expected error for non-200 upstream response")
	}
}
