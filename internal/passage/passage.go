// Package passage fetches scripture text from the API.Bible REST service.
package passage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const (
	baseURL = "https://rest.api.bible/v1"

	// DefaultTranslation is the King James Version on API.Bible.
	DefaultTranslation = "de4e12af7f28f599-02"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("passage: API.Bible key not configured")

// bookIDs maps common book names to API.Bible book identifiers. Unknown
// names pass through unchanged so callers can use raw IDs directly.
var bookIDs = map[string]string{
	"Genesis":     "GEN",
	"Proverbs":    "PRO",
	"Psalms":      "PSA",
	"John":        "JHN",
	"James":       "JAS",
	"Philippians": "PHP",
	"1 Peter":     "1PE",
	"Mark":        "MRK",
	"Ephesians":   "EPH",
	"Colossians":  "COL",
}

// Passage is one fetched chapter. Content is the raw markup returned by the
// service and still needs cleaning before synthesis or display.
type Passage struct {
	Book        string
	Chapter     int
	Translation string
	Content     string
	Reference   string
}

// Provider fetches passages over HTTP.
type Provider struct {
	apiKey      string
	translation string
	client      *http.Client
	base        string
}

// Option configures a Provider.
type Option func(*Provider)

// WithTranslation selects a bible identifier other than the default KJV.
func WithTranslation(id string) Option {
	return func(p *Provider) {
		if id != "" {
			p.translation = id
		}
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithBaseURL points the provider at a different endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.base = u }
}

func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	p := &Provider{
		apiKey:      apiKey,
		translation: DefaultTranslation,
		client:      &http.Client{Timeout: 30 * time.Second},
		base:        baseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// BookID resolves a human book name to its API.Bible identifier.
func BookID(book string) string {
	if id, ok := bookIDs[book]; ok {
		return id
	}
	return book
}

// Fetch retrieves a whole chapter.
func (p *Provider) Fetch(ctx context.Context, book string, chapter int) (*Passage, error) {
	passageID := fmt.Sprintf("%s.%d", BookID(book), chapter)
	url := fmt.Sprintf("%s/bibles/%s/passages/%s", p.base, p.translation, passageID)

	log.Debug("fetching passage", "passage", passageID, "translation", p.translation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("passage: build request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("passage: fetch %s: %w", passageID, err)
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return nil, fmt.Errorf("passage: fetch %s: status %d: %s", passageID, res.StatusCode, body)
	}

	var payload struct {
		Data struct {
			Content   string `json:"content"`
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("passage: decode response: %w", err)
	}

	return &Passage{
		Book:        book,
		Chapter:     chapter,
		Translation: p.translation,
		Content:     payload.Data.Content,
		Reference:   payload.Data.Reference,
	}, nil
}
