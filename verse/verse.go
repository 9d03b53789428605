// Package verse splits cleaned passage text into ordered verse units, the
// granularity at which narration highlighting operates.
package verse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	markerRe = regexp.MustCompile(`\[(\d+)\]`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Verse is one logical unit of passage text. Text retains its leading
// number marker so that concatenating all verses reconstructs the cleaned
// passage exactly.
type Verse struct {
	// Number is the verse number parsed from the marker, or 1 when the
	// passage carries no markers at all.
	Number int

	Text string
}

// Words returns the whitespace-split word count of the verse text,
// including the marker token. The highlighter maps word ordinals to verses
// with these counts, so they must match how transcript words are counted.
func (v Verse) Words() int {
	return len(strings.Fields(v.Text))
}

// Segment splits cleaned text into verses, breaking immediately before each
// bracketed verse-number marker. Empty leading fragments are discarded.
// Text without any markers comes back as a single verse, so the result is
// never empty for non-blank input.
func Segment(cleaned string) []Verse {
	locs := markerRe.FindAllStringSubmatchIndex(cleaned, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(cleaned) == "" {
			return nil
		}
		return []Verse{{Number: 1, Text: cleaned}}
	}

	var verses []Verse

	// Anything before the first marker is a leading fragment; keep it only
	// if it has content, folding it into an unnumbered first verse.
	if lead := cleaned[:locs[0][0]]; strings.TrimSpace(lead) != "" {
		verses = append(verses, Verse{Number: 1, Text: lead})
	}

	for i, loc := range locs {
		end := len(cleaned)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		number, _ := strconv.Atoi(cleaned[loc[2]:loc[3]])
		verses = append(verses, Verse{
			Number: number,
			Text:   cleaned[loc[0]:end],
		})
	}

	return verses
}

// CleanContent strips markup tags from provider content and collapses all
// whitespace runs to single spaces, producing the canonical cleaned text
// that feeds both the segmenter and speech synthesis.
func CleanContent(markup string) string {
	text := tagRe.ReplaceAllString(markup, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Join reassembles verse texts into the full passage string.
func Join(verses []Verse) string {
	var b strings.Builder
	for _, v := range verses {
		b.WriteString(v.Text)
	}
	return b.String()
}
