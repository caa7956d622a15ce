// Package units turns chapter text into the sentence and word frequency
// multisets the consensus builder compares across editions.
package units

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Frequencies maps a unit (sentence or cleaned word) to its occurrence count.
type Frequencies map[string]int

// Total is the number of unit occurrences.
func (f Frequencies) Total() int {
	n := 0
	for _, count := range f {
		n += count
	}
	return n
}

// Extractor segments text into sentences and cleaned words.
type Extractor interface {
	Sentences(text string) (Frequencies, error)
	Words(text string) (Frequencies, error)
}

var (
	// A sentence runs up to terminal punctuation plus any closing quotes or
	// brackets. A trailing fragment without a terminator is kept as a sentence.
	sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+["'”’)\]]*|[^.!?]+$`)
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’]*`)
	hyphenBreak     = regexp.MustCompile(`(\p{L})-\s*\n\s*(\p{Ll})`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Default is the built-in extractor: regex segmentation over NFC-normalised
// text. It is stateless and safe for concurrent use.
type Default struct{}

// NewDefault creates the built-in extractor.
func NewDefault() *Default {
	return &Default{}
}

// JoinLines joins chapter lines into one text, re-joining words that OCR split
// across a line break with a hyphen.
func JoinLines(lines []string) string {
	text := strings.Join(lines, "\n")
	return hyphenBreak.ReplaceAllString(text, "$1$2")
}

// Sentences returns sentence frequencies. Sentences keep their case and inner
// punctuation; whitespace is collapsed.
func (d *Default) Sentences(text string) (Frequencies, error) {
	clean, err := prepare(text)
	if err != nil {
		return nil, err
	}

	out := make(Frequencies)
	for _, match := range sentencePattern.FindAllString(clean, -1) {
		sentence := strings.TrimSpace(match)
		if !hasWordRune(sentence) {
			continue
		}
		out[sentence]++
	}
	return out, nil
}

// Words returns lower-cased word frequencies with edge apostrophes stripped.
// Punctuation-only tokens never match.
func (d *Default) Words(text string) (Frequencies, error) {
	clean, err := prepare(text)
	if err != nil {
		return nil, err
	}

	// Casers carry state, so each call gets its own.
	lower := cases.Lower(language.Und)
	out := make(Frequencies)
	for _, match := range wordPattern.FindAllString(clean, -1) {
		word := strings.TrimRight(lower.String(match), "'’")
		if word == "" {
			continue
		}
		out[word]++
	}
	return out, nil
}

func prepare(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	text = norm.NFC.String(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " ")), nil
}

func hasWordRune(s string) bool {
	return wordPattern.MatchString(s)
}
