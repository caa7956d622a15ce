// Package corpus loads editions of a work and exposes each one as a chapter
// source: a 1-based sequence of chapters, each a list of text lines.
//
// Supported inputs are plain text, JSON, JSONL and Parquet row files, TEI XML
// and PDF. Every format is resolved to a Chapters value at load time so the
// consensus code only ever sees the Source interface.
package corpus

import (
	"errors"
)

// ErrUnsupportedFormat is returned for files whose format cannot be detected.
var ErrUnsupportedFormat = errors.New("unsupported edition format")

// Source is the chapter-level view of one edition.
type Source interface {
	// ChapterCount is the number of chapters the edition reports.
	ChapterCount() int
	// HasChapter reports whether chapter n exists and is non-empty.
	HasChapter(n int) bool
	// Chapter returns the lines of chapter n; empty when absent.
	Chapter(n int) []string
}

// Edition is one digitised instance of the work.
type Edition struct {
	ID     string
	Title  string
	Format string
	Path   string
	Source Source
}

// Chapters is an in-memory Source keyed by chapter number. Gaps in the
// numbering are missing chapters.
type Chapters struct {
	byNumber map[int][]string
	count    int
}

// NewChapters builds a source from chapters numbered 1..len(chapters).
// A nil or empty entry is a missing chapter.
func NewChapters(chapters [][]string) *Chapters {
	c := &Chapters{byNumber: make(map[int][]string, len(chapters))}
	for i, lines := range chapters {
		c.Set(i+1, lines)
	}
	return c
}

// Set stores the lines for chapter n, replacing any earlier content.
func (c *Chapters) Set(n int, lines []string) {
	if n < 1 {
		return
	}
	if c.byNumber == nil {
		c.byNumber = make(map[int][]string)
	}
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > 0 {
		c.byNumber[n] = kept
		if n > c.count {
			c.count = n
		}
		return
	}

	delete(c.byNumber, n)
	if n == c.count {
		c.count = 0
		for number := range c.byNumber {
			if number > c.count {
				c.count = number
			}
		}
	}
}

// ChapterCount is the highest chapter number holding content.
func (c *Chapters) ChapterCount() int {
	return c.count
}

// HasChapter reports whether chapter n holds any lines.
func (c *Chapters) HasChapter(n int) bool {
	return len(c.byNumber[n]) > 0
}

// Chapter returns the lines of chapter n.
func (c *Chapters) Chapter(n int) []string {
	return c.byNumber[n]
}

// Present lists the chapter numbers that hold content, ascending.
func Present(src Source) []int {
	var out []int
	for n := 1; n <= src.ChapterCount(); n++ {
		if src.HasChapter(n) {
			out = append(out, n)
		}
	}
	return out
}
