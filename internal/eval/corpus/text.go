package corpus

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var chapterHeadingPattern = regexp.MustCompile(`(?i)^\s*(chapter|ch\.)\s+([0-9]+|[ivxlcdm]+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety|hundred)\b`)

// Headings longer than this are prose that happens to start with "Chapter".
const maxHeadingLength = 80

// LoadText reads a plain-text edition.
func LoadText(path string) (*Chapters, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text edition: %w", err)
	}
	return SplitChapters(string(raw)), nil
}

// SplitChapters splits text on chapter headings. Chapters are numbered by
// position. Text before the first heading is front matter and dropped. Text
// with no headings at all becomes chapter 1.
func SplitChapters(text string) *Chapters {
	lines := normalizeLines(text)
	chapters := NewChapters(nil)

	current := 0
	sawHeading := false
	var pending []string
	flush := func() {
		if current > 0 {
			chapters.Set(current, pending)
		}
		pending = nil
	}

	for _, line := range lines {
		if IsChapterHeading(line) {
			flush()
			current++
			sawHeading = true
			continue
		}
		pending = append(pending, line)
	}

	if !sawHeading {
		chapters.Set(1, pending)
		return chapters
	}
	flush()
	return chapters
}

// IsChapterHeading reports whether line opens a new chapter.
func IsChapterHeading(line string) bool {
	line = strings.TrimSpace(line)
	return len(line) <= maxHeadingLength && chapterHeadingPattern.MatchString(line)
}

func normalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
