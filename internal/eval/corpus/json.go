package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// jsonEdition is the on-disk shape of a JSON edition file.
type jsonEdition struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Chapters []jsonChapter `json:"chapters"`
}

type jsonChapter struct {
	Number int      `json:"number,omitempty"`
	Title  string   `json:"title,omitempty"`
	Lines  []string `json:"lines,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// LoadJSON reads a JSON edition file. Chapters without a number take their
// 1-based position; numbers that are skipped are missing chapters, and a
// number used twice is an error. A chapter may give its content as lines or
// as a single text block.
func LoadJSON(path string) (Edition, error) {
	file, err := os.Open(path)
	if err != nil {
		return Edition{}, fmt.Errorf("failed to open JSON edition: %w", err)
	}
	defer file.Close()

	var doc jsonEdition
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return Edition{}, fmt.Errorf("failed to decode JSON edition %s: %w", path, err)
	}

	chapters := NewChapters(nil)
	seen := make(map[int]int, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		number := ch.Number
		if number == 0 {
			number = i + 1
		}
		if first, dup := seen[number]; dup {
			return Edition{}, fmt.Errorf("chapter %d appears twice in JSON edition %s (entries %d and %d)", number, path, first+1, i+1)
		}
		seen[number] = i
		lines := ch.Lines
		if len(lines) == 0 && ch.Text != "" {
			lines = normalizeLines(ch.Text)
		}
		trimmed := make([]string, 0, len(lines))
		for _, line := range lines {
			trimmed = append(trimmed, strings.TrimSpace(line))
		}
		chapters.Set(number, trimmed)
	}

	return Edition{
		ID:     doc.ID,
		Title:  doc.Title,
		Format: FormatJSON,
		Path:   path,
		Source: chapters,
	}, nil
}
