package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ChapterRow is one (edition, chapter) row of a multi-edition corpus file.
type ChapterRow struct {
	Edition string `json:"edition" parquet:"edition"`
	Title   string `json:"title,omitempty" parquet:"title,optional"`
	Chapter int    `json:"chapter" parquet:"chapter"`
	Text    string `json:"text" parquet:"text"`
}

// RowLoader reads corpora stored as chapter rows in JSONL or Parquet.
type RowLoader struct {
	path string
}

// NewRowLoader creates a loader for a .jsonl or .parquet corpus file.
func NewRowLoader(path string) *RowLoader {
	return &RowLoader{path: path}
}

// Load reads every row and groups them into editions, ordered by first
// appearance. Rows for the same edition and chapter are concatenated.
func (l *RowLoader) Load() ([]Edition, error) {
	var rows []ChapterRow
	var err error

	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".parquet":
		rows, err = l.loadParquet()
	case ".jsonl":
		rows, err = l.loadJSONL()
	default:
		return nil, fmt.Errorf("%w: %s (row corpora must be .parquet or .jsonl)", ErrUnsupportedFormat, l.path)
	}
	if err != nil {
		return nil, err
	}

	format := FormatJSONL
	if strings.EqualFold(filepath.Ext(l.path), ".parquet") {
		format = FormatParquet
	}
	return groupRows(rows, l.path, format)
}

func groupRows(rows []ChapterRow, path, format string) ([]Edition, error) {
	type pending struct {
		edition Edition
		text    map[int][]string
	}
	byID := make(map[string]*pending)
	var order []string

	for i, row := range rows {
		id := strings.TrimSpace(row.Edition)
		if id == "" {
			return nil, fmt.Errorf("row %d in %s has no edition", i+1, path)
		}
		if row.Chapter < 1 {
			return nil, fmt.Errorf("row %d in %s has invalid chapter %d", i+1, path, row.Chapter)
		}
		p, ok := byID[id]
		if !ok {
			p = &pending{
				edition: Edition{ID: id, Title: row.Title, Format: format, Path: path},
				text:    make(map[int][]string),
			}
			byID[id] = p
			order = append(order, id)
		}
		p.text[row.Chapter] = append(p.text[row.Chapter], normalizeLines(row.Text)...)
	}

	editions := make([]Edition, 0, len(order))
	for _, id := range order {
		p := byID[id]
		chapters := NewChapters(nil)
		for number, lines := range p.text {
			chapters.Set(number, lines)
		}
		p.edition.Source = chapters
		editions = append(editions, p.edition)
	}
	return editions, nil
}

func (l *RowLoader) loadJSONL() ([]ChapterRow, error) {
	slog.Debug("Opening JSONL corpus", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	var rows []ChapterRow
	scanner := bufio.NewScanner(file)

	// Chapter rows can be long
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row ChapterRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading corpus: %w", err)
	}

	slog.Debug("Finished reading JSONL corpus", "rows", len(rows), "lines", lineNum)
	return rows, nil
}

func (l *RowLoader) loadParquet() ([]ChapterRow, error) {
	slog.Debug("Opening Parquet corpus", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet corpus opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ChapterRow](pf)
	defer reader.Close()

	var rows []ChapterRow
	batch := make([]ChapterRow, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet corpus", "rows", len(rows))
	return rows, nil
}

// WriteParquet writes chapter rows to a Parquet file.
func WriteParquet(path string, rows []ChapterRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[ChapterRow](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// Rows flattens editions into chapter rows, one per present chapter.
func Rows(editions []Edition) []ChapterRow {
	var rows []ChapterRow
	for _, e := range editions {
		for _, n := range Present(e.Source) {
			rows = append(rows, ChapterRow{
				Edition: e.ID,
				Title:   e.Title,
				Chapter: n,
				Text:    strings.Join(e.Source.Chapter(n), "\n"),
			})
		}
	}
	return rows
}

// WriteJSONL writes chapter rows as JSON lines.
func WriteJSONL(path string, rows []ChapterRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row for edition %s chapter %d: %w", row.Edition, row.Chapter, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}
	return nil
}
