package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestChapters(t *testing.T) {
	c := NewChapters([][]string{
		{"one"},
		nil,
		{"", "three"},
	})

	if c.ChapterCount() != 3 {
		t.Errorf("Expected ChapterCount=3, got %d", c.ChapterCount())
	}
	if !c.HasChapter(1) || c.HasChapter(2) || !c.HasChapter(3) {
		t.Errorf("Unexpected presence: 1=%v 2=%v 3=%v", c.HasChapter(1), c.HasChapter(2), c.HasChapter(3))
	}
	if got := c.Chapter(3); !reflect.DeepEqual(got, []string{"three"}) {
		t.Errorf("Expected blank lines dropped, got %v", got)
	}
	if got := c.Chapter(9); len(got) != 0 {
		t.Errorf("Expected empty chapter 9, got %v", got)
	}
	if got := Present(c); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("Expected present chapters [1 3], got %v", got)
	}

	c.Set(3, nil)
	if c.ChapterCount() != 1 {
		t.Errorf("Expected ChapterCount=1 after clearing chapter 3, got %d", c.ChapterCount())
	}
}

func TestSplitChapters(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected [][]string
	}{
		{
			name: "drops front matter",
			text: "THE ADVENTURES\nby Someone\n\nCHAPTER I\nYou don't know about me.\n\nCHAPTER II.\nWe went tiptoeing along.\nA second line.",
			expected: [][]string{
				{"You don't know about me."},
				{"We went tiptoeing along.", "A second line."},
			},
		},
		{
			name:     "no headings is one chapter",
			text:     "Just some text.\r\nMore text.",
			expected: [][]string{{"Just some text.", "More text."}},
		},
		{
			name: "roman, arabic and word numerals",
			text: "Chapter 1\na\nch. two\nb\nChapter XIV: The End\nc",
			expected: [][]string{
				{"a"}, {"b"}, {"c"},
			},
		},
		{
			name:     "long prose line is not a heading",
			text:     "Chapter one of my life began on a cold morning when the river had frozen over completely.\nNext line.",
			expected: [][]string{{"Chapter one of my life began on a cold morning when the river had frozen over completely.", "Next line."}},
		},
		{
			name:     "collapses inner whitespace",
			text:     "CHAPTER 1\n  too    many   spaces  ",
			expected: [][]string{{"too many spaces"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SplitChapters(tt.text)
			if c.ChapterCount() != len(tt.expected) {
				t.Fatalf("Expected %d chapters, got %d", len(tt.expected), c.ChapterCount())
			}
			for i, lines := range tt.expected {
				if got := c.Chapter(i + 1); !reflect.DeepEqual(got, lines) {
					t.Errorf("Chapter %d: expected %v, got %v", i+1, lines, got)
				}
			}
		})
	}
}

func TestSplitChaptersEmptyHeadingLeavesGap(t *testing.T) {
	c := SplitChapters("CHAPTER I\nfirst\nCHAPTER II\nCHAPTER III\nthird")
	if c.ChapterCount() != 3 {
		t.Fatalf("Expected ChapterCount=3, got %d", c.ChapterCount())
	}
	if c.HasChapter(2) {
		t.Error("Expected chapter 2 to be missing")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ia.json")
	content := `{
  "id": "internet-archive",
  "title": "Huckleberry Finn",
  "chapters": [
    {"number": 1, "lines": ["You don't know about me.", "  "]},
    {"number": 3, "text": "Well, I got a good going-over.\nThen..."}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	edition, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if edition.ID != "internet-archive" || edition.Title != "Huckleberry Finn" {
		t.Errorf("Unexpected edition metadata: %+v", edition)
	}
	if edition.Source.ChapterCount() != 3 {
		t.Errorf("Expected ChapterCount=3, got %d", edition.Source.ChapterCount())
	}
	if edition.Source.HasChapter(2) {
		t.Error("Expected chapter 2 to be missing")
	}
	if got := edition.Source.Chapter(3); len(got) != 2 {
		t.Errorf("Expected 2 lines in chapter 3, got %v", got)
	}
}

func TestLoadJSONDuplicateChapter(t *testing.T) {
	tests := []struct {
		name     string
		chapters string
	}{
		{
			name:     "repeated number",
			chapters: `{"number": 2, "text": "a"}, {"number": 2, "text": "b"}`,
		},
		{
			name:     "number collides with position",
			chapters: `{"text": "a"}, {"number": 1, "text": "b"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dup.json")
			content := `{"id": "dup", "chapters": [` + tt.chapters + `]}`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write fixture: %v", err)
			}
			if _, err := LoadJSON(path); err == nil {
				t.Error("Expected error for duplicate chapter, got nil")
			}
		})
	}
}

func TestRowLoaderJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")
	content := strings.Join([]string{
		`{"edition":"b","chapter":1,"text":"B one."}`,
		`{"edition":"a","chapter":2,"text":"A two."}`,
		``,
		`{"edition":"a","chapter":1,"text":"A one."}`,
		`{"edition":"a","chapter":1,"text":"A one again."}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	editions, err := NewRowLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(editions) != 2 {
		t.Fatalf("Expected 2 editions, got %d", len(editions))
	}
	if editions[0].ID != "b" || editions[1].ID != "a" {
		t.Errorf("Expected first-appearance order [b a], got [%s %s]", editions[0].ID, editions[1].ID)
	}
	a := editions[1].Source
	if a.ChapterCount() != 2 {
		t.Errorf("Expected ChapterCount=2 for a, got %d", a.ChapterCount())
	}
	if got := a.Chapter(1); !reflect.DeepEqual(got, []string{"A one.", "A one again."}) {
		t.Errorf("Expected concatenated rows, got %v", got)
	}
}

func TestRowLoaderRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jsonl")
	if err := os.WriteFile(path, []byte(`{"edition":"a","chapter":0,"text":"x"}`), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := NewRowLoader(path).Load(); err == nil {
		t.Error("Expected error for chapter 0")
	}
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.parquet")
	rows := []ChapterRow{
		{Edition: "gutenberg", Chapter: 1, Text: "It was cold."},
		{Edition: "gutenberg", Chapter: 2, Text: "It was warm."},
		{Edition: "hathi", Title: "Scan", Chapter: 2, Text: "It was warm."},
	}
	if err := WriteParquet(path, rows); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	editions, err := LoadFile(path, "", "")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(editions) != 2 {
		t.Fatalf("Expected 2 editions, got %d", len(editions))
	}
	if editions[0].Format != FormatParquet {
		t.Errorf("Expected format parquet, got %s", editions[0].Format)
	}
	hathi := editions[1]
	if hathi.ID != "hathi" || hathi.Source.HasChapter(1) || !hathi.Source.HasChapter(2) {
		t.Errorf("Unexpected hathi edition: id=%s ch1=%v ch2=%v", hathi.ID, hathi.Source.HasChapter(1), hathi.Source.HasChapter(2))
	}
}

func TestParseTEI(t *testing.T) {
	doc := `<?xml version="1.0"?>
<TEI>
  <teiHeader><fileDesc><titleStmt><title>Adventures of  Huckleberry Finn</title></titleStmt></fileDesc></teiHeader>
  <text>
    <front><p>Notice: persons attempting to find a motive.</p></front>
    <body>
      <div type="chapter">
        <head>Chapter I</head>
        <p>You don't know about me<lb/>without you have read a book.</p>
        <div type="letter"><p>Nested letter text.</p></div>
      </div>
      <div type="chapter">
        <l>A line of verse.</l>
      </div>
    </body>
  </text>
</TEI>`

	edition, err := parseTEI(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseTEI failed: %v", err)
	}
	if edition.Title != "Adventures of Huckleberry Finn" {
		t.Errorf("Expected title from header, got %q", edition.Title)
	}
	if edition.Source.ChapterCount() != 2 {
		t.Fatalf("Expected 2 chapters, got %d", edition.Source.ChapterCount())
	}
	expected := []string{
		"Chapter I",
		"You don't know about me without you have read a book.",
		"Nested letter text.",
	}
	if got := edition.Source.Chapter(1); !reflect.DeepEqual(got, expected) {
		t.Errorf("Chapter 1: expected %v, got %v", expected, got)
	}
	if got := edition.Source.Chapter(2); !reflect.DeepEqual(got, []string{"A line of verse."}) {
		t.Errorf("Chapter 2: unexpected %v", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"a.txt", FormatText},
		{"a.JSON", FormatJSON},
		{"a.jsonl", FormatJSONL},
		{"a.parquet", FormatParquet},
		{"a.xml", FormatTEI},
		{"a.pdf", FormatPDF},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if err != nil {
			t.Errorf("DetectFormat(%s) failed: %v", tt.path, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("DetectFormat(%s) = %s, want %s", tt.path, got, tt.expected)
		}
	}

	if _, err := DetectFormat("a.docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadFilesDefaultsIDAndRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "gutenberg.txt")
	second := filepath.Join(dir, "other", "gutenberg.txt")
	if err := os.MkdirAll(filepath.Dir(second), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("CHAPTER I\nText."), 0644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	editions, err := LoadFiles([]string{first})
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}
	if editions[0].ID != "gutenberg" {
		t.Errorf("Expected ID from base name, got %q", editions[0].ID)
	}

	if _, err := LoadFiles([]string{first, second}); err == nil {
		t.Error("Expected duplicate edition id error")
	}
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("CHAPTER I\nHello."), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.data"), []byte("CHAPTER I\nHello."), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	manifest := `work: Huckleberry Finn
editions:
  - id: archive
    path: a.txt
  - id: mtpo
    path: b.data
    format: text
`
	manifestPath := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Work != "Huckleberry Finn" {
		t.Errorf("Expected work title, got %q", m.Work)
	}

	editions, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(editions) != 2 || editions[0].ID != "archive" || editions[1].ID != "mtpo" {
		t.Errorf("Unexpected editions: %+v", editions)
	}
}

func TestRowsWriteJSONLRoundTrip(t *testing.T) {
	chapters := NewChapters(nil)
	chapters.Set(1, []string{"It was cold.", "Snow fell."})
	chapters.Set(3, []string{"Spring came."})
	editions := []Edition{{ID: "first", Title: "First Printing", Source: chapters}}

	rows := Rows(editions)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Text != "It was cold.\nSnow fell." {
		t.Errorf("Unexpected text for chapter 1: %q", rows[0].Text)
	}

	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	if err := WriteJSONL(path, rows); err != nil {
		t.Fatalf("WriteJSONL failed: %v", err)
	}
	loaded, err := LoadFile(path, "", "")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Title != "First Printing" {
		t.Fatalf("Unexpected editions %+v", loaded)
	}
	if !reflect.DeepEqual(loaded[0].Source.Chapter(1), []string{"It was cold.", "Snow fell."}) {
		t.Errorf("Unexpected chapter 1 lines %v", loaded[0].Source.Chapter(1))
	}
	if loaded[0].Source.HasChapter(2) || loaded[0].Source.ChapterCount() != 3 {
		t.Errorf("Expected gap at chapter 2 and count 3, got count %d", loaded[0].Source.ChapterCount())
	}
}
