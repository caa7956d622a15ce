package results

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
	"github.com/lehigh-university-libraries/concord/internal/eval/units"
	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

// sampleRun evaluates three editions of two chapters; "short" lacks chapter 2.
func sampleRun(t *testing.T) *Run {
	t.Helper()
	full := [][]string{
		{"The cat sat.", "The dog ran."},
		{"It rained all day."},
	}
	editions := []corpus.Edition{
		{ID: "first", Source: corpus.NewChapters(full)},
		{ID: "second", Source: corpus.NewChapters(full)},
		{ID: "short", Source: corpus.NewChapters(full[:1])},
		{ID: "third", Source: corpus.NewChapters(full)},
	}
	c, table, err := consensus.FromEditions(context.Background(), editions, units.NewDefault(), 0.5, 2)
	if err != nil {
		t.Fatalf("FromEditions failed: %v", err)
	}
	report, err := variance.Evaluate(c, table, variance.DefaultOptions())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return NewRun("Test Work", table, report, variance.DefaultOptions())
}

func TestSaveAndLoadResults(t *testing.T) {
	run := sampleRun(t)
	dir := t.TempDir()

	written, err := Save(run, dir, Formats)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("Expected 3 files written, got %d", len(written))
	}
	for _, name := range []string{ResultsFile, VarianceFile, SummaryFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}

	loaded, err := LoadResults(dir)
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	if loaded.ID != run.ID {
		t.Errorf("Expected ID=%s, got %s", run.ID, loaded.ID)
	}
	if loaded.Metric != run.Metric {
		t.Errorf("Expected Metric=%v, got %v", run.Metric, loaded.Metric)
	}
	if loaded.Threshold() != 0.5 {
		t.Errorf("Expected Threshold=0.5, got %v", loaded.Threshold())
	}
	if len(loaded.Report.Editions) != 4 {
		t.Fatalf("Expected 4 editions, got %d", len(loaded.Report.Editions))
	}

	missing := loaded.Edition("short").Chapter(2)
	if missing.Present || missing.WordVariance.Valid || missing.Units != nil {
		t.Errorf("Expected missing chapter to stay undefined after reload, got %+v", missing)
	}
	present := loaded.Edition("first").Chapter(2)
	if got, ok := present.WordVariance.Get(); !ok || got != 0 {
		t.Errorf("Expected defined zero variance after reload, got %v", present.WordVariance)
	}
}

func TestResultsJSONHierarchy(t *testing.T) {
	run := sampleRun(t)
	dir := t.TempDir()
	if _, err := SaveResults(run, dir); err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	if err != nil {
		t.Fatalf("Failed to read results: %v", err)
	}
	for _, key := range []string{`"metric"`, `"submetric"`, `"subsubmetric"`, `"subsubsubmetric"`, `"subsubsubsubmetric"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("Expected results.json to contain %s", key)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	run := sampleRun(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, &run.Report); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(CSVHeader, ",") {
		t.Errorf("Unexpected header %v", records[0])
	}
	// Four editions by two consensus chapters.
	if len(records) != 9 {
		t.Fatalf("Expected 9 rows, got %d", len(records))
	}

	var found bool
	for _, rec := range records[1:] {
		if rec[0] == "short" && rec[1] == "2" {
			found = true
			if rec[2] != "" || rec[3] != "" {
				t.Errorf("Expected empty cells for missing chapter, got %v", rec)
			}
		}
		if rec[0] == "first" && rec[1] == "1" && rec[3] != "0" {
			t.Errorf("Expected word variance 0 for first chapter 1, got %q", rec[3])
		}
	}
	if !found {
		t.Error("Expected a row for the missing chapter")
	}
}

func TestSaveYAML(t *testing.T) {
	run := sampleRun(t)
	dir := t.TempDir()
	path, err := SaveYAML(run, dir)
	if err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read YAML: %v", err)
	}

	var summary Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if summary.Config.RunID != run.ID {
		t.Errorf("Expected RunID=%s, got %s", run.ID, summary.Config.RunID)
	}
	if summary.Config.ConsensusChapterCount != 2 {
		t.Errorf("Expected ConsensusChapterCount=2, got %d", summary.Config.ConsensusChapterCount)
	}
	if len(summary.Editions) != 4 {
		t.Fatalf("Expected 4 editions, got %d", len(summary.Editions))
	}
	if summary.Editions[2].Edition != "short" || summary.Editions[2].ChapterVariance != -1 {
		t.Errorf("Unexpected summary for short edition: %+v", summary.Editions[2])
	}
}

func TestPrintSummary(t *testing.T) {
	run := sampleRun(t)
	var buf bytes.Buffer
	PrintSummary(&buf, run)

	out := buf.String()
	for _, want := range []string{"RECORD CONSENSUS SUMMARY", "Test Work", "short", "word variance", "Consensus chapter count: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q", want)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{name: "all", formats: Formats},
		{name: "json only", formats: []string{"json"}},
		{name: "empty", formats: nil, wantErr: true},
		{name: "unknown", formats: []string{"json", "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "history", "concord.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	first := sampleRun(t)
	second := sampleRun(t)
	second.GeneratedAt = first.GeneratedAt.Add(1)
	for _, run := range []*Run{first, second} {
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Errorf("Expected newest run first, got %s", runs[0].ID)
	}
	if runs[0].EditionCount != 4 || runs[0].Combine != string(variance.Unweighted) {
		t.Errorf("Unexpected run record %+v", runs[0])
	}
	if runs[0].Metric != second.Metric {
		t.Errorf("Expected Metric=%v, got %v", second.Metric, runs[0].Metric)
	}

	limited, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 run with limit, got %d", len(limited))
	}

	scores, err := store.EditionScores(ctx, first.ID)
	if err != nil {
		t.Fatalf("EditionScores failed: %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("Expected 4 edition scores, got %d", len(scores))
	}
	if scores[2].Edition != "short" || scores[2].PresentChapters != 1 {
		t.Errorf("Unexpected score for short edition: %+v", scores[2])
	}

	if err := store.RecordRun(ctx, first); err == nil {
		t.Error("Expected duplicate run ID to be rejected")
	}
}
