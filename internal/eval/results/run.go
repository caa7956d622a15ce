// Package results persists and presents consensus runs: the full JSON
// hierarchy, the per-chapter CSV row stream, a YAML summary, terminal tables,
// and a SQLite history of past runs.
package results

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"

	ResultsFile  = "results.json"
	VarianceFile = "variance.csv"
	SummaryFile  = "results.yaml"
)

// Formats lists the output formats Save understands.
var Formats = []string{FormatJSON, FormatCSV, FormatYAML}

// Run is one evaluation of a corpus. The variance hierarchy is embedded so
// results.json carries metric, submetric and subsubmetric at the top level.
type Run struct {
	ID          string           `json:"id"`
	Work        string           `json:"work,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	EditionIDs  []string         `json:"editions"`
	Options     variance.Options `json:"options"`
	Consensus   *consensus.Table `json:"consensus"`
	variance.Report
}

// NewRun wraps a report and its consensus table with run metadata.
func NewRun(work string, table *consensus.Table, report *variance.Report, opts variance.Options) *Run {
	run := &Run{
		ID:          uuid.NewString(),
		Work:        work,
		GeneratedAt: time.Now().UTC(),
		Options:     opts,
		Consensus:   table,
		Report:      *report,
	}
	for _, ev := range report.Editions {
		run.EditionIDs = append(run.EditionIDs, ev.Edition)
	}
	return run
}

// Threshold returns the consistency threshold the consensus was built with.
func (r *Run) Threshold() float64 {
	if r.Consensus == nil {
		return 0
	}
	return r.Consensus.Threshold
}

// ValidateFormats rejects unknown output formats.
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	for _, f := range formats {
		if !slices.Contains(Formats, f) {
			return fmt.Errorf("unsupported output format %q (want one of %s)", f, strings.Join(Formats, ", "))
		}
	}
	return nil
}

// Save writes the run to outputDir in each of the given formats and returns
// the paths written.
func Save(run *Run, outputDir string, formats []string) ([]string, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, f := range formats {
		var (
			path string
			err  error
		)
		switch f {
		case FormatJSON:
			path, err = SaveResults(run, outputDir)
		case FormatCSV:
			path, err = SaveCSV(&run.Report, outputDir)
		case FormatYAML:
			path, err = SaveYAML(run, outputDir)
		}
		if err != nil {
			return written, err
		}
		slog.Debug("Wrote results file", "format", f, "path", path)
		written = append(written, path)
	}
	return written, nil
}

// SaveResults writes results.json to outputDir.
func SaveResults(run *Run, outputDir string) (string, error) {
	resultsPath := filepath.Join(outputDir, ResultsFile)
	file, err := os.Create(resultsPath)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return resultsPath, nil
}

// LoadResults reads results.json from resultsDir.
func LoadResults(resultsDir string) (*Run, error) {
	resultsPath := filepath.Join(resultsDir, ResultsFile)
	file, err := os.Open(resultsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	var run Run
	if err := json.NewDecoder(file).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	return &run, nil
}
