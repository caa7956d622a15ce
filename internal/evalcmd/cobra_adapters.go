package evalcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/concord/internal/config"
	"github.com/lehigh-university-libraries/concord/internal/eval/results"
	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

// NewRunCmd creates the run command, which builds the consensus and scores
// every edition against it.
func NewRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [edition files...]",
		Short: "Build the chapter consensus and score every edition against it",
		Long: `Build a consensus record of a work from several digitised editions and
measure how far each edition deviates from it.

Editions come from a manifest, from files on the command line, or both.
Supported formats are plain text, JSON, TEI XML, PDF, and multi-edition
JSONL or Parquet row corpora.

Settings are resolved from defaults, then --config (YAML or TOML), then
CONCORD_* environment variables, then flags given on the command line.`,
		Example: `  # Evaluate three plain-text editions
  concord eval run gutenberg.txt hathi.txt archive.txt

  # Evaluate a manifest with a stricter quorum and weighted combine
  concord eval run --manifest huck-finn.yaml --threshold 0.66 --combine weighted

  # Write only the CSV rows and record the run in a history database
  concord eval run --manifest huck-finn.yaml --format csv --history runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if opts.manifest == "" && len(args) == 0 {
				return fmt.Errorf("no editions given: pass edition files or --manifest")
			}

			return executeRun(cmd.Context(), cmd.OutOrStdout(), cfg, opts.manifest, args, opts.quiet)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.manifest, "manifest", "", "YAML manifest listing the editions")
	f.StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	f.StringVar(&opts.work, "work", "", "Title of the work, recorded with the results")
	f.Float64Var(&opts.threshold, "threshold", 0.5, "Consistency threshold in (0, 1]")
	f.StringVar(&opts.combine, "combine", string(variance.Unweighted), "How submetrics combine into the metric (unweighted or weighted)")
	f.BoolVar(&opts.penalize, "penalize-omissions", false, "Score consensus units missing from a present chapter as 0 - median")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent extraction workers (default: number of CPUs)")
	f.StringVar(&opts.outputDir, "output", "", "Directory for results files (default: concord_results)")
	f.StringVar(&opts.formats, "format", strings.Join(results.Formats, ","), "Comma separated output formats (json, csv, yaml)")
	f.StringVar(&opts.history, "history", "", "SQLite database to record the run in")
	f.BoolVar(&opts.quiet, "quiet", false, "Do not print the summary tables")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsDir string
	var format string
	var edition string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report from saved results",
		Example: `  # Summary tables
  concord eval report --results concord_results

  # Per-chapter breakdown for one edition
  concord eval report --results concord_results --edition hathi

  # CSV rows to stdout
  concord eval report --results concord_results --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsDir, format, edition)
		},
	}

	cmd.Flags().StringVar(&resultsDir, "results", "concord_results", "Directory containing results.json")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv, yaml)")
	cmd.Flags().StringVar(&edition, "edition", "", "Show the per-chapter breakdown of one edition")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var format string
	var chapter int
	var showUnits bool

	cmd := &cobra.Command{
		Use:   "inspect <edition file>",
		Short: "Inspect the chapters and units of edition files",
		Long: `Inspect how an edition file is read: the chapters found, and optionally
the lines of one chapter or the sentences and words extracted from each.

Useful for checking chapter heading detection on OCR text before a run.`,
		Example: `  # Chapter counts of a plain text edition
  concord eval inspect gutenberg.txt

  # Lines of chapter 3
  concord eval inspect gutenberg.txt --chapter 3

  # Unit counts per chapter for every edition in a Parquet corpus
  concord eval inspect corpus.parquet --units`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.OutOrStdout(), args, format, chapter, showUnits)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Force the edition format (text, json, jsonl, parquet, tei, pdf)")
	cmd.Flags().IntVar(&chapter, "chapter", 0, "Print the lines of this chapter")
	cmd.Flags().BoolVar(&showUnits, "units", false, "Show extracted sentence and word counts per chapter")

	return cmd
}

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in a history database",
		Example: `  # Ten most recent runs
  concord eval history --db runs.db --limit 10

  # Edition scores of one run
  concord eval history --db runs.db --run 6f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeHistory(cmd.Context(), cmd.OutOrStdout(), dbPath, limit, runID)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite history database (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the edition scores of this run")

	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// NewConvertCmd creates the convert command
func NewConvertCmd() *cobra.Command {
	var manifest string
	var output string

	cmd := &cobra.Command{
		Use:   "convert [edition files...] --output corpus.parquet",
		Short: "Convert editions into one JSONL or Parquet row corpus",
		Example: `  # Pack a manifest's editions into Parquet
  concord eval convert --manifest huck-finn.yaml --output huck-finn.parquet

  # Convert text editions to JSONL
  concord eval convert a.txt b.txt --output corpus.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest == "" && len(args) == 0 {
				return fmt.Errorf("no editions given: pass edition files or --manifest")
			}
			return executeConvert(manifest, args, output)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "YAML manifest listing the editions")
	cmd.Flags().StringVar(&output, "output", "", "Output file (.jsonl or .parquet, required)")

	_ = cmd.MarkFlagRequired("output")
	return cmd
}
