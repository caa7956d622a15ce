package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/concord/internal/config"
	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
	"github.com/lehigh-university-libraries/concord/internal/eval/results"
	"github.com/lehigh-university-libraries/concord/internal/eval/units"
	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

type runOptions struct {
	manifest   string
	configPath string
	work       string
	threshold  float64
	combine    string
	penalize   bool
	workers    int
	outputDir  string
	formats    string
	history    string
	quiet      bool
}

// apply overlays the flags the user actually set.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("work") {
		cfg.Work = o.work
	}
	if f.Changed("threshold") {
		cfg.Threshold = o.threshold
	}
	if f.Changed("combine") {
		cfg.Combine = variance.Combine(o.combine)
	}
	if f.Changed("penalize-omissions") {
		cfg.PenalizeOmissions = o.penalize
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("output") {
		cfg.OutputDir = o.outputDir
	}
	if f.Changed("format") {
		cfg.Formats = config.SplitList(o.formats)
	}
	if f.Changed("history") {
		cfg.HistoryDB = o.history
	}
}

// SetupLogging installs the default text logger on stderr, at debug level
// when verbose is set.
func SetupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func executeRun(ctx context.Context, out io.Writer, cfg *config.Config, manifestPath string, paths []string, quiet bool) error {
	slog.Info("Starting consensus run",
		"threshold", cfg.Threshold,
		"combine", cfg.Combine,
		"penalize_omissions", cfg.PenalizeOmissions,
		"workers", cfg.Workers)

	work, editions, err := loadEditions(manifestPath, paths)
	if err != nil {
		return err
	}
	if cfg.Work == "" {
		cfg.Work = work
	}
	slog.Info("Corpus loaded", "work", cfg.Work, "editions", len(editions))

	c, table, err := consensus.FromEditions(ctx, editions, units.NewDefault(), cfg.Threshold, cfg.Workers)
	if err != nil {
		return fmt.Errorf("failed to build consensus: %w", err)
	}
	slog.Info("Consensus built",
		"chapters", table.ChapterCount,
		"low_confidence", len(table.LowConfidence()),
		"no_consensus", len(table.Undefined()))

	opts := cfg.Options()
	report, err := variance.Evaluate(c, table, opts)
	if err != nil {
		return fmt.Errorf("failed to evaluate editions: %w", err)
	}

	run := results.NewRun(cfg.Work, table, report, opts)
	written, err := results.Save(run, cfg.OutputDir, cfg.Formats)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	slog.Info("Results saved", "run", run.ID, "metric", run.Metric, "files", written)

	if cfg.HistoryDB != "" {
		if err := recordRun(ctx, cfg.HistoryDB, run); err != nil {
			return err
		}
	}

	if !quiet {
		results.PrintSummary(out, run)
	}
	return nil
}

// loadEditions loads the manifest, if any, followed by the loose files.
func loadEditions(manifestPath string, paths []string) (string, []corpus.Edition, error) {
	var work string
	var editions []corpus.Edition

	if manifestPath != "" {
		m, err := corpus.LoadManifest(manifestPath)
		if err != nil {
			return "", nil, err
		}
		loaded, err := m.Load()
		if err != nil {
			return "", nil, err
		}
		work = m.Work
		editions = append(editions, loaded...)
	}
	if len(paths) > 0 {
		loaded, err := corpus.LoadFiles(paths)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load editions: %w", err)
		}
		editions = append(editions, loaded...)
	}
	if err := corpus.CheckUnique(editions); err != nil {
		return "", nil, err
	}

	for _, e := range editions {
		slog.Debug("Edition loaded", "edition", e.ID, "format", e.Format, "chapters", e.Source.ChapterCount())
	}
	return work, editions, nil
}

func recordRun(ctx context.Context, dbPath string, run *results.Run) error {
	store, err := results.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	if err := store.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	slog.Info("Run recorded", "db", dbPath, "run", run.ID)
	return nil
}
