package evalcmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lehigh-university-libraries/concord/internal/eval/results"
)

func executeHistory(ctx context.Context, out io.Writer, dbPath string, limit int, runID string) error {
	store, err := results.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	if runID != "" {
		return printEditionScores(ctx, out, store, runID)
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Generated", "Work", "Editions", "Chapters", "Threshold", "Combine", "Metric"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.ID,
			r.GeneratedAt.Format("2006-01-02 15:04:05"),
			r.Work,
			r.EditionCount,
			r.ConsensusChapterCount,
			strconv.FormatFloat(r.Threshold, 'g', -1, 64),
			r.Combine,
			strconv.FormatFloat(r.Metric, 'f', 4, 64),
		})
	}
	fmt.Fprintln(out, tw.Render())
	return nil
}

func printEditionScores(ctx context.Context, out io.Writer, store *results.Store, runID string) error {
	scores, err := store.EditionScores(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load edition scores: %w", err)
	}
	if len(scores) == 0 {
		return fmt.Errorf("no run %q in history", runID)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Edition", "Chapters", "Present", "Chapter Δ", "Coverage", "Sentence", "Word"})
	for _, s := range scores {
		tw.AppendRow(table.Row{
			s.Edition,
			s.ChapterCount,
			s.PresentChapters,
			strconv.FormatFloat(s.ChapterVariance, 'f', 0, 64),
			strconv.FormatFloat(s.Coverage, 'f', 3, 64),
			s.SentenceVariance.String(),
			s.WordVariance.String(),
		})
	}
	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintln(out, tw.Render())
	return nil
}
