package evalcmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/concord/internal/eval/results"
)

func executeReport(out io.Writer, resultsDir, format, edition string) error {
	run, err := results.LoadResults(resultsDir)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(out, run, edition)
	case "json":
		return printJSONReport(out, run)
	case "csv":
		return results.WriteCSV(out, &run.Report)
	case "yaml":
		return printYAMLReport(out, run)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(out io.Writer, run *results.Run, edition string) error {
	if edition == "" {
		results.PrintSummary(out, run)
		return nil
	}

	ev := run.Edition(edition)
	if ev == nil {
		return fmt.Errorf("edition %q not found in results (have %v)", edition, run.EditionIDs)
	}
	fmt.Fprintf(out, "Edition:  %s\n", ev.Edition)
	fmt.Fprintf(out, "Chapters: %d of %d (%d present)\n", ev.ChapterCount, run.ConsensusChapterCount, ev.PresentChapters)
	fmt.Fprintf(out, "Sentence: %s\n", ev.SentenceVariance)
	fmt.Fprintf(out, "Word:     %s\n", ev.WordVariance)
	fmt.Fprintln(out)
	fmt.Fprintln(out, results.ChapterTable(ev))
	return nil
}

func printJSONReport(out io.Writer, run *results.Run) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}

func printYAMLReport(out io.Writer, run *results.Run) error {
	encoder := yaml.NewEncoder(out)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(results.NewSummary(run))
}
