package results

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// PrintSummary writes a human-readable summary of run to w.
func PrintSummary(w io.Writer, run *Run) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "RECORD CONSENSUS SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	if run.Work != "" {
		fmt.Fprintf(w, "Work:      %s\n", run.Work)
	}
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Generated: %s\n", run.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Threshold: %g\n", run.Threshold())
	fmt.Fprintf(w, "Combine:   %s\n", run.Options.Combine)
	fmt.Fprintf(w, "Editions:  %d\n", len(run.Report.Editions))
	fmt.Fprintf(w, "Consensus chapter count: %d\n", run.ConsensusChapterCount)
	fmt.Fprintln(w)

	fmt.Fprintln(w, renderTable(
		[]string{"Submetric", "Value"},
		[][]string{
			{"chapter variance", run.Submetric.ChapterVariance.String()},
			{"sentence variance", run.Submetric.SentenceVariance.String()},
			{"word variance", run.Submetric.WordVariance.String()},
			{"mean coverage", run.Submetric.MeanCoverage.String()},
			{"metric", strconv.FormatFloat(run.Metric, 'f', 4, 64)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	fmt.Fprintln(w)

	fmt.Fprintln(w, editionTable(run.Report.Editions))

	if run.Consensus != nil {
		if low := run.Consensus.LowConfidence(); len(low) > 0 {
			fmt.Fprintf(w, "\nLow-confidence chapters (single edition): %s\n", joinInts(low))
		}
		if missing := run.Consensus.Undefined(); len(missing) > 0 {
			fmt.Fprintf(w, "Chapters with no consensus: %s\n", joinInts(missing))
		}
	}
}

func editionTable(editions []variance.EditionVariance) string {
	rows := make([][]string, 0, len(editions))
	for _, ev := range editions {
		rows = append(rows, []string{
			ev.Edition,
			strconv.Itoa(ev.ChapterCount),
			strconv.Itoa(ev.PresentChapters),
			strconv.FormatFloat(ev.ChapterVariance, 'f', 0, 64),
			strconv.FormatFloat(ev.Coverage, 'f', 3, 64),
			ev.SentenceVariance.String(),
			ev.WordVariance.String(),
		})
	}
	return renderTable(
		[]string{"Edition", "Chapters", "Present", "Chapter Δ", "Coverage", "Sentence", "Word"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

// ChapterTable renders the per-chapter variances of one edition.
func ChapterTable(ev *variance.EditionVariance) string {
	rows := make([][]string, 0, len(ev.Chapters))
	for _, cv := range ev.Chapters {
		state := "present"
		switch {
		case !cv.Consensus:
			state = "no consensus"
		case !cv.Present:
			state = "missing"
		case cv.LowConfidence:
			state = "low confidence"
		}
		rows = append(rows, []string{
			strconv.Itoa(cv.Chapter),
			state,
			cv.SentenceVariance.String(),
			cv.WordVariance.String(),
		})
	}
	return renderTable(
		[]string{"Chapter", "State", "Sentence", "Word"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
