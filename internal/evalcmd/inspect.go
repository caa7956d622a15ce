package evalcmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
	"github.com/lehigh-university-libraries/concord/internal/eval/units"
)

func executeInspect(out io.Writer, paths []string, format string, chapter int, showUnits bool) error {
	var extractor units.Extractor = units.NewDefault()

	for _, path := range paths {
		editions, err := corpus.LoadFile(path, format, "")
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		fmt.Fprintf(out, "Loaded %d edition(s) from %s\n", len(editions), path)
		fmt.Fprintln(out, strings.Repeat("=", 80))

		for _, e := range editions {
			present := corpus.Present(e.Source)
			fmt.Fprintf(out, "Edition:        %s\n", e.ID)
			if e.Title != "" {
				fmt.Fprintf(out, "Title:          %s\n", e.Title)
			}
			fmt.Fprintf(out, "Format:         %s\n", e.Format)
			fmt.Fprintf(out, "Chapter Count:  %d\n", e.Source.ChapterCount())
			fmt.Fprintf(out, "Present:        %d\n", len(present))
			if missing := missingChapters(e.Source); len(missing) > 0 {
				fmt.Fprintf(out, "Missing:        %s\n", formatRanges(missing))
			}
			fmt.Fprintln(out)

			if chapter > 0 {
				printChapter(out, e, chapter)
			}
			if showUnits {
				rendered, err := unitTable(extractor, e, present)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, strings.Repeat("-", 80))
		}
	}
	return nil
}

func printChapter(out io.Writer, e corpus.Edition, n int) {
	if !e.Source.HasChapter(n) {
		fmt.Fprintf(out, "Chapter %d: not present\n\n", n)
		return
	}
	lines := e.Source.Chapter(n)
	fmt.Fprintf(out, "CHAPTER %d (%d lines)\n", n, len(lines))
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func unitTable(extractor units.Extractor, e corpus.Edition, present []int) (string, error) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Chapter", "Lines", "Sentences", "Distinct", "Words", "Distinct"})

	for _, n := range present {
		lines := e.Source.Chapter(n)
		chapterText := units.JoinLines(lines)
		sentences, err := extractor.Sentences(chapterText)
		if err != nil {
			return "", fmt.Errorf("failed to extract sentences from %s chapter %d: %w", e.ID, n, err)
		}
		words, err := extractor.Words(chapterText)
		if err != nil {
			return "", fmt.Errorf("failed to extract words from %s chapter %d: %w", e.ID, n, err)
		}
		tw.AppendRow(table.Row{n, len(lines), sentences.Total(), len(sentences), words.Total(), len(words)})
	}

	configs := make([]table.ColumnConfig, 0, 6)
	for i := 1; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render(), nil
}

func missingChapters(src corpus.Source) []int {
	var out []int
	for n := 1; n <= src.ChapterCount(); n++ {
		if !src.HasChapter(n) {
			out = append(out, n)
		}
	}
	return out
}

// formatRanges renders ascending chapter numbers as "2, 5-7, 9".
func formatRanges(numbers []int) string {
	var parts []string
	for i := 0; i < len(numbers); {
		j := i
		for j+1 < len(numbers) && numbers[j+1] == numbers[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(numbers[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", numbers[i], numbers[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}
