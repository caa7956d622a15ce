package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

// CSVHeader is the column order of variance.csv.
var CSVHeader = []string{
	"edition_name",
	"chapter",
	"variance_from_sentence_consensus__by_chapter",
	"variance_from_word_consensus__by_chapter",
}

// WriteCSV writes one row per edition and consensus chapter. Undefined
// variances are empty cells.
func WriteCSV(w io.Writer, report *variance.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, ev := range report.Editions {
		for _, cv := range ev.Chapters {
			row := []string{
				ev.Edition,
				strconv.Itoa(cv.Chapter),
				cv.SentenceVariance.CSV(),
				cv.WordVariance.CSV(),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes variance.csv to outputDir.
func SaveCSV(report *variance.Report, outputDir string) (string, error) {
	path := filepath.Join(outputDir, VarianceFile)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create variance file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, report); err != nil {
		return "", fmt.Errorf("failed to write variance rows: %w", err)
	}
	return path, nil
}
