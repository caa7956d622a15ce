package evalcmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
)

func executeConvert(manifestPath string, paths []string, output string) error {
	_, editions, err := loadEditions(manifestPath, paths)
	if err != nil {
		return err
	}
	rows := corpus.Rows(editions)

	switch strings.ToLower(filepath.Ext(output)) {
	case ".parquet":
		err = corpus.WriteParquet(output, rows)
	case ".jsonl":
		err = corpus.WriteJSONL(output, rows)
	default:
		return fmt.Errorf("unsupported output file %s (want .jsonl or .parquet)", output)
	}
	if err != nil {
		return err
	}

	slog.Info("Corpus written", "path", output, "editions", len(editions), "rows", len(rows))
	return nil
}
