package corpus

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Edition formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
	FormatTEI     = "tei"
	FormatPDF     = "pdf"
)

// DetectFormat maps a file extension to an edition format.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	case ".xml", ".tei":
		return FormatTEI, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile loads the editions stored in path. Single-edition formats return
// one edition whose ID is id, falling back to the ID stored in the file and
// then to the file base name. Row corpora (JSONL, Parquet) return every
// edition they contain and ignore id.
func LoadFile(path, format, id string) ([]Edition, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	slog.Debug("Loading edition file", "path", path, "format", format)

	var edition Edition
	switch format {
	case FormatJSONL, FormatParquet:
		editions, err := NewRowLoader(path).Load()
		if err != nil {
			return nil, err
		}
		return editions, nil
	case FormatText:
		chapters, err := LoadText(path)
		if err != nil {
			return nil, err
		}
		edition = Edition{Format: FormatText, Path: path, Source: chapters}
	case FormatPDF:
		chapters, err := LoadPDF(path)
		if err != nil {
			return nil, err
		}
		edition = Edition{Format: FormatPDF, Path: path, Source: chapters}
	case FormatJSON:
		loaded, err := LoadJSON(path)
		if err != nil {
			return nil, err
		}
		edition = loaded
	case FormatTEI:
		loaded, err := LoadTEI(path)
		if err != nil {
			return nil, err
		}
		edition = loaded
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if id != "" {
		edition.ID = id
	}
	if edition.ID == "" {
		edition.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return []Edition{edition}, nil
}

// LoadFiles loads several files in order and rejects duplicate edition IDs.
func LoadFiles(paths []string) ([]Edition, error) {
	var editions []Edition
	for _, path := range paths {
		loaded, err := LoadFile(path, "", "")
		if err != nil {
			return nil, err
		}
		editions = append(editions, loaded...)
	}
	if err := CheckUnique(editions); err != nil {
		return nil, err
	}
	return editions, nil
}

// CheckUnique rejects duplicate edition IDs.
func CheckUnique(editions []Edition) error {
	seen := make(map[string]string, len(editions))
	for _, e := range editions {
		if prev, ok := seen[e.ID]; ok {
			return fmt.Errorf("duplicate edition id %q (%s and %s)", e.ID, prev, e.Path)
		}
		seen[e.ID] = e.Path
	}
	return nil
}
