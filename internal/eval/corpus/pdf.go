package corpus

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LoadPDF extracts the plain text of every page and splits it into chapters
// the same way as a plain-text edition.
func LoadPDF(path string) (*Chapters, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	skipped := 0
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			skipped++
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if skipped > 0 {
		slog.Warn("Skipped unreadable PDF pages", "path", path, "pages", skipped, "total", total)
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("no extractable text found in pdf %s", path)
	}
	return SplitChapters(b.String()), nil
}
