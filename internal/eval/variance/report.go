package variance

import (
	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// Report is the full aggregate hierarchy. JSON field names follow the
// metric / submetric / subsubmetric / subsubsubmetric / subsubsubsubmetric
// levels that reporting tools read.
type Report struct {
	// Metric is the final magnitude-only score; 0 means every edition agrees
	// with the consensus.
	Metric                float64           `json:"metric" yaml:"metric"`
	ConsensusChapterCount int               `json:"consensus_chapter_count" yaml:"consensus_chapter_count"`
	Submetric             Submetric         `json:"submetric" yaml:"submetric"`
	Editions              []EditionVariance `json:"subsubmetric" yaml:"subsubmetric"`
}

// Submetric holds the corpus-level means across editions.
type Submetric struct {
	ChapterVariance  stats.Value        `json:"variance_from_chapter_consensus" yaml:"variance_from_chapter_consensus"`
	SentenceVariance stats.Value        `json:"variance_from_sentence_consensus" yaml:"variance_from_sentence_consensus"`
	WordVariance     stats.Value        `json:"variance_from_word_consensus" yaml:"variance_from_word_consensus"`
	Coverage         map[string]float64 `json:"coverage" yaml:"coverage"`
	MeanCoverage     stats.Value        `json:"mean_coverage" yaml:"mean_coverage"`
}

// EditionVariance holds one edition's aggregates.
type EditionVariance struct {
	Edition         string  `json:"edition_name" yaml:"edition_name"`
	ChapterCount    int     `json:"chapter_count" yaml:"chapter_count"`
	PresentChapters int     `json:"present_chapters" yaml:"present_chapters"`
	ChapterVariance float64 `json:"variance_from_chapter_consensus" yaml:"variance_from_chapter_consensus"`
	Coverage        float64 `json:"coverage" yaml:"coverage"`
	// SentenceVariance and WordVariance are means over the chapters where the
	// chapter-level value is defined.
	SentenceVariance stats.Value       `json:"mean_sentence_variance" yaml:"mean_sentence_variance"`
	WordVariance     stats.Value       `json:"mean_word_variance" yaml:"mean_word_variance"`
	Chapters         []ChapterVariance `json:"subsubsubmetric" yaml:"subsubsubmetric"`
}

// ChapterVariance holds one edition's aggregates for one chapter.
type ChapterVariance struct {
	Chapter int `json:"chapter" yaml:"chapter"`
	// Present is false when the edition lacks the chapter.
	Present bool `json:"present" yaml:"present"`
	// Consensus is false when no edition has the chapter.
	Consensus        bool        `json:"consensus" yaml:"consensus"`
	LowConfidence    bool        `json:"low_confidence" yaml:"low_confidence"`
	SentenceVariance stats.Value `json:"variance_from_sentence_consensus__by_chapter" yaml:"variance_from_sentence_consensus__by_chapter"`
	WordVariance     stats.Value `json:"variance_from_word_consensus__by_chapter" yaml:"variance_from_word_consensus__by_chapter"`
	// Units is nil when the chapter is missing or has no consensus.
	Units *UnitVariance `json:"subsubsubsubmetric" yaml:"subsubsubsubmetric,omitempty"`
}

// UnitVariance maps each consensus unit to observed - median.
type UnitVariance struct {
	Sentences map[string]stats.Value `json:"sentences" yaml:"sentences"`
	Words     map[string]stats.Value `json:"words" yaml:"words"`
}

// Edition returns the aggregates for the named edition, or nil.
func (r *Report) Edition(id string) *EditionVariance {
	for i := range r.Editions {
		if r.Editions[i].Edition == id {
			return &r.Editions[i]
		}
	}
	return nil
}

// Chapter returns the aggregates for chapter n, or nil.
func (e *EditionVariance) Chapter(n int) *ChapterVariance {
	if n < 1 || n > len(e.Chapters) {
		return nil
	}
	return &e.Chapters[n-1]
}
