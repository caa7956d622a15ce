package consensus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
	"github.com/lehigh-university-libraries/concord/internal/eval/units"
	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// ErrEmptyCorpus means no edition reports any chapters, so there is no
// consensus chapter count to compare against.
var ErrEmptyCorpus = errors.New("empty corpus: no edition reports any chapters")

// ErrInvalidThreshold is returned for a consistency threshold outside (0, 1].
var ErrInvalidThreshold = errors.New("invalid consistency threshold")

// Kind selects sentences or words.
type Kind string

const (
	Sentence Kind = "sentence"
	Word     Kind = "word"
)

// Kinds lists the unit kinds in report order.
var Kinds = []Kind{Sentence, Word}

// ExtractionError reports a unit extractor failure. It is fatal to the run.
type ExtractionError struct {
	Edition string
	Chapter int
	Kind    Kind
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %ss from edition %q chapter %d: %v", e.Kind, e.Edition, e.Chapter, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ChapterUnits holds one edition's unit multisets for one chapter.
type ChapterUnits struct {
	Sentences units.Frequencies
	Words     units.Frequencies
}

// Of returns the multiset for kind.
func (c ChapterUnits) Of(kind Kind) units.Frequencies {
	if kind == Word {
		return c.Words
	}
	return c.Sentences
}

// EditionUnits holds the extracted units of one edition for chapters
// 1..Corpus.ChapterCount. Chapters missing from the edition have no entry.
type EditionUnits struct {
	ID string
	// ChapterCount is what the edition's source reports, which may be more or
	// fewer than the consensus chapter count.
	ChapterCount int
	Chapters     map[int]ChapterUnits
}

// Has reports whether the edition contains chapter n.
func (e *EditionUnits) Has(n int) bool {
	_, ok := e.Chapters[n]
	return ok
}

// Corpus is the extracted, in-memory view of every edition.
type Corpus struct {
	// ChapterCount is the consensus chapter count: the most common chapter
	// count among the editions.
	ChapterCount int
	Editions     []EditionUnits
}

// ConsensusChapterCount returns the most frequent chapter count among
// editions that report at least one chapter. Ties go to the count seen first
// in edition order.
func ConsensusChapterCount(editions []corpus.Edition) (int, error) {
	counts := make([]int, 0, len(editions))
	for _, e := range editions {
		if n := e.Source.ChapterCount(); n > 0 {
			counts = append(counts, n)
		}
	}
	mode, ok := stats.Mode(counts)
	if !ok {
		return 0, ErrEmptyCorpus
	}
	return mode, nil
}

// Extract runs the extractor over chapters 1..consensus chapter count of every
// edition. Chapters are extracted concurrently, bounded by workers.
func Extract(ctx context.Context, editions []corpus.Edition, extractor units.Extractor, workers int) (*Corpus, error) {
	if len(editions) == 0 {
		return nil, ErrEmptyCorpus
	}
	chapterCount, err := ConsensusChapterCount(editions)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	slog.Debug("Extracting units", "editions", len(editions), "chapters", chapterCount, "workers", workers)

	// slots[e][n-1] is written by exactly one goroutine.
	slots := make([][]*ChapterUnits, len(editions))
	for i := range slots {
		slots[i] = make([]*ChapterUnits, chapterCount)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, edition := range editions {
		src := edition.Source
		for n := 1; n <= chapterCount; n++ {
			if !src.HasChapter(n) {
				continue
			}
			lines := src.Chapter(n)
			if len(lines) == 0 {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				cu, err := extractChapter(extractor, edition.ID, n, lines)
				if err != nil {
					return err
				}
				slots[i][n-1] = cu
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Corpus{
		ChapterCount: chapterCount,
		Editions:     make([]EditionUnits, len(editions)),
	}
	for i, edition := range editions {
		eu := EditionUnits{
			ID:           edition.ID,
			ChapterCount: edition.Source.ChapterCount(),
			Chapters:     make(map[int]ChapterUnits),
		}
		for n, cu := range slots[i] {
			if cu != nil {
				eu.Chapters[n+1] = *cu
			}
		}
		if eu.ChapterCount == 0 {
			slog.Warn("Edition reports no chapters", "edition", edition.ID)
		}
		c.Editions[i] = eu
	}
	return c, nil
}

func extractChapter(extractor units.Extractor, edition string, n int, lines []string) (*ChapterUnits, error) {
	text := units.JoinLines(lines)

	sentences, err := extractor.Sentences(text)
	if err != nil {
		return nil, &ExtractionError{Edition: edition, Chapter: n, Kind: Sentence, Err: err}
	}
	words, err := extractor.Words(text)
	if err != nil {
		return nil, &ExtractionError{Edition: edition, Chapter: n, Kind: Word, Err: err}
	}
	return &ChapterUnits{Sentences: sentences, Words: words}, nil
}
