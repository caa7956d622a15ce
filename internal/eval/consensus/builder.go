// Package consensus derives, for every chapter of a work, the sentences and
// words that a quorum of editions agree on, each with a median expected
// frequency.
//
// The quorum for a chapter is ceil(active * threshold), where active is the
// number of editions that contain that chapter. Editions missing a chapter do
// not lower the bar for the editions that have it. A unit's consensus
// frequency is the median of its frequency across the editions that contain
// it, so one anomalous scan cannot drag the expectation.
package consensus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/concord/internal/eval/corpus"
	"github.com/lehigh-university-libraries/concord/internal/eval/units"
	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// DefaultThreshold is the default consistency threshold.
const DefaultThreshold = 0.5

// Set maps a consensus unit to its median frequency.
type Set map[string]float64

// Chapter is the consensus for one chapter index.
type Chapter struct {
	Index int `json:"chapter" yaml:"chapter"`
	// ActiveEditions lists, in edition order, the editions containing the chapter.
	ActiveEditions []string `json:"active_editions" yaml:"active_editions"`
	// Quorum is the presence count a unit needs to be admitted.
	Quorum int `json:"quorum" yaml:"quorum"`
	// LowConfidence marks chapters with a single active edition, where every
	// unit of that edition is trivially admitted.
	LowConfidence bool `json:"low_confidence" yaml:"low_confidence"`
	// Sentences and Words are nil when no edition has the chapter, which is
	// different from a defined but empty consensus.
	Sentences Set `json:"consensus_sentences" yaml:"consensus_sentences"`
	Words     Set `json:"consensus_words" yaml:"consensus_words"`
}

// Defined reports whether any edition contains the chapter.
func (c *Chapter) Defined() bool {
	return len(c.ActiveEditions) > 0
}

// Units returns the consensus set for kind and whether it is defined.
func (c *Chapter) Units(kind Kind) (Set, bool) {
	if !c.Defined() {
		return nil, false
	}
	if kind == Word {
		return c.Words, true
	}
	return c.Sentences, true
}

// Table is the consensus for chapters 1..ChapterCount.
type Table struct {
	ChapterCount int       `json:"consensus_chapter_count" yaml:"consensus_chapter_count"`
	Threshold    float64   `json:"consistency_threshold" yaml:"consistency_threshold"`
	Chapters     []Chapter `json:"chapters" yaml:"chapters"`
}

// Chapter returns the consensus for chapter n, or nil when n is out of range.
func (t *Table) Chapter(n int) *Chapter {
	if n < 1 || n > len(t.Chapters) {
		return nil
	}
	return &t.Chapters[n-1]
}

// LowConfidence lists chapters built from a single edition.
func (t *Table) LowConfidence() []int {
	var out []int
	for _, ch := range t.Chapters {
		if ch.LowConfidence {
			out = append(out, ch.Index)
		}
	}
	return out
}

// Undefined lists chapters no edition contains.
func (t *Table) Undefined() []int {
	var out []int
	for _, ch := range t.Chapters {
		if !ch.Defined() {
			out = append(out, ch.Index)
		}
	}
	return out
}

// ValidateThreshold checks that threshold lies in (0, 1].
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0 && threshold <= 1) {
		return fmt.Errorf("%w: must be in (0, 1], got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Build computes the consensus table for c. Chapters are independent and are
// built concurrently, bounded by workers; the result does not depend on the
// worker count.
func Build(ctx context.Context, c *Corpus, threshold float64, workers int) (*Table, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if c == nil || c.ChapterCount < 1 {
		return nil, ErrEmptyCorpus
	}
	if workers < 1 {
		workers = 1
	}

	table := &Table{
		ChapterCount: c.ChapterCount,
		Threshold:    threshold,
		Chapters:     make([]Chapter, c.ChapterCount),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for n := 1; n <= c.ChapterCount; n++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table.Chapters[n-1] = buildChapter(c, n, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if low := table.LowConfidence(); len(low) > 0 {
		slog.Warn("Chapters with a single active edition; consensus is low confidence", "chapters", low)
	}
	if missing := table.Undefined(); len(missing) > 0 {
		slog.Warn("Chapters with no active editions; no consensus", "chapters", missing)
	}
	return table, nil
}

func buildChapter(c *Corpus, n int, threshold float64) Chapter {
	ch := Chapter{Index: n}
	var active []*EditionUnits
	for i := range c.Editions {
		if c.Editions[i].Has(n) {
			active = append(active, &c.Editions[i])
			ch.ActiveEditions = append(ch.ActiveEditions, c.Editions[i].ID)
		}
	}
	if len(active) == 0 {
		slog.Debug("No active editions for chapter", "chapter", n)
		return ch
	}

	ch.Quorum = stats.CeilQuorum(len(active), threshold)
	if ch.Quorum < 1 {
		ch.Quorum = 1
	}
	ch.LowConfidence = len(active) == 1
	ch.Sentences = admit(active, n, Sentence, ch.Quorum)
	ch.Words = admit(active, n, Word, ch.Quorum)

	slog.Debug("Built chapter consensus",
		"chapter", n,
		"active", len(active),
		"quorum", ch.Quorum,
		"sentences", len(ch.Sentences),
		"words", len(ch.Words))
	return ch
}

// admit returns the units present in at least quorum active editions, each
// valued at the median of its frequency over the editions that contain it.
func admit(active []*EditionUnits, n int, kind Kind, quorum int) Set {
	observed := make(map[string][]float64)
	for _, e := range active {
		for unit, count := range e.Chapters[n].Of(kind) {
			if count <= 0 {
				continue
			}
			observed[unit] = append(observed[unit], float64(count))
		}
	}

	set := make(Set)
	for unit, freqs := range observed {
		if len(freqs) < quorum {
			continue
		}
		if median, ok := stats.Median(freqs).Get(); ok {
			set[unit] = median
		}
	}
	return set
}

// SortedUnits returns the units of s in lexical order.
func (s Set) SortedUnits() []string {
	out := make([]string, 0, len(s))
	for unit := range s {
		out = append(out, unit)
	}
	sort.Strings(out)
	return out
}

// FromEditions extracts units from editions and builds their consensus table.
func FromEditions(ctx context.Context, editions []corpus.Edition, extractor units.Extractor, threshold float64, workers int) (*Corpus, *Table, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, nil, err
	}
	c, err := Extract(ctx, editions, extractor, workers)
	if err != nil {
		return nil, nil, err
	}
	table, err := Build(ctx, c, threshold, workers)
	if err != nil {
		return nil, nil, err
	}
	return c, table, nil
}
