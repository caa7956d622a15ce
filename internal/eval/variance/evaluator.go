// Package variance scores every edition against the chapter consensus.
//
// Variance here is the signed difference between an edition's observed unit
// frequency and the consensus median, not statistical variance. It rolls up
// unit → chapter → edition → corpus, skipping undefined values at every level,
// and collapses to one magnitude-only metric at the top.
package variance

import (
	"errors"
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// Combine selects how the three corpus submetrics become the final metric.
type Combine string

const (
	// Unweighted takes abs(mean(chapter, sentence, word)).
	Unweighted Combine = "unweighted"
	// Weighted takes abs(weighted mean) with weights renormalised over the
	// defined submetrics.
	Weighted Combine = "weighted"
)

// Weights are the per-submetric weights used by Weighted.
type Weights struct {
	Chapter  float64 `json:"chapter" yaml:"chapter" toml:"chapter"`
	Sentence float64 `json:"sentence" yaml:"sentence" toml:"sentence"`
	Word     float64 `json:"word" yaml:"word" toml:"word"`
}

// DefaultWeights is the reference weighting scheme.
var DefaultWeights = Weights{Chapter: 0.3, Sentence: 0.25, Word: 0.45}

// Options control evaluation.
type Options struct {
	Weights Weights `json:"weights" yaml:"weights"`
	Combine Combine `json:"combine" yaml:"combine"`
	// PenalizeOmissions scores a consensus unit missing from a chapter the
	// edition does have as 0 - median instead of leaving it undefined.
	PenalizeOmissions bool `json:"penalize_omissions" yaml:"penalize_omissions"`
}

// DefaultOptions reproduces the reference metric.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights, Combine: Unweighted}
}

// Validate checks the combine mode and weights.
func (o Options) Validate() error {
	w := o.Weights
	if w.Chapter < 0 || w.Sentence < 0 || w.Word < 0 {
		return errors.New("submetric weights must not be negative")
	}
	switch o.Combine {
	case Unweighted:
	case Weighted:
		if w.Chapter+w.Sentence+w.Word == 0 {
			return errors.New("weighted combine needs at least one positive weight")
		}
	default:
		return fmt.Errorf("unknown combine mode %q (want %q or %q)", o.Combine, Unweighted, Weighted)
	}
	return nil
}

// Evaluate scores every edition of c against table.
func Evaluate(c *consensus.Corpus, table *consensus.Table, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if c == nil || table == nil {
		return nil, errors.New("evaluate needs both a corpus and a consensus table")
	}
	if c.ChapterCount != table.ChapterCount || len(table.Chapters) != table.ChapterCount {
		return nil, fmt.Errorf("corpus covers %d chapters but consensus table covers %d", c.ChapterCount, table.ChapterCount)
	}
	if len(c.Editions) == 0 || table.ChapterCount < 1 {
		return nil, consensus.ErrEmptyCorpus
	}

	report := &Report{
		ConsensusChapterCount: table.ChapterCount,
		Editions:              make([]EditionVariance, 0, len(c.Editions)),
	}
	for i := range c.Editions {
		report.Editions = append(report.Editions, evaluateEdition(&c.Editions[i], table, opts))
	}

	report.Submetric = corpusSubmetric(report.Editions)
	metric, err := combine(report.Submetric, opts)
	if err != nil {
		return nil, err
	}
	report.Metric = metric
	return report, nil
}

func evaluateEdition(e *consensus.EditionUnits, table *consensus.Table, opts Options) EditionVariance {
	ev := EditionVariance{
		Edition:         e.ID,
		ChapterCount:    e.ChapterCount,
		ChapterVariance: float64(e.ChapterCount - table.ChapterCount),
		Coverage:        float64(e.ChapterCount) / float64(table.ChapterCount),
		Chapters:        make([]ChapterVariance, 0, table.ChapterCount),
	}

	sentenceByChapter := make([]stats.Value, 0, table.ChapterCount)
	wordByChapter := make([]stats.Value, 0, table.ChapterCount)
	for n := 1; n <= table.ChapterCount; n++ {
		cv := evaluateChapter(e, table.Chapter(n), opts)
		if cv.Present {
			ev.PresentChapters++
		}
		sentenceByChapter = append(sentenceByChapter, cv.SentenceVariance)
		wordByChapter = append(wordByChapter, cv.WordVariance)
		ev.Chapters = append(ev.Chapters, cv)
	}

	ev.SentenceVariance = stats.Mean(sentenceByChapter...)
	ev.WordVariance = stats.Mean(wordByChapter...)
	return ev
}

func evaluateChapter(e *consensus.EditionUnits, ch *consensus.Chapter, opts Options) ChapterVariance {
	cv := ChapterVariance{
		Chapter:       ch.Index,
		Consensus:     ch.Defined(),
		LowConfidence: ch.LowConfidence,
	}
	observed, present := e.Chapters[ch.Index]
	cv.Present = present
	if !present || !ch.Defined() {
		// Missing chapter or no consensus: every unit is undefined.
		return cv
	}

	cv.Units = &UnitVariance{
		Sentences: unitVariance(observed, ch, consensus.Sentence, opts.PenalizeOmissions),
		Words:     unitVariance(observed, ch, consensus.Word, opts.PenalizeOmissions),
	}
	cv.SentenceVariance = meanOver(cv.Units.Sentences, ch.Sentences)
	cv.WordVariance = meanOver(cv.Units.Words, ch.Words)
	return cv
}

// unitVariance returns observed - median for every consensus unit. Units the
// edition lacks are undefined unless omissions are penalised.
func unitVariance(observed consensus.ChapterUnits, ch *consensus.Chapter, kind consensus.Kind, penalize bool) map[string]stats.Value {
	set, ok := ch.Units(kind)
	if !ok {
		return nil
	}
	freqs := observed.Of(kind)
	out := make(map[string]stats.Value, len(set))
	for unit, median := range set {
		count, has := freqs[unit]
		switch {
		case has && count > 0:
			out[unit] = stats.Of(float64(count) - median)
		case penalize:
			out[unit] = stats.Of(-median)
		default:
			out[unit] = stats.Undefined()
		}
	}
	return out
}

// meanOver averages values in the sorted unit order of set so the float sum,
// and therefore the report, is identical across runs.
func meanOver(values map[string]stats.Value, set consensus.Set) stats.Value {
	ordered := make([]stats.Value, 0, len(values))
	for _, unit := range set.SortedUnits() {
		ordered = append(ordered, values[unit])
	}
	return stats.Mean(ordered...)
}

func corpusSubmetric(editions []EditionVariance) Submetric {
	chapter := make([]stats.Value, 0, len(editions))
	sentence := make([]stats.Value, 0, len(editions))
	word := make([]stats.Value, 0, len(editions))
	coverage := make([]stats.Value, 0, len(editions))
	sub := Submetric{Coverage: make(map[string]float64, len(editions))}

	for _, ev := range editions {
		chapter = append(chapter, stats.Of(ev.ChapterVariance))
		sentence = append(sentence, ev.SentenceVariance)
		word = append(word, ev.WordVariance)
		coverage = append(coverage, stats.Of(ev.Coverage))
		sub.Coverage[ev.Edition] = ev.Coverage
	}

	sub.ChapterVariance = stats.Mean(chapter...)
	sub.SentenceVariance = stats.Mean(sentence...)
	sub.WordVariance = stats.Mean(word...)
	sub.MeanCoverage = stats.Mean(coverage...)
	return sub
}

func combine(sub Submetric, opts Options) (float64, error) {
	var result stats.Value
	switch opts.Combine {
	case Weighted:
		c, cok := sub.ChapterVariance.Get()
		s, sok := sub.SentenceVariance.Get()
		w, wok := sub.WordVariance.Get()
		result = stats.WeightedMean(
			[]float64{c, s, w},
			[]float64{opts.Weights.Chapter, opts.Weights.Sentence, opts.Weights.Word},
			[]bool{cok, sok, wok},
		)
	default:
		result = stats.Mean(sub.ChapterVariance, sub.SentenceVariance, sub.WordVariance)
	}

	metric, ok := result.Get()
	if !ok {
		return 0, errors.New("no submetric is defined; cannot compute metric")
	}
	return math.Abs(metric), nil
}
