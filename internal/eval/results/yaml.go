package results

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// SummaryConfig is the configuration section of results.yaml.
type SummaryConfig struct {
	RunID                 string           `yaml:"runid"`
	Work                  string           `yaml:"work,omitempty"`
	Threshold             float64          `yaml:"threshold"`
	Combine               variance.Combine `yaml:"combine"`
	PenalizeOmissions     bool             `yaml:"penalizeomissions"`
	ConsensusChapterCount int              `yaml:"consensuschaptercount"`
	LowConfidence         []int            `yaml:"lowconfidence,omitempty"`
	NoConsensus           []int            `yaml:"noconsensus,omitempty"`
	Timestamp             string           `yaml:"timestamp"`
}

// EditionSummary is one edition's line in results.yaml.
type EditionSummary struct {
	Edition          string      `yaml:"edition"`
	ChapterCount     int         `yaml:"chaptercount"`
	PresentChapters  int         `yaml:"presentchapters"`
	ChapterVariance  float64     `yaml:"chaptervariance"`
	Coverage         float64     `yaml:"coverage"`
	SentenceVariance stats.Value `yaml:"sentencevariance"`
	WordVariance     stats.Value `yaml:"wordvariance"`
}

// Summary is the complete results.yaml document.
type Summary struct {
	Config    SummaryConfig      `yaml:"config"`
	Metric    float64            `yaml:"metric"`
	Submetric variance.Submetric `yaml:"submetric"`
	Editions  []EditionSummary   `yaml:"editions"`
}

// NewSummary condenses a run to per-edition aggregates.
func NewSummary(run *Run) *Summary {
	s := &Summary{
		Config: SummaryConfig{
			RunID:                 run.ID,
			Work:                  run.Work,
			Threshold:             run.Threshold(),
			Combine:               run.Options.Combine,
			PenalizeOmissions:     run.Options.PenalizeOmissions,
			ConsensusChapterCount: run.ConsensusChapterCount,
			Timestamp:             run.GeneratedAt.Format("2006-01-02_15-04-05"),
		},
		Metric:    run.Metric,
		Submetric: run.Submetric,
		Editions:  make([]EditionSummary, 0, len(run.Report.Editions)),
	}
	if run.Consensus != nil {
		s.Config.LowConfidence = run.Consensus.LowConfidence()
		s.Config.NoConsensus = run.Consensus.Undefined()
	}

	for _, ev := range run.Report.Editions {
		s.Editions = append(s.Editions, EditionSummary{
			Edition:          ev.Edition,
			ChapterCount:     ev.ChapterCount,
			PresentChapters:  ev.PresentChapters,
			ChapterVariance:  ev.ChapterVariance,
			Coverage:         ev.Coverage,
			SentenceVariance: ev.SentenceVariance,
			WordVariance:     ev.WordVariance,
		})
	}
	return s
}

// SaveYAML writes results.yaml to outputDir.
func SaveYAML(run *Run, outputDir string) (string, error) {
	data, err := yaml.Marshal(NewSummary(run))
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := filepath.Join(outputDir, SummaryFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return path, nil
}
