package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lehigh-university-libraries/concord/internal/stats"
)

// SchemaSQL creates the run history tables.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    work TEXT,
    generated_at TEXT NOT NULL,
    threshold REAL NOT NULL,
    combine TEXT NOT NULL,
    penalize_omissions INTEGER NOT NULL,
    consensus_chapter_count INTEGER NOT NULL,
    edition_count INTEGER NOT NULL,
    metric REAL NOT NULL,
    chapter_variance REAL,
    sentence_variance REAL,
    word_variance REAL,
    mean_coverage REAL
);

CREATE TABLE IF NOT EXISTS edition_scores (
    run_id TEXT NOT NULL REFERENCES runs(id),
    edition TEXT NOT NULL,
    chapter_count INTEGER NOT NULL,
    present_chapters INTEGER NOT NULL,
    chapter_variance REAL NOT NULL,
    coverage REAL NOT NULL,
    sentence_variance REAL,
    word_variance REAL,
    PRIMARY KEY (run_id, edition)
);

CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at);
`

// timeLayout is fixed width so generated_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps a history of runs in SQLite.
type Store struct {
	db *sql.DB
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID                    string
	Work                  string
	GeneratedAt           time.Time
	Threshold             float64
	Combine               string
	PenalizeOmissions     bool
	ConsensusChapterCount int
	EditionCount          int
	Metric                float64
	ChapterVariance       stats.Value
	SentenceVariance      stats.Value
	WordVariance          stats.Value
	MeanCoverage          stats.Value
}

// EditionScore is one row of the edition_scores table.
type EditionScore struct {
	RunID            string
	Edition          string
	ChapterCount     int
	PresentChapters  int
	ChapterVariance  float64
	Coverage         float64
	SentenceVariance stats.Value
	WordVariance     stats.Value
}

// OpenStore opens, creating if needed, the history database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts run and its per-edition scores in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sub := run.Submetric
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, work, generated_at, threshold, combine, penalize_omissions,
			consensus_chapter_count, edition_count, metric,
			chapter_variance, sentence_variance, word_variance, mean_coverage)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID,
		run.Work,
		run.GeneratedAt.UTC().Format(timeLayout),
		run.Threshold(),
		string(run.Options.Combine),
		run.Options.PenalizeOmissions,
		run.ConsensusChapterCount,
		len(run.Report.Editions),
		run.Metric,
		nullable(sub.ChapterVariance),
		nullable(sub.SentenceVariance),
		nullable(sub.WordVariance),
		nullable(sub.MeanCoverage),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, ev := range run.Report.Editions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edition_scores(run_id, edition, chapter_count, present_chapters,
				chapter_variance, coverage, sentence_variance, word_variance)
			VALUES(?,?,?,?,?,?,?,?)`,
			run.ID,
			ev.Edition,
			ev.ChapterCount,
			ev.PresentChapters,
			ev.ChapterVariance,
			ev.Coverage,
			nullable(ev.SentenceVariance),
			nullable(ev.WordVariance),
		); err != nil {
			return fmt.Errorf("insert edition score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, work, generated_at, threshold, combine, penalize_omissions,
		consensus_chapter_count, edition_count, metric,
		chapter_variance, sentence_variance, word_variance, mean_coverage
		FROM runs ORDER BY generated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec            RunRecord
			work           sql.NullString
			generatedAt    string
			chapter, sent  sql.NullFloat64
			word, coverage sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &work, &generatedAt, &rec.Threshold, &rec.Combine, &rec.PenalizeOmissions,
			&rec.ConsensusChapterCount, &rec.EditionCount, &rec.Metric,
			&chapter, &sent, &word, &coverage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Work = work.String
		rec.GeneratedAt, err = time.Parse(timeLayout, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", generatedAt, err)
		}
		rec.ChapterVariance = fromNull(chapter)
		rec.SentenceVariance = fromNull(sent)
		rec.WordVariance = fromNull(word)
		rec.MeanCoverage = fromNull(coverage)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// EditionScores returns the per-edition rows recorded for runID.
func (s *Store) EditionScores(ctx context.Context, runID string) ([]EditionScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, edition, chapter_count, present_chapters, chapter_variance, coverage,
			sentence_variance, word_variance
		FROM edition_scores WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query edition scores: %w", err)
	}
	defer rows.Close()

	var out []EditionScore
	for rows.Next() {
		var (
			score      EditionScore
			sent, word sql.NullFloat64
		)
		if err := rows.Scan(&score.RunID, &score.Edition, &score.ChapterCount, &score.PresentChapters,
			&score.ChapterVariance, &score.Coverage, &sent, &word); err != nil {
			return nil, fmt.Errorf("scan edition score: %w", err)
		}
		score.SentenceVariance = fromNull(sent)
		score.WordVariance = fromNull(word)
		out = append(out, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edition scores: %w", err)
	}
	return out, nil
}

func nullable(v stats.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func fromNull(n sql.NullFloat64) stats.Value {
	if !n.Valid {
		return stats.Undefined()
	}
	return stats.Of(n.Float64)
}
