package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
	if cfg.Threshold != 0.5 {
		t.Errorf("Expected Threshold=0.5, got %v", cfg.Threshold)
	}
	if cfg.Combine != variance.Unweighted {
		t.Errorf("Expected Combine=unweighted, got %s", cfg.Combine)
	}
	if cfg.PenalizeOmissions {
		t.Error("Expected PenalizeOmissions=false by default")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "concord.yaml", `
work: Adventures of Huckleberry Finn
consistency_threshold: 0.6
combine: weighted
weights:
  chapter: 0.2
  sentence: 0.3
  word: 0.5
formats: [json]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Work != "Adventures of Huckleberry Finn" {
		t.Errorf("Unexpected Work %q", cfg.Work)
	}
	if cfg.Threshold != 0.6 {
		t.Errorf("Expected Threshold=0.6, got %v", cfg.Threshold)
	}
	if cfg.Combine != variance.Weighted {
		t.Errorf("Expected Combine=weighted, got %s", cfg.Combine)
	}
	expected := variance.Weights{Chapter: 0.2, Sentence: 0.3, Word: 0.5}
	if cfg.Weights != expected {
		t.Errorf("Expected Weights=%+v, got %+v", expected, cfg.Weights)
	}
	if !reflect.DeepEqual(cfg.Formats, []string{"json"}) {
		t.Errorf("Expected Formats=[json], got %v", cfg.Formats)
	}
	if cfg.OutputDir != Default().OutputDir {
		t.Errorf("Expected unset OutputDir to keep default, got %q", cfg.OutputDir)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "concord.toml", `
consistency_threshold = 0.75
penalize_omissions = true
workers = 3
history_db = "runs.db"

[weights]
chapter = 0.3
sentence = 0.25
word = 0.45
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Threshold != 0.75 {
		t.Errorf("Expected Threshold=0.75, got %v", cfg.Threshold)
	}
	if !cfg.PenalizeOmissions {
		t.Error("Expected PenalizeOmissions=true")
	}
	if cfg.Workers != 3 {
		t.Errorf("Expected Workers=3, got %d", cfg.Workers)
	}
	if cfg.HistoryDB != "runs.db" {
		t.Errorf("Expected HistoryDB=runs.db, got %q", cfg.HistoryDB)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "c.yaml", content: "threshold: 0.5\n"},
		{name: "toml", file: "c.toml", content: "threshold = 0.5\n"},
		{name: "extension", file: "c.ini", content: "threshold=0.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CONCORD_THRESHOLD":          "0.4",
		"CONCORD_COMBINE":            "Weighted",
		"CONCORD_PENALIZE_OMISSIONS": "true",
		"CONCORD_WORKERS":            "2",
		"CONCORD_FORMATS":            "csv, yaml",
		"CONCORD_OUTPUT_DIR":         "out",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Threshold != 0.4 || cfg.Combine != variance.Weighted || !cfg.PenalizeOmissions || cfg.Workers != 2 {
		t.Errorf("Unexpected config after env: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Formats, []string{"csv", "yaml"}) {
		t.Errorf("Expected Formats=[csv yaml], got %v", cfg.Formats)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("Expected OutputDir=out, got %q", cfg.OutputDir)
	}

	bad := Default()
	if err := bad.ApplyEnv(func(k string) (string, bool) {
		if k == "CONCORD_WORKERS" {
			return "many", true
		}
		return noEnv(k)
	}); err == nil {
		t.Error("Expected error for non-numeric CONCORD_WORKERS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero threshold", mutate: func(c *Config) { c.Threshold = 0 }},
		{name: "threshold above one", mutate: func(c *Config) { c.Threshold = 1.5 }},
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Word = -1 }},
		{name: "zero weights weighted", mutate: func(c *Config) {
			c.Combine = variance.Weighted
			c.Weights = variance.Weights{}
		}},
		{name: "unknown combine", mutate: func(c *Config) { c.Combine = "geometric" }},
		{name: "unknown format", mutate: func(c *Config) { c.Formats = []string{"xlsx"} }},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	one := Default()
	one.Threshold = 1
	if err := one.Validate(); err != nil {
		t.Errorf("Expected threshold 1 to be valid, got %v", err)
	}
}
