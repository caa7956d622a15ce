// Package config resolves run settings from defaults, an optional YAML or
// TOML file, CONCORD_* environment variables, and finally CLI flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/eval/results"
	"github.com/lehigh-university-libraries/concord/internal/eval/variance"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONCORD_"

// Config holds the settings for one consensus run.
type Config struct {
	Work              string           `yaml:"work" toml:"work"`
	Threshold         float64          `yaml:"consistency_threshold" toml:"consistency_threshold"`
	Combine           variance.Combine `yaml:"combine" toml:"combine"`
	PenalizeOmissions bool             `yaml:"penalize_omissions" toml:"penalize_omissions"`
	Weights           variance.Weights `yaml:"weights" toml:"weights"`
	Workers           int              `yaml:"workers" toml:"workers"`
	OutputDir         string           `yaml:"output_dir" toml:"output_dir"`
	Formats           []string         `yaml:"formats" toml:"formats"`
	// HistoryDB is the SQLite run history; empty disables recording.
	HistoryDB string `yaml:"history_db" toml:"history_db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threshold: consensus.DefaultThreshold,
		Combine:   variance.Unweighted,
		Weights:   variance.DefaultWeights,
		Workers:   runtime.NumCPU(),
		OutputDir: "concord_results",
		Formats:   []string{results.FormatJSON, results.FormatCSV, results.FormatYAML},
	}
}

// Load returns the defaults overlaid with the file at path, if any, and then
// with the environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .toml)", ext)
	}
	return nil
}

// ApplyEnv overlays CONCORD_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("WORK"); ok {
		c.Work = v
	}
	if v, ok := get("THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %sTHRESHOLD: %w", EnvPrefix, err)
		}
		c.Threshold = f
	}
	if v, ok := get("COMBINE"); ok {
		c.Combine = variance.Combine(strings.ToLower(v))
	}
	if v, ok := get("PENALIZE_OMISSIONS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sPENALIZE_OMISSIONS: %w", EnvPrefix, err)
		}
		c.PenalizeOmissions = b
	}
	if v, ok := get("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	if v, ok := get("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := get("FORMATS"); ok {
		c.Formats = SplitList(v)
	}
	if v, ok := get("HISTORY_DB"); ok {
		c.HistoryDB = v
	}
	return nil
}

// Options returns the evaluator options described by c.
func (c *Config) Options() variance.Options {
	return variance.Options{
		Weights:           c.Weights,
		Combine:           c.Combine,
		PenalizeOmissions: c.PenalizeOmissions,
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
