package config

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/concord/internal/eval/consensus"
	"github.com/lehigh-university-libraries/concord/internal/eval/results"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := consensus.ValidateThreshold(c.Threshold); err != nil {
		return fmt.Errorf("consistency_threshold: %w", err)
	}
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if err := results.ValidateFormats(c.Formats); err != nil {
		return err
	}
	return nil
}
