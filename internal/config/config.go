// Package config handles meshtool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// Simplification modes.
const (
	ModeCount = "count" // reduce toward a triangle budget
	ModeError = "error" // collapse every edge under a fixed error
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all meshtool settings.
type Config struct {
	Simplify SimplifyConfig `yaml:"simplify"`
	Preview  PreviewConfig  `yaml:"preview"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SimplifyConfig holds simplifier parameters.
type SimplifyConfig struct {
	Mode           string  `yaml:"mode"`
	TargetRatio    float64 `yaml:"target_ratio"` // fraction of input triangles to keep
	TargetCount    int     `yaml:"target_count"` // absolute budget, wins over ratio when > 0
	Aggressiveness float64 `yaml:"aggressiveness"`
	MaxIterations  int     `yaml:"max_iterations"`
	Threshold      float64 `yaml:"threshold"` // error mode only
}

// PreviewConfig holds preview image settings.
type PreviewConfig struct {
	Size        int     `yaml:"size"`
	Supersample int     `yaml:"supersample"`
	Format      string  `yaml:"format"`
	Yaw         float32 `yaml:"yaw"`
	Pitch       float32 `yaml:"pitch"`
}

// BatchConfig holds batch run settings.
type BatchConfig struct {
	Workers  int    `yaml:"workers"` // 0 means one per CPU
	Previews bool   `yaml:"previews"`
	Report   string `yaml:"report"` // file name inside the output directory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Simplify: SimplifyConfig{
			Mode:           ModeCount,
			TargetRatio:    0.5,
			Aggressiveness: simplify.DefaultAggressiveness,
			MaxIterations:  simplify.DefaultMaxIterations,
			Threshold:      1e-4,
		},
		Preview: PreviewConfig{
			Size:        512,
			Supersample: 2,
			Format:      "png",
			Yaw:         30,
			Pitch:       20,
		},
		Batch: BatchConfig{
			Report: "report.yaml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Target returns the triangle budget for a mesh of inputTriangles.
func (s SimplifyConfig) Target(inputTriangles int) int {
	if s.TargetCount > 0 {
		return s.TargetCount
	}
	return int(float64(inputTriangles) * s.TargetRatio)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	s := c.Simplify
	switch s.Mode {
	case ModeCount:
		if s.TargetCount < 0 {
			return fmt.Errorf("%w: simplify.target_count %d", ErrInvalid, s.TargetCount)
		}
		if s.TargetCount == 0 && (s.TargetRatio <= 0 || s.TargetRatio > 1) {
			return fmt.Errorf("%w: simplify.target_ratio %g not in (0, 1]", ErrInvalid, s.TargetRatio)
		}
		if s.Aggressiveness <= 0 {
			return fmt.Errorf("%w: simplify.aggressiveness %g", ErrInvalid, s.Aggressiveness)
		}
	case ModeError:
		if s.Threshold < 0 {
			return fmt.Errorf("%w: simplify.threshold %g", ErrInvalid, s.Threshold)
		}
	default:
		return fmt.Errorf("%w: simplify.mode %q", ErrInvalid, s.Mode)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("%w: simplify.max_iterations %d", ErrInvalid, s.MaxIterations)
	}

	p := c.Preview
	if p.Size <= 0 {
		return fmt.Errorf("%w: preview.size %d", ErrInvalid, p.Size)
	}
	if p.Supersample < 1 || p.Supersample > 8 {
		return fmt.Errorf("%w: preview.supersample %d not in [1, 8]", ErrInvalid, p.Supersample)
	}
	switch p.Format {
	case "png", "webp", "tga":
	default:
		return fmt.Errorf("%w: preview.format %q", ErrInvalid, p.Format)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("%w: batch.workers %d", ErrInvalid, c.Batch.Workers)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}
