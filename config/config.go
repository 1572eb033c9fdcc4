// Package config loads tokenwheel configuration from an optional YAML file,
// falling back to built-in defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cmmiller26/ai-fun-token-wheel/wheel"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ModelConfig selects the vocabulary model's training corpus. An empty
// CorpusPath uses the embedded default corpus.
type ModelConfig struct {
	CorpusPath string `yaml:"corpus_path"`
	Order      int    `yaml:"order"`
}

// ThresholdConfig holds the default dual-threshold selection parameters
// applied when a start request does not supply its own.
type ThresholdConfig struct {
	Primary   float64 `yaml:"primary"`
	Secondary float64 `yaml:"secondary"`
}

// GenerationConfig bounds generation and display.
type GenerationConfig struct {
	// MaxLength stops a session once its context reaches this many tokens.
	MaxLength int `yaml:"max_length"`
	// TopOtherCount is how many concrete tokens the "other" bucket previews.
	TopOtherCount int `yaml:"top_other_count"`
}

// SessionConfig controls idle-session eviction.
type SessionConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// Config is the full server configuration.
type Config struct {
	Addr       string           `yaml:"addr"`
	Model      ModelConfig      `yaml:"model"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Generation GenerationConfig `yaml:"generation"`
	Sessions   SessionConfig    `yaml:"sessions"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr: ":8080",
		Model: ModelConfig{
			Order: 3,
		},
		Thresholds: ThresholdConfig{
			Primary:   0.1,
			Secondary: 0.05,
		},
		Generation: GenerationConfig{
			MaxLength:     50,
			TopOtherCount: 5,
		},
		Sessions: SessionConfig{
			TTL:           Duration(30 * time.Minute),
			SweepInterval: Duration(time.Minute),
		},
	}
}

// Load reads configuration from path, layered over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	if err := wheel.ValidateThresholds(c.Thresholds.Primary, c.Thresholds.Secondary); err != nil {
		return err
	}
	if c.Generation.MaxLength < 1 {
		return fmt.Errorf("%w: max_length must be >= 1", wheel.ErrInvalidConfiguration)
	}
	if c.Sessions.TTL <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("%w: session ttl and sweep_interval must be positive", wheel.ErrInvalidConfiguration)
	}
	return nil
}
