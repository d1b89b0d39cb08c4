// Package config loads annokit's run configuration from a YAML file,
// ANNOKIT_-prefixed environment variables, and CLI flag overrides, in
// that increasing order of priority, the same layered approach
// pkg/config uses in the reference pack this tool's CLI idiom is
// drawn from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FilterDef is one entry of the configured filter chain, loaded in
// file order and applied in that same order with no reordering.
type FilterDef struct {
	Type  string   `mapstructure:"type"`
	Chrom []string `mapstructure:"chromosomes"`
	Value float64  `mapstructure:"value"`
}

// Config is the fully resolved set of knobs internal/pipeline.Run
// needs. Nothing downstream of Load ever re-reads viper or the
// environment directly.
type Config struct {
	VCFFilename string `mapstructure:"vcf_filename"`

	HostURL string `mapstructure:"host_url"`
	Version string `mapstructure:"version"`
	Species string `mapstructure:"species"`

	NumThreads         int `mapstructure:"num_threads"`
	BatchSize          int `mapstructure:"batch_size"`
	MaxBatches         int `mapstructure:"max_batches"`
	VariantsPerRequest int `mapstructure:"variants_per_request"`

	OutputDirectory string `mapstructure:"output_directory"`
	OutputFilename  string `mapstructure:"output_filename"`

	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	MetricsAddr  string `mapstructure:"metrics_addr"`
	ArrowSummary bool   `mapstructure:"arrow_summary"`
	Progress     bool   `mapstructure:"progress"`

	Filters []FilterDef `mapstructure:"filters"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("num_threads", 4)
	v.SetDefault("batch_size", 2000)
	v.SetDefault("max_batches", 0)
	v.SetDefault("variants_per_request", 200)
	v.SetDefault("output_directory", "output")
	v.SetDefault("requests_per_second", 0.0)
	v.SetDefault("arrow_summary", true)
	v.SetDefault("progress", true)
	v.SetDefault("version", "v4")
}

// Load reads path (an annokit.yaml-shaped file) if it exists, layers
// ANNOKIT_-prefixed environment variables on top, and returns the
// resolved Config. A missing file is not an error: defaults plus
// environment variables alone can produce a valid Config, matching
// the reference pack's "file is optional" behavior.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ANNOKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"vcf_filename", "host_url", "species", "output_filename", "metrics_addr"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ApplyFlagOverrides applies non-zero-value overrides collected from
// CLI flags on top of an already-loaded Config, giving flags the
// final word per the flags > env > file > defaults priority order.
func ApplyFlagOverrides(cfg *Config, overrides map[string]string) error {
	for key, val := range overrides {
		if val == "" {
			continue
		}
		switch key {
		case "vcf_filename":
			cfg.VCFFilename = val
		case "host_url":
			cfg.HostURL = val
		case "version":
			cfg.Version = val
		case "species":
			cfg.Species = val
		case "output_directory":
			cfg.OutputDirectory = val
		case "output_filename":
			cfg.OutputFilename = val
		case "metrics_addr":
			cfg.MetricsAddr = val
		default:
			return fmt.Errorf("config: unknown flag override key %q", key)
		}
	}
	return nil
}

// Validate checks the fields internal/pipeline.Run needs set before it
// can even compose the service URL, so a misconfiguration fails fast
// rather than after the reader has already started.
func (c *Config) Validate() error {
	if c.VCFFilename == "" {
		return fmt.Errorf("config: vcf_filename is required")
	}
	if c.HostURL == "" || c.Version == "" || c.Species == "" {
		return fmt.Errorf("config: host_url, version and species are all required")
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("config: num_threads must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive")
	}
	if c.VariantsPerRequest <= 0 {
		return fmt.Errorf("config: variants_per_request must be positive")
	}
	return nil
}
