// Package config parses wirevm.yaml, the configuration for the wirevm
// command-line tooling (fuzzing campaign parameters, corpus location, the
// evaluation service address, and terminal output behavior).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level wirevm.yaml configuration.
type Config struct {
	Fuzz  Fuzz  `yaml:"fuzz,omitempty"`
	Serve Serve `yaml:"serve,omitempty"`

	// Color controls terminal coloring: "auto" (TTY detection), "always" or
	// "never". Defaults to "auto".
	Color string `yaml:"color,omitempty"`
}

// Fuzz configures the `wirevm fuzz` campaign.
type Fuzz struct {
	// Seed for the random program generator. 0 picks a time-based seed.
	Seed int64 `yaml:"seed,omitempty"`

	// Samples is the number of programs to generate and execute.
	// Defaults to 1000.
	Samples int `yaml:"samples,omitempty"`

	// Corpus is the path of the SQLite sample store failing programs are
	// recorded to. Defaults to "wirevm-corpus.db".
	Corpus string `yaml:"corpus,omitempty"`

	// KeepPassing also records samples that ran to completion, which makes
	// campaigns reproducible at the cost of corpus size. Defaults to false.
	KeepPassing bool `yaml:"keep_passing,omitempty"`
}

// Serve configures the `wirevm serve` evaluation service.
type Serve struct {
	// Addr is the TCP listen address. Defaults to "127.0.0.1:9693".
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no wirevm.yaml is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a wirevm.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses wirevm.yaml content from bytes. The path argument is used
// only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("%s: color must be auto, always or never, got %q", path, c.Color)
	}
	if c.Fuzz.Samples < 0 {
		return fmt.Errorf("%s: fuzz.samples must not be negative, got %d", path, c.Fuzz.Samples)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Color == "" {
		c.Color = "auto"
	}
	if c.Fuzz.Samples == 0 {
		c.Fuzz.Samples = 1000
	}
	if c.Fuzz.Corpus == "" {
		c.Fuzz.Corpus = "wirevm-corpus.db"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = "127.0.0.1:9693"
	}
}
