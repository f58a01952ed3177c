package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Chunking Chunking `yaml:"chunking"`
	Gemini   Gemini   `yaml:"gemini"`
	Retry    Retry    `yaml:"retry"`
	Paths    Paths    `yaml:"paths"`
	Output   Output   `yaml:"output"`
	Watch    Watch    `yaml:"watch"`
	Logging  Logging  `yaml:"logging"`
}

type Chunking struct {
	TargetChars     int `yaml:"target_chars"`
	MaxChars        int `yaml:"max_chars"`
	MinSummaryChars int `yaml:"min_summary_chars"`
	BridgeChars     int `yaml:"bridge_chars"`
}

type Gemini struct {
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

type Retry struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxJitterMS int `yaml:"max_jitter_ms"`
}

type Paths struct {
	Output string `yaml:"output"`
	Input  string `yaml:"input"`
}

type Output struct {
	FinalSummary bool `yaml:"final_summary"`
	ExportDocx   bool `yaml:"export_docx"`
	DumpChunks   bool `yaml:"dump_chunks"`
}

type Watch struct {
	Enabled bool `yaml:"enabled"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Load reads and validates a yaml config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if c.Watch.Enabled && c.Paths.Input == "" {
		return fmt.Errorf("paths.input is required when watch is enabled")
	}

	if c.Chunking.TargetChars == 0 {
		c.Chunking.TargetChars = 4000
	}
	if c.Chunking.MaxChars == 0 {
		c.Chunking.MaxChars = 6000
	}
	if c.Chunking.TargetChars > c.Chunking.MaxChars {
		return fmt.Errorf("chunking.target_chars (%d) must not exceed chunking.max_chars (%d)",
			c.Chunking.TargetChars, c.Chunking.MaxChars)
	}
	if c.Chunking.MinSummaryChars < 0 {
		return fmt.Errorf("chunking.min_summary_chars must not be negative")
	}
	if c.Chunking.BridgeChars == 0 {
		c.Chunking.BridgeChars = 400
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = 0.7
	}
	if c.Gemini.MaxOutputTokens == 0 {
		c.Gemini.MaxOutputTokens = 1600
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 6
	}
	if c.Retry.BaseDelayMS == 0 {
		c.Retry.BaseDelayMS = 500
	}
	if c.Retry.MaxJitterMS == 0 {
		c.Retry.MaxJitterMS = 300
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
