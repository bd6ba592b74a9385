// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Requirements string `json:"requirements,omitempty"` // Path to the requirement list (.json or .csv)
	KnowledgeDir string `json:"knowledge_dir,omitempty"` // Knowledge-base directory scanned at build time
	Output       string `json:"output,omitempty"`        // Final artifact path
	WorkDir      string `json:"work_dir,omitempty"`      // Working directory for cache and intermediates
	Template     string `json:"template,omitempty"`      // Optional template file prepended to the fallback chain

	// Generation
	APIKey    string   `json:"api_key,omitempty"`   // Gemini API key
	Endpoints []string `json:"endpoints,omitempty"` // Ordered model endpoint fallback chain
	TopK      int      `json:"top_k,omitempty"`     // Retrieval depth per requirement
	Workers   int      `json:"workers,omitempty"`   // Concurrent requirement resolutions

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Requirements == "" {
		result.Requirements = defaults.Requirements
	}
	if result.KnowledgeDir == "" {
		result.KnowledgeDir = defaults.KnowledgeDir
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.WorkDir == "" {
		result.WorkDir = defaults.WorkDir
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	if len(result.Endpoints) == 0 {
		result.Endpoints = defaults.Endpoints
	}

	// Int fields: 0 means unset
	if result.TopK == 0 {
		result.TopK = defaults.TopK
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	return result
}

// Validate checks that the configuration has valid values.
// Required-field checks happen after CLI flag merging, not here.
func (c *Config) Validate() error {
	if c.TopK < 0 {
		return fmt.Errorf("config error: 'top_k' must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config error: 'workers' must be non-negative")
	}

	if c.Requirements != "" {
		if _, err := os.Stat(c.Requirements); os.IsNotExist(err) {
			return fmt.Errorf("config error: requirements file not found: %s", c.Requirements)
		}
	}
	if c.KnowledgeDir != "" {
		if _, err := os.Stat(c.KnowledgeDir); os.IsNotExist(err) {
			return fmt.Errorf("config error: knowledge directory not found: %s", c.KnowledgeDir)
		}
	}
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}
