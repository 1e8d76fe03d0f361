package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const defaultConfigName = ".hh.yaml"

type Config struct {
	Hadoop       []string `yaml:"hadoop"`
	Java         string   `yaml:"java"`
	ListingURL   string   `yaml:"listing_url"`
	CacheDir     string   `yaml:"cache_dir"`
	ToolPattern  string   `yaml:"tool_pattern"`
	RemoveSource *bool    `yaml:"remove_source"`
	Strict       bool     `yaml:"strict"`
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	removeSource := true
	return &Config{
		Hadoop:       []string{"hadoop", "fs"},
		Java:         "java",
		ListingURL:   DefaultListingURL,
		CacheDir:     home,
		ToolPattern:  DefaultToolPattern,
		RemoveSource: &removeSource,
	}
}

// LoadConfig reads path over the defaults. With an empty path the file
// ~/.hh.yaml is read if it exists.
func LoadConfig(path string) (*Config, string, error) {
	cfg := defaultConfig()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, "", nil
		}
		path = filepath.Join(home, defaultConfigName)
		if !exists(path) {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

func (c *Config) Validate() error {
	if len(c.Hadoop) == 0 || c.Hadoop[0] == "" {
		return fmt.Errorf("hadoop: command must not be empty")
	}
	if c.Java == "" {
		return fmt.Errorf("java: command must not be empty")
	}
	if _, err := c.Pattern(); err != nil {
		return err
	}
	return nil
}

// validateCache is checked only where the converter tool is needed.
func (c *Config) validateCache() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir: must not be empty")
	}
	return nil
}

func (c *Config) Pattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.ToolPattern)
	if err != nil {
		return nil, fmt.Errorf("tool_pattern: %w", err)
	}
	return re, nil
}

func (c *Config) removeSource() bool {
	return c.RemoveSource == nil || *c.RemoveSource
}
