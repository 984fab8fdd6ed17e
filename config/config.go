// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads user defaults for the command line tools
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	iu "github.com/choria-io/extractvpk/internal/util"
	"github.com/choria-io/extractvpk/model"
)

// SystemDir holds system wide configuration
const SystemDir = "/etc/choria/extractvpk"

// FileName is the name of the configuration file in each directory
const FileName = "config.yaml"

// Config holds defaults applied when flags or job files do not set a value
type Config struct {
	Verify      bool           `json:"verify" yaml:"verify"`
	Flatten     bool           `json:"flatten" yaml:"flatten"`
	Concurrency int            `json:"concurrency" yaml:"concurrency"`
	LogFormat   string         `json:"log_format" yaml:"log_format"`
	ReportDir   string         `json:"report_dir" yaml:"report_dir"`
	MetricsFile string         `json:"metrics_file" yaml:"metrics_file"`
	Data        map[string]any `json:"data" yaml:"data"`

	// Files are the configuration files that were loaded, in load order
	Files []string `json:"-" yaml:"-"`
}

// UserDir holds configuration for the current user
func UserDir() string {
	return filepath.Join(xdg.ConfigHome, "choria", "extractvpk")
}

// Directories are the configuration directories in the order they are loaded
func Directories() []string {
	return []string{SystemDir, UserDir()}
}

// Load reads config.yaml from the system and user directories, later files deep merge over earlier ones
func Load(fs afero.Fs, log model.Logger) (*Config, error) {
	var files []string
	for _, dir := range Directories() {
		files = append(files, filepath.Join(dir, FileName))
	}

	return LoadFiles(fs, log, files...)
}

// LoadFiles reads the given configuration files, missing files are skipped
func LoadFiles(fs afero.Fs, log model.Logger, files ...string) (*Config, error) {
	if log == nil {
		log = model.NopLogger{}
	}

	merged := map[string]any{}
	var loaded []string

	for _, file := range files {
		if !iu.FileExists(fs, file) {
			continue
		}

		log.Debug("Reading configuration", "file", file)
		cb, err := afero.ReadFile(fs, file)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", file, err)
		}

		var c map[string]any
		err = yaml.Unmarshal(cb, &c)
		if err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", file, err)
		}

		merged = iu.DeepMergeMap(merged, c)
		loaded = append(loaded, file)
	}

	yb, err := yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(yb, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Data == nil {
		cfg.Data = map[string]any{}
	}

	cfg.Files = loaded

	return cfg, cfg.Validate()
}

// Validate checks the configuration values are usable
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid configuration: concurrency must not be negative")
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid configuration: log_format must be text or json")
	}

	return nil
}
