package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".recall"
	configFileName = "config.yaml"
)

// fileConfig is the optional on-disk config layer: a subset of Config's
// fields, all optional, read before flags/env so either can still
// override it. Mirrors kraklabs-mie's config.yaml shape (version +
// nested sections) generalised to recall's flatter settings.
type fileConfig struct {
	DB             string `yaml:"db"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embeddingModel"`
	UserID         string `yaml:"userId"`
	Verbose        bool   `yaml:"verbose"`
}

// applyFile loads path (if non-empty) and overlays its non-zero fields
// onto cfg. With an empty path it searches for .recall/config.yaml, and
// finding none is not an error: the file layer is entirely optional. An
// explicit path that cannot be read or parsed is an error.
func (c *Config) applyFile(path string) error {
	if path == "" {
		var err error
		path, err = findConfigFile()
		if err != nil {
			return nil // no config file anywhere; fall through to flags/env
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.DB != "" {
		c.DB = fc.DB
	}
	if fc.Model != "" {
		c.Model = fc.Model
	}
	if fc.EmbeddingModel != "" {
		c.EmbeddingModel = fc.EmbeddingModel
	}
	if fc.UserID != "" {
		c.UserID = fc.UserID
	}
	if fc.Verbose {
		c.Verbose = true
	}
	return nil
}

// findConfigFile searches for .recall/config.yaml in the working
// directory and its ancestors, same walk-up-to-root strategy as
// kraklabs-mie's findConfigFile.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, configDirName, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s/%s found", configDirName, configFileName)
}
