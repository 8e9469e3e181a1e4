package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".regexlab.yaml"

// FileConfig is the optional configuration file. Flags override it.
type FileConfig struct {
	// MatchOptions apply when --options is not given.
	MatchOptions []string `yaml:"matchOptions"`
	// MaxSteps bounds a debugger pass. Zero keeps the default.
	MaxSteps int `yaml:"maxSteps"`
	// MaxMatches bounds the matches of one request. Zero keeps the default.
	MaxMatches int `yaml:"maxMatches"`
	// Color is auto, always or never.
	Color string `yaml:"color"`
}

// loadConfig reads path. A missing file yields the zero configuration
// unless the path was given explicitly.
func loadConfig(path string, explicit bool) (FileConfig, error) {
	var cfg FileConfig
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfig creates path with the default configuration.
func writeConfig(path string) error {
	cfg := FileConfig{
		MatchOptions: []string{},
		Color:        "auto",
	}
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}
