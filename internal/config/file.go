package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML file at path onto cfg. An empty path searches
// the default locations; finding nothing there is not an error. An explicit
// path that does not exist is. Unknown keys are rejected so typos surface.
func LoadFile(cfg *Config, path string) (string, error) {
	explicit := path != ""
	if !explicit {
		path = findConfigFile()
		if path == "" {
			return "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("parse config %s: %w", path, err)
	}
	return path, nil
}

// findConfigFile returns the first existing candidate: ./ffconvert.yaml,
// ./ffconvert.yml, then $HOME/.config/ffconvert/config.yaml.
func findConfigFile() string {
	candidates := []string{
		"./ffconvert.yaml",
		"./ffconvert.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "ffconvert", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
