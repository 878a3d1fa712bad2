package bridgefile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of bridges.yaml.
type Loader struct {
	filePath string
}

// NewLoader creates a new bridges.yaml loader.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the bridges file.
func (l *Loader) Load() (BridgesConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return BridgesConfig{}, fmt.Errorf("failed to read bridges file: %w", err)
	}

	var config BridgesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return BridgesConfig{}, fmt.Errorf("failed to parse bridges yaml: %w", err)
	}

	return config, nil
}
