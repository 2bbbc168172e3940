package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes a batch of CRM report files to import in one run.
type Manifest struct {
	UserID  string   `yaml:"user_id"`
	Reports []Report `yaml:"reports"`
}

// Report is a single export file to be processed. Type is "leads" or
// "booked"; when empty the parser detects the type from the file itself.
type Report struct {
	Type     string `yaml:"type"`
	FilePath string `yaml:"file"`
}

// File returns the absolute path to the report file, expanding ~.
func (r *Report) File() (string, error) {
	if strings.HasPrefix(r.FilePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, r.FilePath[2:]), nil
	}
	return r.FilePath, nil
}

// ManifestFromFile reads an import manifest from a YAML file.
func ManifestFromFile(filePath string) (*Manifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(manifest.Reports) == 0 {
		return nil, fmt.Errorf("manifest has no reports")
	}
	return &manifest, nil
}
