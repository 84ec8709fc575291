// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confharvest/pkg/types"
)

const (
	summaryFile    = "download_summary.json"
	downloadedFile = "downloaded_papers.json"
	failedFile     = "failed_papers.json"
	manifestFile   = "run.yaml"
)

// Manifest describes one run; it is written as metadata/run.yaml.
type Manifest struct {
	RunID      string    `yaml:"run_id"`
	Venue      string    `yaml:"venue"`
	Year       int       `yaml:"year"`
	EventTypes []string  `yaml:"event_types"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Workers    int       `yaml:"workers"`
	Summary    Summary   `yaml:"summary"`
}

// writeOutputs writes the downloaded and failed paper lists and the
// summary report.
func writeOutputs(dir string, papers []types.Paper, summary Summary) error {
	downloaded := []types.Paper{}
	failed := []types.Paper{}
	for _, p := range papers {
		if p.DownloadStatus == types.StatusFailed {
			failed = append(failed, p)
		} else {
			downloaded = append(downloaded, p)
		}
	}
	if err := writeJSON(filepath.Join(dir, metadataDir, downloadedFile), downloaded); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, metadataDir, failedFile), failed); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, summaryFile), summary)
}

// ReadSummary loads the summary report of the last run in dir.
func ReadSummary(dir string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(filepath.Join(dir, summaryFile))
	if err != nil {
		return s, fmt.Errorf("reading summary: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing summary: %w", err)
	}
	return s, nil
}

// ReadManifest loads metadata/run.yaml from dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, metadataDir, manifestFile))
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return writeFile(path, data)
}

// writeFile writes through a temp file and rename so readers never see a
// partial file.
func writeFile(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
