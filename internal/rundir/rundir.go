// Package rundir implements the run-directory conventions shared by all
// pipeline stages: fixed stage filenames, run ID generation, the
// write-once output guard, and the yaml run manifest.
package rundir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Stage filenames, standardized across all runs. Each stage locates its
// input and output relative to one run directory.
const (
	RawFile      = "crawl_raw.jsonl"
	RawCSVFile   = "crawl_raw.csv"
	CleanFile    = "crawl_clean.jsonl"
	SlicedFile   = "crawl_sliced.jsonl"
	TaggedFile   = "crawl_tagged.jsonl"
	QAFile       = "qa_training.jsonl"
	ManifestFile = "manifest.yaml"
)

var (
	// ErrMissingInput is returned when a stage's input file is absent.
	ErrMissingInput = errors.New("missing input file")

	// ErrOutputExists is returned when a stage's output file already
	// exists. Stage outputs are write-once; a partial file from a killed
	// run must be deleted manually before rerunning.
	ErrOutputExists = errors.New("refusing to overwrite existing file")
)

// NewRunID generates a unique run identifier of the form
// run_2025-12-22_21-11-29_e1b874.
func NewRunID() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("run_%s_%s", timestamp, suffix)
}

// Create makes a fresh run directory under root/runs and returns its path.
func Create(root string) (string, error) {
	dir := filepath.Join(root, "runs", NewRunID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

// Validate checks that dir exists and is a directory.
func Validate(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("invalid run directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid run directory %s: not a directory", dir)
	}
	return nil
}

// RequireInput returns the path of name inside dir, failing with
// ErrMissingInput if it does not exist.
func RequireInput(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	return path, nil
}

// GuardOutput returns the path of name inside dir, failing with
// ErrOutputExists if a file is already there.
func GuardOutput(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return path, nil
}

// OutputExists reports whether name is already present in dir. The
// tagger uses this to turn a rerun into a no-op instead of an error.
func OutputExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// StageEntry records one completed stage in the manifest.
type StageEntry struct {
	CompletedAt string `yaml:"completed_at"`
	RecordsIn   int    `yaml:"records_in"`
	RecordsOut  int    `yaml:"records_out"`
	Output      string `yaml:"output"`
}

// Manifest carries run metadata across stages. Unlike stage data files
// it is rewritten as each stage completes.
type Manifest struct {
	RunID     string                `yaml:"run_id"`
	SeedURL   string                `yaml:"seed_url,omitempty"`
	CreatedAt string                `yaml:"created_at"`
	Stages    map[string]StageEntry `yaml:"stages"`
}

// NewManifest creates a manifest for a run directory.
func NewManifest(dir string) *Manifest {
	return &Manifest{
		RunID:     filepath.Base(dir),
		CreatedAt: time.Now().Format(time.RFC3339),
		Stages:    make(map[string]StageEntry),
	}
}

// LoadManifest reads the manifest from dir, returning a fresh one if the
// file does not exist yet.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return NewManifest(dir), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Stages == nil {
		m.Stages = make(map[string]StageEntry)
	}
	return &m, nil
}

// RecordStage marks a stage complete and writes the manifest back.
func (m *Manifest) RecordStage(dir, stage string, in, out int, output string) error {
	m.Stages[stage] = StageEntry{
		CompletedAt: time.Now().Format(time.RFC3339),
		RecordsIn:   in,
		RecordsOut:  out,
		Output:      output,
	}
	return m.Save(dir)
}

// Save writes the manifest to dir.
func (m *Manifest) Save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}
