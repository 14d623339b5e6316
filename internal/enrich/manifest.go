package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ManifestVersion is the current checkpoint manifest format.
const ManifestVersion = 1

// Manifest records which rows of an output file are processed, and the
// job shape that produced it. It is written next to the output after every
// checkpoint.
type Manifest struct {
	Version       int              `json:"version"`
	Job           string           `json:"job"`
	Identity      IdentityMode     `json:"identity"`
	KeyColumns    []string         `json:"key_columns"`
	ResultColumns []ManifestColumn `json:"result_columns"`
	RunID         string           `json:"run_id"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Complete      bool             `json:"complete"`
	InputRows     int              `json:"input_rows"`
	Tally         Tally            `json:"tally"`
	Processed     []string         `json:"processed"`
}

// ManifestColumn is a result column as recorded in the manifest.
type ManifestColumn struct {
	Name     string `json:"name"`
	Sentinel string `json:"sentinel"`
}

// ManifestPath returns the manifest location for an output file.
func ManifestPath(outputPath string) string {
	return outputPath + ".manifest.json"
}

// ReadManifest loads a manifest from path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// writeManifest saves m to path atomically via temp file + rename.
func writeManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// check returns ErrManifestMismatch if the manifest was produced by a
// differently shaped job, or for a different input in index mode.
func (m *Manifest) check(job *Job, inputRows int) error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrManifestMismatch, m.Version, ManifestVersion)
	}
	if m.Job != job.Name {
		return fmt.Errorf("%w: written by job %q", ErrManifestMismatch, m.Job)
	}
	if m.Identity != job.Identity {
		return fmt.Errorf("%w: identity %q, job uses %q", ErrManifestMismatch, m.Identity, job.Identity)
	}
	if !sameNames(m.KeyColumns, job.KeyColumns) {
		return fmt.Errorf("%w: key columns %v, job uses %v", ErrManifestMismatch, m.KeyColumns, job.KeyColumns)
	}
	if len(m.ResultColumns) != len(job.Columns) {
		return fmt.Errorf("%w: %d result columns, job has %d", ErrManifestMismatch, len(m.ResultColumns), len(job.Columns))
	}
	for i, c := range job.Columns {
		mc := m.ResultColumns[i]
		if !strings.EqualFold(mc.Name, c.Name) || mc.Sentinel != c.Sentinel {
			return fmt.Errorf("%w: result column %d is %s/%q, job uses %s/%q",
				ErrManifestMismatch, i, mc.Name, mc.Sentinel, c.Name, c.Sentinel)
		}
	}
	if job.Identity == IdentityIndex && m.InputRows != inputRows {
		return fmt.Errorf("%w: input had %d rows, now %d", ErrManifestMismatch, m.InputRows, inputRows)
	}
	return nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func manifestColumns(cols []Column) []ManifestColumn {
	out := make([]ManifestColumn, len(cols))
	for i, c := range cols {
		out[i] = ManifestColumn{Name: c.Name, Sentinel: c.Sentinel}
	}
	return out
}
