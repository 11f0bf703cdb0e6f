// Package manifest tracks which files a merge-mode push has written into a
// destination project. The next push diffs the previous manifest against the
// current dist/ content to delete files that were removed at the source.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Filename is the manifest file written into the destination directory.
const Filename = ".bmad-manifest.json"

// Manifest records one completed merge sync.
type Manifest struct {
	// Version is the tool version that wrote the manifest.
	Version string `json:"version"`
	// SyncedAt is the completion time, RFC 3339 UTC.
	SyncedAt string `json:"synced_at"`
	// Files maps slash-separated relative paths to hex SHA-256 of the
	// content as synced.
	Files map[string]string `json:"files"`
}

// New returns an empty manifest stamped with the tool version and current time.
func New(version string) *Manifest {
	return &Manifest{
		Version:  version,
		SyncedAt: time.Now().UTC().Format(time.RFC3339),
		Files:    make(map[string]string),
	}
}

// Load reads the manifest from dir. Returns nil without error when no
// manifest exists (first sync into this destination).
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest into dir.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, Filename), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Set records a synced file.
func (m *Manifest) Set(rel, hash string) {
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	m.Files[rel] = hash
}

// Stale returns the paths present in the manifest but absent from current,
// sorted. These are the files a merge sync must delete from the destination.
func (m *Manifest) Stale(current map[string]string) []string {
	if m == nil {
		return nil
	}
	var stale []string
	for rel := range m.Files {
		if _, ok := current[rel]; !ok {
			stale = append(stale, rel)
		}
	}
	sort.Strings(stale)
	return stale
}
