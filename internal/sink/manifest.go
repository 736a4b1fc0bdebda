package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the manifest's name inside the output directory.
const ManifestFile = "manifest.json"

// ManifestEntry describes one script. IDs follow completion order.
type ManifestEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

// Manifest accumulates entries in completion order.
type Manifest struct {
	entries []ManifestEntry
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: []ManifestEntry{}}
}

// Add appends an entry with the next id.
func (m *Manifest) Add(name, file string) ManifestEntry {
	e := ManifestEntry{ID: len(m.entries) + 1, Name: name, File: file}
	m.entries = append(m.entries, e)
	return e
}

// Entries returns a copy of the entries.
func (m *Manifest) Entries() []ManifestEntry {
	out := make([]ManifestEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.entries) }

// Save writes the manifest as an indented JSON array.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// LoadManifest reads the manifest in dir.
func LoadManifest(dir string) ([]ManifestEntry, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return entries, nil
}
