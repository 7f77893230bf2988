package domain

import (
	"encoding/json"
	"maps"
	"sync"
)

// Manifest maps "<name><ext>" keys to the final output path of each logical entry,
// relative to the destination. It is safe for concurrent use by the compile tasks.
type Manifest struct {
	mu      sync.RWMutex
	records map[AssetKind]map[string]string
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{records: make(map[AssetKind]map[string]string)}
}

// Record stores the final path of a logical entry.
func (m *Manifest) Record(kind AssetKind, name, outputPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[kind] == nil {
		m.records[kind] = make(map[string]string)
	}
	m.records[kind][ManifestKey(name, kind)] = outputPath
}

// Replace swaps all records of one kind for the given name -> path entries.
func (m *Manifest) Replace(kind AssetKind, entries map[string]string) {
	records := make(map[string]string, len(entries))
	for name, outputPath := range entries {
		records[ManifestKey(name, kind)] = outputPath
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[kind] = records
}

// Paths returns the output paths recorded for one kind.
func (m *Manifest) Paths(kind AssetKind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.records[kind]))
	for _, p := range m.records[kind] {
		out = append(out, p)
	}
	return out
}

// Entries returns a merged copy of all records.
func (m *Manifest) Entries() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string)
	for _, records := range m.records {
		maps.Copy(out, records)
	}
	return out
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, records := range m.records {
		n += len(records)
	}
	return n
}

// Encode renders the manifest as pretty-printed JSON with sorted keys.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m.Entries(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
