package mirror

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/beadsync/beadsync/internal/errs"
	"github.com/beadsync/beadsync/internal/types"
)

// MappingStore persists the IssueMapping table, keyed by both local_id
// and external_number for O(1) lookup in either direction.
type MappingStore struct {
	path string

	mu       sync.Mutex
	byLocal  map[string]types.IssueMapping
	byNumber map[int]types.IssueMapping
	loaded   bool
}

// NewMappingStore binds a MappingStore to <root>/.beads/mappings.json.
func NewMappingStore(root string) *MappingStore {
	return &MappingStore{
		path:     filepath.Join(root, ".beads", "mappings.json"),
		byLocal:  make(map[string]types.IssueMapping),
		byNumber: make(map[int]types.IssueMapping),
	}
}

func (m *MappingStore) ensureLoaded() error {
	if m.loaded {
		return nil
	}
	data, err := os.ReadFile(m.path) // #nosec G304 -- path built from caller-supplied root
	if err != nil {
		if os.IsNotExist(err) {
			m.loaded = true
			return nil
		}
		return &errs.IOError{Path: m.path, Err: err}
	}
	var mappings []types.IssueMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return &errs.ParseError{Path: m.path, Err: err}
	}
	for _, mp := range mappings {
		m.byLocal[mp.LocalID] = mp
		m.byNumber[mp.ExternalNumber] = mp
	}
	m.loaded = true
	return nil
}

// ByLocalID looks up a mapping by its local issue id.
func (m *MappingStore) ByLocalID(id string) (types.IssueMapping, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return types.IssueMapping{}, false
	}
	mp, ok := m.byLocal[id]
	return mp, ok
}

// ByExternalNumber looks up a mapping by its external issue number.
func (m *MappingStore) ByExternalNumber(number int) (types.IssueMapping, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return types.IssueMapping{}, false
	}
	mp, ok := m.byNumber[number]
	return mp, ok
}

// Count returns the number of known mappings.
func (m *MappingStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return 0
	}
	return len(m.byLocal)
}

// Put inserts or replaces a mapping and persists the table.
func (m *MappingStore) Put(mp types.IssueMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(); err != nil {
		return err
	}
	m.byLocal[mp.LocalID] = mp
	m.byNumber[mp.ExternalNumber] = mp
	return m.persistLocked()
}

func (m *MappingStore) persistLocked() error {
	mappings := make([]types.IssueMapping, 0, len(m.byLocal))
	for _, mp := range m.byLocal {
		mappings = append(mappings, mp)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mappings); err != nil {
		return &errs.IOError{Path: m.path, Err: err}
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "mappings-*.json.tmp")
	if err != nil {
		return &errs.IOError{Path: dir, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return &errs.IOError{Path: m.path, Err: err}
	}
	return nil
}
