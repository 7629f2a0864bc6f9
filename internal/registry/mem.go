package registry

import (
	"os"
	"sort"
	"sync"

	"github.com/roach88/launchpad/internal/program"
)

// MemRegistry keeps records in memory. Source, artifact and icon files
// still live on disk under layout and are removed the same way FSRegistry
// removes them.
type MemRegistry struct {
	layout   Layout
	resolver Resolver
	icons    *IconStore

	mu      sync.RWMutex
	records map[string]program.Record
}

// NewMem creates an empty in-memory registry. resolver may be nil to skip
// artifact checks on commit.
func NewMem(layout Layout, resolver Resolver, icons *IconStore) *MemRegistry {
	return &MemRegistry{
		layout:   layout,
		resolver: resolver,
		icons:    icons,
		records:  make(map[string]program.Record),
	}
}

// State reports WellFormed for a stored record, including one whose name
// differs only in case, Stale for leftover directories without one, and
// Absent otherwise.
func (m *MemRegistry) State(name string) (State, error) {
	m.mu.RLock()
	_, ok := m.folded(name)
	m.mu.RUnlock()
	if ok {
		return WellFormed, nil
	}
	if exists(m.layout.ProgramDir(name)) || exists(m.layout.ArtifactDir(name)) {
		return Stale, nil
	}
	return Absent, nil
}

func (m *MemRegistry) Reserve(name string) error {
	state, err := m.State(name)
	if err != nil {
		return err
	}
	switch state {
	case WellFormed:
		m.mu.RLock()
		other, _ := m.folded(name)
		m.mu.RUnlock()
		return &program.DuplicateNameError{Name: other}
	case Stale:
		return m.Purge(name)
	}
	return nil
}

// folded returns the stored name that folds to the same key as name.
// Callers hold mu.
func (m *MemRegistry) folded(name string) (string, bool) {
	if _, ok := m.records[name]; ok {
		return name, true
	}
	key := foldKey(name)
	for stored := range m.records {
		if foldKey(stored) == key {
			return stored, true
		}
	}
	return "", false
}

func (m *MemRegistry) Commit(rec program.Record) error {
	if err := checkCommit(rec, m.resolver); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if other, ok := m.folded(rec.Name); ok {
		return &program.DuplicateNameError{Name: other}
	}
	m.records[rec.Name] = rec
	return nil
}

func (m *MemRegistry) Get(name string) (program.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	if !ok {
		return program.Record{}, &program.NotFoundError{Name: name}
	}
	return rec, nil
}

func (m *MemRegistry) List() ([]program.Record, error) {
	m.mu.RLock()
	records := make([]program.Record, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	for i := range records {
		records[i].IconRef = m.icons.Display(records[i].IconRef)
	}
	return records, nil
}

func (m *MemRegistry) Remove(name string) RemoveOutcome {
	m.mu.Lock()
	rec, ok := m.records[name]
	delete(m.records, name)
	m.mu.Unlock()

	out := removeResources(m.layout, m.icons, name, rec.IconRef)
	out.Existed = out.Existed || ok
	return out
}

func (m *MemRegistry) Purge(name string) error {
	return purge(m.layout, name)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

var _ Registry = (*MemRegistry)(nil)
