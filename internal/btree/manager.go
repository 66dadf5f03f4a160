package btree

import (
	"os"
	"path/filepath"
	"sync"

	"goDB/internal/bufpool"
)

// Manager owns every open index file under one database directory,
// keyed by "table.column" so the engine can hand out shared handles
// instead of reopening a tree per statement.
type Manager struct {
	dir    string
	pool   *bufpool.Pool
	mu     sync.Mutex
	open   map[string]*Tree
	nextID uint32
}

// NewManager creates a new index manager rooted at dir, sharing pool
// with the table layer so index and table pages compete for the same
// cache budget (spec.md §4.2).
func NewManager(dir string, pool *bufpool.Pool) *Manager {
	return &Manager{
		dir:    dir,
		pool:   pool,
		open:   make(map[string]*Tree),
		nextID: 1 << 24, // keep index file ids out of the range table files use
	}
}

func indexFileName(table, col string) string {
	return table + "_" + col + ".idx"
}

func indexKey(table, col string) string {
	return table + "." + col
}

// OpenOrCreateIndex returns the Tree for (table, col), creating the
// index file on first use. unique marks a PK-enforcing index.
func (m *Manager) OpenOrCreateIndex(table, col string, unique bool) (*Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := indexKey(table, col)
	if idx, ok := m.open[k]; ok {
		return idx, nil
	}

	path := filepath.Join(m.dir, indexFileName(table, col))
	meta := Meta{TableName: table, Column: col, Unique: unique}
	fileID := m.nextID
	m.nextID++

	var (
		idx *Tree
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err = Open(path, fileID, m.pool, meta)
	} else {
		idx, err = Create(path, fileID, m.pool, meta, DefaultOrder)
	}
	if err != nil {
		return nil, err
	}
	m.open[k] = idx
	return idx, nil
}

// DropIndex closes and deletes the index file backing (table, col).
func (m *Manager) DropIndex(table, col string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := indexKey(table, col)
	if idx, ok := m.open[k]; ok {
		if err := idx.Close(); err != nil {
			return err
		}
		delete(m.open, k)
	}
	path := filepath.Join(m.dir, indexFileName(table, col))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CloseAll closes every open index.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for k, idx := range m.open {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.open, k)
	}
	return firstErr
}
