// Package engine implements spec.md §4.6: the executor. It owns one
// database at a time (catalog, buffer pool, open tables and indexes) and
// executes a parsed internal/sql.Statement against it, following the
// scan → filter → join → aggregate or order → limit → project pipeline
// for queries and the pre-check-then-write discipline for mutations.
//
// Grounded on the teacher's internal/engine/engine.go DBEngine{started,
// store} lifecycle and Execute dispatch shape, rebuilt against the real
// catalog/table/btree layers instead of the teacher's in-memory
// storage.Engine, and logging each executed statement with
// github.com/sirupsen/logrus the way the rest of this module does.
package engine

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"goDB/internal/btree"
	"goDB/internal/bufpool"
	"goDB/internal/catalog"
	"goDB/internal/dberrors"
	"goDB/internal/record"
	"goDB/internal/table"
)

const defaultPoolCapacity = 8000

// Engine owns the process-lifetime state: a base directory for
// databases, the currently selected database's catalog and open
// tables/indexes, and the shared buffer pool those layers drive
// (spec.md §5: a single explicit value with create → open/close →
// execute → drop lifecycle, no global mutable state).
type Engine struct {
	baseDir      string
	disableIndex bool
	log          *logrus.Logger

	dbName string
	dbDir  string
	cat    *catalog.Catalog
	pool   *bufpool.Pool
	tables map[string]*table.Table
	idx    *btree.Manager
}

// New creates an engine rooted at baseDir. disableIndex forces every
// query to fall back to a full scan, ignoring secondary and PK indexes
// (spec.md §6.2's "disable all index usage" flag).
func New(baseDir string, disableIndex bool) *Engine {
	return &Engine{
		baseDir:      baseDir,
		disableIndex: disableIndex,
		log:          logrus.New(),
	}
}

func (e *Engine) dbPath(name string) string { return filepath.Join(e.baseDir, name) }

// CreateDatabase makes an empty directory and an empty catalog file
// under it (spec.md §4.6.1). Fails if the directory already exists.
func (e *Engine) CreateDatabase(name string) error {
	dir := e.dbPath(name)
	if _, err := os.Stat(dir); err == nil {
		return dberrors.Newf(dberrors.KindSemantic, "database %q already exists", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dberrors.Wrapf(err, "create database %q", name)
	}
	if _, err := catalog.Create(dir, name); err != nil {
		return err
	}
	e.log.WithField("database", name).Info("created database")
	return nil
}

// DropDatabase removes a database directory recursively. If it is the
// currently open database, it is closed first.
func (e *Engine) DropDatabase(name string) error {
	if e.dbName == name {
		if err := e.closeCurrent(); err != nil {
			return err
		}
	}
	dir := e.dbPath(name)
	if _, err := os.Stat(dir); err != nil {
		return dberrors.ErrDatabaseNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return dberrors.Wrapf(err, "drop database %q", name)
	}
	e.log.WithField("database", name).Info("dropped database")
	return nil
}

// Use selects the current database for subsequent statements, opening
// its catalog and a fresh buffer pool.
func (e *Engine) Use(name string) error {
	dir := e.dbPath(name)
	cat, err := catalog.Open(dir)
	if err != nil {
		return err
	}
	if err := e.closeCurrent(); err != nil {
		return err
	}
	e.dbName = name
	e.dbDir = dir
	e.cat = cat
	e.pool = bufpool.New(defaultPoolCapacity)
	e.tables = make(map[string]*table.Table)
	e.idx = btree.NewManager(dir, e.pool)
	e.log.WithField("database", name).Info("switched database")
	return nil
}

// requireDB fails fast if no database is selected yet.
func (e *Engine) requireDB() error {
	if e.cat == nil {
		return dberrors.New(dberrors.KindSemantic, "no database selected")
	}
	return nil
}

// ShowDatabases lists the base directory's immediate subdirectories.
func (e *Engine) ShowDatabases() ([]string, error) {
	entries, err := os.ReadDir(e.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dberrors.Wrap(err, "show databases")
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			names = append(names, ent.Name())
		}
	}
	return names, nil
}

// ShowTables lists every table in the current database.
func (e *Engine) ShowTables() ([]string, error) {
	if err := e.requireDB(); err != nil {
		return nil, err
	}
	return e.cat.Tables(), nil
}

// Describe renders one row per column: name, type, nullability, and
// whether it participates in the primary key.
func (e *Engine) Describe(tableName string) ([]string, [][]string, error) {
	if err := e.requireDB(); err != nil {
		return nil, nil, err
	}
	t, err := e.cat.Table(tableName)
	if err != nil {
		return nil, nil, err
	}
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		pk[c] = true
	}
	rows := make([][]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		null := "YES"
		if c.NotNull {
			null = "NO"
		}
		key := ""
		if pk[c.Name] {
			key = "PRI"
		}
		rows = append(rows, []string{c.Name, c.Type.String(), null, key})
	}
	return []string{"column", "type", "nullable", "key"}, rows, nil
}

// openTable returns the open handle for name, opening it on first use.
func (e *Engine) openTable(name string) (*table.Table, *catalog.Table, error) {
	meta, err := e.cat.Table(name)
	if err != nil {
		return nil, nil, err
	}
	if t, ok := e.tables[name]; ok {
		return t, meta, nil
	}
	schema := toRecordSchema(meta)
	path := filepath.Join(e.dbDir, name+".tbl")
	t, err := table.Open(path, meta.FileID, e.pool, schema)
	if err != nil {
		return nil, nil, err
	}
	e.tables[name] = t
	return t, meta, nil
}

func toRecordSchema(meta *catalog.Table) *record.Schema {
	cols := make([]record.Column, len(meta.Columns))
	for i, c := range meta.Columns {
		cols[i] = record.Column{
			Name:         c.Name,
			Type:         c.Type,
			NotNull:      c.NotNull,
			VarcharWidth: c.VarcharWidth,
		}
	}
	return record.NewSchema(cols)
}

// closeCurrent flushes and closes every open table/index and drops the
// catalog handle for the currently selected database, if any.
func (e *Engine) closeCurrent() error {
	if e.cat == nil {
		return nil
	}
	var firstErr error
	for _, t := range e.tables {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.idx != nil {
		if err := e.idx.CloseAll(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.cat, e.pool, e.tables, e.idx = nil, nil, nil, nil
	e.dbName, e.dbDir = "", ""
	return firstErr
}

// Close flushes and releases the currently open database, if any. It is
// called once at end of input (spec.md §5: end-of-input flushes the
// buffer pool and closes open files).
func (e *Engine) Close() error {
	return errors.Wrap(e.closeCurrent(), "engine close")
}
