// Package catalog implements spec.md §4.5: the per-database metadata
// sidecar file recording tables, columns, primary keys, foreign keys,
// and secondary indexes, atomically rewritten on every DDL mutation.
//
// Grounded on the teacher's internal/storage/filestore.go idea that
// schema travels alongside data files, pulled out here into its own
// human-readable document the way spec.md requires, and serialized with
// gopkg.in/yaml.v3 the way SimonWaldherr-tinySQL's REPL already renders
// result sets as YAML. Atomic rewrite uses a github.com/google/uuid
// suffixed temp file, the same helper idiom as tinySQL's
// internal/storage/uuid_helpers.go.
package catalog

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"goDB/internal/dberrors"
	"goDB/internal/sqlval"
)

const fileName = "catalog"

// Column is the persisted description of one table column.
type Column struct {
	Name         string      `yaml:"name"`
	Type         sqlval.Type `yaml:"type"`
	NotNull      bool        `yaml:"not_null"`
	VarcharWidth int         `yaml:"varchar_width,omitempty"`
	Default      *sqlval.Value `yaml:"default,omitempty"`
}

// ForeignKey is the persisted description of one FOREIGN KEY constraint.
type ForeignKey struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	RefTable   string   `yaml:"ref_table"`
	RefColumns []string `yaml:"ref_columns"`
}

// Index is the persisted description of one secondary index.
type Index struct {
	Column   string `yaml:"column"`
	FileName string `yaml:"file_name"`
	Unique   bool   `yaml:"unique"`
}

// Table is the persisted schema + constraint metadata for one table.
type Table struct {
	Name        string       `yaml:"name"`
	FileID      uint32       `yaml:"file_id"`
	Columns     []Column     `yaml:"columns"`
	PrimaryKey  []string     `yaml:"primary_key,omitempty"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`
	Indexes     []Index      `yaml:"indexes,omitempty"`
}

// ColumnIndex returns the position of column name in the table, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Index looks up a secondary (or PK-backing) index by column name.
func (t *Table) Index(column string) (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Column == column {
			return idx, true
		}
	}
	return Index{}, false
}

// document is the on-disk shape of the catalog file: one database's
// worth of table metadata (spec.md §4.5).
type document struct {
	Database string  `yaml:"database"`
	Tables   []Table `yaml:"tables"`
}

// Catalog is the in-memory, loaded view of one database's metadata,
// with a handle to the directory its sidecar file lives in.
type Catalog struct {
	dir  string
	name string
	doc  document
}

func path(dir string) string { return filepath.Join(dir, fileName) }

// Create writes a brand-new, empty catalog for database name rooted at dir.
// Fails if a catalog already exists there.
func Create(dir, name string) (*Catalog, error) {
	if _, err := os.Stat(path(dir)); err == nil {
		return nil, dberrors.Newf(dberrors.KindSemantic, "catalog already exists in %s", dir)
	}
	c := &Catalog{dir: dir, name: name, doc: document{Database: name}}
	if err := c.save(); err != nil {
		return nil, err
	}
	return c, nil
}

// Open loads an existing catalog from dir.
func Open(dir string) (*Catalog, error) {
	data, err := os.ReadFile(path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dberrors.ErrDatabaseNotFound
		}
		return nil, dberrors.Wrapf(err, "catalog: read %s", path(dir))
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dberrors.Wrapf(dberrors.ErrCorrupt, "catalog: parse %s: %v", path(dir), err)
	}
	return &Catalog{dir: dir, name: doc.Database, doc: doc}, nil
}

// Name returns the database name this catalog describes.
func (c *Catalog) Name() string { return c.name }

// save serializes the catalog to a temp file and renames it over the
// live file, so readers always see a fully pre- or post-mutation
// document (spec.md §4.5).
func (c *Catalog) save() error {
	data, err := yaml.Marshal(c.doc)
	if err != nil {
		return dberrors.Wrap(err, "catalog: marshal")
	}
	tmp := filepath.Join(c.dir, fileName+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return dberrors.Wrapf(err, "catalog: write temp %s", tmp)
	}
	if err := os.Rename(tmp, path(c.dir)); err != nil {
		os.Remove(tmp)
		return dberrors.Wrapf(err, "catalog: rename %s", tmp)
	}
	return nil
}

// Tables lists every table name in the catalog.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.doc.Tables))
	for _, t := range c.doc.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Table looks up a table's metadata by name.
func (c *Catalog) Table(name string) (*Table, error) {
	for i := range c.doc.Tables {
		if c.doc.Tables[i].Name == name {
			return &c.doc.Tables[i], nil
		}
	}
	return nil, dberrors.ErrTableNotFound
}

// NextTableFileID returns an id not already used by any table in this
// catalog, stable across reopen since it is derived from persisted ids
// rather than table position.
func (c *Catalog) NextTableFileID() uint32 {
	var max uint32
	for _, t := range c.doc.Tables {
		if t.FileID > max {
			max = t.FileID
		}
	}
	return max + 1
}

// AddTable registers a new table and atomically persists the catalog.
func (c *Catalog) AddTable(t Table) error {
	if _, err := c.Table(t.Name); err == nil {
		return dberrors.Newf(dberrors.KindSemantic, "table %q already exists", t.Name)
	}
	c.doc.Tables = append(c.doc.Tables, t)
	return c.save()
}

// DropTable removes a table's metadata. Fails with ErrReferencedByFK if
// any other table's foreign key targets it (spec.md §4.6.1).
func (c *Catalog) DropTable(name string) error {
	for _, t := range c.doc.Tables {
		if t.Name == name {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == name {
				return dberrors.Wrapf(dberrors.ErrReferencedByFK, "table %q referenced by %q", name, t.Name)
			}
		}
	}
	for i, t := range c.doc.Tables {
		if t.Name == name {
			c.doc.Tables = append(c.doc.Tables[:i], c.doc.Tables[i+1:]...)
			return c.save()
		}
	}
	return dberrors.ErrTableNotFound
}

// mutateTable applies fn to the named table's metadata in place,
// restoring the previous value if fn fails and persisting on success.
func (c *Catalog) mutateTable(name string, fn func(*Table) error) error {
	for i := range c.doc.Tables {
		if c.doc.Tables[i].Name != name {
			continue
		}
		snapshot := c.doc.Tables[i]
		if err := fn(&c.doc.Tables[i]); err != nil {
			c.doc.Tables[i] = snapshot
			return err
		}
		return c.save()
	}
	return dberrors.ErrTableNotFound
}

// AddIndex records a secondary index on column for table.
func (c *Catalog) AddIndex(table string, idx Index) error {
	return c.mutateTable(table, func(t *Table) error {
		if _, ok := t.Index(idx.Column); ok {
			return dberrors.Newf(dberrors.KindSemantic, "index on %q already exists", idx.Column)
		}
		t.Indexes = append(t.Indexes, idx)
		return nil
	})
}

// DropIndex removes the secondary index on column for table.
func (c *Catalog) DropIndex(table, column string) error {
	return c.mutateTable(table, func(t *Table) error {
		for i, idx := range t.Indexes {
			if idx.Column == column {
				t.Indexes = append(t.Indexes[:i], t.Indexes[i+1:]...)
				return nil
			}
		}
		return dberrors.ErrIndexNotFound
	})
}

// SetPrimaryKey installs or replaces a table's primary key column list.
func (c *Catalog) SetPrimaryKey(table string, cols []string) error {
	return c.mutateTable(table, func(t *Table) error {
		t.PrimaryKey = cols
		return nil
	})
}

// DropPrimaryKey removes a table's primary key.
func (c *Catalog) DropPrimaryKey(table string) error {
	return c.mutateTable(table, func(t *Table) error {
		t.PrimaryKey = nil
		return nil
	})
}

// AddForeignKey appends a foreign key constraint to a table.
func (c *Catalog) AddForeignKey(table string, fk ForeignKey) error {
	return c.mutateTable(table, func(t *Table) error {
		t.ForeignKeys = append(t.ForeignKeys, fk)
		return nil
	})
}

// DropForeignKey removes a named foreign key constraint from a table.
func (c *Catalog) DropForeignKey(table, name string) error {
	return c.mutateTable(table, func(t *Table) error {
		for i, fk := range t.ForeignKeys {
			if fk.Name == name {
				t.ForeignKeys = append(t.ForeignKeys[:i], t.ForeignKeys[i+1:]...)
				return nil
			}
		}
		return dberrors.Newf(dberrors.KindNotFound, "foreign key %q not found", name)
	})
}
