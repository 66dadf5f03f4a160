package engine

import (
	"path/filepath"

	"goDB/internal/catalog"
	"goDB/internal/dberrors"
	"goDB/internal/record"
	"goDB/internal/sql"
	"goDB/internal/sqlval"
	"goDB/internal/table"
)

func toColumnDef(c sql.ColumnDef) catalog.Column {
	return catalog.Column{
		Name:         c.Name,
		Type:         c.Type,
		NotNull:      c.NotNull,
		VarcharWidth: c.VarcharWidth,
		Default:      c.Default,
	}
}

// pkIsSingleInt reports whether pk names exactly one column and that
// column has INT type, the only shape spec.md §3.6 allows a B+ tree to
// back directly; composite or non-INT keys are enforced by scan.
func pkIsSingleInt(cols []catalog.Column, pk []string) (string, bool) {
	if len(pk) != 1 {
		return "", false
	}
	for _, c := range cols {
		if c.Name == pk[0] {
			return c.Name, c.Type == sqlval.TypeInt
		}
	}
	return "", false
}

// CreateTable allocates a table file, persists its schema, and
// auto-creates a B+ tree PK index when the primary key is a single INT
// column (spec.md §4.6.1).
func (e *Engine) CreateTable(stmt *sql.CreateTableStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	cols := make([]catalog.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		cols[i] = toColumnDef(c)
	}
	for _, fk := range stmt.ForeignKeys {
		if _, err := e.cat.Table(fk.RefTable); err != nil {
			return dberrors.Wrapf(err, "foreign key %q references unknown table %q", fk.Name, fk.RefTable)
		}
	}

	meta := catalog.Table{
		Name:       stmt.Table,
		FileID:     e.cat.NextTableFileID(),
		Columns:    cols,
		PrimaryKey: stmt.PrimaryKey,
	}
	for _, fk := range stmt.ForeignKeys {
		meta.ForeignKeys = append(meta.ForeignKeys, catalog.ForeignKey{
			Name:       fk.Name,
			Columns:    fk.Columns,
			RefTable:   fk.RefTable,
			RefColumns: fk.RefColumns,
		})
	}

	if col, ok := pkIsSingleInt(cols, stmt.PrimaryKey); ok {
		meta.Indexes = append(meta.Indexes, catalog.Index{
			Column:   col,
			FileName: stmt.Table + "_" + col + ".idx",
			Unique:   true,
		})
	}

	schema := toRecordSchema(&meta)
	path := filepath.Join(e.dbDir, stmt.Table+".tbl")
	tbl, err := table.Create(path, meta.FileID, e.pool, schema)
	if err != nil {
		return err
	}
	if err := e.cat.AddTable(meta); err != nil {
		tbl.Close()
		return err
	}
	e.tables[stmt.Table] = tbl

	if col, ok := pkIsSingleInt(cols, stmt.PrimaryKey); ok {
		if _, err := e.idx.OpenOrCreateIndex(stmt.Table, col, true); err != nil {
			return err
		}
	}
	e.log.WithField("table", stmt.Table).Info("created table")
	return nil
}

// DropTable removes a table's file, its index files, and its catalog
// entry. Fails with ErrReferencedByFK if another table's foreign key
// still targets it (spec.md §4.6.1).
func (e *Engine) DropTable(name string) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	meta, err := e.cat.Table(name)
	if err != nil {
		return err
	}
	if err := e.cat.DropTable(name); err != nil {
		return err
	}
	if t, ok := e.tables[name]; ok {
		t.Close()
		delete(e.tables, name)
	}
	for _, idx := range meta.Indexes {
		if err := e.idx.DropIndex(name, idx.Column); err != nil {
			return err
		}
	}
	if err := table.Remove(filepath.Join(e.dbDir, name+".tbl")); err != nil {
		return err
	}
	e.log.WithField("table", name).Info("dropped table")
	return nil
}

// AlterAddIndex creates a secondary index on an INT column, bulk-loaded
// by a full table scan (spec.md §4.6.1). Non-INT columns are rejected
// as Unsupported per spec.md §3.6.
func (e *Engine) AlterAddIndex(stmt *sql.AlterAddIndexStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	meta, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	col, ok := meta.Column(stmt.Column)
	if !ok {
		return dberrors.Wrapf(dberrors.ErrColumnNotFound, "%q", stmt.Column)
	}
	if col.Type != sqlval.TypeInt {
		return dberrors.Wrapf(dberrors.ErrUnsupported, "index on non-INT column %q", stmt.Column)
	}
	if _, ok := meta.Index(stmt.Column); ok {
		return dberrors.Newf(dberrors.KindSemantic, "index on %q already exists", stmt.Column)
	}

	tbl, _, err := e.openTable(stmt.Table)
	if err != nil {
		return err
	}
	colIdx := tbl.Schema().ColumnIndex(stmt.Column)
	tree, err := e.idx.OpenOrCreateIndex(stmt.Table, stmt.Column, false)
	if err != nil {
		return err
	}
	rids, recs, err := tbl.Scan()
	if err != nil {
		return err
	}
	for i, rec := range recs {
		v := rec[colIdx]
		if v.Null {
			continue
		}
		if err := tree.Insert(int64(v.I), rids[i]); err != nil {
			return err
		}
	}
	return e.cat.AddIndex(stmt.Table, catalog.Index{
		Column:   stmt.Column,
		FileName: stmt.Table + "_" + stmt.Column + ".idx",
	})
}

// AlterDropIndex destroys a secondary index file and its catalog entry.
func (e *Engine) AlterDropIndex(stmt *sql.AlterDropIndexStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	if err := e.idx.DropIndex(stmt.Table, stmt.Column); err != nil {
		return err
	}
	return e.cat.DropIndex(stmt.Table, stmt.Column)
}

// AlterAddPrimaryKey installs a primary key, backfilling a uniqueness
// check over existing rows before committing (spec.md §4.6.1: "no
// partial effect").
func (e *Engine) AlterAddPrimaryKey(stmt *sql.AlterAddPrimaryKeyStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	meta, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	if len(meta.PrimaryKey) > 0 {
		return dberrors.New(dberrors.KindSemantic, "table already has a primary key")
	}
	tbl, _, err := e.openTable(stmt.Table)
	if err != nil {
		return err
	}
	rids, recs, err := tbl.Scan()
	if err != nil {
		return err
	}
	if err := checkPKUniqueAmong(recs, tbl.Schema(), stmt.Columns); err != nil {
		return err
	}
	if err := e.cat.SetPrimaryKey(stmt.Table, stmt.Columns); err != nil {
		return err
	}
	if col, ok := pkIsSingleInt(meta.Columns, stmt.Columns); ok {
		colIdx := tbl.Schema().ColumnIndex(col)
		tree, err := e.idx.OpenOrCreateIndex(stmt.Table, col, true)
		if err != nil {
			return err
		}
		for i, rec := range recs {
			v := rec[colIdx]
			if v.Null {
				continue
			}
			if err := tree.Insert(int64(v.I), rids[i]); err != nil {
				return err
			}
		}
		if err := e.cat.AddIndex(stmt.Table, catalog.Index{
			Column:   col,
			FileName: stmt.Table + "_" + col + ".idx",
			Unique:   true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// AlterDropPrimaryKey removes a table's primary key constraint, along
// with the backing B+ tree CreateTable/AlterAddPrimaryKey auto-created
// for a single-INT key, so uniqueness stops being enforced once the
// key itself is gone.
func (e *Engine) AlterDropPrimaryKey(stmt *sql.AlterDropPrimaryKeyStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	meta, err := e.cat.Table(stmt.Table)
	if err != nil {
		return err
	}
	col, ok := pkIsSingleInt(meta.Columns, meta.PrimaryKey)
	if err := e.cat.DropPrimaryKey(stmt.Table); err != nil {
		return err
	}
	if ok {
		if err := e.idx.DropIndex(stmt.Table, col); err != nil {
			return err
		}
		if err := e.cat.DropIndex(stmt.Table, col); err != nil {
			return err
		}
	}
	return nil
}

// AlterAddForeignKey installs a foreign key, backfilling a referential
// check over existing rows before committing.
func (e *Engine) AlterAddForeignKey(stmt *sql.AlterAddForeignKeyStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	child, _, err := e.openTable(stmt.Table)
	if err != nil {
		return err
	}
	parentMeta, err := e.cat.Table(stmt.FK.RefTable)
	if err != nil {
		return err
	}
	parent, _, err := e.openTable(stmt.FK.RefTable)
	if err != nil {
		return err
	}
	_, recs, err := child.Scan()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		vals := make([]sqlval.Value, len(stmt.FK.Columns))
		anyNull := false
		for i, col := range stmt.FK.Columns {
			idx := child.Schema().ColumnIndex(col)
			vals[i] = rec[idx]
			if vals[i].Null {
				anyNull = true
			}
		}
		if anyNull {
			continue
		}
		ok, err := e.parentHasMatch(parent, parentMeta, stmt.FK.RefColumns, vals)
		if err != nil {
			return err
		}
		if !ok {
			return dberrors.Wrapf(dberrors.ErrForeignKeyViolation, "existing row violates new foreign key %q", stmt.FK.Name)
		}
	}
	return e.cat.AddForeignKey(stmt.Table, catalog.ForeignKey{
		Name:       stmt.FK.Name,
		Columns:    stmt.FK.Columns,
		RefTable:   stmt.FK.RefTable,
		RefColumns: stmt.FK.RefColumns,
	})
}

// AlterDropForeignKey removes a named foreign key constraint.
func (e *Engine) AlterDropForeignKey(stmt *sql.AlterDropForeignKeyStmt) error {
	if err := e.requireDB(); err != nil {
		return err
	}
	return e.cat.DropForeignKey(stmt.Table, stmt.Name)
}

// checkPKUniqueAmong verifies no two records share the same tuple over
// pkCols, used for the transient-hash-set path spec.md §3.6 mandates
// for composite or non-INT primary keys.
func checkPKUniqueAmong(recs []record.Record, schema *record.Schema, pkCols []string) error {
	idxs := make([]int, len(pkCols))
	for i, c := range pkCols {
		idxs[i] = schema.ColumnIndex(c)
	}
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		key := pkTupleKey(rec, idxs)
		if key == "" {
			continue // any-null PK tuple is exempt, mirroring FK null-skip semantics
		}
		if seen[key] {
			return dberrors.ErrDuplicateKey
		}
		seen[key] = true
	}
	return nil
}

func pkTupleKey(rec record.Record, idxs []int) string {
	var sb []byte
	for _, i := range idxs {
		if rec[i].Null {
			return ""
		}
		sb = append(sb, []byte(rec[i].String())...)
		sb = append(sb, 0)
	}
	return string(sb)
}

// parentHasMatch reports whether parent holds a row whose refCols equal
// vals, using the PK index for the common single-INT-column case and
// falling back to a full scan otherwise (spec.md §4.6.2).
func (e *Engine) parentHasMatch(parent *table.Table, parentMeta *catalog.Table, refCols []string, vals []sqlval.Value) (bool, error) {
	if !e.disableIndex && len(refCols) == 1 {
		if _, ok := parentMeta.Index(refCols[0]); ok && !vals[0].Null {
			tree, err := e.idx.OpenOrCreateIndex(parentMeta.Name, refCols[0], true)
			if err != nil {
				return false, err
			}
			rids, err := tree.Search(int64(vals[0].I))
			if err != nil {
				return false, err
			}
			return len(rids) > 0, nil
		}
	}
	_, recs, err := parent.Scan()
	if err != nil {
		return false, err
	}
	idxs := make([]int, len(refCols))
	for i, c := range refCols {
		idxs[i] = parent.Schema().ColumnIndex(c)
	}
	for _, rec := range recs {
		match := true
		for i, idx := range idxs {
			if !sqlval.Equal(rec[idx], vals[i]) {
				match = false
				break
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
