package engine

import (
	"encoding/csv"
	"os"

	"goDB/internal/catalog"
	"goDB/internal/dberrors"
	"goDB/internal/record"
	"goDB/internal/sql"
	"goDB/internal/sqlval"
	"goDB/internal/table"
)

// buildRecord maps an INSERT row onto schema order, filling in column
// defaults and validating NOT-NULL/type/width per spec.md §4.3.2.
func buildRecord(meta *catalog.Table, cols []string, values []sqlval.Value) (record.Record, error) {
	if len(cols) == 0 {
		cols = make([]string, len(meta.Columns))
		for i, c := range meta.Columns {
			cols[i] = c.Name
		}
	}
	if len(cols) != len(values) {
		return nil, dberrors.ErrArityMismatch
	}
	rec := make(record.Record, len(meta.Columns))
	set := make([]bool, len(meta.Columns))
	for i, colName := range cols {
		idx := meta.ColumnIndex(colName)
		if idx < 0 {
			return nil, dberrors.Wrapf(dberrors.ErrColumnNotFound, "%q", colName)
		}
		rec[idx] = values[i]
		set[idx] = true
	}
	for i, c := range meta.Columns {
		if set[i] {
			continue
		}
		if c.Default != nil {
			rec[i] = *c.Default
		} else {
			rec[i] = sqlval.NullValue(c.Type)
		}
	}
	schema := toRecordSchema(meta)
	if err := schema.Validate(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// checkPKUnique verifies rec's primary-key tuple is not already present,
// using the PK index when available, otherwise scanning (spec.md §3.6).
func (e *Engine) checkPKUnique(tbl *table.Table, meta *catalog.Table, rec record.Record, excludeRID *record.RID) error {
	if len(meta.PrimaryKey) == 0 {
		return nil
	}
	if col, ok := pkIsSingleInt(meta.Columns, meta.PrimaryKey); ok {
		v := rec[tbl.Schema().ColumnIndex(col)]
		if v.Null {
			return nil
		}
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, col, true)
		if err != nil {
			return err
		}
		rids, err := tree.Search(int64(v.I))
		if err != nil {
			return err
		}
		for _, r := range rids {
			if excludeRID == nil || r != *excludeRID {
				return dberrors.ErrDuplicateKey
			}
		}
		return nil
	}
	_, recs, err := tbl.Scan()
	if err != nil {
		return err
	}
	idxs := make([]int, len(meta.PrimaryKey))
	for i, c := range meta.PrimaryKey {
		idxs[i] = tbl.Schema().ColumnIndex(c)
	}
	for _, other := range recs {
		match := true
		for _, idx := range idxs {
			if other[idx].Null || !sqlval.Equal(other[idx], rec[idx]) {
				match = false
				break
			}
		}
		if match {
			return dberrors.ErrDuplicateKey
		}
	}
	return nil
}

// checkForeignKeys verifies every FK column group in rec, when entirely
// non-null, matches an existing row in its referenced table.
func (e *Engine) checkForeignKeys(meta *catalog.Table, rec record.Record) error {
	for _, fk := range meta.ForeignKeys {
		vals := make([]sqlval.Value, len(fk.Columns))
		anyNull := false
		for i, c := range fk.Columns {
			idx := meta.ColumnIndex(c)
			vals[i] = rec[idx]
			if vals[i].Null {
				anyNull = true
			}
		}
		if anyNull {
			continue
		}
		parentMeta, err := e.cat.Table(fk.RefTable)
		if err != nil {
			return err
		}
		parent, _, err := e.openTable(fk.RefTable)
		if err != nil {
			return err
		}
		ok, err := e.parentHasMatch(parent, parentMeta, fk.RefColumns, vals)
		if err != nil {
			return err
		}
		if !ok {
			return dberrors.Wrapf(dberrors.ErrForeignKeyViolation, "table %q", meta.Name)
		}
	}
	return nil
}

// insertIndexEntries inserts rid into every index on meta, returning the
// indexes successfully updated so the caller can roll them back.
func (e *Engine) insertIndexEntries(meta *catalog.Table, rec record.Record, rid record.RID) ([]catalog.Index, error) {
	applied := make([]catalog.Index, 0, len(meta.Indexes))
	for _, idx := range meta.Indexes {
		v := rec[meta.ColumnIndex(idx.Column)]
		if v.Null {
			continue
		}
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, idx.Column, idx.Unique)
		if err != nil {
			return applied, err
		}
		if err := tree.Insert(int64(v.I), rid); err != nil {
			return applied, err
		}
		applied = append(applied, idx)
	}
	return applied, nil
}

// rollbackIndexEntries undoes insertIndexEntries for the indexes that
// were actually applied (spec.md §9: rollback without journaling).
func (e *Engine) rollbackIndexEntries(meta *catalog.Table, rec record.Record, rid record.RID, applied []catalog.Index) {
	for _, idx := range applied {
		v := rec[meta.ColumnIndex(idx.Column)]
		if v.Null {
			continue
		}
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, idx.Column, idx.Unique)
		if err != nil {
			continue
		}
		_ = tree.Delete(int64(v.I), rid)
	}
}

// insertedRow records what insertOne committed for a single row, so a
// caller spanning many rows in one statement can reverse it later.
type insertedRow struct {
	rid     record.RID
	rec     record.Record
	applied []catalog.Index
}

// insertOne runs the full pre-check → write → index-insert sequence for
// a single row (spec.md §4.6.2, §9), rolling back its own table insert
// and any index inserts already applied if an index insert fails.
func (e *Engine) insertOne(tbl *table.Table, meta *catalog.Table, rec record.Record) (record.RID, []catalog.Index, error) {
	if err := e.checkPKUnique(tbl, meta, rec, nil); err != nil {
		return record.RID{}, nil, err
	}
	if err := e.checkForeignKeys(meta, rec); err != nil {
		return record.RID{}, nil, err
	}
	rid, err := tbl.Insert(rec)
	if err != nil {
		return record.RID{}, nil, err
	}
	applied, err := e.insertIndexEntries(meta, rec, rid)
	if err != nil {
		e.rollbackIndexEntries(meta, rec, rid, applied)
		_ = tbl.Delete(rid)
		return record.RID{}, nil, err
	}
	return rid, applied, nil
}

// rollbackInserted reverses a batch of previously-committed insertOne
// calls from the same statement, in reverse order: index deletes then
// the table delete for each row (spec.md §4.6.2: "the whole statement is
// rolled back by reversing the successful index inserts and table
// insert").
func (e *Engine) rollbackInserted(tbl *table.Table, meta *catalog.Table, done []insertedRow) {
	for i := len(done) - 1; i >= 0; i-- {
		row := done[i]
		e.rollbackIndexEntries(meta, row.rec, row.rid, row.applied)
		_ = tbl.Delete(row.rid)
	}
}

// Insert executes an INSERT statement. Per spec.md §4.6.2 and §5, a
// statement's effects are atomic at the statement boundary: if any row
// fails its checks, every row already committed earlier in the same
// statement is undone before the error is returned.
func (e *Engine) Insert(stmt *sql.InsertStmt) (int, error) {
	if err := e.requireDB(); err != nil {
		return 0, err
	}
	tbl, meta, err := e.openTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	done := make([]insertedRow, 0, len(stmt.Rows))
	for i, row := range stmt.Rows {
		rec, err := buildRecord(meta, stmt.Columns, row)
		if err != nil {
			e.rollbackInserted(tbl, meta, done)
			return i, err
		}
		rid, applied, err := e.insertOne(tbl, meta, rec)
		if err != nil {
			e.rollbackInserted(tbl, meta, done)
			return i, err
		}
		done = append(done, insertedRow{rid: rid, rec: rec, applied: applied})
	}
	return len(stmt.Rows), nil
}

// childReferencesRID reports whether any other table's FK still points
// at rec's PK tuple, blocking a delete (spec.md §4.6.2).
func (e *Engine) childReferencesRID(meta *catalog.Table, rec record.Record) (string, error) {
	if len(meta.PrimaryKey) == 0 {
		return "", nil
	}
	for _, otherName := range e.cat.Tables() {
		if otherName == meta.Name {
			continue
		}
		otherMeta, err := e.cat.Table(otherName)
		if err != nil {
			return "", err
		}
		for _, fk := range otherMeta.ForeignKeys {
			if fk.RefTable != meta.Name {
				continue
			}
			vals := make([]sqlval.Value, len(meta.PrimaryKey))
			for i, c := range meta.PrimaryKey {
				vals[i] = rec[meta.ColumnIndex(c)]
			}
			otherTbl, _, err := e.openTable(otherName)
			if err != nil {
				return "", err
			}
			// Reuses the FK-matching helper in reverse: otherTbl's rows
			// are the "parent" side being checked against meta's PK values.
			ok, err := e.parentHasMatch(otherTbl, otherMeta, fk.Columns, vals)
			if err != nil {
				return "", err
			}
			if ok {
				return otherName, nil
			}
		}
	}
	return "", nil
}

// deleteOne removes rid from every index on meta, then from the table.
func (e *Engine) deleteOne(tbl *table.Table, meta *catalog.Table, rid record.RID, rec record.Record) error {
	for _, idx := range meta.Indexes {
		v := rec[meta.ColumnIndex(idx.Column)]
		if v.Null {
			continue
		}
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, idx.Column, idx.Unique)
		if err != nil {
			return err
		}
		if err := tree.Delete(int64(v.I), rid); err != nil {
			return err
		}
	}
	return tbl.Delete(rid)
}

// Delete executes a DELETE statement: collect matching RIDs, reject if
// any is still FK-referenced, then remove from indexes and the table.
func (e *Engine) Delete(stmt *sql.DeleteStmt) (int, error) {
	if err := e.requireDB(); err != nil {
		return 0, err
	}
	tbl, meta, err := e.openTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	rids, recs, err := e.scanMatching(tbl, meta, stmt.Where)
	if err != nil {
		return 0, err
	}
	for i := range rids {
		if refBy, err := e.childReferencesRID(meta, recs[i]); err != nil {
			return 0, err
		} else if refBy != "" {
			return 0, dberrors.Wrapf(dberrors.ErrReferencedByFK, "referenced by %q", refBy)
		}
	}
	for i, rid := range rids {
		if err := e.deleteOne(tbl, meta, rid, recs[i]); err != nil {
			return i, err
		}
	}
	return len(rids), nil
}

// Update executes an UPDATE statement as delete+re-insert on indexes for
// changed columns, with the record rewritten in place in the table page
// (spec.md §4.6.2).
func (e *Engine) Update(stmt *sql.UpdateStmt) (int, error) {
	if err := e.requireDB(); err != nil {
		return 0, err
	}
	tbl, meta, err := e.openTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	rids, recs, err := e.scanMatching(tbl, meta, stmt.Where)
	if err != nil {
		return 0, err
	}

	pkChanged := false
	for _, a := range stmt.Assignments {
		for _, pkCol := range meta.PrimaryKey {
			if a.Column == pkCol {
				pkChanged = true
			}
		}
	}

	for i, rid := range rids {
		newRec := make(record.Record, len(recs[i]))
		copy(newRec, recs[i])
		for _, a := range stmt.Assignments {
			idx := meta.ColumnIndex(a.Column)
			if idx < 0 {
				return i, dberrors.Wrapf(dberrors.ErrColumnNotFound, "%q", a.Column)
			}
			newRec[idx] = a.Value
		}
		schema := toRecordSchema(meta)
		if err := schema.Validate(newRec); err != nil {
			return i, err
		}
		if pkChanged {
			if refBy, err := e.childReferencesRID(meta, recs[i]); err != nil {
				return i, err
			} else if refBy != "" {
				return i, dberrors.Wrapf(dberrors.ErrUnsupported, "primary key change on row still referenced by %q", refBy)
			}
			if err := e.checkPKUnique(tbl, meta, newRec, &rid); err != nil {
				return i, err
			}
		}
		if err := e.checkForeignKeys(meta, newRec); err != nil {
			return i, err
		}

		for _, idx := range meta.Indexes {
			oldV, newV := recs[i][meta.ColumnIndex(idx.Column)], newRec[meta.ColumnIndex(idx.Column)]
			if sqlval.Equal(oldV, newV) {
				continue
			}
			tree, err := e.idx.OpenOrCreateIndex(meta.Name, idx.Column, idx.Unique)
			if err != nil {
				return i, err
			}
			if !oldV.Null {
				_ = tree.Delete(int64(oldV.I), rid)
			}
			if !newV.Null {
				if err := tree.Insert(int64(newV.I), rid); err != nil {
					return i, err
				}
			}
		}
		if err := tbl.Update(rid, newRec); err != nil {
			return i, err
		}
	}
	return len(rids), nil
}

// LoadData bulk-inserts rows parsed from a comma-separated, LF-terminated
// CSV file with double-quote escaping (spec.md §4.6.2), applying the same
// whole-statement constraint discipline as Insert: a failure on any row
// rolls back every row already loaded from the same file.
func (e *Engine) LoadData(stmt *sql.LoadDataStmt) (int, error) {
	if err := e.requireDB(); err != nil {
		return 0, err
	}
	f, err := os.Open(stmt.Path)
	if err != nil {
		return 0, dberrors.Wrapf(err, "load data %q", stmt.Path)
	}
	defer f.Close()

	tbl, meta, err := e.openTable(stmt.Table)
	if err != nil {
		return 0, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return 0, dberrors.Wrapf(err, "load data %q", stmt.Path)
	}

	done := make([]insertedRow, 0, len(rows))
	n := 0
	for _, row := range rows {
		if len(row) != len(meta.Columns) {
			e.rollbackInserted(tbl, meta, done)
			return n, dberrors.ErrArityMismatch
		}
		values := make([]sqlval.Value, len(row))
		for i, field := range row {
			values[i], err = parseCSVField(field, meta.Columns[i])
			if err != nil {
				e.rollbackInserted(tbl, meta, done)
				return n, err
			}
		}
		rec, err := buildRecord(meta, nil, values)
		if err != nil {
			e.rollbackInserted(tbl, meta, done)
			return n, err
		}
		rid, applied, err := e.insertOne(tbl, meta, rec)
		if err != nil {
			e.rollbackInserted(tbl, meta, done)
			return n, err
		}
		done = append(done, insertedRow{rid: rid, rec: rec, applied: applied})
		n++
	}
	return n, nil
}

func parseCSVField(field string, col catalog.Column) (sqlval.Value, error) {
	if field == "" && col.Type != sqlval.TypeVarchar {
		return sqlval.NullValue(col.Type), nil
	}
	switch col.Type {
	case sqlval.TypeInt:
		return sqlval.ParseIntLiteral(field)
	case sqlval.TypeFloat:
		return sqlval.ParseFloatLiteral(field)
	default:
		return sqlval.VarcharValue(field), nil
	}
}
