package engine

import (
	"fmt"
	"sort"

	"goDB/internal/catalog"
	"goDB/internal/dberrors"
	"goDB/internal/record"
	"goDB/internal/sql"
	"goDB/internal/sqlval"
	"goDB/internal/table"
)

// fieldRef names one flat column of a joined row by its table alias (or
// bare table name when no alias is given) and column name.
type fieldRef struct {
	Table  string
	Column string
}

// rowSchema is the flat layout of a joined row: fieldRef[i] describes
// cell i of every row produced by the same FROM clause.
type rowSchema []fieldRef

// resolve finds the flat index of a (possibly unqualified) column
// reference. An empty table qualifier matches by column name alone,
// erroring if more than one table carries that name (spec.md §4.6.3).
func (rs rowSchema) resolve(table, column string) (int, error) {
	if table != "" {
		for i, f := range rs {
			if f.Table == table && f.Column == column {
				return i, nil
			}
		}
		return -1, dberrors.Wrapf(dberrors.ErrColumnNotFound, "%s.%s", table, column)
	}
	found := -1
	for i, f := range rs {
		if f.Column == column {
			if found != -1 {
				return -1, dberrors.Newf(dberrors.KindSemantic, "ambiguous column %q", column)
			}
			found = i
		}
	}
	if found == -1 {
		return -1, dberrors.Wrapf(dberrors.ErrColumnNotFound, "%q", column)
	}
	return found, nil
}

func flattenAnd(e sql.Expr) []sql.Expr {
	if e == nil {
		return nil
	}
	if a, ok := e.(*sql.AndExpr); ok {
		return append(flattenAnd(a.Left), flattenAnd(a.Right)...)
	}
	return []sql.Expr{e}
}

func evalOperand(op sql.Operand, schema rowSchema, row []sqlval.Value) (sqlval.Value, error) {
	if !op.IsColumn {
		return op.Literal, nil
	}
	idx, err := schema.resolve(op.Table, op.Column)
	if err != nil {
		return sqlval.Value{}, err
	}
	return row[idx], nil
}

// evalExpr evaluates a WHERE predicate against one joined row. NULL
// comparisons produce false, never an error (spec.md §3.1).
func evalExpr(expr sql.Expr, schema rowSchema, row []sqlval.Value) (bool, error) {
	switch e := expr.(type) {
	case nil:
		return true, nil
	case *sql.AndExpr:
		l, err := evalExpr(e.Left, schema, row)
		if err != nil || !l {
			return false, err
		}
		return evalExpr(e.Right, schema, row)
	case *sql.CompareExpr:
		l, err := evalOperand(e.Left, schema, row)
		if err != nil {
			return false, err
		}
		r, err := evalOperand(e.Right, schema, row)
		if err != nil {
			return false, err
		}
		cmp, ok := sqlval.Compare(l, r)
		if !ok {
			return false, nil
		}
		switch e.Op {
		case "=":
			return cmp == 0, nil
		case "<>":
			return cmp != 0, nil
		case "<":
			return cmp < 0, nil
		case ">":
			return cmp > 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">=":
			return cmp >= 0, nil
		default:
			return false, dberrors.Newf(dberrors.KindSyntax, "unknown comparison operator %q", e.Op)
		}
	case *sql.LikeExpr:
		idx, err := schema.resolve(e.Table, e.Column)
		if err != nil {
			return false, err
		}
		return sqlval.Like(row[idx], e.Pattern), nil
	case *sql.IsNullExpr:
		idx, err := schema.resolve(e.Table, e.Column)
		if err != nil {
			return false, err
		}
		isNull := row[idx].Null
		if e.Not {
			return !isNull, nil
		}
		return isNull, nil
	default:
		return false, dberrors.Newf(dberrors.KindUnsupported, "unsupported predicate %T", expr)
	}
}

// matchIndexedColumn reports whether cmp is "indexedCol OP literal" (or
// the literal-first mirror), returning the column name and literal.
func matchIndexedColumn(meta *catalog.Table, cmp *sql.CompareExpr) (string, sqlval.Value, bool) {
	var colOperand, litOperand sql.Operand
	switch {
	case cmp.Left.IsColumn && !cmp.Right.IsColumn:
		colOperand, litOperand = cmp.Left, cmp.Right
	case cmp.Right.IsColumn && !cmp.Left.IsColumn:
		colOperand, litOperand = cmp.Right, cmp.Left
	default:
		return "", sqlval.Value{}, false
	}
	if colOperand.Table != "" && colOperand.Table != meta.Name {
		return "", sqlval.Value{}, false
	}
	col, ok := meta.Column(colOperand.Column)
	if !ok || col.Type != sqlval.TypeInt {
		return "", sqlval.Value{}, false
	}
	if _, ok := meta.Index(colOperand.Column); !ok {
		return "", sqlval.Value{}, false
	}
	if litOperand.Literal.Null {
		return "", sqlval.Value{}, false
	}
	return colOperand.Column, litOperand.Literal, true
}

func (e *Engine) fetchAll(tbl *table.Table, rids []record.RID) ([]record.RID, []record.Record, error) {
	recs := make([]record.Record, len(rids))
	for i, rid := range rids {
		rec, err := tbl.Get(rid)
		if err != nil {
			return nil, nil, err
		}
		recs[i] = rec
	}
	return rids, recs, nil
}

// indexCandidates narrows a single table's scan using an equality or
// range predicate on an indexed INT column when one is present in where
// (spec.md §4.6.3's "simple index selection"), otherwise it returns a
// full scan for the caller to filter.
func (e *Engine) indexCandidates(tbl *table.Table, meta *catalog.Table, where sql.Expr) ([]record.RID, []record.Record, error) {
	if e.disableIndex || where == nil {
		return tbl.Scan()
	}
	conjuncts := flattenAnd(where)

	for _, c := range conjuncts {
		cmp, ok := c.(*sql.CompareExpr)
		if !ok || cmp.Op != "=" {
			continue
		}
		col, lit, matched := matchIndexedColumn(meta, cmp)
		if !matched {
			continue
		}
		idxMeta, _ := meta.Index(col)
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, col, idxMeta.Unique)
		if err != nil {
			return nil, nil, err
		}
		rids, err := tree.Search(int64(lit.I))
		if err != nil {
			return nil, nil, err
		}
		return e.fetchAll(tbl, rids)
	}

	var rangeCol string
	var lo, hi int64
	var loSet, hiSet bool
	for _, c := range conjuncts {
		cmp, ok := c.(*sql.CompareExpr)
		if !ok {
			continue
		}
		col, lit, matched := matchIndexedColumn(meta, cmp)
		if !matched || (rangeCol != "" && rangeCol != col) {
			continue
		}
		switch cmp.Op {
		case ">=":
			rangeCol, lo, loSet = col, int64(lit.I), true
		case ">":
			rangeCol, lo, loSet = col, int64(lit.I)+1, true
		case "<=":
			rangeCol, hi, hiSet = col, int64(lit.I), true
		case "<":
			rangeCol, hi, hiSet = col, int64(lit.I)-1, true
		}
	}
	if loSet && hiSet {
		idxMeta, _ := meta.Index(rangeCol)
		tree, err := e.idx.OpenOrCreateIndex(meta.Name, rangeCol, idxMeta.Unique)
		if err != nil {
			return nil, nil, err
		}
		entries, err := tree.Range(lo, hi)
		if err != nil {
			return nil, nil, err
		}
		rids := make([]record.RID, len(entries))
		for i, en := range entries {
			rids[i] = en.RID
		}
		return e.fetchAll(tbl, rids)
	}

	return tbl.Scan()
}

func singleTableSchema(meta *catalog.Table) rowSchema {
	rs := make(rowSchema, len(meta.Columns))
	for i, c := range meta.Columns {
		rs[i] = fieldRef{Table: meta.Name, Column: c.Name}
	}
	return rs
}

// scanMatching returns every (rid, record) in tbl satisfying where,
// consulting an index when the predicate shape allows it (spec.md
// §4.6.2, used by DELETE/UPDATE and single-table SELECT).
func (e *Engine) scanMatching(tbl *table.Table, meta *catalog.Table, where sql.Expr) ([]record.RID, []record.Record, error) {
	schema := singleTableSchema(meta)
	candRIDs, candRecs, err := e.indexCandidates(tbl, meta, where)
	if err != nil {
		return nil, nil, err
	}
	var rids []record.RID
	var recs []record.Record
	for i, rec := range candRecs {
		ok, err := evalExpr(where, schema, []sqlval.Value(rec))
		if err != nil {
			return nil, nil, err
		}
		if ok {
			rids = append(rids, candRIDs[i])
			recs = append(recs, rec)
		}
	}
	return rids, recs, nil
}

type tableHandle struct {
	alias string
	tbl   *table.Table
	meta  *catalog.Table
}

func aliasOf(tr sql.TableRef) string {
	if tr.Alias != "" {
		return tr.Alias
	}
	return tr.Name
}

// buildJoinedRows produces every joined row matching where: a fast path
// consulting the index for a single-table FROM, and a nested-loop
// Cartesian product with a final filter pass for multi-table joins
// (spec.md §4.6.3).
func (e *Engine) buildJoinedRows(handles []tableHandle, schema rowSchema, where sql.Expr) ([][]sqlval.Value, error) {
	if len(handles) == 1 {
		h := handles[0]
		_, recs, err := e.indexCandidates(h.tbl, h.meta, where)
		if err != nil {
			return nil, err
		}
		var out [][]sqlval.Value
		for _, rec := range recs {
			row := []sqlval.Value(rec)
			ok, err := evalExpr(where, schema, row)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, row)
			}
		}
		return out, nil
	}

	perTable := make([][]record.Record, len(handles))
	for i, h := range handles {
		_, recs, err := h.tbl.Scan()
		if err != nil {
			return nil, err
		}
		perTable[i] = recs
	}

	var out [][]sqlval.Value
	cur := make([]sqlval.Value, 0, len(schema))
	var recurse func(depth int) error
	recurse = func(depth int) error {
		if depth == len(handles) {
			ok, err := evalExpr(where, schema, cur)
			if err != nil {
				return err
			}
			if ok {
				row := make([]sqlval.Value, len(cur))
				copy(row, cur)
				out = append(out, row)
			}
			return nil
		}
		for _, rec := range perTable[depth] {
			cur = append(cur, rec...)
			if err := recurse(depth + 1); err != nil {
				return err
			}
			cur = cur[:len(cur)-len(rec)]
		}
		return nil
	}
	if err := recurse(0); err != nil {
		return nil, err
	}
	return out, nil
}

func hasAggregate(sels []sql.Selector) bool {
	for _, s := range sels {
		if s.Agg != "" {
			return true
		}
	}
	return false
}

func aggLabel(sel sql.Selector) string {
	if sel.AggStar {
		return sel.Agg + "(*)"
	}
	return sel.Agg + "(" + sel.Column + ")"
}

// computeAggregate reduces rows to one value for a single aggregate
// selector (spec.md §4.6.3: COUNT(*) counts rows, the rest skip nulls).
func computeAggregate(sel sql.Selector, schema rowSchema, rows [][]sqlval.Value) (sqlval.Value, error) {
	if sel.Agg == "COUNT" && sel.AggStar {
		return sqlval.IntValue(int32(len(rows))), nil
	}
	idx, err := schema.resolve(sel.Table, sel.Column)
	if err != nil {
		return sqlval.Value{}, err
	}
	switch sel.Agg {
	case "COUNT":
		n := 0
		for _, r := range rows {
			if !r[idx].Null {
				n++
			}
		}
		return sqlval.IntValue(int32(n)), nil
	case "SUM", "AVG":
		var sum float64
		count, isInt := 0, true
		for _, r := range rows {
			v := r[idx]
			if v.Null {
				continue
			}
			switch v.Type {
			case sqlval.TypeInt:
				sum += float64(v.I)
			case sqlval.TypeFloat:
				sum += v.F
				isInt = false
			default:
				return sqlval.Value{}, dberrors.Wrapf(dberrors.ErrTypeMismatch, "%s over non-numeric column %q", sel.Agg, sel.Column)
			}
			count++
		}
		if sel.Agg == "AVG" {
			if count == 0 {
				return sqlval.NullValue(sqlval.TypeFloat), nil
			}
			return sqlval.FloatValue(sum / float64(count)), nil
		}
		if isInt {
			return sqlval.IntValue(int32(sum)), nil
		}
		return sqlval.FloatValue(sum), nil
	case "MIN", "MAX":
		var best sqlval.Value
		found := false
		for _, r := range rows {
			v := r[idx]
			if v.Null {
				continue
			}
			if !found {
				best, found = v, true
				continue
			}
			cmp, ok := sqlval.Compare(v, best)
			if ok && ((sel.Agg == "MIN" && cmp < 0) || (sel.Agg == "MAX" && cmp > 0)) {
				best = v
			}
		}
		if !found {
			return sqlval.NullValue(sqlval.TypeInt), nil
		}
		return best, nil
	default:
		return sqlval.Value{}, dberrors.Wrapf(dberrors.ErrUnsupported, "aggregate %q", sel.Agg)
	}
}

func (e *Engine) evalAggregates(stmt *sql.SelectStmt, schema rowSchema, rows [][]sqlval.Value) ([]string, [][]sqlval.Value, error) {
	cols := make([]string, len(stmt.Selectors))
	vals := make([]sqlval.Value, len(stmt.Selectors))
	for i, sel := range stmt.Selectors {
		name := sel.Alias
		if name == "" {
			name = aggLabel(sel)
		}
		cols[i] = name
		v, err := computeAggregate(sel, schema, rows)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = v
	}
	return cols, [][]sqlval.Value{vals}, nil
}

// sortJoinedRows implements stable multi-key ORDER BY with spec.md
// §4.6.3's null ordering: nulls sort last in ASC, first in DESC.
func sortJoinedRows(rows [][]sqlval.Value, schema rowSchema, order []sql.OrderTerm) error {
	idxs := make([]int, len(order))
	for i, t := range order {
		idx, err := schema.resolve(t.Table, t.Column)
		if err != nil {
			return err
		}
		idxs[i] = idx
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, idx := range idxs {
			a, b := rows[i][idx], rows[j][idx]
			if a.Null || b.Null {
				if a.Null == b.Null {
					continue
				}
				if order[k].Desc {
					return a.Null
				}
				return b.Null
			}
			cmp, ok := sqlval.Compare(a, b)
			if !ok || cmp == 0 {
				continue
			}
			if order[k].Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return nil
}

func projectSelectors(sels []sql.Selector, schema rowSchema, rows [][]sqlval.Value) ([]string, [][]sqlval.Value, error) {
	var cols []string
	var idxs []int
	for _, sel := range sels {
		if sel.Star {
			for i, f := range schema {
				cols = append(cols, f.Column)
				idxs = append(idxs, i)
			}
			continue
		}
		idx, err := schema.resolve(sel.Table, sel.Column)
		if err != nil {
			return nil, nil, err
		}
		name := sel.Alias
		if name == "" {
			name = sel.Column
		}
		cols = append(cols, name)
		idxs = append(idxs, idx)
	}
	out := make([][]sqlval.Value, len(rows))
	for i, row := range rows {
		projected := make([]sqlval.Value, len(idxs))
		for j, idx := range idxs {
			projected[j] = row[idx]
		}
		out[i] = projected
	}
	return cols, out, nil
}

// Select runs scan → filter → join, then either aggregates (ORDER BY and
// LIMIT do not apply to the single aggregate row) or orders, applies
// OFFSET/LIMIT and projects last. GROUP BY is rejected as Unsupported
// since it was left disabled in the reference system (spec.md §9).
func (e *Engine) Select(stmt *sql.SelectStmt) ([]string, [][]sqlval.Value, error) {
	if err := e.requireDB(); err != nil {
		return nil, nil, err
	}
	if len(stmt.GroupBy) > 0 {
		return nil, nil, dberrors.Wrap(dberrors.ErrUnsupported, "GROUP BY")
	}

	handles := make([]tableHandle, len(stmt.From))
	var schema rowSchema
	for i, tr := range stmt.From {
		tbl, meta, err := e.openTable(tr.Name)
		if err != nil {
			return nil, nil, err
		}
		alias := aliasOf(tr)
		handles[i] = tableHandle{alias: alias, tbl: tbl, meta: meta}
		for _, c := range meta.Columns {
			schema = append(schema, fieldRef{Table: alias, Column: c.Name})
		}
	}

	rows, err := e.buildJoinedRows(handles, schema, stmt.Where)
	if err != nil {
		return nil, nil, err
	}

	if hasAggregate(stmt.Selectors) {
		return e.evalAggregates(stmt, schema, rows)
	}

	if len(stmt.OrderBy) > 0 {
		if err := sortJoinedRows(rows, schema, stmt.OrderBy); err != nil {
			return nil, nil, err
		}
	}

	if stmt.Offset != nil {
		off := *stmt.Offset
		if off > len(rows) {
			off = len(rows)
		}
		rows = rows[off:]
	}
	if stmt.Limit != nil && *stmt.Limit < len(rows) {
		rows = rows[:*stmt.Limit]
	}

	return projectSelectors(stmt.Selectors, schema, rows)
}

func toRows(names []string) [][]sqlval.Value {
	out := make([][]sqlval.Value, len(names))
	for i, n := range names {
		out[i] = []sqlval.Value{sqlval.VarcharValue(n)}
	}
	return out
}

func toValueRows(rows [][]string) [][]sqlval.Value {
	out := make([][]sqlval.Value, len(rows))
	for i, row := range rows {
		vr := make([]sqlval.Value, len(row))
		for j, s := range row {
			vr[j] = sqlval.VarcharValue(s)
		}
		out[i] = vr
	}
	return out
}

// Execute dispatches a parsed statement to the matching executor method
// and returns its result columns, rows, and a one-line status message
// (spec.md §6.1). SELECT, SHOW DATABASES, SHOW TABLES and DESC return
// their result columns and rows with an empty status; every other
// statement returns an empty column/row set with a status describing
// the effect.
func (e *Engine) Execute(stmt sql.Statement) ([]string, [][]sqlval.Value, string, error) {
	e.log.WithField("stmt", fmt.Sprintf("%T", stmt)).Debug("executing statement")
	switch s := stmt.(type) {
	case *sql.CreateDatabaseStmt:
		err := e.CreateDatabase(s.Name)
		return nil, nil, fmt.Sprintf("database %q created", s.Name), err
	case *sql.DropDatabaseStmt:
		err := e.DropDatabase(s.Name)
		return nil, nil, fmt.Sprintf("database %q dropped", s.Name), err
	case *sql.UseStmt:
		err := e.Use(s.Name)
		return nil, nil, fmt.Sprintf("using database %q", s.Name), err
	case *sql.ShowDatabasesStmt:
		names, err := e.ShowDatabases()
		return []string{"database"}, toRows(names), "", err
	case *sql.ShowTablesStmt:
		names, err := e.ShowTables()
		return []string{"table"}, toRows(names), "", err
	case *sql.DescStmt:
		cols, rows, err := e.Describe(s.Table)
		return cols, toValueRows(rows), "", err
	case *sql.CreateTableStmt:
		err := e.CreateTable(s)
		return nil, nil, fmt.Sprintf("table %q created", s.Table), err
	case *sql.DropTableStmt:
		err := e.DropTable(s.Table)
		return nil, nil, fmt.Sprintf("table %q dropped", s.Table), err
	case *sql.AlterAddIndexStmt:
		err := e.AlterAddIndex(s)
		return nil, nil, "index added", err
	case *sql.AlterDropIndexStmt:
		err := e.AlterDropIndex(s)
		return nil, nil, "index dropped", err
	case *sql.AlterAddPrimaryKeyStmt:
		err := e.AlterAddPrimaryKey(s)
		return nil, nil, "primary key added", err
	case *sql.AlterDropPrimaryKeyStmt:
		err := e.AlterDropPrimaryKey(s)
		return nil, nil, "primary key dropped", err
	case *sql.AlterAddForeignKeyStmt:
		err := e.AlterAddForeignKey(s)
		return nil, nil, "foreign key added", err
	case *sql.AlterDropForeignKeyStmt:
		err := e.AlterDropForeignKey(s)
		return nil, nil, "foreign key dropped", err
	case *sql.InsertStmt:
		n, err := e.Insert(s)
		return nil, nil, fmt.Sprintf("%d row(s) inserted", n), err
	case *sql.DeleteStmt:
		n, err := e.Delete(s)
		return nil, nil, fmt.Sprintf("%d row(s) deleted", n), err
	case *sql.UpdateStmt:
		n, err := e.Update(s)
		return nil, nil, fmt.Sprintf("%d row(s) updated", n), err
	case *sql.LoadDataStmt:
		n, err := e.LoadData(s)
		return nil, nil, fmt.Sprintf("%d row(s) loaded", n), err
	case *sql.SelectStmt:
		cols, rows, err := e.Select(s)
		return cols, rows, "", err
	default:
		return nil, nil, "", dberrors.Wrapf(dberrors.ErrUnsupported, "statement type %T", stmt)
	}
}
