package sql

import (
	"fmt"
	"strings"

	"goDB/internal/dberrors"
	"goDB/internal/sqlval"
)

// parser walks a flat token stream produced by the lexer. Grounded on the
// teacher's one-statement-per-function dispatch in internal/sql/parser.go,
// replacing its whole-query ToUpper text scan with real token lookahead.
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos+offset]
}

func (p *parser) advance() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

// kw reports whether the current token is the identifier-shaped keyword
// s, case-insensitively, without consuming it.
func (p *parser) kw(s string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, s)
}

func (p *parser) kwAt(offset int, s string) bool {
	t := p.peekAt(offset)
	return t.kind == tokIdent && strings.EqualFold(t.text, s)
}

func (p *parser) expectKw(s string) error {
	if !p.kw(s) {
		return dberrors.Wrapf(dberrors.New(dberrors.KindSyntax, "syntax error"), "expected keyword %q, got %q", s, p.peek().text)
	}
	p.advance()
	return nil
}

func (p *parser) expectPunct(s string) error {
	t := p.peek()
	if t.kind != tokPunct || t.text != s {
		return dberrors.Wrapf(dberrors.New(dberrors.KindSyntax, "syntax error"), "expected %q, got %q", s, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", dberrors.Wrapf(dberrors.New(dberrors.KindSyntax, "syntax error"), "expected identifier, got %q", t.text)
	}
	p.advance()
	return t.text, nil
}

// Parse parses a single, semicolon-stripped SQL statement into a Statement.
func Parse(query string) (Statement, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, dberrors.New(dberrors.KindSyntax, "empty statement")
	}
	toks, err := tokenize(q)
	if err != nil {
		return nil, dberrors.Wrap(dberrors.New(dberrors.KindSyntax, "syntax error"), err.Error())
	}
	p := &parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, dberrors.Newf(dberrors.KindSyntax, "unexpected trailing input near %q", p.peek().text)
	}
	return stmt, nil
}

func (p *parser) parseStatement() (Statement, error) {
	switch {
	case p.kw("CREATE"):
		return p.parseCreate()
	case p.kw("DROP"):
		return p.parseDrop()
	case p.kw("USE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &UseStmt{Name: name}, nil
	case p.kw("SHOW"):
		return p.parseShow()
	case p.kw("DESC"), p.kw("DESCRIBE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DescStmt{Table: name}, nil
	case p.kw("ALTER"):
		return p.parseAlter()
	case p.kw("INSERT"):
		return p.parseInsert()
	case p.kw("DELETE"):
		return p.parseDelete()
	case p.kw("UPDATE"):
		return p.parseUpdate()
	case p.kw("LOAD"):
		return p.parseLoadData()
	case p.kw("SELECT"):
		return p.parseSelect()
	default:
		return nil, dberrors.Newf(dberrors.KindSyntax, "unrecognized statement starting at %q", p.peek().text)
	}
}

func (p *parser) parseCreate() (Statement, error) {
	p.advance() // CREATE
	switch {
	case p.kw("DATABASE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &CreateDatabaseStmt{Name: name}, nil
	case p.kw("TABLE"):
		p.advance()
		return p.parseCreateTableBody()
	default:
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected DATABASE or TABLE after CREATE, got %q", p.peek().text)
	}
}

func (p *parser) parseDrop() (Statement, error) {
	p.advance() // DROP
	switch {
	case p.kw("DATABASE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropDatabaseStmt{Name: name}, nil
	case p.kw("TABLE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropTableStmt{Table: name}, nil
	default:
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected DATABASE or TABLE after DROP, got %q", p.peek().text)
	}
}

func (p *parser) parseShow() (Statement, error) {
	p.advance() // SHOW
	switch {
	case p.kw("DATABASES"):
		p.advance()
		return &ShowDatabasesStmt{}, nil
	case p.kw("TABLES"):
		p.advance()
		return &ShowTablesStmt{}, nil
	default:
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected DATABASES or TABLES after SHOW, got %q", p.peek().text)
	}
}

func parseTypeName(name string, width int) (sqlval.Type, error) {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER":
		return sqlval.TypeInt, nil
	case "FLOAT", "DOUBLE", "REAL":
		return sqlval.TypeFloat, nil
	case "VARCHAR":
		return sqlval.TypeVarchar, nil
	default:
		return 0, dberrors.Newf(dberrors.KindUnsupported, "unknown or unsupported column type %q", name)
	}
}

func (p *parser) parseCreateTableBody() (Statement, error) {
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Table: table}
	seen := map[string]bool{}

	for {
		switch {
		case p.kw("PRIMARY"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			if len(stmt.PrimaryKey) > 0 {
				return nil, dberrors.New(dberrors.KindSyntax, "multiple PRIMARY KEY clauses")
			}
			stmt.PrimaryKey = cols
		case p.kw("FOREIGN"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			if err := p.expectKw("REFERENCES"); err != nil {
				return nil, err
			}
			refTable, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			refCols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			stmt.ForeignKeys = append(stmt.ForeignKeys, ForeignKeyDef{
				Columns: cols, RefTable: refTable, RefColumns: refCols,
			})
		default:
			col, inlinePK, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			if seen[col.Name] {
				return nil, dberrors.Wrapf(dberrors.ErrDuplicateColumn, "column %q", col.Name)
			}
			seen[col.Name] = true
			if inlinePK {
				if len(stmt.PrimaryKey) > 0 {
					return nil, dberrors.New(dberrors.KindSyntax, "multiple PRIMARY KEY clauses")
				}
				stmt.PrimaryKey = []string{col.Name}
			}
			stmt.Columns = append(stmt.Columns, col)
		}

		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseColumnNameList() ([]string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var cols []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		cols = append(cols, name)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return cols, nil
}

// parseColumnDef parses one column definition inside a CREATE TABLE
// column list. inlinePK reports whether the column carried a trailing
// "PRIMARY KEY" modifier (as opposed to a separate PRIMARY KEY(...) clause).
func (p *parser) parseColumnDef() (col ColumnDef, inlinePK bool, err error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, false, err
	}
	typeName, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, false, err
	}
	width := 0
	if p.peek().kind == tokPunct && p.peek().text == "(" {
		p.advance()
		n := p.advance()
		if n.kind != tokNumber {
			return ColumnDef{}, false, dberrors.Newf(dberrors.KindSyntax, "expected width literal, got %q", n.text)
		}
		fmt.Sscanf(n.text, "%d", &width)
		if err := p.expectPunct(")"); err != nil {
			return ColumnDef{}, false, err
		}
	}
	typ, err := parseTypeName(typeName, width)
	if err != nil {
		return ColumnDef{}, false, err
	}
	col = ColumnDef{Name: name, Type: typ, VarcharWidth: width}

	for {
		switch {
		case p.kw("NOT"):
			p.advance()
			if err := p.expectKw("NULL"); err != nil {
				return ColumnDef{}, false, err
			}
			col.NotNull = true
		case p.kw("PRIMARY"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return ColumnDef{}, false, err
			}
			col.NotNull = true
			inlinePK = true
		case p.kw("UNIQUE"):
			return ColumnDef{}, false, dberrors.New(dberrors.KindUnsupported, "UNIQUE constraints are unsupported")
		default:
			return col, inlinePK, nil
		}
	}
}

func (p *parser) parseAlter() (Statement, error) {
	p.advance() // ALTER
	if err := p.expectKw("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	switch {
	case p.kw("ADD"):
		p.advance()
		switch {
		case p.kw("INDEX"):
			p.advance()
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			if len(cols) != 1 {
				return nil, dberrors.New(dberrors.KindUnsupported, "multi-column secondary indexes are unsupported")
			}
			return &AlterAddIndexStmt{Table: table, Column: cols[0]}, nil
		case p.kw("PRIMARY"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			return &AlterAddPrimaryKeyStmt{Table: table, Columns: cols}, nil
		case p.kw("FOREIGN"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			if err := p.expectKw("REFERENCES"); err != nil {
				return nil, err
			}
			refTable, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			refCols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			return &AlterAddForeignKeyStmt{Table: table, FK: ForeignKeyDef{Columns: cols, RefTable: refTable, RefColumns: refCols}}, nil
		default:
			return nil, dberrors.Newf(dberrors.KindSyntax, "expected INDEX, PRIMARY KEY or FOREIGN KEY after ADD, got %q", p.peek().text)
		}
	case p.kw("DROP"):
		p.advance()
		switch {
		case p.kw("INDEX"):
			p.advance()
			cols, err := p.parseColumnNameList()
			if err != nil {
				return nil, err
			}
			if len(cols) != 1 {
				return nil, dberrors.New(dberrors.KindUnsupported, "multi-column secondary indexes are unsupported")
			}
			return &AlterDropIndexStmt{Table: table, Column: cols[0]}, nil
		case p.kw("PRIMARY"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			return &AlterDropPrimaryKeyStmt{Table: table}, nil
		case p.kw("FOREIGN"):
			p.advance()
			if err := p.expectKw("KEY"); err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &AlterDropForeignKeyStmt{Table: table, Name: name}, nil
		default:
			return nil, dberrors.Newf(dberrors.KindSyntax, "expected INDEX, PRIMARY KEY or FOREIGN KEY after DROP, got %q", p.peek().text)
		}
	default:
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected ADD or DROP, got %q", p.peek().text)
	}
}

func (p *parser) parseLiteralValue() (sqlval.Value, error) {
	t := p.advance()
	switch {
	case t.kind == tokString:
		return sqlval.VarcharValue(t.text), nil
	case t.kind == tokNumber:
		if strings.ContainsAny(t.text, ".eE") {
			return sqlval.ParseFloatLiteral(t.text)
		}
		return sqlval.ParseIntLiteral(t.text)
	case t.kind == tokIdent && strings.EqualFold(t.text, "NULL"):
		return sqlval.NullValue(sqlval.TypeInt), nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "DEFAULT"):
		return sqlval.NullValue(sqlval.TypeInt), nil
	default:
		return sqlval.Value{}, dberrors.Newf(dberrors.KindSyntax, "expected a literal value, got %q", t.text)
	}
}

func (p *parser) parseInsert() (Statement, error) {
	p.advance() // INSERT
	if err := p.expectKw("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	stmt := &InsertStmt{Table: table}
	if p.peek().kind == tokPunct && p.peek().text == "(" {
		cols, err := p.parseColumnNameList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if err := p.expectKw("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var row []sqlval.Value
		for {
			v, err := p.parseLiteralValue()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)

		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	return stmt, nil
}

func (p *parser) parseQualifiedColumn() (table, column string, err error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	if p.peek().kind == tokPunct && p.peek().text == "." {
		p.advance()
		second, err := p.expectIdent()
		if err != nil {
			return "", "", err
		}
		return first, second, nil
	}
	return "", first, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.peek()
	if t.kind == tokIdent && !strings.EqualFold(t.text, "NULL") {
		table, col, err := p.parseQualifiedColumn()
		if err != nil {
			return Operand{}, err
		}
		return Operand{IsColumn: true, Table: table, Column: col}, nil
	}
	v, err := p.parseLiteralValue()
	if err != nil {
		return Operand{}, err
	}
	return Operand{Literal: v}, nil
}

var compareOps = map[string]bool{"=": true, "<>": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

// parseWhere parses a sequence of predicates conjoined by AND (spec.md §4.6.3).
func (p *parser) parseWhere() (Expr, error) {
	left, err := p.parsePredicate()
	if err != nil {
		return nil, err
	}
	for p.kw("AND") {
		p.advance()
		right, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePredicate() (Expr, error) {
	table, col, err := p.parseQualifiedColumn()
	if err != nil {
		return nil, err
	}

	if p.kw("IS") {
		p.advance()
		not := false
		if p.kw("NOT") {
			p.advance()
			not = true
		}
		if err := p.expectKw("NULL"); err != nil {
			return nil, err
		}
		return &IsNullExpr{Table: table, Column: col, Not: not}, nil
	}

	if p.kw("LIKE") {
		p.advance()
		t := p.advance()
		if t.kind != tokString {
			return nil, dberrors.Newf(dberrors.KindSyntax, "expected string pattern after LIKE, got %q", t.text)
		}
		return &LikeExpr{Table: table, Column: col, Pattern: t.text}, nil
	}

	opTok := p.peek()
	if opTok.kind != tokPunct || !compareOps[opTok.text] {
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected comparison operator, LIKE or IS NULL, got %q", opTok.text)
	}
	p.advance()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op := opTok.text
	if op == "!=" {
		op = "<>"
	}
	return &CompareExpr{Left: Operand{IsColumn: true, Table: table, Column: col}, Op: op, Right: right}, nil
}

func (p *parser) parseDelete() (Statement, error) {
	p.advance() // DELETE
	if err := p.expectKw("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Table: table}
	if p.kw("WHERE") {
		p.advance()
		w, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func (p *parser) parseUpdate() (Statement, error) {
	p.advance() // UPDATE
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKw("SET"); err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: table}
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		v, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: v})
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	if p.kw("WHERE") {
		p.advance()
		w, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func (p *parser) parseLoadData() (Statement, error) {
	p.advance() // LOAD
	if err := p.expectKw("DATA"); err != nil {
		return nil, err
	}
	if err := p.expectKw("INFILE"); err != nil {
		return nil, err
	}
	t := p.advance()
	if t.kind != tokString {
		return nil, dberrors.Newf(dberrors.KindSyntax, "expected quoted file path, got %q", t.text)
	}
	if err := p.expectKw("INTO"); err != nil {
		return nil, err
	}
	if err := p.expectKw("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &LoadDataStmt{Path: t.text, Table: table}, nil
}

func (p *parser) parseSelect() (Statement, error) {
	p.advance() // SELECT
	stmt := &SelectStmt{}

	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		stmt.Selectors = append(stmt.Selectors, sel)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}

	if err := p.expectKw("FROM"); err != nil {
		return nil, err
	}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		ref := TableRef{Name: name}
		if p.kw("AS") {
			p.advance()
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			ref.Alias = alias
		} else if t := p.peek(); t.kind == tokIdent && !reservedAfterTable(t.text) {
			ref.Alias = t.text
			p.advance()
		}
		stmt.From = append(stmt.From, ref)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}

	if p.kw("WHERE") {
		p.advance()
		w, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}

	if p.kw("GROUP") {
		p.advance()
		if err := p.expectKw("BY"); err != nil {
			return nil, err
		}
		// Accepted in the grammar, rejected at plan time (spec.md §4.6.3,
		// §9: GROUP BY is disabled but must parse).
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, name)
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.advance()
				continue
			}
			break
		}
	}

	if p.kw("ORDER") {
		p.advance()
		if err := p.expectKw("BY"); err != nil {
			return nil, err
		}
		for {
			table, col, err := p.parseQualifiedColumn()
			if err != nil {
				return nil, err
			}
			term := OrderTerm{Table: table, Column: col}
			if p.kw("DESC") {
				p.advance()
				term.Desc = true
			} else if p.kw("ASC") {
				p.advance()
			}
			stmt.OrderBy = append(stmt.OrderBy, term)
			if p.peek().kind == tokPunct && p.peek().text == "," {
				p.advance()
				continue
			}
			break
		}
	}

	if p.kw("LIMIT") {
		p.advance()
		n, err := p.expectNumberInt()
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
		if p.kw("OFFSET") {
			p.advance()
			m, err := p.expectNumberInt()
			if err != nil {
				return nil, err
			}
			stmt.Offset = &m
		}
	}

	return stmt, nil
}

// reservedAfterTable reports whether an identifier following a table name
// in a FROM clause is a keyword (so it must not be mistaken for an alias).
func reservedAfterTable(s string) bool {
	switch strings.ToUpper(s) {
	case "WHERE", "GROUP", "ORDER", "LIMIT":
		return true
	default:
		return false
	}
}

func (p *parser) expectNumberInt() (int, error) {
	t := p.advance()
	if t.kind != tokNumber {
		return 0, dberrors.Newf(dberrors.KindSyntax, "expected integer, got %q", t.text)
	}
	var n int
	if _, err := fmt.Sscanf(t.text, "%d", &n); err != nil {
		return 0, dberrors.Newf(dberrors.KindSyntax, "invalid integer %q", t.text)
	}
	return n, nil
}

var aggFuncs = map[string]bool{"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true}

func (p *parser) parseSelector() (Selector, error) {
	if p.peek().kind == tokPunct && p.peek().text == "*" {
		p.advance()
		return Selector{Star: true}, nil
	}

	if p.peek().kind == tokIdent && aggFuncs[strings.ToUpper(p.peek().text)] && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "(" {
		fn := strings.ToUpper(p.advance().text)
		p.advance() // (
		sel := Selector{Agg: fn}
		if p.peek().kind == tokPunct && p.peek().text == "*" {
			p.advance()
			sel.AggStar = true
		} else {
			table, col, err := p.parseQualifiedColumn()
			if err != nil {
				return Selector{}, err
			}
			sel.Table, sel.Column = table, col
		}
		if err := p.expectPunct(")"); err != nil {
			return Selector{}, err
		}
		if p.kw("AS") {
			p.advance()
			alias, err := p.expectIdent()
			if err != nil {
				return Selector{}, err
			}
			sel.Alias = alias
		}
		return sel, nil
	}

	table, col, err := p.parseQualifiedColumn()
	if err != nil {
		return Selector{}, err
	}
	sel := Selector{Table: table, Column: col}
	if p.kw("AS") {
		p.advance()
		alias, err := p.expectIdent()
		if err != nil {
			return Selector{}, err
		}
		sel.Alias = alias
	}
	return sel, nil
}
