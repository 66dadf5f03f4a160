package btree

import "goDB/internal/record"

// RID identifies a row in a table file; reused from internal/record so
// the index and table layers speak the same identifier type.
type RID = record.RID

// Meta carries descriptive information about an index (spec.md §3.5:
// "column name -> index file name").
type Meta struct {
	TableName string
	Column    string
	Unique    bool // true for PK-enforcing indexes (spec.md §4.4.4)
}
