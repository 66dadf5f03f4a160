// Package record implements spec.md §3.2-§4.3.2: the slotted table-page
// layout, the per-page slot/null bitmaps, and fixed-length record
// (de)serialization.
//
// Grounded on the teacher's internal/storage/filestore/page.go (slot
// directory at the tail of the page) and format.go (typed row encoding),
// reshaped from the teacher's variable-length slots into the spec's
// fixed-length slot bitmap plus precomputed per-column byte offsets.
package record

import (
	"goDB/internal/dberrors"
	"goDB/internal/sqlval"
)

// RID is a record identifier: the stable (page-id, slot-index) pair
// spec.md §3.4 defines. RIDs never change for the lifetime of a record
// since fixed-length records are updated in place.
type RID struct {
	Page uint32
	Slot uint16
}

// Less orders RIDs lexicographically by (page, slot), used to
// deterministically tie-break duplicate index keys (spec.md §4.4.2).
func (r RID) Less(o RID) bool {
	if r.Page != o.Page {
		return r.Page < o.Page
	}
	return r.Slot < o.Slot
}

// Column describes one column of a table schema (spec.md §3.5).
type Column struct {
	Name         string
	Type         sqlval.Type
	NotNull      bool
	VarcharWidth int // meaningful only when Type == TypeVarchar
	Default      *sqlval.Value
}

// Width returns the fixed on-disk byte width of this column's value.
func (c Column) Width() int {
	switch c.Type {
	case sqlval.TypeInt:
		return 4
	case sqlval.TypeFloat:
		return 8
	case sqlval.TypeVarchar:
		return c.VarcharWidth
	default:
		return 0
	}
}

// Schema is the ordered list of columns for one table, with precomputed
// byte offsets so serialize/deserialize never recompute layout.
type Schema struct {
	Columns     []Column
	offsets     []int
	bitmapBytes int
	recordSize  int
}

// NewSchema builds a Schema from an ordered column list, precomputing the
// null-bitmap size and each column's byte offset (spec.md §3.3).
func NewSchema(cols []Column) *Schema {
	s := &Schema{Columns: cols}
	s.bitmapBytes = (len(cols) + 7) / 8
	s.offsets = make([]int, len(cols))
	off := s.bitmapBytes
	for i, c := range cols {
		s.offsets[i] = off
		off += c.Width()
	}
	s.recordSize = off
	return s
}

// RecordSize is the fixed serialized byte length of every record under
// this schema.
func (s *Schema) RecordSize() int { return s.recordSize }

// ColumnIndex returns the position of name in the schema, or -1.
// Column names are unique and case-sensitive (spec.md §3.5).
func (s *Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Record is one row: N values in schema order (spec.md §3.3).
type Record []sqlval.Value

// Validate checks NOT-NULL and type/width rules for rec against s
// (spec.md §3.6's per-record invariant). Missing Default values are the
// caller's responsibility to fill in before calling Validate.
func (s *Schema) Validate(rec Record) error {
	if len(rec) != len(s.Columns) {
		return dberrors.ErrArityMismatch
	}
	for i, c := range s.Columns {
		v := rec[i]
		if v.Null {
			if c.NotNull {
				return dberrors.Wrapf(dberrors.ErrNotNullViolated, "column %q", c.Name)
			}
			continue
		}
		if err := sqlval.CheckAssignable(v, c.Type, c.VarcharWidth); err != nil {
			return dberrors.Wrapf(err, "column %q", c.Name)
		}
	}
	return nil
}
