package record

import (
	"encoding/binary"
	"math"

	"goDB/internal/dberrors"
	"goDB/internal/sqlval"
)

// Serialize encodes rec in schema order into a RecordSize()-byte buffer:
// the null bitmap first, then each column's type-prefix-free fixed-width
// bytes (spec.md §4.3.2). For a NULL value the column bytes are zeroed.
func (s *Schema) Serialize(rec Record) ([]byte, error) {
	if err := s.Validate(rec); err != nil {
		return nil, err
	}
	buf := make([]byte, s.recordSize)
	for i, c := range s.Columns {
		v := rec[i]
		if v.Null {
			buf[i/8] |= 1 << uint(i%8)
			continue
		}
		off := s.offsets[i]
		switch c.Type {
		case sqlval.TypeInt:
			binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v.I))
		case sqlval.TypeFloat:
			binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v.F))
		case sqlval.TypeVarchar:
			b := []byte(v.S)
			copy(buf[off:off+c.VarcharWidth], b)
			// Shorter strings are zero-padded: buf is already zeroed.
		}
	}
	return buf, nil
}

// Deserialize mirrors Serialize using the schema's precomputed offsets.
// For a null column the bytes are skipped rather than interpreted.
func (s *Schema) Deserialize(buf []byte) (Record, error) {
	if len(buf) != s.recordSize {
		return nil, dberrors.Newf(dberrors.KindInvariant, "record: buffer is %d bytes, want %d", len(buf), s.recordSize)
	}
	rec := make(Record, len(s.Columns))
	for i, c := range s.Columns {
		if buf[i/8]&(1<<uint(i%8)) != 0 {
			rec[i] = sqlval.NullValue(c.Type)
			continue
		}
		off := s.offsets[i]
		switch c.Type {
		case sqlval.TypeInt:
			rec[i] = sqlval.IntValue(int32(binary.LittleEndian.Uint32(buf[off : off+4])))
		case sqlval.TypeFloat:
			bits := binary.LittleEndian.Uint64(buf[off : off+8])
			rec[i] = sqlval.FloatValue(math.Float64frombits(bits))
		case sqlval.TypeVarchar:
			raw := buf[off : off+c.VarcharWidth]
			n := len(raw)
			for n > 0 && raw[n-1] == 0 {
				n--
			}
			rec[i] = sqlval.VarcharValue(string(raw[:n]))
		}
	}
	return rec, nil
}
