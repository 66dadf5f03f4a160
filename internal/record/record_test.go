package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goDB/internal/sqlval"
)

func testSchema() *Schema {
	return NewSchema([]Column{
		{Name: "id", Type: sqlval.TypeInt, NotNull: true},
		{Name: "name", Type: sqlval.TypeVarchar, VarcharWidth: 8},
		{Name: "score", Type: sqlval.TypeFloat},
	})
}

func TestRoundTripEncoding(t *testing.T) {
	s := testSchema()
	rec := Record{
		sqlval.IntValue(42),
		sqlval.VarcharValue("hi"),
		sqlval.FloatValue(3.5),
	}
	buf, err := s.Serialize(rec)
	require.NoError(t, err)
	require.Len(t, buf, s.RecordSize())

	got, err := s.Deserialize(buf)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestRoundTripWithNull(t *testing.T) {
	s := testSchema()
	rec := Record{
		sqlval.IntValue(1),
		sqlval.NullValue(sqlval.TypeVarchar),
		sqlval.FloatValue(0),
	}
	buf, err := s.Serialize(rec)
	require.NoError(t, err)
	got, err := s.Deserialize(buf)
	require.NoError(t, err)
	require.True(t, got[1].Null)
}

func TestNotNullViolation(t *testing.T) {
	s := testSchema()
	rec := Record{
		sqlval.NullValue(sqlval.TypeInt),
		sqlval.VarcharValue("x"),
		sqlval.FloatValue(0),
	}
	_, err := s.Serialize(rec)
	require.Error(t, err)
}

func TestVarcharOverflow(t *testing.T) {
	s := testSchema()
	rec := Record{
		sqlval.IntValue(1),
		sqlval.VarcharValue("way too long"),
		sqlval.FloatValue(0),
	}
	_, err := s.Serialize(rec)
	require.Error(t, err)
}

func TestSlotCountFormula(t *testing.T) {
	s := testSchema()
	n := SlotCountFor(s.RecordSize())
	require.Greater(t, n, 0)
	bitmapBytes := (n + 7) / 8
	require.LessOrEqual(t, 16+bitmapBytes+n*s.RecordSize(), 8192)
}

func TestPageInsertDeleteGet(t *testing.T) {
	s := testSchema()
	buf := NewTablePage(s.RecordSize())

	rec1, _ := s.Serialize(Record{sqlval.IntValue(1), sqlval.VarcharValue("a"), sqlval.FloatValue(1)})
	idx, ok := InsertIntoFreeSlot(buf, rec1)
	require.True(t, ok)
	require.EqualValues(t, 0, idx)

	got, err := GetSlot(buf, idx)
	require.NoError(t, err)
	require.Equal(t, rec1, got)

	require.NoError(t, DeleteSlot(buf, idx))
	_, err = GetSlot(buf, idx)
	require.Error(t, err)

	// A new insert reuses the freed slot.
	rec2, _ := s.Serialize(Record{sqlval.IntValue(2), sqlval.VarcharValue("b"), sqlval.FloatValue(2)})
	idx2, ok := InsertIntoFreeSlot(buf, rec2)
	require.True(t, ok)
	require.EqualValues(t, 0, idx2)
}

func TestPageFillsUpAndReportsFull(t *testing.T) {
	s := testSchema()
	buf := NewTablePage(s.RecordSize())
	count := int(SlotCount(buf))
	rec, _ := s.Serialize(Record{sqlval.IntValue(1), sqlval.VarcharValue("a"), sqlval.FloatValue(1)})
	for i := 0; i < count; i++ {
		_, ok := InsertIntoFreeSlot(buf, rec)
		require.True(t, ok)
	}
	_, ok := InsertIntoFreeSlot(buf, rec)
	require.False(t, ok)
}
