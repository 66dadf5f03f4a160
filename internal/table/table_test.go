package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"goDB/internal/bufpool"
	"goDB/internal/record"
	"goDB/internal/sqlval"
)

func testSchema() *record.Schema {
	return record.NewSchema([]record.Column{
		{Name: "a", Type: sqlval.TypeInt, NotNull: true},
		{Name: "b", Type: sqlval.TypeVarchar, VarcharWidth: 4},
	})
}

func TestInsertGetDeleteUpdate(t *testing.T) {
	dir := t.TempDir()
	pool := bufpool.New(16)
	tbl, err := Create(filepath.Join(dir, "t.tbl"), 1, pool, testSchema())
	require.NoError(t, err)
	defer tbl.Close()

	rid, err := tbl.Insert(record.Record{sqlval.IntValue(1), sqlval.VarcharValue("hi")})
	require.NoError(t, err)

	rec, err := tbl.Get(rid)
	require.NoError(t, err)
	require.Equal(t, "hi", rec[1].S)

	require.NoError(t, tbl.Update(rid, record.Record{sqlval.IntValue(1), sqlval.VarcharValue("yo")}))
	rec, err = tbl.Get(rid)
	require.NoError(t, err)
	require.Equal(t, "yo", rec[1].S)

	require.NoError(t, tbl.Delete(rid))
	_, err = tbl.Get(rid)
	require.Error(t, err)

	// Deleting again is an error (invalid RID), per spec.md §4.3.1.
	require.Error(t, tbl.Delete(rid))
}

func TestScanInPageSlotOrder(t *testing.T) {
	dir := t.TempDir()
	pool := bufpool.New(16)
	tbl, err := Create(filepath.Join(dir, "t.tbl"), 1, pool, testSchema())
	require.NoError(t, err)
	defer tbl.Close()

	for i := 0; i < 5; i++ {
		_, err := tbl.Insert(record.Record{sqlval.IntValue(int32(i)), sqlval.VarcharValue("x")})
		require.NoError(t, err)
	}

	rids, recs, err := tbl.Scan()
	require.NoError(t, err)
	require.Len(t, rids, 5)
	for i, rec := range recs {
		require.EqualValues(t, i, rec[0].I)
	}
}

func TestInsertAllocatesNewPageWhenFull(t *testing.T) {
	dir := t.TempDir()
	pool := bufpool.New(64)
	schema := testSchema()
	tbl, err := Create(filepath.Join(dir, "t.tbl"), 1, pool, schema)
	require.NoError(t, err)
	defer tbl.Close()

	perPage := record.SlotCountFor(schema.RecordSize())
	for i := 0; i < perPage+3; i++ {
		_, err := tbl.Insert(record.Record{sqlval.IntValue(int32(i)), sqlval.VarcharValue("x")})
		require.NoError(t, err)
	}

	rids, _, err := tbl.Scan()
	require.NoError(t, err)
	require.Len(t, rids, perPage+3)

	// Records now span at least two distinct pages.
	pages := map[uint32]bool{}
	for _, r := range rids {
		pages[r.Page] = true
	}
	require.Greater(t, len(pages), 1)
}

func TestCloseThenReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tbl")
	schema := testSchema()

	pool := bufpool.New(16)
	tbl, err := Create(path, 1, pool, schema)
	require.NoError(t, err)
	rid, err := tbl.Insert(record.Record{sqlval.IntValue(9), sqlval.VarcharValue("z")})
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	pool2 := bufpool.New(16)
	tbl2, err := Open(path, 1, pool2, schema)
	require.NoError(t, err)
	defer tbl2.Close()

	rec, err := tbl2.Get(rid)
	require.NoError(t, err)
	require.EqualValues(t, 9, rec[0].I)
}
