package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"goDB/internal/bufpool"
)

func newTestTree(t *testing.T, order int, unique bool) *Tree {
	t.Helper()
	dir := t.TempDir()
	pool := bufpool.New(256)
	tree, err := Create(filepath.Join(dir, "t.idx"), 1, pool, Meta{TableName: "t", Column: "a", Unique: unique}, order)
	require.NoError(t, err)
	return tree
}

func TestInsertSearchSingle(t *testing.T) {
	tree := newTestTree(t, 4, false)
	require.NoError(t, tree.Insert(10, RID{Page: 1, Slot: 0}))
	rids, err := tree.Search(10)
	require.NoError(t, err)
	require.Equal(t, []RID{{Page: 1, Slot: 0}}, rids)

	rids, err = tree.Search(99)
	require.NoError(t, err)
	require.Empty(t, rids)
}

func TestInsertCausesSplit(t *testing.T) {
	tree := newTestTree(t, 4, false) // maxLeafEntries = 3
	for i := int64(0); i < 10; i++ {
		require.NoError(t, tree.Insert(i, RID{Page: uint32(i), Slot: 0}))
	}
	entries, err := tree.Iter()
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for i, e := range entries {
		require.EqualValues(t, i, e.Key)
	}
	count, err := tree.Count()
	require.NoError(t, err)
	require.EqualValues(t, 10, count)
}

func TestRangeScan(t *testing.T) {
	tree := newTestTree(t, 4, false)
	for i := int64(0); i < 20; i++ {
		require.NoError(t, tree.Insert(i, RID{Page: uint32(i), Slot: 0}))
	}
	entries, err := tree.Range(5, 9)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		require.EqualValues(t, i+5, e.Key)
	}
}

func TestDuplicateKeysAllowedWhenNotUnique(t *testing.T) {
	tree := newTestTree(t, 4, false)
	require.NoError(t, tree.Insert(1, RID{Page: 1, Slot: 0}))
	require.NoError(t, tree.Insert(1, RID{Page: 2, Slot: 0}))
	rids, err := tree.Search(1)
	require.NoError(t, err)
	require.Len(t, rids, 2)
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	tree := newTestTree(t, 4, true)
	require.NoError(t, tree.Insert(1, RID{Page: 1, Slot: 0}))
	err := tree.Insert(1, RID{Page: 2, Slot: 0})
	require.Error(t, err)

	rids, err := tree.Search(1)
	require.NoError(t, err)
	require.Len(t, rids, 1)
}

func TestDeleteIsIdempotentOnAbsentEntry(t *testing.T) {
	tree := newTestTree(t, 4, false)
	require.NoError(t, tree.Insert(1, RID{Page: 1, Slot: 0}))
	require.NoError(t, tree.Delete(1, RID{Page: 99, Slot: 0})) // no-op, wrong rid
	require.NoError(t, tree.Delete(42, RID{Page: 1, Slot: 0})) // no-op, missing key

	rids, err := tree.Search(1)
	require.NoError(t, err)
	require.Len(t, rids, 1)
}

func TestDeleteAcrossManySplitsAndMerges(t *testing.T) {
	tree := newTestTree(t, 4, false)
	const n = 50
	for i := int64(0); i < n; i++ {
		require.NoError(t, tree.Insert(i, RID{Page: uint32(i), Slot: 0}))
	}
	for i := int64(0); i < n; i += 2 {
		require.NoError(t, tree.Delete(i, RID{Page: uint32(i), Slot: 0}))
	}
	entries, err := tree.Iter()
	require.NoError(t, err)
	require.Len(t, entries, n/2)
	for i, e := range entries {
		require.EqualValues(t, 2*i+1, e.Key)
	}

	for i := int64(1); i < n; i += 2 {
		require.NoError(t, tree.Delete(i, RID{Page: uint32(i), Slot: 0}))
	}
	entries, err = tree.Iter()
	require.NoError(t, err)
	require.Empty(t, entries)
	count, err := tree.Count()
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestCloseAndReopenPersistsTree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.idx")
	pool := bufpool.New(256)
	tree, err := Create(path, 1, pool, Meta{TableName: "t", Column: "a"}, 4)
	require.NoError(t, err)
	for i := int64(0); i < 12; i++ {
		require.NoError(t, tree.Insert(i, RID{Page: uint32(i), Slot: 0}))
	}
	require.NoError(t, tree.Close())

	pool2 := bufpool.New(256)
	tree2, err := Open(path, 1, pool2, Meta{TableName: "t", Column: "a"})
	require.NoError(t, err)
	defer tree2.Close()

	entries, err := tree2.Iter()
	require.NoError(t, err)
	require.Len(t, entries, 12)
}
