package pagefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"goDB/internal/dberrors"
)

func TestCreateWriteReadPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.tbl")

	f, err := Create(path)
	require.NoError(t, err)

	id, err := f.AppendPage()
	require.NoError(t, err)
	require.EqualValues(t, 0, id)

	buf := make([]byte, PageSize)
	copy(buf, []byte("hello"))
	require.NoError(t, f.WritePage(id, buf))

	got, err := f.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, buf, got)

	count, err := f.PageCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer f2.Close()

	got2, err := f2.ReadPage(0)
	require.NoError(t, err)
	require.Equal(t, buf, got2)
}

func TestReadPageOutOfRange(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "t.tbl"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadPage(5)
	require.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.tbl"))
	require.ErrorIs(t, err, dberrors.ErrFileNotFound)
}
