package bufpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend records writes and serves fixed-content reads, so tests can
// assert write-back behavior without touching disk.
type fakeBackend struct {
	writes [][2]uint32 // (page, first byte written)
}

func (b *fakeBackend) ReadPage(id uint32) ([]byte, error) {
	buf := make([]byte, 8192)
	buf[0] = byte(id)
	return buf, nil
}

func (b *fakeBackend) WritePage(id uint32, buf []byte) error {
	b.writes = append(b.writes, [2]uint32{id, uint32(buf[0])})
	return nil
}

func TestGetMutMarksDirtyAndFlushWritesBack(t *testing.T) {
	p := New(4)
	be := &fakeBackend{}
	p.Register(1, be)

	buf, err := p.GetMut(1, 0)
	require.NoError(t, err)
	buf[1] = 42

	require.NoError(t, p.Flush(1, 0))
	require.Len(t, be.writes, 1)

	// Flushing a clean page is a no-op.
	require.NoError(t, p.Flush(1, 0))
	require.Len(t, be.writes, 1)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	p := New(2)
	be := &fakeBackend{}
	p.Register(1, be)

	_, err := p.Get(1, 0)
	require.NoError(t, err)
	_, err = p.Get(1, 1)
	require.NoError(t, err)

	// Touch page 0 again so page 1 becomes the LRU victim.
	_, err = p.Get(1, 0)
	require.NoError(t, err)

	_, err = p.Get(1, 2)
	require.NoError(t, err)

	require.True(t, p.Contains(1, 0))
	require.False(t, p.Contains(1, 1))
	require.True(t, p.Contains(1, 2))
}

func TestEvictDirtyPageFlushesBeforeDiscard(t *testing.T) {
	p := New(1)
	be := &fakeBackend{}
	p.Register(1, be)

	buf, err := p.GetMut(1, 0)
	require.NoError(t, err)
	buf[0] = 7

	// Forces eviction of page 0 since capacity is 1.
	_, err = p.Get(1, 1)
	require.NoError(t, err)

	require.Len(t, be.writes, 1)
	require.EqualValues(t, 0, be.writes[0][0])
}

func TestEvictFileOnlyAffectsThatFile(t *testing.T) {
	p := New(10)
	be1 := &fakeBackend{}
	be2 := &fakeBackend{}
	p.Register(1, be1)
	p.Register(2, be2)

	_, _ = p.GetMut(1, 0)
	_, _ = p.GetMut(2, 0)

	require.NoError(t, p.EvictFile(1))

	require.False(t, p.Contains(1, 0))
	require.True(t, p.Contains(2, 0))
	require.Len(t, be1.writes, 1)
}
