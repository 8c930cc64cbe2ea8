package mmapfile

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestFile(t *testing.T, initialSize, maxSize uint64) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.mediacat")
	f, err := Open(path, initialSize, maxSize, nil)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAppendAndReadAt(t *testing.T) {
	f := openTestFile(t, 64, 0)

	off1, err := f.Append([]byte("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, off1)

	off2, err := f.Append([]byte("world!"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, off2)

	got, err := f.ReadAt(off1, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = f.ReadAt(off2, 6)
	require.NoError(t, err)
	assert.Equal(t, "world!", string(got))

	assert.EqualValues(t, 11, f.Len())
}

func TestAppendGrowsPastInitialMapping(t *testing.T) {
	f := openTestFile(t, 4, 0)

	big := make([]byte, 100)
	for i := range big {
		big[i] = byte(i)
	}

	off, err := f.Append(big)
	require.NoError(t, err)
	assert.EqualValues(t, 0, off)

	got, err := f.ReadAt(off, uint32(len(big)))
	require.NoError(t, err)
	assert.Equal(t, big, got)
}

func TestAppendRejectsOverMaxSize(t *testing.T) {
	f := openTestFile(t, 4, 8)

	_, err := f.Append(make([]byte, 4))
	require.NoError(t, err)

	_, err = f.Append(make([]byte, 8))
	assert.Error(t, err)
}

func TestReadAtPastWrittenOffset(t *testing.T) {
	f := openTestFile(t, 16, 0)
	_, err := f.Append([]byte("abc"))
	require.NoError(t, err)

	_, err = f.ReadAt(0, 10)
	assert.Error(t, err)
}

func TestTruncateTo(t *testing.T) {
	f := openTestFile(t, 16, 0)
	_, err := f.Append([]byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, f.TruncateTo(3))
	assert.EqualValues(t, 3, f.Len())

	err = f.TruncateTo(10)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := openTestFile(t, 16, 0)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestAppendAfterCloseFails(t *testing.T) {
	f := openTestFile(t, 16, 0)
	require.NoError(t, f.Close())

	_, err := f.Append([]byte("x"))
	assert.Error(t, err)
}

func TestConcurrentAppendsDoNotOverlap(t *testing.T) {
	f := openTestFile(t, 4, 0)

	const n = 50
	var wg sync.WaitGroup
	offsets := make([]uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			off, err := f.Append([]byte{byte(i)})
			require.NoError(t, err)
			offsets[i] = off
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, off := range offsets {
		assert.False(t, seen[off], "offset %d reused", off)
		seen[off] = true
	}
	assert.EqualValues(t, n, f.Len())
}

func TestReopenPreservesExistingData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.mediacat")

	f1, err := Open(path, 16, 0, nil)
	require.NoError(t, err)
	_, err = f1.Append([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, err := Open(path, 16, 0, nil)
	require.NoError(t, err)
	defer f2.Close()

	assert.EqualValues(t, len("persisted"), f2.Len())
	got, err := f2.ReadAt(0, uint32(len("persisted")))
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
