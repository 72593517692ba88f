package img

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRandomRead(t *testing.T) {
	data := generateRandomBuffer(1024 * 10)
	n := len(data)

	var (
		readers []io.ReaderAt
		sizes   []int64
	)

	size := 0
	for size < n {
		sz := min(rand.Intn(1024)+1, n-size)

		readers = append(readers, bytes.NewReader(data[size:size+sz]))
		sizes = append(sizes, int64(sz))
		size += sz
	}
	testReaderAt(t, data, NewSplit(readers, sizes))
}

func TestSplitEmptySegments(t *testing.T) {
	data := generateRandomBuffer(2048)

	s := NewSplit(
		[]io.ReaderAt{bytes.NewReader(data[:1000]), bytes.NewReader(nil), bytes.NewReader(data[1000:])},
		[]int64{1000, 0, 1048},
	)
	testReaderAt(t, data, s)
}

func TestOpenSplit(t *testing.T) {
	dir := t.TempDir()
	data := generateRandomBuffer(3000)

	for i, chunk := range [][]byte{data[:1024], data[1024:2048], data[2048:]} {
		path := filepath.Join(dir, "disk."+[]string{"001", "002", "003"}[i])
		require.NoError(t, os.WriteFile(path, chunk, 0644))
	}

	segments, err := SplitSegments(filepath.Join(dir, "disk.001"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "disk.001"),
		filepath.Join(dir, "disk.002"),
		filepath.Join(dir, "disk.003"),
	}, segments)

	s, err := OpenSplit(segments...)
	require.NoError(t, err)
	defer s.Close()

	testReaderAt(t, data, s)

	segments, err = SplitSegments(filepath.Join(dir, "disk.img"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	data := generateRandomBuffer(4096)

	path := filepath.Join(dir, "disk.img")
	require.NoError(t, os.WriteFile(path, data, 0644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	require.False(t, f.IsDevice())
	require.Equal(t, uint32(0), f.SectorSize())
	require.Equal(t, path, f.Name())
	testReaderAt(t, data, f)

	empty := filepath.Join(dir, "empty.img")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	_, err = Open(empty)
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = Open(filepath.Join(dir, "missing.img"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenMmap(t *testing.T) {
	dir := t.TempDir()
	data := generateRandomBuffer(8192)

	path := filepath.Join(dir, "disk.img")
	require.NoError(t, os.WriteFile(path, data, 0644))

	m, err := OpenMmap(path)
	require.NoError(t, err)
	testReaderAt(t, data, m)
	require.NoError(t, m.Close())

	empty := filepath.Join(dir, "empty.img")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	_, err = OpenMmap(empty)
	require.ErrorIs(t, err, ErrEmptyImage)
}

func TestWithSize(t *testing.T) {
	r := WithSize(bytes.NewReader(make([]byte, 512)), 1<<40)
	require.Equal(t, int64(1<<40), r.Size())

	var buf [16]byte
	_, err := r.ReadAt(buf[:], 1024)
	require.ErrorIs(t, err, io.EOF)
}

func TestNormalizeWindowsPath(t *testing.T) {
	require.Equal(t, `\\.\C:`, normalizeWindowsPath("c:"))
	require.Equal(t, `\\.\D:`, normalizeWindowsPath(`D:\`))
	require.Equal(t, `\\.\E:`, normalizeWindowsPath(`\\.\e:`))
	require.Equal(t, `C:\images\disk.img`, normalizeWindowsPath("C:/images/disk.img"))
	require.True(t, isRawVolumePath(normalizeWindowsPath("f:")))
}
