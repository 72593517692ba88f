package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixTableWalk(t *testing.T) {
	tb := New[int]()
	tb.Insert([]byte("apple"), 1)
	tb.Insert([]byte("applet"), 2)
	tb.Insert([]byte("apricot"), 3)

	require.Equal(t, 3, tb.Size())

	var got []int
	tb.Walk([]byte("appletie"), func(_ []byte, v int) bool {
		got = append(got, v)
		return false
	})
	require.Equal(t, []int{1, 2}, got)

	got = got[:0]
	tb.Walk([]byte("application"), func(_ []byte, v int) bool {
		got = append(got, v)
		return false
	})
	require.Empty(t, got)

	got = got[:0]
	tb.Walk([]byte("applet"), func(_ []byte, v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{1}, got)
}

func TestPrefixTableLongest(t *testing.T) {
	tb := New[string]()
	tb.Insert([]byte("NTFS"), "ntfs")
	tb.Insert([]byte("MSDOS"), "fat")
	tb.Insert([]byte("MSDOS5.0"), "fat5")

	v, ok := tb.Longest([]byte("MSDOS5.0\x00\x02"))
	require.True(t, ok)
	require.Equal(t, "fat5", v)

	v, ok = tb.Longest([]byte("MSDOS4.0"))
	require.True(t, ok)
	require.Equal(t, "fat", v)

	_, ok = tb.Longest([]byte("EXFAT   "))
	require.False(t, ok)

	_, ok = tb.Longest(nil)
	require.False(t, ok)

	v, ok = tb.Get([]byte("NTFS"))
	require.True(t, ok)
	require.Equal(t, "ntfs", v)
}
