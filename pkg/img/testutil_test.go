package img

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testReaderAt performs randomized reads against an image built from data.
func testReaderAt(t *testing.T, data []byte, r Image) {
	const trials = 1000

	require.Equal(t, int64(len(data)), r.Size())

	var buf [1500]byte

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range trials {
		offset := rng.Intn(len(data))
		readLen := 1 + rng.Intn(len(buf))

		n, err := r.ReadAt(buf[:readLen], int64(offset))

		expected := data[offset:]
		if len(expected) > readLen {
			expected = expected[:readLen]
		}
		if n < readLen {
			require.ErrorIs(t, err, io.EOF, "trial %d", i)
		} else {
			require.NoError(t, err, "trial %d", i)
		}
		require.True(t, bytes.Equal(buf[:n], expected), "trial %d: mismatch at offset %d", i, offset)
	}

	n, err := r.ReadAt(buf[:10], int64(len(data)))
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

// generateRandomBuffer returns a random byte slice of the given size.
func generateRandomBuffer(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random data: " + err.Error())
	}
	return b
}
