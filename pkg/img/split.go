// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package img

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Split is a raw image stored as a sequence of segment files
// (disk.001, disk.002, ...) read as one contiguous image.
type Split struct {
	readers  []io.ReaderAt
	closers  []io.Closer
	cumSizes []int64
	size     int64
}

// NewSplit joins readers, whose sizes are given in sizes, into one image.
func NewSplit(readers []io.ReaderAt, sizes []int64) *Split {
	cumSizes := make([]int64, len(sizes))

	var size int64
	for i, s := range sizes {
		size += s
		cumSizes[i] = size
	}

	return &Split{
		readers:  readers,
		cumSizes: cumSizes,
		size:     size,
	}
}

// OpenSplit opens every segment in paths, in order.
func OpenSplit(paths ...string) (*Split, error) {
	if len(paths) == 0 {
		return nil, errors.New("no image segments given")
	}

	var (
		readers []io.ReaderAt
		closers []io.Closer
		sizes   []int64
	)

	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open segment %q: %w", path, err)
		}
		closers = append(closers, f)

		fi, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to stat segment %q: %w", path, err)
		}

		readers = append(readers, f)
		sizes = append(sizes, fi.Size())
	}

	s := NewSplit(readers, sizes)
	s.closers = closers

	if s.size == 0 {
		closeAll()
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, strings.Join(paths, ", "))
	}
	return s, nil
}

// SplitSegments returns first followed by its numbered siblings. first must
// end with a numeric extension such as ".001"; otherwise only first is
// returned.
func SplitSegments(first string) ([]string, error) {
	ext := filepath.Ext(first)
	digits := strings.TrimPrefix(ext, ".")

	n, err := strconv.Atoi(digits)
	if ext == "" || err != nil || n < 0 {
		return []string{first}, nil
	}

	base := strings.TrimSuffix(first, ext)
	segments := []string{first}
	for i := n + 1; ; i++ {
		path := fmt.Sprintf("%s.%0*d", base, len(digits), i)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, err
		}
		segments = append(segments, path)
	}
	return segments, nil
}

func (s *Split) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("Split.ReadAt: negative offset %d", off)
	}

	bytesRead := 0
	for bytesRead < len(buf) && off < s.size {
		i := sort.Search(len(s.cumSizes), func(i int) bool {
			return s.cumSizes[i] > off
		})

		var base int64
		if i > 0 {
			base = s.cumSizes[i-1]
		}

		want := min(int64(len(buf)-bytesRead), s.cumSizes[i]-off)
		n, err := s.readers[i].ReadAt(buf[bytesRead:bytesRead+int(want)], off-base)
		bytesRead += n
		off += int64(n)

		if err != nil && !(errors.Is(err, io.EOF) && int64(n) == want) {
			return bytesRead, err
		}
	}

	if bytesRead < len(buf) {
		return bytesRead, io.EOF
	}
	return bytesRead, nil
}

func (s *Split) Size() int64 {
	return s.size
}

func (s *Split) Close() error {
	var err error
	for _, c := range s.closers {
		err = errors.Join(err, c.Close())
	}
	s.closers = nil
	return err
}
