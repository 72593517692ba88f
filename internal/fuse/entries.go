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
package fuse

import (
	"fmt"
	"strings"

	"github.com/ostafen/volmap/pkg/volume"
)

// FileEntry is one file of the mounted tree: a byte range of the image.
type FileEntry struct {
	Name   string
	Offset uint64
	Size   uint64
}

// PartitionEntries returns one entry per allocated partition of s, named
// after its address and description, e.g. "02-Linux_(0x83).raw". Partitions
// extending past the end of the image are truncated to it.
func PartitionEntries(s *volume.System, imageSize int64) []FileEntry {
	var entries []FileEntry
	for p := range s.Allocated() {
		off, size := s.ByteRange(p)
		if off >= imageSize {
			continue
		}
		size = min(size, imageSize-off)

		entries = append(entries, FileEntry{
			Name:   fmt.Sprintf("%02d-%s.raw", p.Addr, sanitizeName(p.Desc)),
			Offset: uint64(off),
			Size:   uint64(size),
		})
	}
	return entries
}

func sanitizeName(desc string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '(', r == ')', r == '#':
			return r
		}
		return '_'
	}, desc)
}
