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
	"fmt"
	"io"
	"os"
)

// File is a disk image backed by a regular file or a block device.
type File struct {
	r    io.ReaderAt
	c    io.Closer
	name string

	size       int64
	sectorSize uint32
	device     bool
}

// Open opens a raw image file or a block device for reading.
func Open(path string) (*File, error) {
	path = NormalizeVolumePath(path)

	f, err := openFile(path)
	if err != nil {
		return nil, err
	}

	if f.size <= 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %q", ErrEmptyImage, path)
	}
	return f, nil
}

func openOSFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image %q: %w", path, err)
	}

	file := &File{
		r:    f,
		c:    f,
		name: path,
		size: fi.Size(),
	}

	if fi.Mode()&os.ModeDevice != 0 {
		size, sectorSize, err := blockDeviceInfo(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to query block device %q: %w", path, err)
		}
		file.size = size
		file.sectorSize = sectorSize
		file.device = true
	}
	return file, nil
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.r.ReadAt(p, off)
}

func (f *File) Size() int64 { return f.size }

// SectorSize returns the logical sector size reported by a block device, or
// zero for regular files.
func (f *File) SectorSize() uint32 { return f.sectorSize }

func (f *File) IsDevice() bool { return f.device }

func (f *File) Name() string { return f.name }

func (f *File) Close() error {
	return f.c.Close()
}
