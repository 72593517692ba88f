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
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	ioctlDiskGetDriveGeometry = 0x00070000
	ioctlDiskGetLengthInfo    = 0x0007405C
)

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

func openFile(path string) (*File, error) {
	if !isRawVolumePath(path) {
		return openOSFile(path)
	}

	d, err := openRawVolume(path)
	if err != nil {
		return nil, err
	}

	size, sectorSize, err := d.info()
	if err != nil {
		d.Close()
		return nil, err
	}

	return &File{
		r:          d,
		c:          d,
		name:       path,
		size:       size,
		sectorSize: sectorSize,
		device:     true,
	}, nil
}

// rawVolume reads a volume opened through its \\.\X: path. Such handles only
// accept sector aligned reads.
type rawVolume struct {
	handle     windows.Handle
	sectorSize int64
}

func openRawVolume(path string) (*rawVolume, error) {
	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &rawVolume{handle: handle, sectorSize: 512}, nil
}

func (d *rawVolume) info() (int64, uint32, error) {
	var (
		geometry diskGeometry
		length   int64
		returned uint32
	)

	err := windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetDriveGeometry,
		nil,
		0,
		(*byte)(unsafe.Pointer(&geometry)),
		uint32(unsafe.Sizeof(geometry)),
		&returned,
		nil,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("DeviceIoControl(IOCTL_DISK_GET_DRIVE_GEOMETRY) failed: %w", err)
	}
	if geometry.BytesPerSector > 0 {
		d.sectorSize = int64(geometry.BytesPerSector)
	}

	err = windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetLengthInfo,
		nil,
		0,
		(*byte)(unsafe.Pointer(&length)),
		uint32(unsafe.Sizeof(length)),
		&returned,
		nil,
	)
	if err != nil {
		// fall back to the geometry, which may round the size down
		length = geometry.Cylinders * int64(geometry.TracksPerCylinder) *
			int64(geometry.SectorsPerTrack) * int64(geometry.BytesPerSector)
	}
	return length, uint32(d.sectorSize), nil
}

func (d *rawVolume) ReadAt(p []byte, off int64) (int, error) {
	alignedOffset := off / d.sectorSize * d.sectorSize
	alignmentDiff := int(off - alignedOffset)
	alignedSize := (int64(len(p)+alignmentDiff) + d.sectorSize - 1) / d.sectorSize * d.sectorSize

	buf := make([]byte, alignedSize)

	var bytesRead uint32
	ov := new(windows.Overlapped)
	ov.Offset = uint32(alignedOffset)
	ov.OffsetHigh = uint32(alignedOffset >> 32)

	err := windows.ReadFile(d.handle, buf, &bytesRead, ov)
	if errors.Is(err, windows.ERROR_IO_PENDING) {
		err = windows.GetOverlappedResult(d.handle, ov, &bytesRead, true)
	}
	if err != nil {
		return 0, fmt.Errorf("aligned read failed: %w", err)
	}

	if int(bytesRead) <= alignmentDiff {
		return 0, io.EOF
	}
	n := copy(p, buf[alignmentDiff:bytesRead])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *rawVolume) Close() error {
	return windows.CloseHandle(d.handle)
}
