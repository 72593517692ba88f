//go:build !linux

package img

import (
	"io"
	"os"
)

func blockDeviceInfo(f *os.File) (int64, uint32, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, err
	}
	return size, 0, nil
}
