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
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ostafen/volmap/internal/logger"
	"github.com/ostafen/volmap/pkg/img"
	"github.com/ostafen/volmap/pkg/volume"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// addOpenFlags registers the flags controlling how an image is opened and
// parsed.
func addOpenFlags(flags *pflag.FlagSet) {
	flags.StringP("type", "t", "detect", "volume system type (detect, dos, gpt)")
	flags.Uint32P("sector-size", "b", 0, "sector size in bytes (0 to auto-detect)")
	flags.Uint64("offset", 0, "sector offset of the volume system inside the image")
	flags.Bool("exact-tail", false, "compute the trailing unallocated gap from the real image size")
	flags.String("image-size", "", "override the image size (e.g. 1TiB)")
	flags.Bool("mmap", false, "memory map the image instead of reading it")
}

// image is an opened disk image together with the name it is reported with.
type image struct {
	volume.Image
	io.Closer
	name string
}

// openImage opens the image made of paths. A single path with a numeric
// extension (disk.001) is opened together with its sibling segments.
func openImage(v *viper.Viper, paths []string) (*image, error) {
	if len(paths) == 1 {
		segments, err := img.SplitSegments(paths[0])
		if err != nil {
			return nil, err
		}
		paths = segments
	}

	var (
		r      volume.Image
		closer io.Closer
	)

	switch {
	case len(paths) > 1:
		s, err := img.OpenSplit(paths...)
		if err != nil {
			return nil, err
		}
		r, closer = s, s
	case v.GetBool("mmap"):
		m, err := img.OpenMmap(paths[0])
		if err != nil {
			return nil, err
		}
		r, closer = m, m
	default:
		f, err := img.Open(paths[0])
		if err != nil {
			return nil, err
		}
		r, closer = f, f
	}

	if s := v.GetString("image-size"); s != "" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			closer.Close()
			return nil, fmt.Errorf("invalid image size %q: %w", s, err)
		}
		r = img.WithSize(r, int64(size))
	}

	return &image{
		Image:  r,
		Closer: closer,
		name:   paths[0],
	}, nil
}

func volumeOptions(v *viper.Viper, im *image, logger *slog.Logger) (volume.Options, error) {
	scheme, err := volume.ParseScheme(v.GetString("type"))
	if err != nil {
		return volume.Options{}, err
	}

	sectorSize := v.GetUint32("sector-size")
	if sectorSize == 0 {
		// block devices know their logical sector size
		if f, ok := im.Closer.(*img.File); ok && f.IsDevice() && f.SectorSize() != 0 {
			sectorSize = f.SectorSize()
		}
	}

	offsetUnit := uint64(sectorSize)
	if offsetUnit == 0 {
		offsetUnit = 512
	}

	return volume.Options{
		Scheme:     scheme,
		SectorSize: sectorSize,
		Offset:     int64(v.GetUint64("offset") * offsetUnit),
		ExactTail:  v.GetBool("exact-tail"),
		Logger:     logger,
	}, nil
}

// openSystem opens the image made of paths and parses its volume system.
func openSystem(v *viper.Viper, paths []string, logger *slog.Logger) (*volume.System, *image, error) {
	im, err := openImage(v, paths)
	if err != nil {
		return nil, nil, err
	}

	opts, err := volumeOptions(v, im, logger)
	if err != nil {
		im.Close()
		return nil, nil, err
	}

	s, err := volume.Open(im, opts)
	if err != nil {
		im.Close()
		return nil, nil, fmt.Errorf("%s: %w", im.name, err)
	}
	return s, im, nil
}

// newLogger builds the logger configured by --log-level and --log-file. The
// returned function releases the log file, if any.
func newLogger(v *viper.Viper) (*slog.Logger, func(), error) {
	level, err := logger.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}

	l, f, err := logger.New(os.Stderr, v.GetString("log-file"), level)
	if err != nil {
		return nil, nil, err
	}

	return l, func() {
		if f != nil {
			f.Close()
		}
	}, nil
}
