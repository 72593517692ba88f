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
package volume

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ostafen/volmap/internal/disk"
)

type Scheme int

const (
	SchemeDetect Scheme = iota
	SchemeDOS
	SchemeGPT
)

func (s Scheme) String() string {
	switch s {
	case SchemeDetect:
		return "detect"
	case SchemeDOS:
		return "dos"
	case SchemeGPT:
		return "gpt"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// Description is the human readable name of the scheme.
func (s Scheme) Description() string {
	switch s {
	case SchemeDOS:
		return "DOS Partition Table"
	case SchemeGPT:
		return "GUID Partition Table"
	}
	return "Unknown"
}

func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detect", "auto":
		return SchemeDetect, nil
	case "dos", "mbr":
		return SchemeDOS, nil
	case "gpt":
		return SchemeGPT, nil
	}
	return SchemeDetect, fmt.Errorf("unknown volume system type %q", s)
}

type schemeEntry struct {
	scheme Scheme

	// probe reports whether the image looks like this scheme. It must not
	// emit records.
	probe func(p *parser) (bool, error)
	walk  func(p *parser) error
}

// registry lists the supported schemes in probing order.
var registry = []schemeEntry{
	{scheme: SchemeDOS, probe: probeDOS, walk: walkDOS},
	{scheme: SchemeGPT, probe: probeGPT, walk: walkGPT},
}

// Schemes returns the supported schemes in probing order.
func Schemes() []Scheme {
	schemes := make([]Scheme, len(registry))
	for i, e := range registry {
		schemes[i] = e.scheme
	}
	return schemes
}

type parser struct {
	img    Image
	logger *slog.Logger

	offset      int64
	sectorSize  uint32
	fixedSize   bool
	sectorCount uint64

	parts    []Partition
	warnings *multierror.Error
	tables   int
}

func newParser(img Image, opts Options, logger *slog.Logger) (*parser, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrUnreadableImage)
	}

	size := img.Size()
	if size <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnreadableImage)
	}
	if opts.Offset < 0 || opts.Offset >= size {
		return nil, fmt.Errorf("%w: offset %d outside of image (%d bytes)", ErrUnreadableImage, opts.Offset, size)
	}

	p := &parser{
		img:       img,
		logger:    logger,
		offset:    opts.Offset,
		fixedSize: opts.SectorSize != 0,
	}

	sectorSize := opts.SectorSize
	if sectorSize == 0 {
		sectorSize = disk.DefaultSectorSize
	}
	if sectorSize < disk.MBRSize || sectorSize%disk.MBRSize != 0 {
		return nil, fmt.Errorf("invalid sector size %d: must be a multiple of %d", sectorSize, disk.MBRSize)
	}
	p.setSectorSize(sectorSize)

	if p.sectorCount == 0 {
		return nil, fmt.Errorf("%w: image smaller than one sector (%d bytes)", ErrUnreadableImage, size-p.offset)
	}
	return p, nil
}

func (p *parser) setSectorSize(ss uint32) {
	p.sectorSize = ss
	p.sectorCount = uint64(p.img.Size()-p.offset) / uint64(ss)
}

// detect selects the registry entry to walk. A forced scheme is returned
// without probing: its walker validates the signatures itself.
func (p *parser) detect(forced Scheme) (*schemeEntry, error) {
	if forced != SchemeDetect {
		for i := range registry {
			if registry[i].scheme == forced {
				return &registry[i], nil
			}
		}
		return nil, fmt.Errorf("unsupported volume system type %s", forced)
	}

	for i := range registry {
		e := &registry[i]

		ok, err := e.probe(p)
		if err != nil {
			return nil, err
		}

		p.logger.Debug("probed volume system", "scheme", e.scheme, "match", ok)
		if ok {
			return e, nil
		}
	}
	return nil, ErrNoSupportedVolumeSystem
}

// readSectors reads n sectors starting at lba, relative to the volume system.
func (p *parser) readSectors(lba uint64, n uint64) ([]byte, error) {
	if n == 0 || lba >= p.sectorCount || n > p.sectorCount-lba {
		return nil, fmt.Errorf("%w: sectors [%d, %d) outside of image (%d sectors)", ErrUnreadableImage, lba, lba+n, p.sectorCount)
	}

	buf := make([]byte, n*uint64(p.sectorSize))
	off := p.offset + int64(lba)*int64(p.sectorSize)

	read, err := p.img.ReadAt(buf, off)
	if read == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("%w: reading %d bytes at offset %d: %w", ErrUnreadableImage, len(buf), off, err)
}

func (p *parser) readSector(lba uint64) ([]byte, error) {
	return p.readSectors(lba, 1)
}

func (p *parser) nextTable() int {
	n := p.tables
	p.tables++
	return n
}

func (p *parser) add(start, length uint64, desc string, flags Flags, table, slot int) {
	p.logger.Debug("partition record",
		"start", start,
		"length", length,
		"desc", desc,
		"flags", flags,
	)

	p.parts = append(p.parts, Partition{
		Start: start,
		Len:   length,
		Desc:  desc,
		Flags: flags,
		Table: table,
		Slot:  slot,
	})
}

func (p *parser) warn(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	p.logger.Warn(err.Error())
	p.warnings = multierror.Append(p.warnings, err)
}
