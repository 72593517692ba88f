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
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
)

// Image is the byte-addressable source a volume system is parsed from.
// Reads always carry an explicit offset, so an Image can be shared by
// concurrent parses. *bytes.Reader and *io.SectionReader satisfy it.
type Image interface {
	io.ReaderAt
	Size() int64
}

type Flags uint8

const (
	FlagAlloc Flags = 1 << iota
	FlagUnalloc
	FlagMeta
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

func (f Flags) String() string {
	var names []string
	if f.Has(FlagAlloc) {
		names = append(names, "alloc")
	}
	if f.Has(FlagUnalloc) {
		names = append(names, "unalloc")
	}
	if f.Has(FlagMeta) {
		names = append(names, "meta")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseFlags is the inverse of Flags.String.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, name := range strings.Split(s, "|") {
		switch strings.TrimSpace(name) {
		case "alloc":
			f |= FlagAlloc
		case "unalloc":
			f |= FlagUnalloc
		case "meta":
			f |= FlagMeta
		case "none", "":
		default:
			return 0, fmt.Errorf("unknown partition flag %q", name)
		}
	}
	return f, nil
}

// Partition describes one contiguous run of sectors of a volume system.
// Start and Len are expressed in sectors, relative to the start of the
// volume system.
type Partition struct {
	Addr  uint64
	Start uint64
	Len   uint64
	Desc  string
	Flags Flags

	// Table and Slot locate the table entry a record was read from, -1 when
	// the record does not come from a table entry.
	Table int
	Slot  int
}

// End returns the last sector covered by the partition.
func (p Partition) End() uint64 {
	return p.Start + p.Len - 1
}

// SlotString formats the origin of the record the way layout listings do:
// "Meta" for bookkeeping records, "-----" for gaps and "TT:SS" for entries.
func (p Partition) SlotString() string {
	switch {
	case p.Flags.Has(FlagMeta):
		return "Meta"
	case p.Flags.Has(FlagUnalloc), p.Table < 0:
		return "-----"
	}
	return fmt.Sprintf("%02d:%02d", p.Table, p.Slot)
}

func (p Partition) String() string {
	return fmt.Sprintf("%03d: %-6s %010d %010d %010d %s",
		p.Addr, p.SlotString(), p.Start, p.End(), p.Len, p.Desc)
}

// Options control how a volume system is located and parsed. The zero value
// auto-detects the scheme, assumes 512-byte sectors for DOS tables, reads the
// volume system from the start of the image and reproduces the reference
// tail computation.
type Options struct {
	Scheme Scheme

	// SectorSize in bytes. When zero, DOS tables use 512 bytes and GPT probes
	// every size in disk.CandidateSectorSizes.
	SectorSize uint32

	// Offset of the volume system inside the image, in bytes.
	Offset int64

	// ExactTail computes the trailing unallocated gap from the true sector
	// count instead of capping it at the 32-bit limit.
	ExactTail bool

	Logger *slog.Logger
}

// System is the decoded, immutable layout of one volume system.
type System struct {
	scheme      Scheme
	sectorSize  uint32
	offset      int64
	sectorCount uint64
	parts       []Partition
	warnings    error
}

func (s *System) Scheme() Scheme { return s.scheme }

func (s *System) SectorSize() uint32 { return s.sectorSize }

// Offset returns the byte offset of the volume system inside the image.
func (s *System) Offset() int64 { return s.offset }

// SectorCount returns the number of sectors of the image seen by the parser.
func (s *System) SectorCount() uint64 { return s.sectorCount }

func (s *System) Len() int { return len(s.parts) }

// Partition returns the record with the given address.
func (s *System) Partition(addr uint64) (Partition, bool) {
	if addr >= uint64(len(s.parts)) {
		return Partition{}, false
	}
	return s.parts[addr], true
}

// All yields every record in ascending address order. The sequence can be
// ranged over any number of times.
func (s *System) All() iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		for _, p := range s.parts {
			if !yield(p) {
				return
			}
		}
	}
}

// Allocated yields only the records backed by an allocated table entry.
func (s *System) Allocated() iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		for p := range s.All() {
			if p.Flags.Has(FlagAlloc) && !yield(p) {
				return
			}
		}
	}
}

// Partitions returns a copy of all records.
func (s *System) Partitions() []Partition {
	parts := make([]Partition, len(s.parts))
	copy(parts, s.parts)
	return parts
}

// Warnings returns the non-fatal anomalies found while parsing, or nil.
func (s *System) Warnings() error {
	return s.warnings
}

// ByteRange returns the offset and size in bytes of p inside the image.
func (s *System) ByteRange(p Partition) (offset int64, size int64) {
	ss := int64(s.sectorSize)
	return s.offset + int64(p.Start)*ss, int64(p.Len) * ss
}

// Open detects and decodes the volume system of img. Every read happens
// before Open returns; the resulting System keeps no reference to img.
func Open(img Image, opts Options) (*System, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p, err := newParser(img, opts, logger)
	if err != nil {
		return nil, err
	}

	entry, err := p.detect(opts.Scheme)
	if err != nil {
		return nil, err
	}

	logger.Debug("walking volume system", "scheme", entry.scheme, "sector_size", p.sectorSize)
	if err := entry.walk(p); err != nil {
		return nil, err
	}

	sectorCount := p.sectorCount
	if !opts.ExactTail {
		sectorCount = min(sectorCount, compatSectorLimit)
	}
	parts := synthesizeGaps(p.parts, sectorCount)

	if err := p.warnings.ErrorOrNil(); err != nil {
		logger.Warn("volume system parsed with warnings", "warnings", len(p.warnings.Errors))
	}

	return &System{
		scheme:      entry.scheme,
		sectorSize:  p.sectorSize,
		offset:      p.offset,
		sectorCount: p.sectorCount,
		parts:       parts,
		warnings:    p.warnings.ErrorOrNil(),
	}, nil
}
