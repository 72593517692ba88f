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

	"github.com/ostafen/volmap/internal/disk"
)

// maxGPTTableSize bounds the partition entry array read from the image.
const maxGPTTableSize = 1 << 20

func probeGPT(p *parser) (bool, error) {
	_, found, err := p.locateGPT()
	return found, err
}

// locateGPT looks for a GPT header at LBA 1. Unless the sector size was
// given explicitly, every candidate size is tried and the first one holding
// a header is kept.
func (p *parser) locateGPT() ([]byte, bool, error) {
	sizes := disk.CandidateSectorSizes
	if p.fixedSize {
		sizes = []uint32{p.sectorSize}
	}

	orig := p.sectorSize
	for _, ss := range sizes {
		p.setSectorSize(ss)
		if p.sectorCount <= disk.GPTHeaderLBA {
			continue
		}

		sector, err := p.readSector(disk.GPTHeaderLBA)
		if err != nil {
			p.setSectorSize(orig)
			return nil, false, err
		}
		if disk.HasGPTSignature(sector) {
			return sector, true, nil
		}
	}
	p.setSectorSize(orig)
	return nil, false, nil
}

func walkGPT(p *parser) error {
	hdrSector, found, err := p.locateGPT()
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no GPT header at LBA %d", ErrCorruptVolumeSystem, disk.GPTHeaderLBA)
	}

	hdr, err := disk.ParseGPTHeader(hdrSector)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptVolumeSystem, err)
	}

	if sector, err := p.readSector(0); err == nil {
		if mbr, err := disk.ParseMBR(sector); err == nil && mbr.HasProtectiveEntry() {
			p.add(0, 1, "Safety Table", FlagMeta, -1, -1)
		}
	}

	p.add(disk.GPTHeaderLBA, 1, "GPT Header", FlagMeta, -1, -1)
	if !disk.VerifyGPTHeader(hdr, hdrSector) {
		p.warn("GPT header checksum mismatch")
	}

	if hdr.PartitionEntrySize < disk.GPTEntryMinSize {
		return fmt.Errorf("%w: GPT entry size %d is smaller than %d bytes",
			ErrCorruptVolumeSystem, hdr.PartitionEntrySize, disk.GPTEntryMinSize)
	}

	tableSize := uint64(hdr.NumPartitions) * uint64(hdr.PartitionEntrySize)
	if tableSize > maxGPTTableSize {
		return fmt.Errorf("%w: GPT partition table of %d bytes exceeds %d bytes",
			ErrCorruptVolumeSystem, tableSize, maxGPTTableSize)
	}
	if tableSize == 0 {
		p.warn("GPT header declares no partition entries")
		return nil
	}

	tableLBA := hdr.PartitionTableLBA
	tableSectors := disk.SectorsFor(tableSize, p.sectorSize)
	if tableLBA >= p.sectorCount || tableSectors > p.sectorCount-tableLBA {
		return fmt.Errorf("%w: GPT partition table at LBA %d (%d sectors) outside of image",
			ErrCorruptVolumeSystem, tableLBA, tableSectors)
	}

	p.add(tableLBA, tableSectors, "Partition Table", FlagMeta, -1, -1)

	data, err := p.readSectors(tableLBA, tableSectors)
	if err != nil {
		return err
	}
	if !disk.VerifyGPTTable(hdr, data) {
		p.warn("GPT partition table checksum mismatch")
	}

	table := p.nextTable()
	for i := uint32(0); i < hdr.NumPartitions; i++ {
		off := uint64(i) * uint64(hdr.PartitionEntrySize)

		e, err := disk.ParseGPTEntry(data[off:])
		if err != nil {
			return fmt.Errorf("%w: GPT entry %d: %w", ErrCorruptVolumeSystem, i, err)
		}
		if !e.Used() {
			continue
		}

		if e.LastLBA < e.FirstLBA {
			p.warn("GPT entry %d ends at LBA %d before its start %d", i, e.LastLBA, e.FirstLBA)
			continue
		}
		if e.FirstLBA >= p.sectorCount {
			p.warn("GPT entry %d starts at LBA %d, beyond the end of the image", i, e.FirstLBA)
			continue
		}

		p.add(e.FirstLBA, e.LastLBA-e.FirstLBA+1, e.Description(), FlagAlloc, table, int(i))
	}
	return nil
}
