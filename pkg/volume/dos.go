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

// MaxExtendedTables bounds the number of extended boot records followed
// while walking the extended partition chains of a DOS table.
const MaxExtendedTables = 256

func probeDOS(p *parser) (bool, error) {
	sector, err := p.readSector(0)
	if err != nil {
		return false, err
	}
	if !disk.HasSignature(sector) {
		return false, nil
	}

	// FAT, NTFS and exFAT boot sectors carry the same marker.
	if fs, ok := disk.BootSectorFS(sector); ok {
		p.logger.Debug("sector 0 is a file system boot sector", "fs", fs)
		return false, nil
	}

	mbr, err := disk.ParseMBR(sector)
	if err != nil {
		return false, nil
	}

	if mbr.IsProtective() {
		_, found, err := p.locateGPT()
		if err != nil {
			return false, err
		}
		if found {
			p.logger.Debug("protective MBR in front of a GPT header")
			return false, nil
		}
	}
	return true, nil
}

func walkDOS(p *parser) error {
	sector, err := p.readSector(0)
	if err != nil {
		return err
	}

	mbr, err := disk.ParseMBR(sector)
	if err != nil {
		return fmt.Errorf("%w: primary table: %w", ErrCorruptVolumeSystem, err)
	}

	table := p.nextTable()
	p.add(0, 1, fmt.Sprintf("Primary Table (#%d)", table), FlagMeta, table, -1)

	for i := range mbr.PartitionEntries {
		e := &mbr.PartitionEntries[i]
		if !e.Used() {
			continue
		}

		start := uint64(e.ReadStartLBA())
		length := uint64(e.ReadTotalSectors())

		if start >= p.sectorCount {
			if i < 2 {
				return fmt.Errorf("%w: primary entry %d starts at sector %d, beyond the end of the image (%d sectors)",
					ErrCorruptVolumeSystem, i, start, p.sectorCount)
			}
			p.warn("primary entry %d starts at sector %d, beyond the end of the image", i, start)
			continue
		}

		if !e.PartitionType.IsExtended() {
			p.add(start, length, e.PartitionType.Description(), FlagAlloc, table, i)
			continue
		}

		p.add(start, length, e.PartitionType.Description(), FlagMeta, table, i)
		if err := p.walkExtended(start); err != nil {
			return err
		}
	}
	return nil
}

type ebrFrame struct {
	sector uint64
	table  int
	mbr    *disk.MBR
	next   int
}

// walkExtended follows the chain of extended boot records rooted at base.
// Data entries of a record are relative to the record itself, while links
// to the next record are relative to base.
func (p *parser) walkExtended(base uint64) error {
	visited := make(map[uint64]struct{})

	var stack []*ebrFrame
	push := func(sector uint64) error {
		if _, ok := visited[sector]; ok {
			return fmt.Errorf("%w: extended table at sector %d is linked more than once", ErrCorruptVolumeSystem, sector)
		}
		if len(visited) >= MaxExtendedTables {
			return fmt.Errorf("%w: more than %d extended tables", ErrCorruptVolumeSystem, MaxExtendedTables)
		}
		visited[sector] = struct{}{}

		if frame := p.readEBR(sector); frame != nil {
			stack = append(stack, frame)
		}
		return nil
	}

	if err := push(base); err != nil {
		return err
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		if frame.next >= disk.MBREntries {
			stack = stack[:len(stack)-1]
			continue
		}

		i := frame.next
		frame.next++

		e := &frame.mbr.PartitionEntries[i]
		if !e.Used() {
			continue
		}

		if e.PartitionType.IsExtended() {
			link := base + uint64(e.ReadStartLBA())
			if link >= p.sectorCount {
				p.warn("extended table %d links to sector %d, beyond the end of the image", frame.table, link)
				continue
			}

			p.add(link, uint64(e.ReadTotalSectors()), e.PartitionType.Description(), FlagMeta, frame.table, i)
			if err := push(link); err != nil {
				return err
			}
			continue
		}

		start := frame.sector + uint64(e.ReadStartLBA())
		if start >= p.sectorCount {
			p.warn("extended table %d entry %d starts at sector %d, beyond the end of the image", frame.table, i, start)
			continue
		}
		p.add(start, uint64(e.ReadTotalSectors()), e.PartitionType.Description(), FlagAlloc, frame.table, i)
	}
	return nil
}

// readEBR reads the extended boot record at sector. A record that cannot be
// read or decoded ends its chain with a warning and a nil frame.
func (p *parser) readEBR(sector uint64) *ebrFrame {
	data, err := p.readSector(sector)
	if err != nil {
		p.warn("extended table at sector %d: %w", sector, err)
		return nil
	}

	mbr, err := disk.ParseMBR(data)
	if err != nil {
		p.warn("extended table at sector %d: %w", sector, err)
		return nil
	}

	table := p.nextTable()
	p.add(sector, 1, fmt.Sprintf("Extended Table (#%d)", table), FlagMeta, table, -1)

	return &ebrFrame{
		sector: sector,
		table:  table,
		mbr:    mbr,
	}
}
