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
	"sort"
)

// compatSectorLimit caps the sector count used for the trailing gap. The
// reference tool tracks the last sector of the image in a signed 32-bit
// integer, so its trailing gap never ends past sector 2^31-1.
const compatSectorLimit = 1 << 31

// synthesizeGaps sorts the table-derived records by start sector and fills
// every run of sectors not covered by a non-meta record with an unallocated
// record, up to sectorCount. Gaps sort after table-derived records sharing
// the same start. Addresses are assigned in the final order.
func synthesizeGaps(records []Partition, sectorCount uint64) []Partition {
	parts := make([]Partition, len(records), len(records)*2+1)
	copy(parts, records)

	sortByStart(parts)

	var prevEnd uint64
	var gaps []Partition
	for _, p := range parts {
		if p.Flags.Has(FlagMeta) {
			continue
		}
		if p.Start > prevEnd {
			gaps = append(gaps, unallocated(prevEnd, p.Start-prevEnd))
		}
		prevEnd = max(prevEnd, p.Start+p.Len)
	}

	if sectorCount > prevEnd {
		gaps = append(gaps, unallocated(prevEnd, sectorCount-prevEnd))
	}

	parts = append(parts, gaps...)
	sortByStart(parts)

	for i := range parts {
		parts[i].Addr = uint64(i)
	}
	return parts
}

func unallocated(start, length uint64) Partition {
	return Partition{
		Start: start,
		Len:   length,
		Desc:  "Unallocated",
		Flags: FlagUnalloc,
		Table: -1,
		Slot:  -1,
	}
}

func sortByStart(parts []Partition) {
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Start < parts[j].Start
	})
}
