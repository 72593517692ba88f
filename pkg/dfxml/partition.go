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
package dfxml

import (
	"fmt"

	"github.com/ostafen/volmap/pkg/volume"
)

// FromSystem converts a parsed volume system into its report element.
func FromSystem(s *volume.System) PartitionSystem {
	ps := PartitionSystem{
		Offset:      s.Offset(),
		Type:        s.Scheme().String(),
		BlockSize:   s.SectorSize(),
		SectorCount: s.SectorCount(),
		Partitions:  make([]Partition, 0, s.Len()),
	}

	for p := range s.All() {
		off, size := s.ByteRange(p)

		ps.Partitions = append(ps.Partitions, Partition{
			Index:       p.Addr,
			Type:        p.Desc,
			Flags:       p.Flags.String(),
			Slot:        p.SlotString(),
			StartSector: p.Start,
			SectorCount: p.Len,
			ByteRuns: ByteRuns{
				Runs: []ByteRun{{
					Offset:    0,
					ImgOffset: uint64(off),
					Length:    uint64(size),
				}},
			},
		})
	}
	return ps
}

// Diff lists the differences between an expected and an actual layout.
// Creation details such as the execution environment are not compared.
func Diff(expected, actual PartitionSystem) []string {
	var diffs []string
	if expected.Type != actual.Type {
		diffs = append(diffs, fmt.Sprintf("type: expected %q, got %q", expected.Type, actual.Type))
	}
	if expected.BlockSize != actual.BlockSize {
		diffs = append(diffs, fmt.Sprintf("block size: expected %d, got %d", expected.BlockSize, actual.BlockSize))
	}
	if expected.Offset != actual.Offset {
		diffs = append(diffs, fmt.Sprintf("offset: expected %d, got %d", expected.Offset, actual.Offset))
	}

	n := max(len(expected.Partitions), len(actual.Partitions))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(actual.Partitions):
			diffs = append(diffs, fmt.Sprintf("partition %d: missing", i))
		case i >= len(expected.Partitions):
			diffs = append(diffs, fmt.Sprintf("partition %d: unexpected %s", i, describe(actual.Partitions[i])))
		default:
			e, a := expected.Partitions[i], actual.Partitions[i]
			if describe(e) != describe(a) {
				diffs = append(diffs, fmt.Sprintf("partition %d: expected %s, got %s", i, describe(e), describe(a)))
			}
		}
	}
	return diffs
}

func describe(p Partition) string {
	return fmt.Sprintf("[%s %d+%d %s %q]", p.Slot, p.StartSector, p.SectorCount, p.Flags, p.Type)
}
