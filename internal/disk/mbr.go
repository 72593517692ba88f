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
package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	MBRSize            = 512
	MBRTableOffset     = 0x1BE
	MBRSignatureOffset = 0x1FE
	MBRSignature       = 0xAA55
	MBREntrySize       = 16
	MBREntries         = 4
)

var ErrInvalidSignature = errors.New("invalid boot record signature")

// MBRPartitionEntry represents a single 16-byte entry of a DOS partition table.
// The same layout is used by the primary table and by every extended boot record.
type MBRPartitionEntry struct {
	BootIndicator uint8        // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte      // 0x01: Starting Cylinder-Head-Sector address
	PartitionType MBRPartition // 0x04: Partition type ID
	EndCHS        [3]byte      // 0x05: Ending Cylinder-Head-Sector address
	StartLBA      [4]byte      // 0x08: uint32, Little-Endian
	TotalSectors  [4]byte      // 0x0C: uint32, Little-Endian
}

// ReadStartLBA returns the starting sector of the entry. For entries of an
// extended boot record the value is relative, see IsExtended.
func (p *MBRPartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

// ReadTotalSectors returns the number of sectors covered by the entry.
func (p *MBRPartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

// Used reports whether the slot describes something. A zero length slot is unused,
// whatever its type byte says.
func (p *MBRPartitionEntry) Used() bool {
	return p.ReadTotalSectors() > 0
}

func (p *MBRPartitionEntry) Bootable() bool {
	return p.BootIndicator == 0x80
}

func (p *MBRPartitionEntry) String() string {
	return fmt.Sprintf("type=%s boot=%t start=%d sectors=%d",
		p.PartitionType.Description(), p.Bootable(), p.ReadStartLBA(), p.ReadTotalSectors())
}

// MBR represents a Master Boot Record or an Extended Boot Record.
type MBR struct {
	BootCode         [440]byte                     // 0x000-0x1B7: Bootstrap code
	DiskSignature    [4]byte                       // 0x1B8-0x1BB: Optional 32-bit disk signature
	Reserved         [2]byte                       // 0x1BC-0x1BD: Usually 0x0000
	PartitionEntries [MBREntries]MBRPartitionEntry // 0x1BE-0x1FD: Four 16-byte partition entries
	Signature        [2]byte                       // 0x1FE-0x1FF: 0x55 0xAA
}

func (m *MBR) ReadDiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.DiskSignature[:])
}

// ReadSignature returns the boot record signature (0xAA55 when valid).
func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// IsProtective reports whether every used slot is a GPT protective entry.
func (m *MBR) IsProtective() bool {
	used := 0
	for i := range m.PartitionEntries {
		e := &m.PartitionEntries[i]
		if !e.Used() {
			continue
		}
		if e.PartitionType != PartitionTypeGPT {
			return false
		}
		used++
	}
	return used > 0
}

// HasProtectiveEntry reports whether any used slot is a GPT protective entry.
func (m *MBR) HasProtectiveEntry() bool {
	for i := range m.PartitionEntries {
		e := &m.PartitionEntries[i]
		if e.Used() && e.PartitionType == PartitionTypeGPT {
			return true
		}
	}
	return false
}

// HasSignature checks the 0xAA55 marker of a raw sector without decoding it.
func HasSignature(data []byte) bool {
	if len(data) < MBRSize {
		return false
	}
	return binary.LittleEndian.Uint16(data[MBRSignatureOffset:]) == MBRSignature
}

// ParseMBR parses the first 512 bytes of data into an MBR struct.
// The same routine decodes extended boot records.
func ParseMBR(data []byte) (*MBR, error) {
	if len(data) < MBRSize {
		return nil, fmt.Errorf("boot record too short: expected %d bytes, got %d bytes", MBRSize, len(data))
	}

	var mbr MBR

	copy(mbr.BootCode[:], data[0x000:0x1B8])
	copy(mbr.DiskSignature[:], data[0x1B8:0x1BC])
	copy(mbr.Reserved[:], data[0x1BC:MBRTableOffset])

	for i := 0; i < MBREntries; i++ {
		entryOffset := MBRTableOffset + i*MBREntrySize
		entryBytes := data[entryOffset : entryOffset+MBREntrySize]

		e := &mbr.PartitionEntries[i]
		e.BootIndicator = entryBytes[0x00]
		copy(e.StartCHS[:], entryBytes[0x01:0x04])
		e.PartitionType = MBRPartition(entryBytes[0x04])
		copy(e.EndCHS[:], entryBytes[0x05:0x08])
		copy(e.StartLBA[:], entryBytes[0x08:0x0C])
		copy(e.TotalSectors[:], entryBytes[0x0C:0x10])
	}

	copy(mbr.Signature[:], data[MBRSignatureOffset:MBRSignatureOffset+2])

	if mbr.ReadSignature() != MBRSignature {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrInvalidSignature, MBRSignature, mbr.ReadSignature())
	}
	return &mbr, nil
}

// PutEntry encodes a partition entry into a 512-byte boot record buffer at the
// given slot.
func PutEntry(sector []byte, slot int, ptype MBRPartition, start, sectors uint32) {
	off := MBRTableOffset + slot*MBREntrySize
	sector[off+0x04] = byte(ptype)
	binary.LittleEndian.PutUint32(sector[off+0x08:], start)
	binary.LittleEndian.PutUint32(sector[off+0x0C:], sectors)
}

// PutSignature writes the 0xAA55 marker into a 512-byte boot record buffer.
func PutSignature(sector []byte) {
	binary.LittleEndian.PutUint16(sector[MBRSignatureOffset:], MBRSignature)
}
