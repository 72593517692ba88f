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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

const (
	GPTHeaderLBA     = 1
	GPTHeaderMinSize = 92
	GPTEntryMinSize  = 128
)

var GPTSignature = [8]byte{'E', 'F', 'I', ' ', 'P', 'A', 'R', 'T'}

// GPTHeader is the UEFI partition table header, stored at LBA 1.
type GPTHeader struct {
	Signature          [8]byte  // 0x00: "EFI PART"
	Revision           uint32   // 0x08
	HeaderSize         uint32   // 0x0C
	HeaderCRC32        uint32   // 0x10: computed with this field zeroed
	Reserved           uint32   // 0x14
	CurrentLBA         uint64   // 0x18
	BackupLBA          uint64   // 0x20
	FirstUsableLBA     uint64   // 0x28
	LastUsableLBA      uint64   // 0x30
	DiskGUID           [16]byte // 0x38: mixed endian
	PartitionTableLBA  uint64   // 0x48
	NumPartitions      uint32   // 0x50
	PartitionEntrySize uint32   // 0x54
	PartitionTableCRC  uint32   // 0x58
}

// HasGPTSignature reports whether sector starts with "EFI PART".
func HasGPTSignature(sector []byte) bool {
	return len(sector) >= len(GPTSignature) && bytes.Equal(sector[:len(GPTSignature)], GPTSignature[:])
}

// ParseGPTHeader decodes a GPT header from the sector holding it. The CRC is
// not verified here, see VerifyGPTHeader.
func ParseGPTHeader(sector []byte) (*GPTHeader, error) {
	if len(sector) < GPTHeaderMinSize {
		return nil, fmt.Errorf("GPT header too short: %d bytes", len(sector))
	}
	if !HasGPTSignature(sector) {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidSignature, GPTSignature[:])
	}

	var hdr GPTHeader
	if err := binary.Read(bytes.NewReader(sector[:GPTHeaderMinSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("error reading GPT header: %w", err)
	}
	return &hdr, nil
}

// VerifyGPTHeader recomputes the header checksum over HeaderSize bytes.
func VerifyGPTHeader(hdr *GPTHeader, sector []byte) bool {
	size := int(hdr.HeaderSize)
	if size < GPTHeaderMinSize || size > len(sector) {
		return false
	}
	buf := make([]byte, size)
	copy(buf, sector[:size])
	binary.LittleEndian.PutUint32(buf[0x10:], 0)
	return crc32.ChecksumIEEE(buf) == hdr.HeaderCRC32
}

// GPTEntry is one record of the partition entry array.
type GPTEntry struct {
	TypeGUID   [16]byte
	UniqueGUID [16]byte
	FirstLBA   uint64
	LastLBA    uint64 // inclusive
	Attributes uint64
	Name       [72]byte // UTF-16LE, NUL padded
}

func (e *GPTEntry) Used() bool {
	return e.TypeGUID != [16]byte{}
}

func (e *GPTEntry) Type() uuid.UUID {
	return GUIDFromBytes(e.TypeGUID)
}

func (e *GPTEntry) PartitionName() string {
	return decodeUTF16Name(e.Name[:])
}

// Description is the partition name, or the name of its type when unnamed, or
// the type GUID itself.
func (e *GPTEntry) Description() string {
	if name := e.PartitionName(); name != "" {
		return name
	}
	typ := e.Type()
	if name, ok := gptTypeNames[typ]; ok {
		return name
	}
	return typ.String()
}

// ParseGPTEntry decodes the first 128 bytes of data.
func ParseGPTEntry(data []byte) (*GPTEntry, error) {
	if len(data) < GPTEntryMinSize {
		return nil, fmt.Errorf("GPT entry too short: %d bytes", len(data))
	}
	var e GPTEntry
	if err := binary.Read(bytes.NewReader(data[:GPTEntryMinSize]), binary.LittleEndian, &e); err != nil {
		return nil, fmt.Errorf("error reading GPT entry: %w", err)
	}
	return &e, nil
}

// GUIDFromBytes converts the on-disk GUID layout, whose first three fields are
// little-endian, into a canonical UUID.
func GUIDFromBytes(b [16]byte) uuid.UUID {
	var u uuid.UUID
	copy(u[:], b[:])
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	return u
}

// GUIDToBytes is the inverse of GUIDFromBytes.
func GUIDToBytes(u uuid.UUID) [16]byte {
	var b [16]byte
	copy(b[:], u[:])
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	return b
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeUTF16Name(raw []byte) string {
	// cut at the first NUL code unit
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			raw = raw[:i]
			break
		}
	}
	if len(raw) == 0 {
		return ""
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

// EncodeUTF16Name encodes name into the 72-byte on-disk name field.
func EncodeUTF16Name(name string) [72]byte {
	var field [72]byte
	enc, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err == nil {
		copy(field[:], enc)
	}
	return field
}

var gptTypeNames = map[uuid.UUID]string{
	uuid.MustParse("c12a7328-f81f-11d2-ba4b-00a0c93ec93b"): "EFI System Partition",
	uuid.MustParse("21686148-6449-6e6f-744e-656564454649"): "BIOS Boot Partition",
	uuid.MustParse("024dee41-33e7-11d3-9d69-0008c781f39f"): "MBR Partition Scheme",
	uuid.MustParse("e3c9e316-0b5c-4db8-817d-f92df00215ae"): "Microsoft Reserved Partition",
	uuid.MustParse("ebd0a0a2-b9e5-4433-87c0-68b6b72699c7"): "Microsoft Basic Data",
	uuid.MustParse("de94bba4-06d1-4d40-a16a-bfd50179d6ac"): "Windows Recovery Environment",
	uuid.MustParse("5808c8aa-7e8f-42e0-85d2-e1e90434cfb3"): "LDM Metadata",
	uuid.MustParse("af9b60a0-1431-4f62-bc68-3311714a69ad"): "LDM Data",
	uuid.MustParse("0fc63daf-8483-4772-8e79-3d69d8477de4"): "Linux Filesystem",
	uuid.MustParse("0657fd6d-a4ab-43c4-84e5-0933c84b4f4f"): "Linux Swap",
	uuid.MustParse("e6d6d379-f507-44c2-a23c-238f2a3df928"): "Linux LVM",
	uuid.MustParse("a19d880f-05fc-4d3b-a006-743f0f84911e"): "Linux RAID",
	uuid.MustParse("933ac7e1-2eb4-4f13-b844-0e14e2aef915"): "Linux Home",
	uuid.MustParse("48465300-0000-11aa-aa11-00306543ecac"): "Apple HFS+",
	uuid.MustParse("7c3457ef-0000-11aa-aa11-00306543ecac"): "Apple APFS",
	uuid.MustParse("516e7cb4-6ecf-11d6-8ff8-00022d09712b"): "FreeBSD Data",
	uuid.MustParse("516e7cb6-6ecf-11d6-8ff8-00022d09712b"): "FreeBSD UFS",
	uuid.MustParse("6a898cc3-1dd2-11b2-99a6-080020736631"): "Solaris /usr or Apple ZFS",
}

// GPTTypeName returns the known name of a partition type GUID.
func GPTTypeName(u uuid.UUID) (string, bool) {
	name, ok := gptTypeNames[u]
	return name, ok
}

// VerifyGPTTable checks the partition entry array checksum recorded in hdr.
func VerifyGPTTable(hdr *GPTHeader, table []byte) bool {
	size := uint64(hdr.NumPartitions) * uint64(hdr.PartitionEntrySize)
	if size > uint64(len(table)) {
		return false
	}
	return crc32.ChecksumIEEE(table[:size]) == hdr.PartitionTableCRC
}
