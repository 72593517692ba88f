package volume

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/google/uuid"
	"github.com/ostafen/volmap/internal/disk"
)

const fixtureSectors = 2880

// dosFixture builds a 2880-sector image holding one primary Linux partition
// and an extended partition with a single logical Linux partition.
func dosFixture() []byte {
	data := make([]byte, fixtureSectors*512)

	mbr := data[:512]
	disk.PutEntry(mbr, 0, disk.PartitionTypeLinux, 1, 350)
	disk.PutEntry(mbr, 1, disk.PartitionTypeExtendedCHS, 351, 2529)
	disk.PutSignature(mbr)

	ebr := sectorAt(data, 512, 351)
	disk.PutEntry(ebr, 0, disk.PartitionTypeLinux, 1, 2528)
	disk.PutSignature(ebr)

	return data
}

func sectorAt(data []byte, sectorSize int, lba int) []byte {
	return data[lba*sectorSize : (lba+1)*sectorSize]
}

// layoutString renders records as "addr: start end length desc" lines.
func layoutString(s *System) string {
	var sb strings.Builder
	for p := range s.All() {
		fmt.Fprintf(&sb, "%02d:  %010d   %010d   %010d   %s\n", p.Addr, p.Start, p.End(), p.Len, p.Desc)
	}
	return sb.String()
}

const fixtureLayout = "" +
	"00:  0000000000   0000000000   0000000001   Primary Table (#0)\n" +
	"01:  0000000000   0000000000   0000000001   Unallocated\n" +
	"02:  0000000001   0000000350   0000000350   Linux (0x83)\n" +
	"03:  0000000351   0000002879   0000002529   DOS Extended (0x05)\n" +
	"04:  0000000351   0000000351   0000000001   Extended Table (#1)\n" +
	"05:  0000000351   0000000351   0000000001   Unallocated\n" +
	"06:  0000000352   0000002879   0000002528   Linux (0x83)\n"

type gptPart struct {
	typ         string
	name        string
	first, last uint64
}

// gptImage builds an image with a protective MBR, a GPT header at LBA 1 and
// a 128-entry table at LBA 2.
func gptImage(sectorSize int, sectors int, parts ...gptPart) []byte {
	const (
		numEntries = 128
		entrySize  = 128
	)

	data := make([]byte, sectors*sectorSize)

	mbr := data[:512]
	disk.PutEntry(mbr, 0, disk.PartitionTypeGPT, 1, uint32(sectors-1))
	disk.PutSignature(mbr)

	table := data[2*sectorSize : 2*sectorSize+numEntries*entrySize]
	for i, part := range parts {
		e := table[i*entrySize:]
		typ := disk.GUIDToBytes(uuid.MustParse(part.typ))
		copy(e, typ[:])
		unique := disk.GUIDToBytes(uuid.New())
		copy(e[16:], unique[:])
		binary.LittleEndian.PutUint64(e[32:], part.first)
		binary.LittleEndian.PutUint64(e[40:], part.last)
		name := disk.EncodeUTF16Name(part.name)
		copy(e[56:], name[:])
	}

	hdr := sectorAt(data, sectorSize, 1)
	copy(hdr, disk.GPTSignature[:])
	binary.LittleEndian.PutUint32(hdr[0x08:], 0x00010000)
	binary.LittleEndian.PutUint32(hdr[0x0C:], disk.GPTHeaderMinSize)
	binary.LittleEndian.PutUint64(hdr[0x18:], 1)
	binary.LittleEndian.PutUint64(hdr[0x20:], uint64(sectors-1))
	binary.LittleEndian.PutUint64(hdr[0x28:], 34)
	binary.LittleEndian.PutUint64(hdr[0x30:], uint64(sectors-34))
	binary.LittleEndian.PutUint64(hdr[0x48:], 2)
	binary.LittleEndian.PutUint32(hdr[0x50:], numEntries)
	binary.LittleEndian.PutUint32(hdr[0x54:], entrySize)
	binary.LittleEndian.PutUint32(hdr[0x58:], crc32.ChecksumIEEE(table))
	binary.LittleEndian.PutUint32(hdr[0x10:], crc32.ChecksumIEEE(hdr[:disk.GPTHeaderMinSize]))

	return data
}

