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
	"fmt"
	"sort"
)

type MBRPartition uint8

const (
	PartitionTypeEmpty                MBRPartition = 0x00
	PartitionTypeFAT12                MBRPartition = 0x01
	PartitionTypeFAT16LessThan32MB    MBRPartition = 0x04
	PartitionTypeExtendedCHS          MBRPartition = 0x05
	PartitionTypeFAT16GreaterThan32MB MBRPartition = 0x06
	PartitionTypeNTFSHPFSexFAT        MBRPartition = 0x07
	PartitionTypeFAT32CHS             MBRPartition = 0x0B
	PartitionTypeFAT32LBA             MBRPartition = 0x0C
	PartitionTypeFAT16LBA             MBRPartition = 0x0E
	PartitionTypeExtendedLBA          MBRPartition = 0x0F
	PartitionTypeLinuxSwap            MBRPartition = 0x82
	PartitionTypeLinux                MBRPartition = 0x83
	PartitionTypeLinuxExtended        MBRPartition = 0x85
	PartitionTypeLinuxLVM             MBRPartition = 0x8E
	PartitionTypeGPT                  MBRPartition = 0xEE
	PartitionTypeEFISystemPartition   MBRPartition = 0xEF
)

// partitionTypeNames maps DOS partition type codes to the names used in
// layout listings.
var partitionTypeNames = map[MBRPartition]string{
	0x00: "Empty",
	0x01: "DOS FAT12",
	0x02: "XENIX root",
	0x03: "XENIX /usr",
	0x04: "DOS FAT16",
	0x05: "DOS Extended",
	0x06: "DOS FAT16",
	0x07: "NTFS / exFAT",
	0x08: "AIX Boot",
	0x09: "AIX Data",
	0x0a: "OS/2 Boot Manager",
	0x0b: "Win95 FAT32",
	0x0c: "Win95 FAT32",
	0x0e: "Win95 FAT16",
	0x0f: "Win95 Extended",
	0x11: "DOS FAT12 Hidden",
	0x12: "Hibernation",
	0x14: "DOS FAT16 Hidden",
	0x16: "DOS FAT16 > 32 MB Hidden",
	0x17: "Hidden IFS/HPFS",
	0x18: "AST SmartSleep Partition",
	0x19: "Willowtech Photon coS",
	0x1b: "Win95 FAT32 Hidden",
	0x1c: "Win95 FAT32 Hidden",
	0x1e: "Win95 FAT16 Hidden",
	0x20: "Willowsoft OFS1",
	0x21: "Oxygen FSo2",
	0x22: "Oxygen Extended",
	0x24: "NEC MS-DOS 3.x",
	0x27: "Windows Recovery Environment",
	0x38: "Theos",
	0x39: "Plan 9",
	0x3c: "PartitionMagic Recovery",
	0x42: "Win LVM / Secure FS",
	0x44: "GoBack",
	0x4d: "QNX 4.x",
	0x4e: "QNX 4.x 2nd part",
	0x4f: "QNX 4.x 3rd part",
	0x50: "OnTrack DM",
	0x51: "OnTrackDM6 Aux1",
	0x52: "CP/M",
	0x56: "Golden Bow VFeature",
	0x63: "Unix System V",
	0x64: "Novell Netware 286",
	0x65: "Novell Netware 386",
	0x75: "PC/IX",
	0x80: "Old Minix",
	0x81: "Minix / Old Linux",
	0x82: "Linux Swap / Solaris x86",
	0x83: "Linux",
	0x84: "Hibernation",
	0x85: "Linux Extended",
	0x86: "NTFS Volume Set",
	0x87: "NTFS Volume Set",
	0x88: "Linux Plaintext",
	0x8e: "Linux Logical Volume Manager",
	0x93: "Amoeba",
	0x94: "Amoeba BBT",
	0x9f: "BSD/OS",
	0xa0: "IBM Thinkpad Hibernation",
	0xa5: "FreeBSD",
	0xa6: "OpenBSD",
	0xa7: "NeXTSTEP",
	0xa8: "Mac OS X",
	0xa9: "NetBSD",
	0xab: "Mac OS X Boot",
	0xaf: "Mac OS X HFS",
	0xb7: "BSDI",
	0xb8: "BSDI Swap",
	0xbe: "Solaris 8 Boot",
	0xbf: "Solaris x86",
	0xc1: "DRDOS/sec (FAT-12)",
	0xc4: "DRDOS/sec (FAT-16 < 32M)",
	0xc6: "DRDOS/sec (FAT-16)",
	0xc7: "Syrinx",
	0xda: "Non-FS Data",
	0xdb: "CP/M / CTOS",
	0xde: "Dell Utility",
	0xe1: "DOS access",
	0xe3: "DOS R/O",
	0xe8: "Linux Unified Key Setup",
	0xeb: "BeOS",
	0xee: "GPT Safety Partition",
	0xef: "EFI File System",
	0xf0: "Linux/PA-RISC Boot Loader",
	0xf2: "DOS secondary",
	0xfa: "Bochs",
	0xfb: "VMware File System",
	0xfc: "VMware Swap",
	0xfd: "Linux raid autodetect",
	0xfe: "LANstep",
	0xff: "Xenix Bad Block Table",
}

// Name returns the bare type name and whether the code is known.
func (t MBRPartition) Name() (string, bool) {
	name, ok := partitionTypeNames[t]
	return name, ok
}

// Description returns the name followed by the raw code, e.g. "Linux (0x83)".
// Unknown codes map to "Unknown Type (0xNN)".
func (t MBRPartition) Description() string {
	name, ok := partitionTypeNames[t]
	if !ok {
		name = "Unknown Type"
	}
	return fmt.Sprintf("%s (0x%02x)", name, uint8(t))
}

// IsExtended reports whether the type marks an extended partition, whose
// content is a chain of extended boot records. Inside that chain, data entries
// are relative to the boot record holding them while link entries are relative
// to the start of the outermost extended partition.
func (t MBRPartition) IsExtended() bool {
	switch t {
	case PartitionTypeExtendedCHS, PartitionTypeExtendedLBA, PartitionTypeLinuxExtended:
		return true
	}
	return false
}

// KnownPartitionTypes returns every known type code in ascending order.
func KnownPartitionTypes() []MBRPartition {
	types := make([]MBRPartition, 0, len(partitionTypeNames))
	for t := range partitionTypeNames {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})
	return types
}
