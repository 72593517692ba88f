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

import "github.com/ostafen/volmap/pkg/table"

// Offset of the OEM name inside a FAT, NTFS or exFAT boot sector.
const oemNameOffset = 0x03

var bootSectorOEMNames = func() *table.PrefixTable[string] {
	t := table.New[string]()
	for oem, fs := range map[string]string{
		"MSDOS":    "FAT",
		"MSWIN":    "FAT",
		"mkfs.fat": "FAT",
		"mkdosfs":  "FAT",
		"NTFS    ": "NTFS",
		"EXFAT   ": "exFAT",
	} {
		t.Insert([]byte(oem), fs)
	}
	return t
}()

// BootSectorFS reports whether sector looks like the boot sector of a file
// system rather than a partition table. Both carry the 0xAA55 marker.
func BootSectorFS(sector []byte) (string, bool) {
	if len(sector) <= oemNameOffset {
		return "", false
	}
	return bootSectorOEMNames.Longest(sector[oemNameOffset:])
}
