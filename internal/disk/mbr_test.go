package disk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMBR(t *testing.T) {
	sector := make([]byte, MBRSize)
	PutEntry(sector, 0, PartitionTypeLinux, 1, 350)
	PutEntry(sector, 1, PartitionTypeExtendedCHS, 351, 2529)
	sector[MBRTableOffset] = 0x80
	PutSignature(sector)

	mbr, err := ParseMBR(sector)
	require.NoError(t, err)
	require.Equal(t, uint16(MBRSignature), mbr.ReadSignature())

	e := mbr.PartitionEntries[0]
	require.True(t, e.Used())
	require.True(t, e.Bootable())
	require.Equal(t, PartitionTypeLinux, e.PartitionType)
	require.Equal(t, uint32(1), e.ReadStartLBA())
	require.Equal(t, uint32(350), e.ReadTotalSectors())

	ext := mbr.PartitionEntries[1]
	require.True(t, ext.PartitionType.IsExtended())
	require.Equal(t, uint32(351), ext.ReadStartLBA())
	require.Equal(t, uint32(2529), ext.ReadTotalSectors())

	require.False(t, mbr.PartitionEntries[2].Used())
	require.False(t, mbr.PartitionEntries[3].Used())
	require.False(t, mbr.IsProtective())
}

func TestParseMBRInvalid(t *testing.T) {
	_, err := ParseMBR(make([]byte, 100))
	require.Error(t, err)

	_, err = ParseMBR(make([]byte, MBRSize))
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.False(t, HasSignature(make([]byte, MBRSize)))
}

func TestProtectiveMBR(t *testing.T) {
	sector := make([]byte, MBRSize)
	PutEntry(sector, 0, PartitionTypeGPT, 1, 0xFFFFFFFF)
	PutSignature(sector)

	mbr, err := ParseMBR(sector)
	require.NoError(t, err)
	require.True(t, mbr.IsProtective())
	require.True(t, mbr.HasProtectiveEntry())

	PutEntry(sector, 1, PartitionTypeLinux, 100, 100)
	mbr, err = ParseMBR(sector)
	require.NoError(t, err)
	require.False(t, mbr.IsProtective())
	require.True(t, mbr.HasProtectiveEntry())
}

func TestPartitionTypeDescription(t *testing.T) {
	require.Equal(t, "Linux (0x83)", PartitionTypeLinux.Description())
	require.Equal(t, "DOS Extended (0x05)", PartitionTypeExtendedCHS.Description())
	require.Equal(t, "Win95 Extended (0x0f)", PartitionTypeExtendedLBA.Description())
	require.Equal(t, "Unknown Type (0x7f)", MBRPartition(0x7f).Description())

	for _, typ := range []MBRPartition{0x05, 0x0f, 0x85} {
		require.True(t, typ.IsExtended())
	}
	require.False(t, PartitionTypeLinux.IsExtended())

	types := KnownPartitionTypes()
	require.NotEmpty(t, types)
	for i := 1; i < len(types); i++ {
		require.Less(t, types[i-1], types[i])
	}
}

func TestBootSectorFS(t *testing.T) {
	sector := make([]byte, MBRSize)
	copy(sector[3:], "NTFS    ")
	fs, ok := BootSectorFS(sector)
	require.True(t, ok)
	require.Equal(t, "NTFS", fs)

	copy(sector[3:], "MSDOS5.0")
	fs, ok = BootSectorFS(sector)
	require.True(t, ok)
	require.Equal(t, "FAT", fs)

	copy(sector[3:], "GRUB    ")
	_, ok = BootSectorFS(sector)
	require.False(t, ok)
}

func TestSectorsFor(t *testing.T) {
	require.Equal(t, uint64(32), SectorsFor(128*128, 512))
	require.Equal(t, uint64(1), SectorsFor(1, 512))
	require.Equal(t, uint64(0), SectorsFor(0, 512))
	require.Equal(t, uint64(5), SectorsFor(128*128+1, 4096))
}
