package volume

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/ostafen/volmap/internal/disk"
	"github.com/ostafen/volmap/pkg/img"
	"github.com/stretchr/testify/require"
)

func TestOpenDOS(t *testing.T) {
	s, err := Open(bytes.NewReader(dosFixture()), Options{})
	require.NoError(t, err)

	require.Equal(t, SchemeDOS, s.Scheme())
	require.Equal(t, uint32(512), s.SectorSize())
	require.Equal(t, uint64(fixtureSectors), s.SectorCount())
	require.Equal(t, 7, s.Len())
	require.Equal(t, fixtureLayout, layoutString(s))
	require.NoError(t, s.Warnings())

	var slots []string
	var flags []Flags
	for p := range s.All() {
		slots = append(slots, p.SlotString())
		flags = append(flags, p.Flags)
	}
	require.Equal(t, []string{"Meta", "-----", "00:00", "Meta", "Meta", "-----", "01:00"}, slots)
	require.Equal(t, []Flags{FlagMeta, FlagUnalloc, FlagAlloc, FlagMeta, FlagMeta, FlagUnalloc, FlagAlloc}, flags)
}

func TestOpenForcedDOS(t *testing.T) {
	s, err := Open(bytes.NewReader(dosFixture()), Options{Scheme: SchemeDOS})
	require.NoError(t, err)
	require.Equal(t, fixtureLayout, layoutString(s))
}

func TestOpenOversizedImage(t *testing.T) {
	data := dosFixture()

	s, err := Open(img.WithSize(bytes.NewReader(data), 1<<40), Options{})
	require.NoError(t, err)
	require.Equal(t, 8, s.Len())
	require.Equal(t, fixtureLayout+
		"07:  0000002880   2147483647   2147480768   Unallocated\n", layoutString(s))
}

func TestTrailingGapCap(t *testing.T) {
	data := dosFixture()
	image := img.WithSize(bytes.NewReader(data), 1<<42)

	s, err := Open(image, Options{})
	require.NoError(t, err)

	last, ok := s.Partition(uint64(s.Len() - 1))
	require.True(t, ok)
	require.Equal(t, uint64(2880), last.Start)
	require.Equal(t, uint64(2147483647), last.End())
	require.Equal(t, uint64(2147480768), last.Len)

	s, err = Open(image, Options{ExactTail: true})
	require.NoError(t, err)

	last, ok = s.Partition(uint64(s.Len() - 1))
	require.True(t, ok)
	require.Equal(t, uint64(2880), last.Start)
	require.Equal(t, uint64(1<<33)-2880, last.Len)
	require.Equal(t, uint64(1<<33), s.SectorCount())
}

func TestIterationIsRestartable(t *testing.T) {
	s, err := Open(bytes.NewReader(dosFixture()), Options{})
	require.NoError(t, err)

	first := layoutString(s)
	require.Equal(t, first, layoutString(s))
	require.Equal(t, s.Partitions(), collect(s))

	n := 0
	for range s.All() {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
	require.Equal(t, first, layoutString(s))

	parts := s.Partitions()
	parts[0].Desc = "changed"
	p, ok := s.Partition(0)
	require.True(t, ok)
	require.Equal(t, "Primary Table (#0)", p.Desc)

	_, ok = s.Partition(uint64(s.Len()))
	require.False(t, ok)

	var alloc []uint64
	for p := range s.Allocated() {
		alloc = append(alloc, p.Start)
	}
	require.Equal(t, []uint64{1, 352}, alloc)
}

func collect(s *System) []Partition {
	var parts []Partition
	for p := range s.All() {
		parts = append(parts, p)
	}
	return parts
}

func TestOpenErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Open(bytes.NewReader(nil), Options{})
		require.ErrorIs(t, err, ErrUnreadableImage)
	})

	t.Run("smaller than one sector", func(t *testing.T) {
		_, err := Open(bytes.NewReader(make([]byte, 100)), Options{})
		require.ErrorIs(t, err, ErrUnreadableImage)
	})

	t.Run("failing read", func(t *testing.T) {
		_, err := Open(img.WithSize(bytes.NewReader(nil), 4096), Options{})
		require.ErrorIs(t, err, ErrUnreadableImage)
	})

	t.Run("offset past the end", func(t *testing.T) {
		_, err := Open(bytes.NewReader(dosFixture()), Options{Offset: fixtureSectors * 512})
		require.ErrorIs(t, err, ErrUnreadableImage)
	})

	t.Run("bogus", func(t *testing.T) {
		data := make([]byte, 64*512)
		rnd := rand.New(rand.NewSource(42))
		rnd.Read(data)
		data[510], data[511] = 0, 0

		_, err := Open(bytes.NewReader(data), Options{})
		require.ErrorIs(t, err, ErrNoSupportedVolumeSystem)
		require.NotErrorIs(t, err, ErrUnreadableImage)
	})

	t.Run("file system boot sector", func(t *testing.T) {
		data := make([]byte, 64*512)
		copy(data[3:], "NTFS    ")
		disk.PutEntry(data[:512], 0, disk.PartitionTypeLinux, 1, 10)
		disk.PutSignature(data[:512])

		_, err := Open(bytes.NewReader(data), Options{})
		require.ErrorIs(t, err, ErrNoSupportedVolumeSystem)
	})

	t.Run("forced scheme mismatch", func(t *testing.T) {
		data := make([]byte, 64*512)

		_, err := Open(bytes.NewReader(data), Options{Scheme: SchemeDOS})
		require.ErrorIs(t, err, ErrCorruptVolumeSystem)

		_, err = Open(bytes.NewReader(data), Options{Scheme: SchemeGPT})
		require.ErrorIs(t, err, ErrCorruptVolumeSystem)
	})

	t.Run("invalid sector size", func(t *testing.T) {
		_, err := Open(bytes.NewReader(dosFixture()), Options{SectorSize: 100})
		require.Error(t, err)
	})
}

func TestPrimaryEntryBeyondImage(t *testing.T) {
	data := dosFixture()
	disk.PutEntry(data[:512], 1, disk.PartitionTypeLinux, 5000, 10)

	_, err := Open(bytes.NewReader(data), Options{})
	require.ErrorIs(t, err, ErrCorruptVolumeSystem)

	data = dosFixture()
	disk.PutEntry(data[:512], 2, disk.PartitionTypeLinux, 5000, 10)

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.Equal(t, fixtureLayout, layoutString(s))
	require.Error(t, s.Warnings())
}

func TestExtendedChain(t *testing.T) {
	data := make([]byte, 400*512)

	mbr := data[:512]
	disk.PutEntry(mbr, 0, disk.PartitionTypeLinux, 1, 99)
	disk.PutEntry(mbr, 1, disk.PartitionTypeExtendedLBA, 100, 300)
	disk.PutSignature(mbr)

	ebr := sectorAt(data, 512, 100)
	disk.PutEntry(ebr, 0, disk.PartitionTypeLinux, 1, 49)
	disk.PutEntry(ebr, 1, disk.PartitionTypeExtendedCHS, 50, 100)
	disk.PutSignature(ebr)

	ebr = sectorAt(data, 512, 150)
	disk.PutEntry(ebr, 0, disk.PartitionTypeLinuxSwap, 2, 98)
	disk.PutSignature(ebr)

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.NoError(t, s.Warnings())

	require.Equal(t, ""+
		"00:  0000000000   0000000000   0000000001   Primary Table (#0)\n"+
		"01:  0000000000   0000000000   0000000001   Unallocated\n"+
		"02:  0000000001   0000000099   0000000099   Linux (0x83)\n"+
		"03:  0000000100   0000000399   0000000300   Win95 Extended (0x0f)\n"+
		"04:  0000000100   0000000100   0000000001   Extended Table (#1)\n"+
		"05:  0000000100   0000000100   0000000001   Unallocated\n"+
		"06:  0000000101   0000000149   0000000049   Linux (0x83)\n"+
		"07:  0000000150   0000000249   0000000100   DOS Extended (0x05)\n"+
		"08:  0000000150   0000000150   0000000001   Extended Table (#2)\n"+
		"09:  0000000150   0000000151   0000000002   Unallocated\n"+
		"10:  0000000152   0000000249   0000000098   Linux Swap / Solaris x86 (0x82)\n"+
		"11:  0000000250   0000000399   0000000150   Unallocated\n",
		layoutString(s))

	p, ok := s.Partition(10)
	require.True(t, ok)
	require.Equal(t, "02:00", p.SlotString())
}

func TestExtendedChainCycle(t *testing.T) {
	data := dosFixture()

	// link back to the first extended table
	ebr := sectorAt(data, 512, 351)
	disk.PutEntry(ebr, 1, disk.PartitionTypeExtendedCHS, 0, 10)

	_, err := Open(bytes.NewReader(data), Options{})
	require.ErrorIs(t, err, ErrCorruptVolumeSystem)
}

func TestExtendedChainTooLong(t *testing.T) {
	const sectors = 2 * (MaxExtendedTables + 10)
	data := make([]byte, sectors*512)

	mbr := data[:512]
	disk.PutEntry(mbr, 0, disk.PartitionTypeExtendedLBA, 1, sectors-1)
	disk.PutSignature(mbr)

	for lba := 1; lba+2 < sectors; lba += 2 {
		ebr := sectorAt(data, 512, lba)
		disk.PutEntry(ebr, 0, disk.PartitionTypeLinux, 1, 1)
		disk.PutEntry(ebr, 1, disk.PartitionTypeExtendedLBA, uint32(lba+1), 2)
		disk.PutSignature(ebr)
	}

	_, err := Open(bytes.NewReader(data), Options{})
	require.ErrorIs(t, err, ErrCorruptVolumeSystem)
}

func TestExtendedTableInvalidSignature(t *testing.T) {
	data := dosFixture()
	ebr := sectorAt(data, 512, 351)
	ebr[510], ebr[511] = 0, 0

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.Error(t, s.Warnings())

	require.Equal(t, ""+
		"00:  0000000000   0000000000   0000000001   Primary Table (#0)\n"+
		"01:  0000000000   0000000000   0000000001   Unallocated\n"+
		"02:  0000000001   0000000350   0000000350   Linux (0x83)\n"+
		"03:  0000000351   0000002879   0000002529   DOS Extended (0x05)\n"+
		"04:  0000000351   0000002879   0000002529   Unallocated\n",
		layoutString(s))
}

func TestExtendedTableTruncated(t *testing.T) {
	data := dosFixture()[:351*512]

	// the image claims its full size but the extended table cannot be read
	s, err := Open(img.WithSize(bytes.NewReader(data), fixtureSectors*512), Options{})
	require.NoError(t, err)
	require.ErrorIs(t, s.Warnings(), ErrUnreadableImage)
	require.Equal(t, 5, s.Len())
}

func TestOffset(t *testing.T) {
	const pad = 63 * 512
	data := append(make([]byte, pad), dosFixture()...)

	s, err := Open(bytes.NewReader(data), Options{Offset: pad})
	require.NoError(t, err)
	require.Equal(t, int64(pad), s.Offset())
	require.Equal(t, fixtureLayout, layoutString(s))

	p, _ := s.Partition(2)
	off, size := s.ByteRange(p)
	require.Equal(t, int64(pad+512), off)
	require.Equal(t, int64(350*512), size)
}

func TestGeneratedLayouts(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for n := 0; n < 200; n++ {
		sectors := 64 + rnd.Intn(4096)
		data := make([]byte, sectors*512)
		mbr := data[:512]

		cursor := 1
		for slot := 0; slot < disk.MBREntries && cursor < sectors; slot++ {
			start := cursor + rnd.Intn(8)
			if start >= sectors {
				break
			}
			length := 1 + rnd.Intn(sectors-start)
			if rnd.Intn(3) == 0 {
				length = min(length, 1+rnd.Intn(16))
			}
			disk.PutEntry(mbr, slot, disk.PartitionTypeLinux, uint32(start), uint32(length))
			cursor = start + length
		}
		disk.PutSignature(mbr)

		s, err := Open(bytes.NewReader(data), Options{})
		require.NoError(t, err)
		checkLayout(t, s)
	}
}

func checkLayout(t *testing.T, s *System) {
	t.Helper()

	var next uint64
	for i, p := range s.Partitions() {
		require.Equal(t, uint64(i), p.Addr)
		require.GreaterOrEqual(t, p.Len, uint64(1))

		if i > 0 {
			prev, _ := s.Partition(uint64(i - 1))
			require.LessOrEqual(t, prev.Start, p.Start)
		}

		if p.Flags.Has(FlagMeta) {
			continue
		}
		require.Equal(t, next, p.Start, "record %d leaves a gap or overlaps", i)
		next = p.End() + 1
	}
	require.Equal(t, s.SectorCount(), next)
}

func TestOpenGPT(t *testing.T) {
	data := gptImage(512, 4200,
		gptPart{typ: "0fc63daf-8483-4772-8e79-3d69d8477de4", name: "root", first: 34, last: 1033},
		gptPart{typ: "c12a7328-f81f-11d2-ba4b-00a0c93ec93b", first: 2048, last: 4095},
	)

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.NoError(t, s.Warnings())
	require.Equal(t, SchemeGPT, s.Scheme())
	require.Equal(t, uint32(512), s.SectorSize())

	require.Equal(t, ""+
		"00:  0000000000   0000000000   0000000001   Safety Table\n"+
		"01:  0000000000   0000000033   0000000034   Unallocated\n"+
		"02:  0000000001   0000000001   0000000001   GPT Header\n"+
		"03:  0000000002   0000000033   0000000032   Partition Table\n"+
		"04:  0000000034   0000001033   0000001000   root\n"+
		"05:  0000001034   0000002047   0000001014   Unallocated\n"+
		"06:  0000002048   0000004095   0000002048   EFI System Partition\n"+
		"07:  0000004096   0000004199   0000000104   Unallocated\n",
		layoutString(s))
	checkLayout(t, s)

	s, err = Open(bytes.NewReader(data), Options{Scheme: SchemeDOS})
	require.NoError(t, err)
	p, ok := s.Partition(2)
	require.True(t, ok)
	require.Equal(t, "GPT Safety Partition (0xee)", p.Desc)
}

func TestOpenGPTSectorSizeDetection(t *testing.T) {
	data := gptImage(4096, 64,
		gptPart{typ: "0657fd6d-a4ab-43c4-84e5-0933c84b4f4f", first: 6, last: 63},
	)

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.Equal(t, SchemeGPT, s.Scheme())
	require.Equal(t, uint32(4096), s.SectorSize())
	require.Equal(t, uint64(64), s.SectorCount())

	p, ok := s.Partition(uint64(s.Len() - 1))
	require.True(t, ok)
	require.Equal(t, "Linux Swap", p.Desc)
	require.Equal(t, uint64(6), p.Start)
	require.Equal(t, uint64(58), p.Len)

	_, err = Open(bytes.NewReader(data), Options{Scheme: SchemeGPT, SectorSize: 512})
	require.ErrorIs(t, err, ErrCorruptVolumeSystem)
}

func TestOpenGPTChecksumMismatch(t *testing.T) {
	data := gptImage(512, 4200,
		gptPart{typ: "0fc63daf-8483-4772-8e79-3d69d8477de4", first: 34, last: 4000},
	)
	data[512+0x28] ^= 0xFF

	s, err := Open(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	require.Error(t, s.Warnings())
	require.Equal(t, SchemeGPT, s.Scheme())
}

func TestOpenGPTInvalidEntrySize(t *testing.T) {
	data := gptImage(512, 4200)
	data[512+0x54] = 64

	_, err := Open(bytes.NewReader(data), Options{})
	require.ErrorIs(t, err, ErrCorruptVolumeSystem)
}

func TestParseScheme(t *testing.T) {
	for in, want := range map[string]Scheme{
		"":       SchemeDetect,
		"detect": SchemeDetect,
		"DOS":    SchemeDOS,
		"mbr":    SchemeDOS,
		"gpt":    SchemeGPT,
	} {
		got, err := ParseScheme(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseScheme("bsd")
	require.Error(t, err)

	require.Equal(t, []Scheme{SchemeDOS, SchemeGPT}, Schemes())
}

func TestFlags(t *testing.T) {
	require.Equal(t, "alloc", FlagAlloc.String())
	require.Equal(t, "unalloc|meta", (FlagUnalloc | FlagMeta).String())

	f, err := ParseFlags("alloc|meta")
	require.NoError(t, err)
	require.Equal(t, FlagAlloc|FlagMeta, f)

	_, err = ParseFlags("deleted")
	require.Error(t, err)
}
