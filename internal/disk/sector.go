package disk

const DefaultSectorSize = 512

// CandidateSectorSizes are the logical sector sizes tried, in order, when a
// scheme has to locate a structure stored at LBA 1.
var CandidateSectorSizes = []uint32{512, 1024, 2048, 4096}

// SectorsFor returns the number of sectors needed to hold n bytes.
func SectorsFor(n uint64, sectorSize uint32) uint64 {
	ss := uint64(sectorSize)
	return (n + ss - 1) / ss
}
