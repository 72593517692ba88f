package dfxml

import (
	"encoding/xml"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"time"

	"github.com/ostafen/volmap/pkg/sysinfo"
)

const XmlOutputVersion = "1.0"

var DefaultMetadata = Metadata{
	Xmlns:    "http://www.forensicswiki.org/wiki/Category:Digital_Forensics_XML",
	XmlnsXsi: "http://www.w3.org/2001/XMLSchema-instance",
	XmlnsDC:  "http://purl.org/dc/elements/1.1/",
	Type:     "Partition Report",
}

// DFXMLHeader holds the elements written before the partition systems.
type DFXMLHeader struct {
	XMLName   xml.Name `xml:"dfxml"`
	XmlOutput string   `xml:"xmloutputversion,attr,omitempty"`
	Metadata  Metadata `xml:"metadata"`
	Creator   Creator  `xml:"creator"`
	Source    Source   `xml:"source"`
}

type Metadata struct {
	Xmlns    string `xml:"xmlns,attr"`
	XmlnsXsi string `xml:"xmlns:xsi,attr"`
	XmlnsDC  string `xml:"xmlns:dc,attr"`
	Type     string `xml:"dc:type"`
}

type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

// ExecEnv describes the host the report was produced on.
type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

type Source struct {
	ImageFilename string `xml:"image_filename"`
	SectorSize    int    `xml:"sectorsize"`
	ImageSize     uint64 `xml:"image_size"`
}

// PartitionSystem is the decoded layout of one volume system. Offset is the
// byte offset of the volume system inside the image.
type PartitionSystem struct {
	XMLName     xml.Name    `xml:"partitionsystem"`
	Offset      int64       `xml:"offset,attr"`
	Type        string      `xml:"pstype_str"`
	BlockSize   uint32      `xml:"block_size"`
	SectorCount uint64      `xml:"sector_count"`
	Partitions  []Partition `xml:"partition"`
}

type Partition struct {
	Index       uint64   `xml:"partition_index"`
	Type        string   `xml:"ptype_str"`
	Flags       string   `xml:"flags"`
	Slot        string   `xml:"slot"`
	StartSector uint64   `xml:"start_sector"`
	SectorCount uint64   `xml:"sector_count"`
	ByteRuns    ByteRuns `xml:"byte_runs"`
}

type ByteRuns struct {
	Runs []ByteRun `xml:"byte_run"`
}

// ByteRun is a contiguous extent: Offset is relative to the object it
// belongs to, ImgOffset to the start of the image.
type ByteRun struct {
	Offset    uint64 `xml:"offset,attr"`
	ImgOffset uint64 `xml:"img_offset,attr"`
	Length    uint64 `xml:"len,attr"`
}

// GetExecEnv collects the execution environment of the current process.
func GetExecEnv() ExecEnv {
	sinfo, err := sysinfo.Stat()
	if err != nil {
		sinfo = &sysinfo.SysUnknown
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown_host"
	}

	uid := 0
	if u, err := user.Current(); err == nil {
		if n, err := strconv.Atoi(u.Uid); err == nil {
			uid = n
		}
	}

	return ExecEnv{
		OS:      sinfo.Name,
		Release: sinfo.Release,
		Version: sinfo.Version,
		Host:    host,
		Arch:    runtime.GOARCH,
		UID:     uid,
		Start:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
}
