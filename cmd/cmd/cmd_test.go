package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ostafen/volmap/internal/disk"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()

	data := make([]byte, 2880*512)
	disk.PutEntry(data[:512], 0, disk.PartitionTypeLinux, 1, 350)
	disk.PutEntry(data[:512], 1, disk.PartitionTypeExtendedCHS, 351, 2529)
	disk.PutSignature(data[:512])

	ebr := data[351*512 : 352*512]
	disk.PutEntry(ebr, 0, disk.PartitionTypeLinux, 1, 2528)
	disk.PutSignature(ebr)

	path := filepath.Join(dir, "disk.raw")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	out, err := run(t, "list", path)
	require.NoError(t, err)
	require.Contains(t, out, "DOS Partition Table")
	require.Contains(t, out, "Units are in 512-byte sectors")
	require.Contains(t, out, "Extended Table (#1)")
	require.Contains(t, out, "175 KiB")

	out, err = run(t, "list", "--csv", "--alloc-only", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "002,00:00,0000000001,0000000350,0000000350,175 KiB,Linux (0x83)", lines[1])
	require.Equal(t, "006,01:00,0000000352,0000002879,0000002528,1.2 MiB,Linux (0x83)", lines[2])
}

func TestListOversizedImage(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	out, err := run(t, "list", "--csv", "--image-size", "1TiB", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	require.True(t, strings.HasPrefix(lines[8], "007,-----,0000002880,2147483647,2147480768,"))
}

func TestListEnvironment(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	t.Setenv("VOLMAP_TYPE", "gpt")
	_, err := run(t, "list", path)
	require.Error(t, err)
}

func TestReportVerify(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	report := filepath.Join(dir, "report.xml")

	_, err := run(t, "report", "--output", report, path)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	require.Contains(t, string(data), "<partitionsystem")

	out, err := run(t, "verify", path, report)
	require.NoError(t, err)
	require.Contains(t, out, "[OK] 7 records match")

	out, err = run(t, "verify", "--image-size", "1TiB", path, report)
	require.Error(t, err)
	require.Contains(t, out, "partition 7: unexpected")
}

func TestTypesCommand(t *testing.T) {
	out, err := run(t, "types")
	require.NoError(t, err)
	require.Contains(t, out, "0x83")
	require.Contains(t, out, "DOS Extended")
}

func TestGetMountpoint(t *testing.T) {
	require.Equal(t, "disk_mnt", getMountpoint("/images/disk.raw"))
	require.Equal(t, "disk_mnt", getMountpoint("disk"))
}
