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
package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ostafen/volmap/pkg/volume"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DefineListCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <image> [segments...]",
		Short: "List the partition layout of a disk image",
		Long: `The 'list' command detects the volume system of a disk image and prints every record of its layout:
table-derived partitions, the partition tables themselves (Meta) and the unallocated gaps between them.
Split images may be given as a list of segments or by their first segment (disk.001).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunList(cmd, v, args)
		},
	}

	addOpenFlags(cmd.Flags())
	cmd.Flags().Bool("alloc-only", false, "only show allocated partitions")
	cmd.Flags().Bool("csv", false, "print records as CSV")
	return cmd
}

func RunList(cmd *cobra.Command, v *viper.Viper, args []string) error {
	logger, closeLog, err := newLogger(v)
	if err != nil {
		return err
	}
	defer closeLog()

	s, im, err := openSystem(v, args, logger)
	if err != nil {
		return err
	}
	defer im.Close()

	out := cmd.OutOrStdout()
	if !v.GetBool("csv") {
		printSummary(out, s)
	}

	writeLayout(out, s, v.GetBool("alloc-only"), v.GetBool("csv"))

	if err := s.Warnings(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "[WARN] %v\n", err)
	}
	return nil
}

func printSummary(w io.Writer, s *volume.System) {
	fmt.Fprintln(w, s.Scheme().Description())
	fmt.Fprintf(w, "Offset Sector: %d\n", s.Offset()/int64(s.SectorSize()))
	fmt.Fprintf(w, "Units are in %d-byte sectors\n", s.SectorSize())
	fmt.Fprintln(w)
}

func writeLayout(w io.Writer, s *volume.System, allocOnly, csv bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Slot", "Start", "End", "Length", "Size", "Description"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	parts := s.All()
	if allocOnly {
		parts = s.Allocated()
	}

	for p := range parts {
		_, size := s.ByteRange(p)
		tw.AppendRow(table.Row{
			fmt.Sprintf("%03d", p.Addr),
			p.SlotString(),
			fmt.Sprintf("%010d", p.Start),
			fmt.Sprintf("%010d", p.End()),
			fmt.Sprintf("%010d", p.Len),
			humanize.IBytes(uint64(size)),
			p.Desc,
		})
	}

	if csv {
		tw.RenderCSV()
		return
	}
	tw.Render()
}
