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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ostafen/volmap/internal/disk"
	"github.com/spf13/cobra"
)

func DefineTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the known DOS partition types",
		Args:  cobra.NoArgs,
		RunE:  RunTypes,
	}
}

func RunTypes(cmd *cobra.Command, args []string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Code", "Name", "Extended"})

	for _, t := range disk.KnownPartitionTypes() {
		name, _ := t.Name()

		extended := ""
		if t.IsExtended() {
			extended = "yes"
		}
		tw.AppendRow(table.Row{fmt.Sprintf("0x%02x", uint8(t)), name, extended})
	}
	tw.Render()
	return nil
}
