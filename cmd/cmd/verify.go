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
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/ostafen/volmap/pkg/dfxml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DefineVerifyCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <image> [segments...] <report_file>",
		Short: "Check a disk image against a previously written layout report",
		Long: `The 'verify' command parses the volume system of an image again and compares the result with the
partition system stored in a DFXML report, printing every record that differs.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunVerify(cmd, v, args)
		},
	}

	addOpenFlags(cmd.Flags())
	return cmd
}

func RunVerify(cmd *cobra.Command, v *viper.Viper, args []string) error {
	reportPath := args[len(args)-1]

	reportFile, err := os.Open(reportPath)
	if err != nil {
		return err
	}
	defer reportFile.Close()

	systems, err := dfxml.ReadPartitionSystems(bufio.NewReader(reportFile))
	if err != nil {
		return fmt.Errorf("failed to read report %q: %w", reportPath, err)
	}
	if len(systems) == 0 {
		return fmt.Errorf("report %q contains no partition system", reportPath)
	}

	logger, closeLog, err := newLogger(v)
	if err != nil {
		return err
	}
	defer closeLog()

	s, im, err := openSystem(v, args[:len(args)-1], logger)
	if err != nil {
		return err
	}
	defer im.Close()

	diffs := dfxml.Diff(systems[0], dfxml.FromSystem(s))
	for _, d := range diffs {
		fmt.Fprintf(cmd.OutOrStdout(), "[MISMATCH] %s\n", d)
	}

	if len(diffs) > 0 {
		return errors.New("layout does not match the report")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[OK] %d records match\n", s.Len())
	return nil
}
