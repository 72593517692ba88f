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
	"os"
	"path/filepath"

	"github.com/ostafen/volmap/internal/env"
	"github.com/ostafen/volmap/pkg/dfxml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DefineReportCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <image> [segments...]",
		Short: "Write the partition layout of a disk image as DFXML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunReport(cmd, v, args)
		},
	}

	addOpenFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "", "path of the report file (default: stdout)")
	return cmd
}

func RunReport(cmd *cobra.Command, v *viper.Viper, args []string) error {
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

	var out io.Writer = cmd.OutOrStdout()
	if path := v.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := dfxml.NewDFXMLWriter(out)

	err = w.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: absPath(im.name),
			SectorSize:    int(s.SectorSize()),
			ImageSize:     uint64(im.Size()),
		},
	})
	if err != nil {
		return err
	}

	if err := w.WritePartitionSystem(dfxml.FromSystem(s)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if path := v.GetString("output"); path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[INFO] Report saved to: \t%s\n", absPath(path))
	}
	return nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
