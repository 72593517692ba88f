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
	"path/filepath"
	"strings"

	"github.com/ostafen/volmap/internal/fuse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func DefineMountCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <image> [segments...]",
		Short: "Mount the allocated partitions of a disk image as read-only files",
		Long: `The 'mount' command parses the volume system of an image and exposes every allocated partition
as a read-only file of a FUSE file system, so that file system tools can be run on each partition.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunMount(cmd, v, args)
		},
	}

	addOpenFlags(cmd.Flags())
	cmd.Flags().StringP("mountpoint", "m", "", "directory where the partitions will be mounted (default: <image>_mnt)")
	return cmd
}

func RunMount(cmd *cobra.Command, v *viper.Viper, args []string) error {
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

	mountpoint := v.GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(im.name)
	}

	entries := fuse.PartitionEntries(s, im.Size())
	if len(entries) == 0 {
		return fmt.Errorf("%s: no allocated partition to mount", im.name)
	}
	return fuse.Mount(logger, mountpoint, im, entries)
}

// getMountpoint derives a mountpoint name from an image file name by
// replacing its extension with "_mnt".
func getMountpoint(imageName string) string {
	baseName := filepath.Base(imageName)
	return strings.TrimSuffix(baseName, filepath.Ext(baseName)) + "_mnt"
}
