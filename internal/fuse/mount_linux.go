package fuse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

// Mount serves entries of r at mountpoint until SIGINT or SIGTERM unmounts
// it.
func Mount(logger *slog.Logger, mountpoint string, r io.ReaderAt, entries []FileEntry) error {
	created, err := PrepareMountpoint(mountpoint)
	if err != nil {
		return err
	}
	if created {
		defer os.Remove(mountpoint)
	}

	c, err := fuse.Mount(
		mountpoint,
		fuse.ReadOnly(),
		fuse.FSName("volmap"),
		fuse.Subtype("volmap"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- fusefs.New(c, nil).Serve(NewPartitionFS(r, entries))
	}()
	return waitForUmount(logger, mountpoint, serveErr)
}

func waitForUmount(logger *slog.Logger, mountpoint string, serveErr <-chan error) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	logger.Info("waiting for termination signal", "mountpoint", mountpoint)

	const maxUnmountRetries = 3

	unmountAttempts := 0
	for {
		select {
		case err := <-serveErr:
			// unmounted from outside, e.g. with fusermount -u
			return err
		case sig := <-sigc:
			logger.Info("signal received", "signal", sig)

			if unmountAttempts >= maxUnmountRetries {
				return fmt.Errorf("unable to unmount %s after %d attempts", mountpoint, maxUnmountRetries)
			}

			unmountAttempts++
			logger.Info("unmounting", "mountpoint", mountpoint, "attempt", unmountAttempts)

			if err := fuse.Unmount(mountpoint); err != nil {
				logger.Warn("unmount failed, send another signal to retry", "err", err)
				continue
			}
			return <-serveErr
		}
	}
}

// PrepareMountpoint ensures the given path is an empty directory, creating
// it when missing. It reports whether the directory was created.
func PrepareMountpoint(mountpoint string) (bool, error) {
	finfo, err := os.Stat(mountpoint)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(mountpoint, 0755); err != nil {
			return false, fmt.Errorf("failed to create mountpoint %s: %w", mountpoint, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat mountpoint %s: %w", mountpoint, err)
	}

	if !finfo.IsDir() {
		return false, fmt.Errorf("mountpoint %s is not a directory", mountpoint)
	}

	empty, err := IsDirEmpty(mountpoint)
	if err != nil {
		return false, fmt.Errorf("failed to check if mountpoint %s is empty: %w", mountpoint, err)
	}
	if !empty {
		return false, fmt.Errorf("mountpoint %s is not empty", mountpoint)
	}
	return false, nil
}

// IsDirEmpty returns true if the directory at path is empty.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
