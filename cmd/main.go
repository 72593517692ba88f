package main

import (
	"fmt"
	"os"

	"github.com/ostafen/volmap/cmd/cmd"
	"github.com/ostafen/volmap/internal/env"
)

func main() {
	PrintLogo()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func PrintLogo() {
	w := os.Stderr
	fmt.Fprintln(w, "                 _                       ")
	fmt.Fprintln(w, " __   _____  | |_ __ ___   __ _ _ __  ")
	fmt.Fprintln(w, " \\ \\ / / _ \\ | | '_ ` _ \\ / _` | '_ \\ ")
	fmt.Fprintln(w, "  \\ V / (_) || | | | | | | (_| | |_) |")
	fmt.Fprintln(w, "   \\_/ \\___/ |_|_| |_| |_|\\__,_| .__/ ")
	fmt.Fprintln(w, "                               |_|    ")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Partition layout analysis tool")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Version:   %s\n", env.Version)
	fmt.Fprintf(w, "Commit:    %s\n", env.CommitHash)
	fmt.Fprintf(w, "Build Time: %s\n", env.BuildTime)
	fmt.Fprintln(w, " ")
}
