//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestMain(m *testing.M) {
	os.Exit(buildAndRun(m))
}

// buildAndRun compiles cmd/dupexport into a temporary directory for the
// duration of the suite
func buildAndRun(m *testing.M) int {
	dir, err := os.MkdirTemp("", "dupexport-e2e-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create build dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	binPath = filepath.Join(dir, "dupexport")
	build := exec.Command("go", "build", "-o", binPath, "./cmd/dupexport")
	build.Dir = ".."
	build.Stdout, build.Stderr = os.Stdout, os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build dupexport: %v\n", err)
		return 1
	}
	return m.Run()
}
