//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// All runs every package's tests.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Race runs all tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Postgres runs the store tests with the postgres backend enabled against
// the server named by GUINEAPAL_TEST_POSTGRES_DSN.
func (Test) Postgres() error {
	if os.Getenv("GUINEAPAL_TEST_POSTGRES_DSN") == "" {
		fmt.Println("GUINEAPAL_TEST_POSTGRES_DSN is not set; skipping.")
		return nil
	}
	return sh.RunV(binGo, "test", "-v", "-count=1", "./internal/kv/...")
}

// Cover writes a coverage profile to bin/coverage.out and prints the
// per-function summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
