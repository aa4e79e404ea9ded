//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets.
type Test mg.Namespace

// enginePkgs are the packages whose behavior depends on the driver.
var enginePkgs = []string{"./internal/sqlite/...", "./pkg/dao/..."}

// All runs every test with the default driver. Pass --run to filter.
func (Test) All() error {
	fs := flag.NewFlagSet("test:all", flag.ContinueOnError)
	run := fs.String("run", "", "only run tests matching this pattern")
	parseTargetFlags(fs)

	args := []string{"test", "-v"}
	if *run != "" {
		args = append(args, "-run", *run)
	}
	return sh.RunV(binGo, append(args, "./...")...)
}

// Drivers runs the engine tests once per SQLite driver.
func (Test) Drivers() error {
	for _, d := range []string{"modernc", "mattn", "ncruces"} {
		tags, err := tagArgs(d)
		if err != nil {
			return err
		}
		fmt.Printf("--- driver %s\n", d)
		args := append(append([]string{"test"}, tags...), enginePkgs...)
		if err := sh.RunV(binGo, args...); err != nil {
			return fmt.Errorf("driver %s: %w", d, err)
		}
	}
	return nil
}

// Cover writes a coverage profile to bin/cover.out and prints the summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "cover.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
