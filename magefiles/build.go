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

const (
	binGo      = "go"
	binaryName = "lattice"
	binaryDir  = "bin"
	cmdDir     = "./cmd/lattice"
)

// drivers maps a driver name to the build tags selecting it.
var drivers = map[string][]string{
	"modernc": nil,
	"mattn":   {"mattn"},
	"ncruces": {"ncruces"},
}

// tagArgs returns the go tool arguments selecting driver.
func tagArgs(driver string) ([]string, error) {
	tags, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (modernc, mattn, ncruces)", driver)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return []string{"-tags", tags[0]}, nil
}

// Build compiles the lattice binary to bin/. Pass --driver to pick the
// SQLite driver.
func Build() error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	driver := fs.String("driver", "modernc", "SQLite driver: modernc, mattn or ncruces")
	parseTargetFlags(fs)

	tags, err := tagArgs(*driver)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := append([]string{"build", "-v"}, tags...)
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
