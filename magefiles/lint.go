//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import "github.com/magefile/mage/sh"

const binLint = "golangci-lint"

// Lint runs go vet for every driver, then golangci-lint.
func Lint() error {
	for _, d := range []string{"modernc", "mattn", "ncruces"} {
		tags, err := tagArgs(d)
		if err != nil {
			return err
		}
		args := append(append([]string{"vet"}, tags...), "./...")
		if err := sh.RunV(binGo, args...); err != nil {
			return err
		}
	}
	return sh.RunV(binLint, "run", "./...")
}
