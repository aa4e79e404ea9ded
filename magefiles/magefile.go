//go:build mage

// Package main provides build targets for lattice using Mage.
//
// Usage:
//
//	mage build                 Compile the lattice CLI to bin/
//	mage build --driver mattn  Compile against another SQLite driver
//	mage test:all              Run every test with the default driver
//	mage test:drivers          Run the engine tests once per driver
//	mage test:cover            Write a coverage profile to bin/
//	mage lint                  Run go vet and golangci-lint
//	mage clean                 Remove build artifacts
//	mage install               Install lattice to GOPATH/bin
//	mage stats                 Print lines of code per package tree
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Stats prints production and test lines of Go code per top-level tree.
func Stats() error {
	type counts struct{ prod, test int }
	byTree := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		tree := strings.SplitN(filepath.ToSlash(path), "/", 3)
		key := tree[0]
		if len(tree) == 3 {
			key = tree[0] + "/" + tree[1]
		}
		c := byTree[key]
		if c == nil {
			c = &counts{}
			byTree[key] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(byTree))
	for k := range byTree {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var prod, test int
	for _, k := range keys {
		c := byTree[k]
		fmt.Printf("%-24s %6d prod %6d test\n", k, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-24s %6d prod %6d test\n", "total", prod, test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
