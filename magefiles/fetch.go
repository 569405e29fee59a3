//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Fetch builds the CLI and downloads exams for one course into ./exams.
func Fetch(course string) error {
	mg.Deps(Build)
	fmt.Printf("[fetch] %s\n", course)
	return sh.RunV(filepath.Join(binDir, binName), "-v", "--out-dir", "exams", course)
}
