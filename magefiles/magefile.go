//go:build mage

// Package main contains Mage build targets for confharvest developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "confharvest"
	cmdPkg     = "./cmd/confharvest"
	configFile = "confharvest.yaml"
)

// Default target to run when none is specified.
var Default = Build

// Init writes the default config file unless one already exists.
func Init() error {
	if _, err := os.Stat(configFile); err == nil {
		fmt.Println(configFile, "already exists")
		return nil
	}
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "config", "init", "--path", configFile)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	// go-sqlite3 needs cgo.
	env := map[string]string{"CGO_ENABLED": "1"}
	if err := sh.RunWithV(env, "go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet and Test.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Pipeline builds the binary and runs every configured harvest job.
func Pipeline() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "pipeline")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
