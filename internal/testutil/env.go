// Package testutil provides fixtures for testing npmship in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env is an isolated on-disk layout for one test.
type Env struct {
	Root       string
	PackageDir string // npm package directory
	BinDir     string // PackageDir/bin
	OutputDir  string
	AssetsDir  string // stand-in for downloaded release assets
	ScratchDir string
}

// SetupTestEnv creates isolated test directories for each test.
// The package directory gets a package.json and, when launcher is non-empty,
// a launcher entry in its bin directory. Directories are removed by
// t.TempDir; callers don't need to clean up.
//
// CI is set so tests can check it is stripped before publishing.
func SetupTestEnv(t *testing.T, launcher string) *Env {
	t.Helper()

	root := t.TempDir()
	env := &Env{
		Root:       root,
		PackageDir: filepath.Join(root, "npm"),
		BinDir:     filepath.Join(root, "npm", "bin"),
		OutputDir:  filepath.Join(root, "dist"),
		AssetsDir:  filepath.Join(root, "assets"),
		ScratchDir: filepath.Join(root, "scratch"),
	}

	t.Setenv("CI", "true")
	t.Setenv("NPMSHIP_TEST_MODE", "1")

	for _, dir := range []string{env.BinDir, env.OutputDir, env.AssetsDir, env.ScratchDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	manifest := `{"name": "mcp-getweb", "version": "0.0.0", "bin": {"mcp-getweb": "bin/mcp-getweb.js"}}`
	WriteFile(t, filepath.Join(env.PackageDir, "package.json"), manifest, 0o644)
	if launcher != "" {
		WriteFile(t, filepath.Join(env.BinDir, launcher), "#!/usr/bin/env node\n", 0o755)
	}

	return env
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
