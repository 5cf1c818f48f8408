package config

import (
	"fmt"
	"strings"
)

// Config is the pipeline configuration.
type Config struct {
	// Binary is the binary-name prefix shared by every release asset.
	Binary string
	// PackageName is the npm package name, used for the versioned artifact.
	PackageName string
	// PackageDir is the npm package directory (the one holding package.json).
	PackageDir string
	// Launcher is the launcher entry filename inside the package bin directory.
	Launcher string
	// OutputDir receives the packed artifact and the run report.
	OutputDir string
	// Patterns are the release-asset filename globs handed to the download tool.
	Patterns []string
	// Access is passed to npm publish --access when set.
	Access string
	// Checksums names a release checksum file; empty disables verification.
	Checksums string
	// PGPKeyring is an armored or binary keyring for the checksum .asc/.sig file.
	PGPKeyring string
	// MinisignKey is a minisign public key file for the checksum .minisig file.
	MinisignKey string
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Binary:      "mcp-getweb",
		PackageName: "mcp-getweb",
		PackageDir:  "npm",
		Launcher:    "mcp-getweb.js",
		OutputDir:   "dist",
		Patterns:    []string{"mcp-getweb-*"},
	}
}

// DownloadPatterns returns Patterns plus the checksum file and its signatures
// when checksum verification is configured.
func (c *Config) DownloadPatterns() []string {
	patterns := append([]string(nil), c.Patterns...)
	if len(patterns) == 0 {
		patterns = append(patterns, c.Binary+"-*")
	}
	if c.Checksums != "" {
		patterns = append(patterns, c.Checksums, c.Checksums+".*")
	}
	return patterns
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("binary prefix is required")
	}
	if strings.TrimSpace(c.PackageDir) == "" {
		return fmt.Errorf("package directory is required")
	}
	if strings.TrimSpace(c.Launcher) == "" {
		return fmt.Errorf("launcher entry is required")
	}
	if strings.ContainsAny(c.Launcher, `/\`) {
		return fmt.Errorf("launcher entry %q must be a bare filename", c.Launcher)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}
	for _, p := range c.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("empty asset pattern")
		}
	}
	return nil
}
