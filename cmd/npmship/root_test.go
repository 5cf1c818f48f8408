package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/npmship/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/npmship/internal/testutil"
)

func executeRoot(t *testing.T, lookPath []string, args ...string) (string, *testutil.FakeRunner, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	fake := &testutil.FakeRunner{}
	cmd := newRootCmd(cliEnv{
		Stdout:   &out,
		Stderr:   &out,
		Runner:   fake,
		LookPath: testutil.LookPathFor(lookPath...),
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), fake, err
}

func TestRootCmd_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no version", []string{"--repo", "o/r"}, "version argument is required"},
		{"two versions", []string{"--repo", "o/r", "v1", "v2"}, "exactly one version"},
		{"missing repo", []string{"v1.0.0"}, "repo"},
		{"malformed repo", []string{"--repo", "justname", "v1.0.0"}, "owner/name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fake, err := executeRoot(t, []string{"gh", "npm", "tar"}, tt.args...)
			if !errors.Is(err, pipeline.ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
			if len(fake.Calls) != 0 {
				t.Errorf("no tools may run on input errors, ran %v", fake.Commands())
			}
		})
	}
}

func TestRootCmd_UnknownFlag(t *testing.T) {
	out, _, err := executeRoot(t, nil, "--bogus", "v1")
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Fatalf("expected unknown flag error, got %v", err)
	}
	if strings.Contains(out, "Usage:") {
		t.Errorf("usage should be silenced, got %q", out)
	}
}

func TestRootCmd_ToolMissing(t *testing.T) {
	_, fake, err := executeRoot(t, []string{"gh"}, "--repo", "o/r", "v1.0.0")
	if !errors.Is(err, pipeline.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
	for _, tool := range []string{"npm", "tar"} {
		if !strings.Contains(err.Error(), tool) {
			t.Errorf("error should name %s: %v", tool, err)
		}
	}
	if len(fake.Calls) != 0 {
		t.Errorf("ran %v", fake.Commands())
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := executeRoot(t, nil, "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("default file is optional", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := loadConfig(t.Context(), releaseFlags{})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Binary != "mcp-getweb" {
			t.Errorf("Binary = %q", cfg.Binary)
		}
	})

	t.Run("default file is read when present", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		testutil.WriteFile(t, filepath.Join(dir, "npmship.lua"), `npmship = { binary = "tool", output_dir = "dist" }`, 0o644)

		cfg, err := loadConfig(t.Context(), releaseFlags{})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Binary != "tool" || cfg.OutputDir != "dist" || cfg.Launcher != "tool.js" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("flags override file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "release.lua")
		testutil.WriteFile(t, path, `npmship = { package_dir = "pkg", output_dir = "dist" }`, 0o644)

		cfg, err := loadConfig(t.Context(), releaseFlags{configFile: path, packageDir: "other", outputDir: "out"})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.PackageDir != "other" || cfg.OutputDir != "out" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := loadConfig(t.Context(), releaseFlags{configFile: filepath.Join(t.TempDir(), "missing.lua")})
		if !errors.Is(err, pipeline.ErrInput) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ErrInput wrapping ErrNotExist, got %v", err)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.lua")
		testutil.WriteFile(t, path, `npmship = {`, 0o644)

		_, err := loadConfig(t.Context(), releaseFlags{configFile: path})
		if !errors.Is(err, pipeline.ErrInput) || !strings.Contains(err.Error(), "Lua syntax error") {
			t.Errorf("got %v", err)
		}
	})
}
