package binary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/platform"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
	"github.com/ZebulonRouseFrantzich/npmship/internal/testutil"
)

const testLauncher = "mcp-getweb.js"

func newTestStager(caps Capabilities, logger config.Logger) (*Stager, *testutil.FakeRunner) {
	fake := &testutil.FakeRunner{}
	extractor := NewExtractor(fake, caps, testPrefix, logger)
	return NewStager(extractor, testPrefix, testLauncher, logger), fake
}

func writeRawAssets(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		testutil.WriteFile(t, filepath.Join(dir, name), "binary:"+name, 0o644)
	}
}

func TestStage_AllTargets(t *testing.T) {
	env := testutil.SetupTestEnv(t, testLauncher)
	writeRawAssets(t, env.AssetsDir, platform.Names(testPrefix)...)

	stager, _ := newTestStager(Capabilities{}, nil)
	manifest, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if len(manifest.Staged) != len(platform.Targets) {
		t.Errorf("staged %v, want all %d targets", manifest.Staged, len(platform.Targets))
	}
	if missing := manifest.Missing(); len(missing) != 0 {
		t.Errorf("Missing() = %v, want none", missing)
	}

	for _, name := range platform.Names(testPrefix) {
		info, err := os.Stat(filepath.Join(env.BinDir, name))
		if err != nil {
			t.Errorf("%s not staged: %v", name, err)
			continue
		}
		if runtime.GOOS == "windows" {
			continue
		}
		executable := info.Mode().Perm()&0o111 != 0
		if platform.IsWindowsBinary(name) && executable {
			t.Errorf("%s should not get the executable bit", name)
		}
		if !platform.IsWindowsBinary(name) && info.Mode().Perm() != 0o755 {
			t.Errorf("%s mode = %v, want 0755", name, info.Mode().Perm())
		}
	}
}

func TestStage_LauncherMissing(t *testing.T) {
	env := testutil.SetupTestEnv(t, "")
	writeRawAssets(t, env.AssetsDir, linuxName)

	stager, _ := newTestStager(Capabilities{}, nil)
	_, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
	if !errors.Is(err, ErrLauncherMissing) {
		t.Fatalf("expected ErrLauncherMissing, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(env.BinDir, linuxName)); !os.IsNotExist(err) {
		t.Errorf("nothing should be staged before the launcher check passes")
	}
}

func TestStage_PartialWarnsAboutMissing(t *testing.T) {
	env := testutil.SetupTestEnv(t, testLauncher)
	writeRawAssets(t, env.AssetsDir, linuxName)
	testutil.WriteGzip(t, filepath.Join(env.AssetsDir, "mcp-getweb-aarch64-apple-darwin.gz"), "ELF")

	logger := &testutil.RecordingLogger{}
	stager, fake := newTestStager(Capabilities{Tar: true}, logger)

	manifest, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if !reflect.DeepEqual(manifest.Staged, []string{linuxName}) {
		t.Errorf("Staged = %v, want [%s]", manifest.Staged, linuxName)
	}
	if len(fake.Calls) != 0 {
		t.Errorf("gunzip should not run without the capability, calls = %v", fake.Commands())
	}
	if len(manifest.Missing()) != 4 {
		t.Errorf("Missing() = %v, want 4 targets", manifest.Missing())
	}
	if !logger.HasWarning("no gzip tool") {
		t.Errorf("expected extraction warning, got %v", logger.Warnings())
	}
	if !logger.HasWarning("mcp-getweb-aarch64-apple-darwin") || !logger.HasWarning("targets not staged") {
		t.Errorf("expected missing-target warning, got %v", logger.Warnings())
	}
}

func TestStage_NothingStaged(t *testing.T) {
	env := testutil.SetupTestEnv(t, testLauncher)
	writeRawAssets(t, env.AssetsDir, "mcp-getweb-riscv64-unknown-linux-gnu", "checksums.txt")

	logger := &testutil.RecordingLogger{}
	stager, _ := newTestStager(Capabilities{}, logger)

	_, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
	if !errors.Is(err, ErrNoBinaries) {
		t.Fatalf("expected ErrNoBinaries, got %v", err)
	}
	if !logger.HasWarning("not a supported target") {
		t.Errorf("expected unsupported-target warning, got %v", logger.Warnings())
	}
}

func TestStage_Idempotent(t *testing.T) {
	env := testutil.SetupTestEnv(t, testLauncher)
	writeRawAssets(t, env.AssetsDir, linuxName, winName)
	stager, _ := newTestStager(Capabilities{}, nil)

	for i := 0; i < 2; i++ {
		manifest, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
		if err != nil {
			t.Fatalf("Stage() run %d error = %v", i+1, err)
		}
		if len(manifest.Staged) != 2 {
			t.Errorf("run %d staged %v", i+1, manifest.Staged)
		}
	}

	content, err := os.ReadFile(filepath.Join(env.BinDir, linuxName))
	if err != nil || string(content) != "binary:"+linuxName {
		t.Errorf("staged content = %q, %v", content, err)
	}
}

func TestStage_DuplicateSourcesRecordedOnce(t *testing.T) {
	env := testutil.SetupTestEnv(t, testLauncher)
	writeRawAssets(t, env.AssetsDir, linuxName)
	testutil.WriteFile(t, filepath.Join(env.AssetsDir, linuxName+".tar.gz"), "x", 0o644)

	fake := &testutil.FakeRunner{}
	fake.Handler = func(_ context.Context, cmd runner.Command) (*runner.Result, error) {
		if cmd.Args[0] == "-xzf" {
			outDir := cmd.Args[len(cmd.Args)-1]
			testutil.WriteFile(t, filepath.Join(outDir, linuxName), "from tarball", 0o644)
		}
		return &runner.Result{}, nil
	}
	extractor := NewExtractor(fake, Capabilities{Tar: true}, testPrefix, nil)
	stager := NewStager(extractor, testPrefix, testLauncher, nil)

	manifest, err := stager.Stage(context.Background(), env.AssetsDir, env.ScratchDir, env.BinDir)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if !reflect.DeepEqual(manifest.Staged, []string{linuxName}) {
		t.Errorf("Staged = %v", manifest.Staged)
	}
}

func TestManifest(t *testing.T) {
	m := &Manifest{Prefix: testPrefix}
	m.add(winName)
	m.add(linuxName)
	m.add(linuxName)

	if !reflect.DeepEqual(m.Staged, []string{winName, linuxName}) {
		t.Errorf("Staged = %v", m.Staged)
	}
	want := []string{
		"mcp-getweb-aarch64-apple-darwin",
		"mcp-getweb-aarch64-unknown-linux-musl",
		"mcp-getweb-x86_64-apple-darwin",
	}
	if got := m.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
	if !m.Has(winName) || m.Has("mcp-getweb") {
		t.Error("Has() mismatch")
	}
}

func TestMoveFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	testutil.WriteFile(t, src, "new", 0o644)
	testutil.WriteFile(t, dst, "old", 0o644)

	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile() error = %v", err)
	}
	if content, _ := os.ReadFile(dst); string(content) != "new" {
		t.Errorf("dst = %q", content)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("src should be gone")
	}
}
