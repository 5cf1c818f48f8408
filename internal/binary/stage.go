package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/platform"
)

var (
	// ErrLauncherMissing is returned when the package bin directory has no
	// launcher entry.
	ErrLauncherMissing = errors.New("launcher entry missing")
	// ErrNoBinaries is returned when no asset produced a supported binary.
	ErrNoBinaries = errors.New("no binaries staged")
)

// Manifest lists the binaries staged by one run.
type Manifest struct {
	Prefix string
	Staged []string // canonical filenames, sorted
}

// Missing returns the supported target names that were not staged, sorted.
func (m *Manifest) Missing() []string {
	staged := make(map[string]bool, len(m.Staged))
	for _, name := range m.Staged {
		staged[name] = true
	}
	var missing []string
	for _, name := range platform.Names(m.Prefix) {
		if !staged[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Has reports whether name was staged.
func (m *Manifest) Has(name string) bool {
	for _, s := range m.Staged {
		if s == name {
			return true
		}
	}
	return false
}

func (m *Manifest) add(name string) {
	if m.Has(name) {
		return
	}
	m.Staged = append(m.Staged, name)
	sort.Strings(m.Staged)
}

// Stager moves extracted binaries into the package bin directory.
type Stager struct {
	extractor *Extractor
	prefix    string
	launcher  string
	logger    config.Logger
}

// NewStager creates a new stager
func NewStager(extractor *Extractor, prefix, launcher string, logger config.Logger) *Stager {
	return &Stager{
		extractor: extractor,
		prefix:    prefix,
		launcher:  launcher,
		logger:    config.OrNop(logger),
	}
}

// Stage extracts every prefix-matching asset in assetsDir and moves each
// supported binary into binDir, replacing any earlier copy. Each asset is
// unpacked in its own directory under scratchDir.
func (s *Stager) Stage(ctx context.Context, assetsDir, scratchDir, binDir string) (*Manifest, error) {
	launcherPath := filepath.Join(binDir, s.launcher)
	if info, err := os.Stat(launcherPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrLauncherMissing, launcherPath)
	}

	assets, err := ListAssets(assetsDir, s.prefix)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{Prefix: s.prefix}
	for _, asset := range WithPrefix(assets, s.prefix) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outDir, err := os.MkdirTemp(scratchDir, "asset-*")
		if err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}

		path := s.extractor.Extract(ctx, asset.Path, outDir)
		if path == "" {
			continue
		}

		name := filepath.Base(path)
		if _, ok := platform.ByBinaryName(s.prefix, name); !ok {
			s.logger.Warn("extracted binary is not a supported target", "asset", asset.Name, "binary", name)
			continue
		}

		dst := filepath.Join(binDir, name)
		if err := moveFile(path, dst); err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		if !platform.IsWindowsBinary(name) {
			if err := SetExecutable(dst); err != nil {
				return nil, fmt.Errorf("stage %s: %w", name, err)
			}
		}
		manifest.add(name)
		s.logger.Info("staged binary", "binary", name, "asset", asset.Name)
	}

	if missing := manifest.Missing(); len(missing) > 0 {
		s.logger.Warn("targets not staged", "missing", strings.Join(missing, ", "))
	}
	if len(manifest.Staged) == 0 {
		return nil, ErrNoBinaries
	}
	return manifest, nil
}

// moveFile renames src over dst, copying when the rename crosses devices.
func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous %s: %w", filepath.Base(dst), err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return os.Remove(src)
}
