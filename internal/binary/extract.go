package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// errFound stops the recursive binary search.
var errFound = errors.New("found")

// Extractor produces one binary from one release asset. It never fails the
// run: every problem is logged as a warning and yields an empty path.
type Extractor struct {
	runner runner.Runner
	caps   Capabilities
	prefix string
	logger config.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(r runner.Runner, caps Capabilities, prefix string, logger config.Logger) *Extractor {
	return &Extractor{runner: r, caps: caps, prefix: prefix, logger: config.OrNop(logger)}
}

// Extract unpacks assetPath into outDir and returns the produced binary, or
// "" when the asset yields nothing.
func (e *Extractor) Extract(ctx context.Context, assetPath, outDir string) string {
	name := filepath.Base(assetPath)
	format := DetectFormat(name, e.prefix)

	if format == FormatUnknown {
		e.warn(name, "unrecognized asset format")
		return ""
	}
	if !e.caps.Supports(format) {
		e.warn(name, fmt.Sprintf("no %s tool available", format))
		return ""
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		e.warn(name, err.Error())
		return ""
	}

	var (
		path string
		err  error
	)
	switch format {
	case FormatRaw:
		path, err = e.extractRaw(assetPath, outDir)
	case FormatGzip:
		path, err = e.extractGzip(ctx, assetPath, outDir)
	case FormatTarGz:
		path, err = e.extractTarGz(ctx, assetPath, outDir)
	case FormatZip:
		path, err = e.extractZip(ctx, assetPath, outDir)
	}
	if err != nil {
		e.warn(name, err.Error())
		return ""
	}

	e.logger.Debug("extracted asset", "asset", name, "format", format.String(), "binary", filepath.Base(path))
	return path
}

// extractRaw copies a bare executable under its own name.
func (e *Extractor) extractRaw(assetPath, outDir string) (string, error) {
	dst := filepath.Join(outDir, filepath.Base(assetPath))
	if err := copyFile(assetPath, dst); err != nil {
		return "", fmt.Errorf("copy raw binary: %w", err)
	}
	return dst, nil
}

// extractGzip decompresses a copy of the asset in outDir, leaving the
// download untouched.
func (e *Extractor) extractGzip(ctx context.Context, assetPath, outDir string) (string, error) {
	name := filepath.Base(assetPath)
	compressed := filepath.Join(outDir, name)
	if err := copyFile(assetPath, compressed); err != nil {
		return "", fmt.Errorf("stage compressed asset: %w", err)
	}

	if _, err := e.runner.Run(ctx, runner.Command{Name: "gunzip", Args: []string{"-f", compressed}}); err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}

	out := filepath.Join(outDir, BaseName(name, FormatGzip))
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("decompressed file missing: %w", err)
	}
	return out, nil
}

// extractTarGz checks the tarball lists cleanly before unpacking it.
func (e *Extractor) extractTarGz(ctx context.Context, assetPath, outDir string) (string, error) {
	if _, err := e.runner.Run(ctx, runner.Command{Name: "tar", Args: []string{"-tzf", assetPath}}); err != nil {
		return "", fmt.Errorf("archive is not listable: %w", err)
	}
	if _, err := e.runner.Run(ctx, runner.Command{Name: "tar", Args: []string{"-xzf", assetPath, "-C", outDir}}); err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}
	return findBinary(outDir, BaseName(filepath.Base(assetPath), FormatTarGz))
}

func (e *Extractor) extractZip(ctx context.Context, assetPath, outDir string) (string, error) {
	if _, err := e.runner.Run(ctx, runner.Command{Name: "unzip", Args: []string{"-o", "-q", assetPath, "-d", outDir}}); err != nil {
		return "", fmt.Errorf("unpack: %w", err)
	}
	return findBinary(outDir, BaseName(filepath.Base(assetPath), FormatZip))
}

func (e *Extractor) warn(asset, reason string) {
	e.logger.Warn("extraction skipped", "asset", asset, "reason", reason)
}

// findBinary looks for base (or base.exe) at the top of dir, then anywhere
// below it.
func findBinary(dir, base string) (string, error) {
	candidates := []string{base}
	if !strings.HasSuffix(base, SuffixExe) {
		candidates = append(candidates, base+SuffixExe)
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		for _, name := range candidates {
			if d.Name() == name {
				found = path
				return errFound
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("search extracted files: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("%s not found in archive", base)
	}
	return found, nil
}

// copyFile copies src to dst, keeping the mode and modification time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// OpenFile applies the umask; restore the source mode explicitly.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// SetExecutable sets executable permissions on a file
func SetExecutable(path string) error {
	// Set permissions to 0755 (rwxr-xr-x)
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
