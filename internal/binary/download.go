package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// ErrDownload is returned when the download tool exits non-zero.
var ErrDownload = errors.New("download failed")

// FetchRequest identifies the release assets to download.
type FetchRequest struct {
	Repo     string   // owner/name
	Tag      string   // release tag, the requested version verbatim
	Dir      string   // destination directory
	Patterns []string // asset filename globs
}

// Fetcher downloads release assets through the gh CLI.
type Fetcher struct {
	runner runner.Runner
	logger config.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(r runner.Runner, logger config.Logger) *Fetcher {
	return &Fetcher{runner: r, logger: config.OrNop(logger)}
}

// Command builds the gh invocation for req.
func (f *Fetcher) Command(req FetchRequest) runner.Command {
	args := []string{"release", "download", req.Tag, "--repo", req.Repo, "--dir", req.Dir}
	for _, p := range req.Patterns {
		args = append(args, "--pattern", p)
	}
	args = append(args, "--clobber")
	return runner.Command{Name: "gh", Args: args}
}

// Fetch runs the download tool exactly once. It does not check how many
// files arrived or what they contain.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest) error {
	if req.Repo == "" || req.Tag == "" {
		return fmt.Errorf("%w: repository and tag are required", ErrDownload)
	}
	if err := os.MkdirAll(req.Dir, 0o750); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	start := time.Now()
	cmd := f.Command(req)
	f.logger.Debug("downloading release assets", "command", cmd.String())
	if _, err := f.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s@%s: %w", ErrDownload, req.Repo, req.Tag, err)
	}
	f.logger.Info("downloaded release assets", "repo", req.Repo, "tag", req.Tag,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// ListAssets classifies the regular files in dir, sorted by name.
func ListAssets(dir, prefix string) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read assets dir: %w", err)
	}

	var assets []Asset
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		assets = append(assets, Asset{
			Name:   name,
			Path:   filepath.Join(dir, name),
			Format: DetectFormat(name, prefix),
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// WithPrefix returns the assets whose filename starts with prefix.
func WithPrefix(assets []Asset, prefix string) []Asset {
	var out []Asset
	for _, a := range assets {
		if strings.HasPrefix(a.Name, prefix) {
			out = append(out, a)
		}
	}
	return out
}
