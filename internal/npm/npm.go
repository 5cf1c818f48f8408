// Package npm packs and publishes the distribution package through the npm
// CLI, and checks the packed tarball holds every staged binary.
package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// Error types for the pack and publish stages
var (
	ErrPack      = errors.New("npm pack failed")
	ErrIntegrity = errors.New("package archive is missing entries")
	ErrPublish   = errors.New("npm publish failed")
)

// ciVariable is stripped from the publish environment.
const ciVariable = "CI"

// PackRequest configures Pack.
type PackRequest struct {
	PackageDir string // directory holding package.json
	OutputDir  string // destination of the versioned artifact
	Name       string // package name, possibly scoped
	Version    string // requested version; a leading "v" is dropped
}

// PublishRequest configures Publish.
type PublishRequest struct {
	Archive string // artifact path
	Dir     string // working directory, the pipeline output directory
	Access  string // npm --access value, optional
	DryRun  bool
}

// Client runs npm through a runner.Runner.
type Client struct {
	runner runner.Runner
	bin    string
	logger config.Logger
}

// NewClient creates a new npm client.
func NewClient(r runner.Runner, logger config.Logger) *Client {
	return &Client{runner: r, bin: "npm", logger: config.OrNop(logger)}
}

// Pack runs npm pack once in the package directory and moves the produced
// tarball to OutputDir under its versioned name, replacing any earlier one.
func (c *Client) Pack(ctx context.Context, req PackRequest) (string, error) {
	res, err := c.runner.Run(ctx, runner.Command{Name: c.bin, Args: []string{"pack"}, Dir: req.PackageDir})
	if err != nil {
		return "", translateError(ErrPack, err)
	}

	produced := res.LastLine()
	if produced == "" {
		return "", fmt.Errorf("%w: no artifact name in output", ErrPack)
	}
	if !filepath.IsAbs(produced) {
		produced = filepath.Join(req.PackageDir, produced)
	}

	if err := os.MkdirAll(req.OutputDir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(req.OutputDir, ArtifactName(req.Name, req.Version))
	if err := moveFile(produced, dst); err != nil {
		return "", fmt.Errorf("%w: move artifact: %w", ErrPack, err)
	}

	c.logger.Info("packed package", "archive", dst)
	return dst, nil
}

// ArtifactName returns "<name>-<version>.tgz" in npm's tarball naming: a
// scope "@a/b" becomes "a-b".
func ArtifactName(name, version string) string {
	name = strings.TrimPrefix(name, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return fmt.Sprintf("%s-%s.tgz", name, strings.TrimPrefix(version, "v"))
}

// PublishCommand builds the npm publish invocation for req.
func (c *Client) PublishCommand(req PublishRequest) runner.Command {
	args := []string{"publish"}
	if req.DryRun {
		args = append(args, "--dry-run")
	}
	if req.Access != "" {
		args = append(args, "--access", req.Access)
	}
	args = append(args, req.Archive)
	return runner.Command{Name: c.bin, Args: args, Dir: req.Dir, Unset: []string{ciVariable}}
}

// Publish runs npm publish exactly once and returns a one-line summary.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (string, error) {
	cmd := c.PublishCommand(req)
	c.logger.Debug("publishing", "command", cmd.String())
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return "", translateError(ErrPublish, err)
	}

	summary := "published " + filepath.Base(req.Archive)
	if req.DryRun {
		summary += " (dry run)"
	}
	return summary, nil
}

// translateError attaches the tool status to a stage sentinel.
func translateError(sentinel, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: operation cancelled: %w", sentinel, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: operation timed out: %w", sentinel, context.DeadlineExceeded)
	}

	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: exit status %d: %s", sentinel, exitErr.ExitCode, exitErr.Output)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// moveFile renames src over dst, copying when the rename crosses devices.
func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
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
	return os.Remove(src)
}
