// Package pipeline runs a release end to end: download the release assets,
// verify them, stage the binaries into the npm package, pack it, check the
// tarball and publish it.
//
// Stages run strictly in order and the first fatal error stops the run.
// Staged binaries are not rolled back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/npmship/internal/binary"
	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/npm"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
	"github.com/ZebulonRouseFrantzich/npmship/internal/transaction"
)

// Error kinds reported before any stage runs.
var (
	ErrInput       = errors.New("invalid input")
	ErrToolMissing = errors.New("required tool not found")
)

// RequiredTools must be on PATH before a run starts.
var RequiredTools = []string{"gh", "npm", "tar"}

// Options configures a pipeline run.
type Options struct {
	Repo    string // owner/name of the GitHub repository
	Version string // release tag, used verbatim
	DryRun  bool

	Config *config.Config

	// ScratchParent holds the run's scratch tree; empty means the system
	// temp directory.
	ScratchParent string

	Runner   runner.Runner       // defaults to runner.NewExecRunner()
	LookPath runner.LookPathFunc // defaults to runner.LookPath
	Logger   config.Logger
	Stdout   io.Writer // receives the publish summary; nil discards it
}

// Pipeline carries the state one run threads through its stages.
type Pipeline struct {
	opts     Options
	cfg      *config.Config
	runner   runner.Runner
	lookPath runner.LookPathFunc
	logger   config.Logger
	stdout   io.Writer

	packageDir string
	binDir     string
	outputDir  string
}

// New creates a pipeline for opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		opts:     opts,
		cfg:      opts.Config,
		runner:   opts.Runner,
		lookPath: opts.LookPath,
		logger:   config.OrNop(opts.Logger),
		stdout:   opts.Stdout,
	}
	if p.cfg == nil {
		p.cfg = config.Defaults()
	}
	if p.runner == nil {
		p.runner = runner.NewExecRunner()
	}
	if p.lookPath == nil {
		p.lookPath = runner.LookPath
	}
	if p.stdout == nil {
		p.stdout = io.Discard
	}
	return p
}

// Run executes the release. The returned record is non-nil once the run lock
// was taken, and is also written to the output directory.
func (p *Pipeline) Run(ctx context.Context) (*transaction.RunTxn, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := p.checkTools(); err != nil {
		return nil, err
	}
	caps := binary.Probe(p.lookPath, p.logger)

	lock, err := transaction.AcquireLock(ctx, p.outputDir)
	if err != nil {
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			p.logger.Warn("failed to release lock", "error", releaseErr)
		}
	}()
	p.logger.Debug("acquired release lock", "path", lock.Path())
	p.reportPreviousRun()

	ws, err := NewWorkspace(p.opts.ScratchParent)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil {
			p.logger.Warn("failed to remove scratch dir", "error", closeErr)
		}
	}()

	txn := transaction.New(p.opts.Repo, p.opts.Version, p.opts.DryRun)
	defer func() {
		if saveErr := txn.Save(p.outputDir); saveErr != nil {
			p.logger.Warn("failed to write run report", "error", saveErr)
			return
		}
		p.logger.Info("run report written",
			"path", filepath.Join(p.outputDir, transaction.ReportFile),
			"complete", txn.AllStagesCompleted())
	}()
	p.logger.Info("starting release", "run", txn.ID, "repo", p.opts.Repo, "tag", p.opts.Version, "dry_run", p.opts.DryRun)

	prefix := p.cfg.Binary

	err = p.stage(txn, transaction.StageFetch, func() error {
		fetcher := binary.NewFetcher(p.runner, p.logger)
		return fetcher.Fetch(ctx, binary.FetchRequest{
			Repo:     p.opts.Repo,
			Tag:      p.opts.Version,
			Dir:      ws.Assets,
			Patterns: p.cfg.DownloadPatterns(),
		})
	})
	if err != nil {
		return txn, err
	}

	err = p.stage(txn, transaction.StageVerify, func() error {
		assets, err := binary.ListAssets(ws.Assets, prefix)
		if err != nil {
			return err
		}
		verifier := binary.NewVerifier(binary.VerifyOptions{
			Checksums:   p.cfg.Checksums,
			PGPKeyring:  p.cfg.PGPKeyring,
			MinisignKey: p.cfg.MinisignKey,
		}, p.logger)
		result, err := verifier.Verify(ws.Assets, binary.WithPrefix(assets, prefix))
		if err != nil {
			return err
		}
		for _, m := range result.Methods {
			txn.Verification = append(txn.Verification, m.String())
		}
		txn.Unlisted = result.Unlisted
		return nil
	})
	if err != nil {
		return txn, err
	}

	var manifest *binary.Manifest
	err = p.stage(txn, transaction.StageStage, func() error {
		extractor := binary.NewExtractor(p.runner, caps, prefix, p.logger)
		stager := binary.NewStager(extractor, prefix, p.cfg.Launcher, p.logger)
		var err error
		manifest, err = stager.Stage(ctx, ws.Assets, ws.Extract, p.binDir)
		if err != nil {
			return err
		}
		txn.Staged = manifest.Staged
		txn.Missing = manifest.Missing()
		return nil
	})
	if err != nil {
		return txn, err
	}

	client := npm.NewClient(p.runner, p.logger)
	err = p.stage(txn, transaction.StagePack, func() error {
		archive, err := client.Pack(ctx, npm.PackRequest{
			PackageDir: p.packageDir,
			OutputDir:  p.outputDir,
			Name:       p.cfg.PackageName,
			Version:    p.opts.Version,
		})
		if err != nil {
			return err
		}
		txn.Archive = archive

		required := npm.RequiredEntries(config.BinSubdir, p.cfg.Launcher, manifest.Staged)
		entries, err := npm.Verify(archive, required)
		if err != nil {
			return err
		}
		txn.Entries = entries
		return nil
	})
	if err != nil {
		return txn, err
	}

	err = p.stage(txn, transaction.StagePublish, func() error {
		summary, err := client.Publish(ctx, npm.PublishRequest{
			Archive: txn.Archive,
			Dir:     p.outputDir,
			Access:  p.cfg.Access,
			DryRun:  p.opts.DryRun,
		})
		if err != nil {
			return err
		}
		txn.Summary = summary
		fmt.Fprintln(p.stdout, summary)
		return nil
	})
	if err != nil {
		return txn, err
	}

	return txn, nil
}

// reportPreviousRun warns when the report left in the output directory
// records a failed run.
func (p *Pipeline) reportPreviousRun() {
	prev, err := transaction.Load(filepath.Join(p.outputDir, transaction.ReportFile))
	if err != nil {
		return
	}
	if stage, failed := prev.FailedStage(); failed {
		p.logger.Warn("previous run failed", "run", prev.ID, "tag", prev.Tag, "stage", string(stage))
	}
}

// stage runs fn and records its outcome.
func (p *Pipeline) stage(txn *transaction.RunTxn, name transaction.Stage, fn func() error) error {
	p.logger.Debug("stage started", "stage", string(name))
	txn.UpdateStage(name, transaction.StateInProgress, nil)

	if err := fn(); err != nil {
		txn.UpdateStage(name, transaction.StateFailed, err)
		return err
	}

	txn.UpdateStage(name, transaction.StateCompleted, nil)
	p.logger.Debug("stage completed", "stage", string(name))
	return nil
}

// validate rejects bad input before anything touches the filesystem.
func (p *Pipeline) validate() error {
	repo := strings.TrimSpace(p.opts.Repo)
	if repo == "" {
		return fmt.Errorf("%w: --repo is required", ErrInput)
	}
	if owner, name, ok := strings.Cut(repo, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: --repo must be owner/name, got %q", ErrInput, repo)
	}
	if strings.TrimSpace(p.opts.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInput)
	}
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}

	var err error
	if p.packageDir, err = filepath.Abs(p.cfg.PackageDir); err != nil {
		return fmt.Errorf("%w: package dir: %w", ErrInput, err)
	}
	if p.outputDir, err = filepath.Abs(p.cfg.OutputDir); err != nil {
		return fmt.Errorf("%w: output dir: %w", ErrInput, err)
	}
	p.binDir = filepath.Join(p.packageDir, config.BinSubdir)
	return nil
}

// checkTools reports every missing required tool at once.
func (p *Pipeline) checkTools() error {
	var missing []string
	for _, tool := range RequiredTools {
		if _, err := p.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
	}
	return nil
}
