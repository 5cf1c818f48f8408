package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/pipeline"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// cliEnv holds what the command reaches outside the process for.
type cliEnv struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Runner   runner.Runner
	LookPath runner.LookPathFunc
}

func defaultEnv() cliEnv {
	return cliEnv{
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Runner:   runner.NewExecRunner(),
		LookPath: runner.LookPath,
	}
}

type releaseFlags struct {
	repo       string
	dryRun     bool
	packageDir string
	outputDir  string
	configFile string
	debug      bool
}

func newRootCmd(env cliEnv) *cobra.Command {
	var flags releaseFlags

	cmd := &cobra.Command{
		Use:   "npmship --repo <owner/name> <version>",
		Short: "Publish GitHub release binaries as an npm package",
		Long: `npmship downloads the prebuilt binaries attached to a GitHub release,
stages them into an npm package next to its launcher, packs the package,
checks the tarball and publishes it.`,
		Args:          exactVersionArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), env, flags, args[0])
		},
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	cmd.SetVersionTemplate("npmship {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&flags.repo, "repo", "", "GitHub repository holding the release (owner/name)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Run npm publish with --dry-run")
	f.StringVar(&flags.packageDir, "dir", "", "npm package directory (overrides config)")
	f.StringVar(&flags.outputDir, "out", "", "Directory receiving the packed tarball (overrides config)")
	f.StringVar(&flags.configFile, "config", "", "Lua config file (default "+config.DefaultFile+" if present)")
	f.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	return cmd
}

func exactVersionArg(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: version argument is required", pipeline.ErrInput)
	default:
		return fmt.Errorf("%w: expected exactly one version, got %d arguments", pipeline.ErrInput, len(args))
	}
}

func runRelease(ctx context.Context, env cliEnv, flags releaseFlags, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return err
	}

	logger := config.NewLogger(env.Stderr, flags.debug)
	txn, err := pipeline.New(pipeline.Options{
		Repo:     flags.repo,
		Version:  version,
		DryRun:   flags.dryRun,
		Config:   cfg,
		Runner:   env.Runner,
		LookPath: env.LookPath,
		Logger:   logger,
		Stdout:   env.Stdout,
	}).Run(ctx)
	if err != nil {
		return err
	}

	logger.Debug("release finished", "run", txn.ID, "archive", txn.Archive)
	return nil
}

// loadConfig reads the config file and applies flag overrides. An explicit
// --config must exist; the default file is optional.
func loadConfig(ctx context.Context, flags releaseFlags) (*config.Config, error) {
	path, required := config.DefaultFile, false
	if flags.configFile != "" {
		path, required = flags.configFile, true
	}

	cfg, err := config.NewParser().Load(ctx, path, required)
	if err != nil {
		var parseErr *config.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %s", pipeline.ErrInput, config.FormatError(err, flags.debug))
		}
		return nil, fmt.Errorf("%w: %w", pipeline.ErrInput, err)
	}

	if flags.packageDir != "" {
		cfg.PackageDir = flags.packageDir
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	return cfg, nil
}
