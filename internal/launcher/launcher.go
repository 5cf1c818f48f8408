// Package launcher picks the prebuilt binary for the current host from the
// package bin directory, runs it and mirrors how it exits.
//
// The dispatcher moves through Resolving, Spawned, Running and Exited.
// While the child runs, SIGINT, SIGTERM and SIGHUP are forwarded to it.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/platform"
)

// ForwardedSignals are relayed to the child while it runs.
var ForwardedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// Dispatcher resolves, starts and supervises the target binary.
type Dispatcher struct {
	Detector platform.Detector
	Spawner  Spawner
	Prefix   string // binary-name prefix
	BinDir   string // directory holding the staged binaries
	Stderr   io.Writer

	// Signals overrides signal registration, for tests. When nil, Run
	// subscribes to ForwardedSignals.
	Signals <-chan os.Signal

	m machine
}

// NewDispatcher creates a dispatcher for binaries under binDir.
func NewDispatcher(prefix, binDir string) *Dispatcher {
	return &Dispatcher{
		Detector: platform.NewDetector(),
		Spawner:  ExecSpawner{},
		Prefix:   prefix,
		BinDir:   binDir,
		Stderr:   os.Stderr,
	}
}

// BinDirFor returns the bin directory of the package a launcher lives in.
// The package root is the parent of the launcher's directory.
func BinDirFor(launcherPath string) string {
	root := filepath.Dir(filepath.Dir(launcherPath))
	return filepath.Join(root, config.BinSubdir)
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	return d.m.state
}

// Run takes the dispatcher from Resolving to Exited and returns how the
// launcher should terminate.
func (d *Dispatcher) Run(ctx context.Context, args []string) Outcome {
	d.m = machine{state: StateResolving}

	path, err := d.resolve(ctx)
	if err != nil {
		return d.fail(err)
	}

	// Signals that arrive during spawn are queued for the child.
	signals, stop := d.subscribe()
	defer stop()

	proc, err := d.Spawner.Start(path, args)
	if err != nil {
		return d.fail(err)
	}
	if err := d.m.transition(StateSpawned); err != nil {
		return d.fail(err)
	}

	done := make(chan struct{})
	defer close(done)
	go forward(proc, signals, done)

	if err := d.m.transition(StateRunning); err != nil {
		return d.fail(err)
	}

	outcome, err := proc.Wait()
	if err != nil {
		return d.fail(err)
	}
	if err := d.m.transition(StateExited); err != nil {
		return d.fail(err)
	}
	return outcome
}

// resolve maps the host to the staged binary path.
func (d *Dispatcher) resolve(ctx context.Context) (string, error) {
	host, err := d.Detector.Detect(ctx)
	if err != nil {
		return "", err
	}
	target, err := platform.Resolve(host.Platform, host.Arch)
	if err != nil {
		if host.OSRaw != "" || host.ArchRaw != "" {
			return "", fmt.Errorf("%w (reported as %s/%s)", err, host.OSRaw, host.ArchRaw)
		}
		return "", err
	}
	return filepath.Join(d.BinDir, target.BinaryName(d.Prefix)), nil
}

// fail reports err and moves to Exited with status 1.
func (d *Dispatcher) fail(err error) Outcome {
	fmt.Fprintf(d.Stderr, "%s: %v\n", d.Prefix, err)
	d.m.state = StateExited
	return Outcome{Code: 1}
}

func (d *Dispatcher) subscribe() (<-chan os.Signal, func()) {
	if d.Signals != nil {
		return d.Signals, func() {}
	}
	ch := make(chan os.Signal, len(ForwardedSignals))
	signal.Notify(ch, ForwardedSignals...)
	return ch, func() { signal.Stop(ch) }
}

// forward relays signals to proc until done closes. Delivery errors are
// ignored: the child may already be gone.
func forward(proc Process, signals <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case sig := <-signals:
			_ = proc.Signal(sig)
		case <-done:
			return
		}
	}
}

// Exit terminates the launcher per outcome: re-raising the child's signal
// when it had one, exiting with its code otherwise.
func Exit(outcome Outcome, raise func(os.Signal), exit func(int)) {
	if outcome.Signal != nil {
		raise(outcome.Signal)
		return
	}
	exit(outcome.Code)
}
