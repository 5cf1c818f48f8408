package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Outcome is how the child ended. Signal is set when the child was killed by
// a signal; otherwise Code is the exit status.
type Outcome struct {
	Code   int
	Signal os.Signal
}

// Process is a started child.
type Process interface {
	Signal(sig os.Signal) error
	Wait() (Outcome, error)
}

// Spawner starts the target binary.
type Spawner interface {
	Start(path string, args []string) (Process, error)
}

// ExecSpawner starts children with the launcher's stdin, stdout and stderr.
type ExecSpawner struct{}

// Start starts path with args.
func (ExecSpawner) Start(path string, args []string) (Process, error) {
	// #nosec G204 -- path is resolved from the fixed target table
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// Wait reports the child's exit. A non-zero exit is an Outcome, not an error.
func (p *execProcess) Wait() (Outcome, error) {
	err := p.cmd.Wait()
	if p.cmd.ProcessState == nil {
		return Outcome{Code: 1}, err
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Outcome{Code: 1}, err
	}
	return exitOutcome(p.cmd.ProcessState), nil
}

// exitOutcome reads the termination reason out of a finished process.
func exitOutcome(state *os.ProcessState) Outcome {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return Outcome{Signal: status.Signal()}
	}
	code := state.ExitCode()
	if code < 0 {
		code = 1
	}
	return Outcome{Code: code}
}
