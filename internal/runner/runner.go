// Package runner executes external tools described by typed Command values.
//
// Every external call npmship makes (gh, npm, tar, gunzip, unzip) goes through
// a Runner so exit status and output are captured the same way for error
// reporting, and so tests can substitute a fake.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
)

// maxOutput caps the amount of tool output carried in an error message.
const maxOutput = 2048

// Command describes a single external process invocation.
type Command struct {
	Name  string            // program name, resolved through PATH
	Args  []string          // arguments, not including Name
	Dir   string            // working directory override (empty = current)
	Env   map[string]string // variables set on top of the inherited environment
	Unset []string          // variables removed from the inherited environment
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the captured outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Output   string // stdout and stderr interleaved
}

// LastLine returns the final non-empty line of stdout.
func (r *Result) LastLine() string {
	lines := strings.Split(strings.TrimSpace(r.Stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, e.Output)
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// LookPathFunc reports where a program lives on PATH.
type LookPathFunc func(name string) (string, error)

// LookPath is the production LookPathFunc.
var LookPath LookPathFunc = exec.LookPath

// ExecRunner runs commands as real child processes.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it to finish. A non-zero exit yields both
// the Result and an *ExitError.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("command name is empty")
	}

	// #nosec G204 -- commands are constructed by npmship, not from user shell input
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = BuildEnv(os.Environ(), cmd.Env, cmd.Unset)

	var stdout bytes.Buffer
	combined := &lockedBuffer{}
	c.Stdout = io.MultiWriter(&stdout, combined)
	c.Stderr = combined

	err := c.Run()
	result := &Result{
		Stdout: stdout.String(),
		Output: combined.String(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{
			Command:  cmd.String(),
			ExitCode: result.ExitCode,
			Output:   TrimOutput(result.Output),
		}
	}
	return nil, fmt.Errorf("start %s: %w", cmd.Name, err)
}

// BuildEnv layers overrides onto base after dropping the unset names.
// The result is sorted by key so invocations are reproducible.
func BuildEnv(base []string, overrides map[string]string, unset []string) []string {
	drop := make(map[string]bool, len(unset)+len(overrides))
	for _, name := range unset {
		drop[name] = true
	}
	for name := range overrides {
		drop[name] = true
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if drop[name] {
			continue
		}
		env = append(env, kv)
	}
	for name, value := range overrides {
		env = append(env, name+"="+value)
	}
	sort.Strings(env)
	return env
}

// TrimOutput normalizes tool output for inclusion in an error message.
func TrimOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxOutput {
		return clean[:maxOutput] + "..."
	}
	return clean
}

// lockedBuffer is written from both the stdout and stderr copy goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
