package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// FakeRunner records commands instead of executing them.
type FakeRunner struct {
	mu    sync.Mutex
	Calls []runner.Command

	// Handler produces the result for a command. A nil Handler succeeds with
	// empty output.
	Handler func(ctx context.Context, cmd runner.Command) (*runner.Result, error)
}

// Run records cmd and delegates to Handler.
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return &runner.Result{}, nil
	}
	return handler(ctx, cmd)
}

// Commands returns the names of the recorded commands in call order.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		name := c.Name
		if len(c.Args) > 0 {
			name += " " + c.Args[0]
		}
		names = append(names, name)
	}
	return names
}

// Fail returns a result-and-error pair for a command that exited with code.
func Fail(cmd runner.Command, code int, output string) (*runner.Result, error) {
	return &runner.Result{ExitCode: code, Output: output},
		&runner.ExitError{Command: cmd.String(), ExitCode: code, Output: runner.TrimOutput(output)}
}

// LookPathFor returns a LookPathFunc that finds only the named programs.
func LookPathFor(available ...string) runner.LookPathFunc {
	set := make(map[string]bool, len(available))
	for _, name := range available {
		set[name] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
}
