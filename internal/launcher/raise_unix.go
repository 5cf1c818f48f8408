//go:build !windows

package launcher

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// runtimeHandled are signals the Go runtime answers with a goroutine dump
// and exit status 2, or ignores, unless their default action is restored.
var runtimeHandled = map[syscall.Signal]bool{
	syscall.SIGABRT: true,
	syscall.SIGBUS:  true,
	syscall.SIGFPE:  true,
	syscall.SIGILL:  true,
	syscall.SIGPIPE: true,
	syscall.SIGQUIT: true,
	syscall.SIGSEGV: true,
	syscall.SIGSYS:  true,
	syscall.SIGTRAP: true,
}

// Raise terminates the process with sig, so the launcher's parent observes
// the same signal death as the child had. When the signal cannot be
// delivered with its default action, it exits with 128+signo.
func Raise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		os.Exit(1)
	}

	signal.Reset(s)
	if err := defaultAction(s); err == nil || !runtimeHandled[s] {
		_ = syscall.Kill(syscall.Getpid(), s)
		time.Sleep(time.Second)
	}
	os.Exit(128 + int(s))
}
