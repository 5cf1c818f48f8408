package launcher

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sigsetSize is the kernel sigset_t size rt_sigaction expects.
const sigsetSize = 8

// defaultAction installs SIG_DFL for sig, replacing the Go runtime handler.
// A zeroed kernel sigaction is SIG_DFL with no flags and an empty mask.
func defaultAction(sig syscall.Signal) error {
	var act [4]uint64
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION,
		uintptr(sig), uintptr(unsafe.Pointer(&act)), 0, sigsetSize, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
