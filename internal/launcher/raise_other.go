//go:build !linux && !windows

package launcher

import (
	"errors"
	"syscall"
)

func defaultAction(syscall.Signal) error {
	return errors.New("restoring the default signal action is not supported on this platform")
}
