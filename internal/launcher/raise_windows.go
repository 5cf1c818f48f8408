//go:build windows

package launcher

import "os"

// Raise exits 1; Windows has no way to re-deliver the child's signal.
func Raise(os.Signal) {
	os.Exit(1)
}
