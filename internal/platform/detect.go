package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual host detection.
type RealDetector struct{}

// NewDetector creates a new host detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host platform and architecture.
//
// gopsutil supplies the kernel architecture; if it fails the process's own
// runtime.GOOS and runtime.GOARCH are used instead. A cancelled context is a
// hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Host, error) {
	osName, arch := runtime.GOOS, runtime.GOARCH

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("host detection cancelled: %w", ctx.Err())
		}
		return NewHost(osName, arch), nil
	}

	if info.OS != "" {
		osName = info.OS
	}
	if info.KernelArch != "" {
		arch = info.KernelArch
	}
	return NewHost(osName, arch), nil
}
