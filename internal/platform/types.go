// Package platform defines the fixed set of release targets npmship packages
// and maps an end-user host onto one of them.
//
// Host detection reads the kernel architecture through gopsutil, with
// runtime.GOOS/GOARCH as the fallback.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Host platform names understood by Resolve.
const (
	PlatformMac     = "mac"
	PlatformLinux   = "linux"
	PlatformWindows = "windows"
)

// Host architecture names understood by Resolve.
const (
	ArchX64   = "x64"
	ArchARM64 = "arm64"
)

// ExeSuffix is appended to Windows binary names.
const ExeSuffix = ".exe"

// ErrUnsupportedPlatform is returned when no target exists for a host.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Target is one of the prebuilt binaries a release ships.
type Target struct {
	ID      string // package-manager style id, e.g. "darwin-arm64"
	Triple  string // target triple, e.g. "aarch64-apple-darwin"
	Windows bool   // binary carries the .exe suffix
}

// BinaryName returns the canonical staged filename for the target.
func (t Target) BinaryName(prefix string) string {
	name := prefix + "-" + t.Triple
	if t.Windows {
		name += ExeSuffix
	}
	return name
}

// Targets is the complete set of supported targets.
var Targets = []Target{
	{ID: "darwin-arm64", Triple: "aarch64-apple-darwin"},
	{ID: "darwin-x64", Triple: "x86_64-apple-darwin"},
	{ID: "linux-arm64", Triple: "aarch64-unknown-linux-musl"},
	{ID: "linux-x64", Triple: "x86_64-unknown-linux-musl"},
	{ID: "win32-x64", Triple: "x86_64-pc-windows-msvc", Windows: true},
}

type hostKey struct {
	platform string
	arch     string
}

// hostTargets is the dispatch table from normalized host facts to a target.
var hostTargets = map[hostKey]string{
	{PlatformMac, ArchARM64}:   "aarch64-apple-darwin",
	{PlatformMac, ArchX64}:     "x86_64-apple-darwin",
	{PlatformLinux, ArchARM64}: "aarch64-unknown-linux-musl",
	{PlatformLinux, ArchX64}:   "x86_64-unknown-linux-musl",
	{PlatformWindows, ArchX64}: "x86_64-pc-windows-msvc",
}

// Resolve maps a host platform and architecture to its target.
func Resolve(platform, arch string) (Target, error) {
	triple, ok := hostTargets[hostKey{platform, arch}]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedPlatform, platform, arch)
	}
	for _, t := range Targets {
		if t.Triple == triple {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedPlatform, platform, arch)
}

// Names returns the canonical binary filename of every target, in table order.
func Names(prefix string) []string {
	names := make([]string, 0, len(Targets))
	for _, t := range Targets {
		names = append(names, t.BinaryName(prefix))
	}
	return names
}

// ByBinaryName finds the target whose canonical filename is exactly name.
func ByBinaryName(prefix, name string) (Target, bool) {
	for _, t := range Targets {
		if t.BinaryName(prefix) == name {
			return t, true
		}
	}
	return Target{}, false
}

// IsWindowsBinary reports whether a filename denotes a Windows executable.
func IsWindowsBinary(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ExeSuffix)
}

// Host describes the machine the launcher runs on, in Resolve's vocabulary.
type Host struct {
	Platform string // "mac", "linux", "windows", or the raw OS name
	Arch     string // "x64", "arm64", or the raw architecture name
	OSRaw    string // original GOOS / gopsutil OS value
	ArchRaw  string // original kernel architecture value
}

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) (*Host, error)
}
