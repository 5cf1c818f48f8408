package platform

import "strings"

// platformNames maps OS identifiers onto Resolve's platform vocabulary.
var platformNames = map[string]string{
	"darwin":  PlatformMac,
	"macos":   PlatformMac,
	"linux":   PlatformLinux,
	"windows": PlatformWindows,
	"win32":   PlatformWindows,
}

// archNames maps GOARCH and kernel architecture values onto Resolve's
// architecture vocabulary.
var archNames = map[string]string{
	"amd64":   ArchX64,
	"x86_64":  ArchX64,
	"x64":     ArchX64,
	"arm64":   ArchARM64,
	"aarch64": ArchARM64,
}

// normalizePlatform maps an OS name to a platform name. Unknown names pass
// through lowercased so the error message still names them.
func normalizePlatform(os string) string {
	key := strings.ToLower(strings.TrimSpace(os))
	if name, ok := platformNames[key]; ok {
		return name
	}
	return key
}

// normalizeArch maps an architecture name. Unknown names pass through lowercased.
func normalizeArch(arch string) string {
	key := strings.ToLower(strings.TrimSpace(arch))
	if name, ok := archNames[key]; ok {
		return name
	}
	return key
}

// NewHost builds a normalized Host from raw OS and architecture values.
func NewHost(os, arch string) *Host {
	return &Host{
		Platform: normalizePlatform(os),
		Arch:     normalizeArch(arch),
		OSRaw:    os,
		ArchRaw:  arch,
	}
}
