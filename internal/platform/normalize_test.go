package platform

import (
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"amd64", "amd64", ArchX64},
		{"x86_64", "x86_64", ArchX64},
		{"x64", "x64", ArchX64},
		{"arm64", "arm64", ArchARM64},
		{"aarch64", "aarch64", ArchARM64},
		{"uppercase", "AARCH64", ArchARM64},
		{"i386 passes through", "i386", "i386"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeArch(tt.input); got != tt.want {
				t.Errorf("normalizeArch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"darwin", PlatformMac},
		{"linux", PlatformLinux},
		{"windows", PlatformWindows},
		{"Windows", PlatformWindows},
		{"  linux  ", PlatformLinux},
		{"freebsd", "freebsd"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizePlatform(tt.input); got != tt.want {
				t.Errorf("normalizePlatform(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewHost(t *testing.T) {
	h := NewHost("darwin", "arm64")
	if h.Platform != PlatformMac || h.Arch != ArchARM64 {
		t.Errorf("NewHost = %+v", h)
	}
	if h.OSRaw != "darwin" || h.ArchRaw != "arm64" {
		t.Errorf("raw values not kept: %+v", h)
	}
}
