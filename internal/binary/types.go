package binary

import (
	"strings"
)

// Format is the encoding a release asset is delivered in.
type Format int

const (
	// FormatUnknown is an asset npmship does not know how to unpack.
	FormatUnknown Format = iota
	// FormatRaw is a bare executable.
	FormatRaw
	// FormatGzip is a single gzip-compressed file.
	FormatGzip
	// FormatTarGz is a gzip-compressed tarball.
	FormatTarGz
	// FormatZip is a zip archive.
	FormatZip
)

// Archive suffixes recognized by DetectFormat.
const (
	SuffixGzip  = ".gz"
	SuffixTarGz = ".tar.gz"
	SuffixTgz   = ".tgz"
	SuffixZip   = ".zip"
	SuffixExe   = ".exe"
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatGzip:
		return "gzip"
	case FormatTarGz:
		return "tar.gz"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}

// Asset is a downloaded release file.
type Asset struct {
	Name   string
	Path   string
	Format Format
}

// DetectFormat infers an asset's format from its filename. A name without an
// archive suffix is raw when it starts with prefix or ends in .exe.
func DetectFormat(name, prefix string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, SuffixTarGz), strings.HasSuffix(lower, SuffixTgz):
		return FormatTarGz
	case strings.HasSuffix(lower, SuffixZip):
		return FormatZip
	case strings.HasSuffix(lower, SuffixGzip):
		return FormatGzip
	case strings.HasPrefix(name, prefix), strings.HasSuffix(lower, SuffixExe):
		return FormatRaw
	default:
		return FormatUnknown
	}
}

// BaseName strips the archive suffix of format from name.
func BaseName(name string, format Format) string {
	lower := strings.ToLower(name)
	var suffix string
	switch format {
	case FormatTarGz:
		suffix = SuffixTarGz
		if !strings.HasSuffix(lower, suffix) {
			suffix = SuffixTgz
		}
	case FormatZip:
		suffix = SuffixZip
	case FormatGzip:
		suffix = SuffixGzip
	}
	return name[:len(name)-len(suffix)]
}
