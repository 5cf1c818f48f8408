package binary

import (
	"github.com/ZebulonRouseFrantzich/npmship/internal/config"
	"github.com/ZebulonRouseFrantzich/npmship/internal/runner"
)

// Capabilities records which extraction tools are on PATH. It is probed once
// per run and handed to the Extractor.
type Capabilities struct {
	Tar    bool
	Gunzip bool
	Unzip  bool
}

// Probe checks for tar, gunzip and unzip. Each missing tool is logged as a
// warning naming the asset format it disables.
func Probe(lookPath runner.LookPathFunc, logger config.Logger) Capabilities {
	logger = config.OrNop(logger)
	has := func(name, format string) bool {
		if _, err := lookPath(name); err != nil {
			logger.Warn("extraction tool not found", "tool", name, "skips", format)
			return false
		}
		return true
	}
	return Capabilities{
		Tar:    has("tar", SuffixTarGz),
		Gunzip: has("gunzip", SuffixGzip),
		Unzip:  has("unzip", SuffixZip),
	}
}

// Supports reports whether assets in format can be extracted.
func (c Capabilities) Supports(format Format) bool {
	switch format {
	case FormatRaw:
		return true
	case FormatGzip:
		return c.Gunzip
	case FormatTarGz:
		return c.Tar
	case FormatZip:
		return c.Unzip
	default:
		return false
	}
}
