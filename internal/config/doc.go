// Package config loads npmship's pipeline configuration and provides the
// logging interface shared by the pipeline stages.
//
// # Configuration file
//
// Configuration is an optional Lua file, npmship.lua by default, that assigns
// a global npmship table:
//
//	npmship = {
//	    binary       = "mcp-getweb",
//	    package_name = "@acme/mcp-getweb",
//	    package_dir  = "npm",
//	    launcher     = "mcp-getweb.js",
//	    output_dir   = "dist",
//	    patterns     = { "mcp-getweb-*" },
//	    access       = "public",
//	    checksums    = "SHA256SUMS",
//	    pgp_keyring  = "keys/release.asc",
//	    minisign_key = "keys/release.pub",
//	}
//
// Every field is optional; Defaults supplies the rest. The file is evaluated
// in a sandboxed gopher-lua VM with os, io, debug and the module loaders
// removed, so it can compute values with string/table/math but cannot touch
// the system.
//
// # Logging
//
// Stages accept a Logger. *slog.Logger satisfies it; NewLogger builds the text
// handler the CLI uses, and a nil Logger is replaced by a no-op.
package config
