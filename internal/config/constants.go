package config

// Lua schema field names and globals
const (
	luaGlobalNpmship    = "npmship"
	luaFieldBinary      = "binary"
	luaFieldPackageName = "package_name"
	luaFieldPackageDir  = "package_dir"
	luaFieldLauncher    = "launcher"
	luaFieldOutputDir   = "output_dir"
	luaFieldPatterns    = "patterns"
	luaFieldAccess      = "access"
	luaFieldChecksums   = "checksums"
	luaFieldPGPKeyring  = "pgp_keyring"
	luaFieldMinisignKey = "minisign_key"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "npmship.lua"

// BinSubdir is the package subdirectory holding the launcher and binaries.
const BinSubdir = "bin"
