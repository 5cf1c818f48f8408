package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM configures a Lua VM to run in a restricted sandbox.
// This disables functions that could:
// - Execute system commands (os.execute, os.exit)
// - Access the filesystem (io.open, io.popen)
// - Load external code (require, dofile, loadfile, load, loadstring)
// - Reach past the sandbox (debug, metatables, collectgarbage)
//
// string, table and math are preserved.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os",
		"io",
		"require",
		"module",
		"package",
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"debug",
		"getmetatable",
		"setmetatable",
		"rawget",
		"rawset",
		"rawequal",
		"getfenv",
		"setfenv",
		"collectgarbage",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a new Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
