package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates npmship Lua configuration.
type Parser struct{}

// NewParser creates a new config parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Load reads the configuration at path. When path does not exist and
// required is false, Defaults is returned.
func (p *Parser) Load(ctx context.Context, path string, required bool) (*Config, error) {
	// #nosec G304 -- path is the operator's config file
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string. Fields the script does not
// set keep their default values.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// extractConfig reads the global npmship table out of the Lua state.
func extractConfig(L *lua.LState) (*Config, error) {
	cfg := Defaults()

	global := L.GetGlobal(luaGlobalNpmship)
	switch global.Type() {
	case lua.LTNil:
		return cfg, nil
	case lua.LTTable:
	default:
		return nil, &ParseError{
			Message: "invalid 'npmship' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}
	table := global.(*lua.LTable)

	strFields := []struct {
		name string
		dst  *string
	}{
		{luaFieldBinary, &cfg.Binary},
		{luaFieldPackageName, &cfg.PackageName},
		{luaFieldPackageDir, &cfg.PackageDir},
		{luaFieldLauncher, &cfg.Launcher},
		{luaFieldOutputDir, &cfg.OutputDir},
		{luaFieldAccess, &cfg.Access},
		{luaFieldChecksums, &cfg.Checksums},
		{luaFieldPGPKeyring, &cfg.PGPKeyring},
		{luaFieldMinisignKey, &cfg.MinisignKey},
	}
	set := make(map[string]bool, len(strFields))
	for _, f := range strFields {
		ok, err := stringField(table, f.name, f.dst)
		if err != nil {
			return nil, err
		}
		set[f.name] = ok
	}

	// Names derived from the binary prefix follow a renamed binary.
	if set[luaFieldBinary] {
		if !set[luaFieldPackageName] {
			cfg.PackageName = cfg.Binary
		}
		if !set[luaFieldLauncher] {
			cfg.Launcher = cfg.Binary + ".js"
		}
	}

	patterns, ok, err := stringList(table, luaFieldPatterns)
	if err != nil {
		return nil, err
	}
	switch {
	case ok:
		cfg.Patterns = patterns
	case set[luaFieldBinary]:
		cfg.Patterns = []string{cfg.Binary + "-*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return cfg, nil
}

// stringField copies a string field into dst. Absent fields leave dst alone.
func stringField(table *lua.LTable, name string, dst *string) (bool, error) {
	val := table.RawGetString(name)
	switch val.Type() {
	case lua.LTNil:
		return false, nil
	case lua.LTString:
		*dst = strings.TrimSpace(val.String())
		return true, nil
	default:
		return false, &ParseError{
			Message: fmt.Sprintf("invalid field '%s'", name),
			Detail:  fmt.Sprintf("expected string, got %s", val.Type()),
		}
	}
}

// stringList reads an array of strings. A bare string is accepted as a
// single-element list.
func stringList(table *lua.LTable, name string) ([]string, bool, error) {
	val := table.RawGetString(name)
	switch val.Type() {
	case lua.LTNil:
		return nil, false, nil
	case lua.LTString:
		return []string{val.String()}, true, nil
	case lua.LTTable:
	default:
		return nil, false, &ParseError{
			Message: fmt.Sprintf("invalid field '%s'", name),
			Detail:  fmt.Sprintf("expected list of strings, got %s", val.Type()),
		}
	}

	var out []string
	list := val.(*lua.LTable)
	for i := 1; i <= list.Len(); i++ {
		item := list.RawGetInt(i)
		if item.Type() != lua.LTString {
			return nil, false, &ParseError{
				Message: fmt.Sprintf("invalid field '%s'", name),
				Detail:  fmt.Sprintf("entry %d: expected string, got %s", i, item.Type()),
			}
		}
		out = append(out, item.String())
	}
	return out, true, nil
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
