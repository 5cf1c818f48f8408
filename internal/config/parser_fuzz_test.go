//go:build go1.18

package config

import (
	"context"
	"testing"
)

func FuzzParser_ParseString(f *testing.F) {
	f.Add(`npmship = { binary = "mcp-getweb" }`)
	f.Add(`npmship = { patterns = { "a-*", "b-*" } }`)
	f.Add(`npmship = "x"`)

	parser := NewParser()

	f.Fuzz(func(t *testing.T, luaCode string) {
		cfg, err := parser.ParseString(context.Background(), luaCode)
		if err == nil && cfg.Validate() != nil {
			t.Errorf("ParseString accepted invalid config %+v", cfg)
		}
	})
}
