package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden", "k", "v")
	quiet.Warn("asset skipped", "asset", "mcp-getweb-x.zip")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug record emitted without debug: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "asset=mcp-getweb-x.zip") {
		t.Errorf("warn record missing key/value: %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug record missing: %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if l == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l.Info("ignored", "k", 1)

	var buf bytes.Buffer
	real := NewLogger(&buf, false)
	if OrNop(real) != Logger(real) {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
}
