package platform

import (
	"context"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	host *Host
	err  error
}

// NewMockDetector creates a mock detector with specified return values.
func NewMockDetector(host *Host, err error) Detector {
	return &MockDetector{host: host, err: err}
}

// Detect returns the pre-configured host and error.
func (m *MockDetector) Detect(ctx context.Context) (*Host, error) {
	return m.host, m.err
}

func TestRealDetector_Detect(t *testing.T) {
	detector := NewDetector()

	h, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if want := normalizePlatform(runtime.GOOS); h.Platform != want {
		t.Errorf("Platform = %v, want %v", h.Platform, want)
	}
	if h.Arch == "" {
		t.Error("Arch should not be empty")
	}
	if h.ArchRaw == "" || h.OSRaw == "" {
		t.Errorf("raw fields should be set: %+v", h)
	}
}

func TestRealDetector_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := NewDetector().Detect(ctx)
	// gopsutil may or may not consult the context before returning; either a
	// cancellation error or a usable host is acceptable, never both empty.
	if err == nil && h == nil {
		t.Fatal("Detect() returned neither host nor error")
	}
}

func TestMockDetector(t *testing.T) {
	want := NewHost("linux", "aarch64")
	got, err := NewMockDetector(want, nil).Detect(context.Background())
	if err != nil || got != want {
		t.Errorf("Detect() = %v, %v", got, err)
	}
}
