package sysinfo

import (
	"runtime"
	"testing"
)

func TestCollect(t *testing.T) {
	info, err := Collect()
	if err != nil {
		t.Fatalf("Failed to collect system info: %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS mismatch: expected %s, got %s", runtime.GOOS, info.OS)
	}

	if info.Architecture != runtime.GOARCH {
		t.Errorf("Architecture mismatch: expected %s, got %s", runtime.GOARCH, info.Architecture)
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("Go version mismatch: expected %s, got %s", runtime.Version(), info.GoVersion)
	}

	if info.CPUCores == 0 {
		t.Error("CPUCores should not be 0")
	}

	if info.HardwareThreads == 0 {
		t.Error("HardwareThreads should not be 0")
	}

	if info.GOMAXPROCS != runtime.GOMAXPROCS(0) {
		t.Errorf("GOMAXPROCS mismatch: expected %d, got %d", runtime.GOMAXPROCS(0), info.GOMAXPROCS)
	}

	if info.AvailableMemory > info.TotalMemory {
		t.Errorf("Available memory %d exceeds total %d", info.AvailableMemory, info.TotalMemory)
	}
}

func TestHardwareThreads(t *testing.T) {
	if n := HardwareThreads(); n < 1 {
		t.Errorf("Expected at least 1 hardware thread, got %d", n)
	}
}
