package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/user/kdfbench/internal/benchmark"
	"github.com/user/kdfbench/pkg/sysinfo"
)

func TestWriteSummary(t *testing.T) {
	buf := &bytes.Buffer{}

	data := Data{
		SystemInfo: &sysinfo.SystemInfo{
			OS:              "linux",
			Architecture:    "amd64",
			CPUModel:        "Test CPU",
			CPUCores:        4,
			HardwareThreads: 8,
			TotalMemory:     16 * 1024 * 1024 * 1024,
		},
		Results: []benchmark.Result{
			{
				Label:       "PBKDF2: Iterations=10000,",
				Parallelism: 8,
				Completed:   4000,
				Throughput:  400,
			},
			{
				Label:         "tobischo Argon2id:",
				Parallelism:   8,
				Completed:     800,
				Throughput:    80,
				FailedWorkers: 1,
			},
		},
		Config: benchmark.DefaultConfig(),
	}

	if err := WriteSummary(buf, data); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Summary",
		"Test CPU",
		"16.0 GB",
		"PBKDF2: Iterations=10000,",
		"tobischo Argon2id:",
		"400.00",
		"20.00ms",
		"10.00s per benchmark",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Summary missing %q:\n%s", want, output)
		}
	}
}

func TestWriteSummaryEmpty(t *testing.T) {
	if err := WriteSummary(&bytes.Buffer{}, Data{}); err == nil {
		t.Error("Expected error for empty results")
	}
}

func TestPerOperation(t *testing.T) {
	if got := perOperation(400, 8); got != 20*time.Millisecond {
		t.Errorf("Expected 20ms, got %v", got)
	}
	if got := perOperation(0, 8); got != 0 {
		t.Errorf("Expected 0 for zero throughput, got %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0.50µs"},
		{1500 * time.Microsecond, "1.50ms"},
		{2500 * time.Millisecond, "2.50s"},
		{150 * time.Second, "2.50m"},
	}

	for _, test := range tests {
		result := formatDuration(test.duration)
		if result != test.expected {
			t.Errorf("For duration %v, expected %s, got %s", test.duration, test.expected, result)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "-"},
		{512, "512.0 B"},
		{15 * 1024 * 1024, "15.0 MB"},
	}

	for _, test := range tests {
		if got := formatBytes(test.bytes); got != test.expected {
			t.Errorf("For %d bytes, expected %s, got %s", test.bytes, test.expected, got)
		}
	}
}
