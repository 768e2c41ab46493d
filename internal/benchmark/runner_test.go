package benchmark

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeKDF struct {
	label string
	delay time.Duration
}

func (f *fakeKDF) Label() string { return f.label }

func (f *fakeKDF) Derive(password, salt []byte) ([]byte, error) {
	time.Sleep(f.delay)
	return make([]byte, 64), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPlanDefault(t *testing.T) {
	plan, err := BuildPlan(DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	expected := [][]string{
		{"PBKDF2: Iterations=10000,", "PBKDF2: Iterations=100000,", "PBKDF2: Iterations=310000,"},
		{"tobischo Argon2d:", "tobischo Argon2i:", "tobischo Argon2id:"},
		{"reference Argon2d:", "reference Argon2i:", "reference Argon2id:"},
		{"xcrypto Argon2i:", "xcrypto Argon2id:"},
		{"hartstonge Argon2i:", "hartstonge Argon2id:"},
	}

	if len(plan) != len(expected) {
		t.Fatalf("Expected %d families, got %d", len(expected), len(plan))
	}

	for i, family := range plan {
		if family.Argon2 != (i > 0) {
			t.Errorf("Family %s: unexpected Argon2 flag %v", family.Name, family.Argon2)
		}
		if len(family.Cases) != len(expected[i]) {
			t.Errorf("Family %s: expected %d cases, got %d", family.Name, len(expected[i]), len(family.Cases))
			continue
		}
		for j, kdf := range family.Cases {
			if kdf.Label() != expected[i][j] {
				t.Errorf("Family %s case %d: expected %q, got %q", family.Name, j, expected[i][j], kdf.Label())
			}
		}
	}
}

func TestBuildPlanErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Argon2Backends = []string{"nope"} }},
		{"unknown hash", func(c *Config) { c.PBKDF2Hash = "md4" }},
		{"zero argon2 time", func(c *Config) { c.Argon2Time = 0 }},
		{"argon2 memory too small", func(c *Config) { c.Argon2Memory = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := BuildPlan(cfg, quietLogger()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuildPlanDeduplicatesBackends(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = nil
	cfg.Argon2Backends = []string{"xcrypto", "xcrypto"}

	plan, err := BuildPlan(cfg, quietLogger())
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan) != 1 {
		t.Errorf("Expected 1 family, got %d", len(plan))
	}
}

func TestBuildPlanWarnsOnSingleCore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = nil

	tests := []struct {
		name     string
		backends []string
		warn     bool
	}{
		{"shared core only", []string{"xcrypto", "hartstonge"}, true},
		{"two cores", []string{"tobischo", "reference"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Argon2Backends = tt.backends
			logs := &bytes.Buffer{}
			logger := slog.New(slog.NewTextHandler(logs, nil))

			if _, err := BuildPlan(cfg, logger); err != nil {
				t.Fatalf("BuildPlan failed: %v", err)
			}
			warned := strings.Contains(logs.String(), "single argon2 core")
			if warned != tt.warn {
				t.Errorf("Expected warning %v, got logs:\n%s", tt.warn, logs.String())
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Parallelism = 2

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no parallelism", func(c *Config) { c.Parallelism = 0 }, true},
		{"no duration", func(c *Config) { c.RunDuration = 0 }, true},
		{"no grace", func(c *Config) { c.ShutdownGrace = 0 }, true},
		{"short salt", func(c *Config) { c.SaltLength = 4 }, true},
		{"short key", func(c *Config) { c.KeyLength = 2 }, true},
		{"zero iterations", func(c *Config) { c.Iterations = []int{0} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunnerRunPlan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallelism = 2
	cfg.RunDuration = 50 * time.Millisecond
	cfg.ShutdownGrace = time.Second

	plan := []Family{
		{Name: "first", Cases: []KDF{
			&fakeKDF{label: "fast:", delay: time.Millisecond},
			&fakeKDF{label: "slow:", delay: 5 * time.Millisecond},
		}},
		{Name: "second", Cases: []KDF{
			&fakeKDF{label: "other:", delay: time.Millisecond},
		}},
	}

	in, err := NewInput(DefaultPassword, DefaultSaltLength)
	if err != nil {
		t.Fatalf("NewInput failed: %v", err)
	}

	buf := &bytes.Buffer{}
	runner := NewRunner(cfg, in, buf, quietLogger())
	results, err := runner.RunPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("RunPlan failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 output lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "---" || lines[3] != "---" {
		t.Errorf("Missing family separators: %q", lines)
	}
	if !strings.HasPrefix(lines[1], "fast: Threads=2, Performance=") {
		t.Errorf("Unexpected result line %q", lines[1])
	}

	for _, result := range results {
		if result.ID == "" {
			t.Error("Result missing ID")
		}
		if result.Parallelism != 2 {
			t.Errorf("Expected parallelism 2, got %d", result.Parallelism)
		}
		if result.Throughput <= 0 {
			t.Errorf("%s: expected positive throughput", result.Label)
		}
	}
}

func TestRunnerProgressBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallelism = 1
	cfg.RunDuration = 250 * time.Millisecond
	cfg.ShutdownGrace = time.Second
	cfg.ShowProgress = true

	in, err := NewInput(DefaultPassword, DefaultSaltLength)
	if err != nil {
		t.Fatalf("NewInput failed: %v", err)
	}

	out := &bytes.Buffer{}
	progress := &bytes.Buffer{}
	runner := NewRunner(cfg, in, out, quietLogger())
	runner.progressOut = progress

	plan := []Family{{Name: "only", Cases: []KDF{&fakeKDF{label: "bar:", delay: time.Millisecond}}}}
	if _, err := runner.RunPlan(context.Background(), plan); err != nil {
		t.Fatalf("RunPlan failed: %v", err)
	}

	if !strings.Contains(out.String(), "bar: Threads=1, Performance=") {
		t.Errorf("Missing result line: %q", out.String())
	}
	if progress.Len() == 0 {
		t.Error("Expected progress output")
	}
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	runner := NewRunner(cfg, Input{}, io.Discard, quietLogger())
	if _, err := runner.Run(context.Background()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
