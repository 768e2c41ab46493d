package benchmark

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPassword      = "Enough long password with special characters like !@#$%^&*() and digits 0123456789 for benchmark"
	DefaultRunDuration   = 10 * time.Second
	DefaultShutdownGrace = 5 * time.Second
	DefaultSaltLength    = 64
	DefaultKeyLength     = 64
)

var ErrInvalidConfig = errors.New("invalid benchmark configuration")

type Config struct {
	Parallelism    int           `json:"parallelism"`
	RunDuration    time.Duration `json:"run_duration"`
	ShutdownGrace  time.Duration `json:"shutdown_grace"`
	SaltLength     int           `json:"salt_length"`
	KeyLength      int           `json:"key_length"`
	Iterations     []int         `json:"pbkdf2_iterations"`
	PBKDF2Hash     string        `json:"pbkdf2_hash"`
	Argon2Backends []string      `json:"argon2_backends"`
	Argon2Time     uint32        `json:"argon2_time"`
	Argon2Memory   uint32        `json:"argon2_memory_kib"`
	Argon2Lanes    uint8         `json:"argon2_lanes"`
	ShowProgress   bool          `json:"show_progress"`
	Summary        bool          `json:"summary"`
	Verbose        bool          `json:"verbose"`
}

// DefaultConfig returns the compiled-in benchmark suite. Parallelism is left
// at zero and resolved to the host's hardware thread count by the caller.
func DefaultConfig() Config {
	return Config{
		RunDuration:    DefaultRunDuration,
		ShutdownGrace:  DefaultShutdownGrace,
		SaltLength:     DefaultSaltLength,
		KeyLength:      DefaultKeyLength,
		Iterations:     []int{10000, 100000, 310000},
		PBKDF2Hash:     "sha1",
		Argon2Backends: []string{"tobischo", "reference", "xcrypto", "hartstonge"},
		Argon2Time:     2,
		Argon2Memory:   15 * 1024,
		Argon2Lanes:    1,
	}
}

func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be >= 1, got %d", ErrInvalidConfig, c.Parallelism)
	}
	if c.RunDuration <= 0 {
		return fmt.Errorf("%w: run duration must be positive, got %s", ErrInvalidConfig, c.RunDuration)
	}
	if c.ShutdownGrace <= 0 {
		return fmt.Errorf("%w: shutdown grace must be positive, got %s", ErrInvalidConfig, c.ShutdownGrace)
	}
	if c.SaltLength < 8 {
		return fmt.Errorf("%w: salt length must be >= 8, got %d", ErrInvalidConfig, c.SaltLength)
	}
	if c.KeyLength < 4 {
		return fmt.Errorf("%w: key length must be >= 4, got %d", ErrInvalidConfig, c.KeyLength)
	}
	for _, n := range c.Iterations {
		if n < 1 {
			return fmt.Errorf("%w: pbkdf2 iterations must be >= 1, got %d", ErrInvalidConfig, n)
		}
	}
	return nil
}

// Result is the outcome of one harness invocation.
type Result struct {
	ID               string        `json:"id"`
	Label            string        `json:"label"`
	Parallelism      int           `json:"parallelism"`
	RunDuration      time.Duration `json:"run_duration"`
	Completed        int64         `json:"completed"`
	Total            int64         `json:"total"`
	Throughput       float64       `json:"throughput"`
	FailedWorkers    int           `json:"failed_workers"`
	AbandonedWorkers int           `json:"abandoned_workers"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      time.Time     `json:"completed_at"`
}

func newResult(label string, parallelism int, runDuration time.Duration) Result {
	return Result{
		ID:          uuid.New().String(),
		Label:       label,
		Parallelism: parallelism,
		RunDuration: runDuration,
		StartedAt:   time.Now(),
	}
}
