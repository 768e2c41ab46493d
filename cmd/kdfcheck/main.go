package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/user/kdfbench/internal/benchmark"
	"golang.org/x/sync/errgroup"
)

type check struct {
	label   string
	elapsed time.Duration
	prefix  string
	err     error
}

func main() {
	if len(os.Args) > 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", os.Args[0])
		os.Exit(1)
	}

	cfg := benchmark.DefaultConfig()

	input, err := benchmark.NewInput(benchmark.DefaultPassword, cfg.SaltLength)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating input: %v\n", err)
		os.Exit(1)
	}

	plan, err := benchmark.BuildPlan(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building plan: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Salt: %s\n", hex.EncodeToString(input.Salt))
	fmt.Printf("Expected key length: %d bytes\n", cfg.KeyLength)

	failed := 0
	var firstErr error
	for _, family := range plan {
		fmt.Printf("\n%s\n", family.Name)

		checks, err := checkFamily(family, input, cfg.KeyLength)
		if err != nil && firstErr == nil {
			firstErr = err
		}

		for _, c := range checks {
			if c.err != nil {
				fmt.Printf("✗ %s %v\n", c.label, c.err)
				failed++
				continue
			}
			fmt.Printf("✓ %s %s %s...\n", c.label, c.elapsed.Round(time.Microsecond), c.prefix)
		}
	}

	if firstErr != nil {
		fmt.Printf("\n%d checks failed, first: %v\n", failed, firstErr)
		os.Exit(1)
	}

	fmt.Println("\nAll KDFs validated!")
}

// checkFamily validates every case of family concurrently. The checks come
// back in plan order; the error is the first failure to complete.
func checkFamily(family benchmark.Family, input benchmark.Input, keyLength int) ([]check, error) {
	checks := make([]check, len(family.Cases))

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, kdf := range family.Cases {
		i, kdf := i, kdf // per-iteration copies; go.mod targets Go 1.21 loop semantics
		eg.Go(func() error {
			checks[i] = validate(kdf, input, keyLength)
			if checks[i].err != nil {
				return fmt.Errorf("%s: %w", kdf.Label(), checks[i].err)
			}
			return nil
		})
	}

	return checks, eg.Wait()
}

// validate derives twice and checks the output length and that both
// derivations agree.
func validate(kdf benchmark.KDF, input benchmark.Input, keyLength int) check {
	c := check{label: kdf.Label()}

	start := time.Now()
	first, err := kdf.Derive(input.Password, input.Salt)
	c.elapsed = time.Since(start)
	if err != nil {
		c.err = fmt.Errorf("derive error: %w", err)
		return c
	}

	second, err := kdf.Derive(input.Password, input.Salt)
	switch {
	case err != nil:
		c.err = fmt.Errorf("second derive error: %w", err)
	case len(first) != keyLength:
		c.err = fmt.Errorf("returned %d bytes", len(first))
	case !bytes.Equal(first, second):
		c.err = fmt.Errorf("not deterministic")
	default:
		c.prefix = hex.EncodeToString(first[:8])
	}
	return c
}
