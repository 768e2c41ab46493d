package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/kdfbench/internal/benchmark"
	"github.com/user/kdfbench/internal/output"
	"github.com/user/kdfbench/pkg/sysinfo"
)

var config = benchmark.DefaultConfig()

// shutdownSignals cancel the running benchmark through its context.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

var rootCmd = &cobra.Command{
	Use:   "kdfbench",
	Short: "Sustained multi-threaded throughput benchmark for password hashing functions",
	Long: `kdfbench measures how many password hashes per second a host sustains
when every hardware thread derives keys at once.

It runs PBKDF2 at several iteration counts and Argon2d, Argon2i and Argon2id
through each available Go implementation, using the same password, salt and
output length throughout, so the numbers can be used to pick a password
hashing configuration for a given hardware budget.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBenchmark,
}

func init() {
	flags := rootCmd.Flags()
	flags.DurationVar(&config.RunDuration, "duration", config.RunDuration, "Measurement interval per benchmark")
	flags.DurationVar(&config.ShutdownGrace, "grace", config.ShutdownGrace, "How long to wait for each worker after the interval ends")
	flags.IntVarP(&config.Parallelism, "parallel", "p", 0, "Number of worker threads (default: hardware threads)")
	flags.IntSliceVar(&config.Iterations, "iterations", config.Iterations, "PBKDF2 iteration counts, one benchmark each")
	flags.StringVar(&config.PBKDF2Hash, "pbkdf2-hash", config.PBKDF2Hash, "PBKDF2 PRF hash (sha1, sha256, sha512)")
	flags.StringSliceVar(&config.Argon2Backends, "argon2-backends", config.Argon2Backends, "Argon2 implementations to run (tobischo, reference, xcrypto, hartstonge)")
	flags.Uint32Var(&config.Argon2Time, "argon2-time", config.Argon2Time, "Argon2 time cost")
	flags.Uint32Var(&config.Argon2Memory, "argon2-memory", config.Argon2Memory, "Argon2 memory cost in KiB")
	flags.Uint8Var(&config.Argon2Lanes, "argon2-lanes", config.Argon2Lanes, "Argon2 lanes per hash")
	flags.BoolVar(&config.ShowProgress, "progress", false, "Show a progress bar on stderr")
	flags.BoolVar(&config.Summary, "summary", false, "Print a summary table after all benchmarks")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if config.Parallelism == 0 {
		config.Parallelism = sysinfo.HardwareThreads()
	}

	sysInfo, err := sysinfo.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect system info: %w", err)
	}

	logger.Debug("system information",
		slog.String("os", sysInfo.OS),
		slog.String("arch", sysInfo.Architecture),
		slog.String("cpu", sysInfo.CPUModel),
		slog.Int("cores", sysInfo.CPUCores),
		slog.Int("threads", sysInfo.HardwareThreads),
		slog.Int("gomaxprocs", sysInfo.GOMAXPROCS),
		slog.Uint64("memory", sysInfo.TotalMemory),
		slog.String("go", sysInfo.GoVersion),
	)

	input, err := benchmark.NewInput(benchmark.DefaultPassword, config.SaltLength)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()

	runner := benchmark.NewRunner(config, input, os.Stdout, logger)
	results, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	if config.Summary {
		data := output.Data{
			SystemInfo: sysInfo,
			Results:    results,
			Config:     config,
		}
		if err := output.WriteSummary(os.Stdout, data); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
