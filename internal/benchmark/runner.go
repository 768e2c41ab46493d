package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/mem"
)

type Runner struct {
	config Config
	input  Input
	out    io.Writer
	logger *slog.Logger

	// progressOut receives the progress bar; stderr unless a test swaps it.
	progressOut io.Writer
}

func NewRunner(config Config, input Input, out io.Writer, logger *slog.Logger) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		config:      config,
		input:       input,
		out:         out,
		logger:      logger,
		progressOut: os.Stderr,
	}
}

// Run builds the plan from the runner's config and executes it.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	plan, err := BuildPlan(r.config, r.logger)
	if err != nil {
		return nil, err
	}
	return r.RunPlan(ctx, plan)
}

// RunPlan executes every case of every family in order, one at a time.
func (r *Runner) RunPlan(ctx context.Context, plan []Family) ([]Result, error) {
	var results []Result

	for _, family := range plan {
		if family.Argon2 {
			r.checkMemory(family.Name)
		}

		fmt.Fprintln(r.out, "---")

		for _, kdf := range family.Cases {
			result, err := r.runSingleBenchmark(ctx, kdf)
			if err != nil {
				return results, fmt.Errorf("benchmark %q: %w", kdf.Label(), err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func (r *Runner) runSingleBenchmark(ctx context.Context, kdf KDF) (Result, error) {
	h := &Harness{
		Parallelism:   r.config.Parallelism,
		RunDuration:   r.config.RunDuration,
		ShutdownGrace: r.config.ShutdownGrace,
		Out:           r.out,
		Logger:        r.logger,
	}

	var bar *progressbar.ProgressBar
	if r.config.ShowProgress {
		bar = progressbar.NewOptions64(r.config.RunDuration.Milliseconds(),
			progressbar.OptionSetWriter(r.progressOut),
			progressbar.OptionSetDescription(fmt.Sprintf("[%s]", kdf.Label())),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
		h.Progress = func(elapsed time.Duration, completed int64) {
			rate := float64(completed) / elapsed.Seconds()
			bar.Describe(fmt.Sprintf("[%s] %.1f ops/s", kdf.Label(), rate))
			_ = bar.Set64(elapsed.Milliseconds())
		}
	}

	r.logger.Debug("starting benchmark",
		slog.String("label", kdf.Label()),
		slog.Int("parallelism", r.config.Parallelism),
		slog.Duration("duration", r.config.RunDuration),
	)

	if bar != nil {
		// The result line goes to r.out, so the bar must be gone first.
		h.Out = &finishFirst{bar: bar, w: r.out}
	}

	result, err := h.Run(ctx, kdf.Label(), Bind(kdf, r.input))
	if bar != nil {
		_ = bar.Finish()
	}
	return result, err
}

// finishFirst clears a progress bar before the first write to w.
type finishFirst struct {
	bar  *progressbar.ProgressBar
	w    io.Writer
	done bool
}

func (f *finishFirst) Write(p []byte) (int, error) {
	if !f.done {
		f.done = true
		_ = f.bar.Finish()
	}
	return f.w.Write(p)
}

// checkMemory warns when every worker allocating its Argon2 memory at once
// would not fit into what the host reports as available.
func (r *Runner) checkMemory(family string) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		r.logger.Debug("memory check skipped", slog.String("error", err.Error()))
		return
	}

	need := uint64(r.config.Parallelism) * uint64(r.config.Argon2Memory) * 1024
	if need > vm.Available {
		r.logger.Warn("argon2 working set exceeds available memory",
			slog.String("family", family),
			slog.Uint64("need_bytes", need),
			slog.Uint64("available_bytes", vm.Available),
		)
	}
}
