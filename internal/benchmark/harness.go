package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// Operation is one unit of benchmarked work. It must be safe to call from
// many goroutines at once.
type Operation func() error

// ProgressFunc receives periodic samples of the shared counter while a run is
// in progress.
type ProgressFunc func(elapsed time.Duration, completed int64)

// Harness runs an Operation on a fixed number of workers for a fixed interval
// and reports the sustained throughput.
type Harness struct {
	Parallelism   int
	RunDuration   time.Duration
	ShutdownGrace time.Duration
	Out           io.Writer
	Logger        *slog.Logger

	Progress     ProgressFunc
	TickInterval time.Duration
}

type runState struct {
	stop   atomic.Bool
	count  atomic.Int64
	failed atomic.Int32
	done   []chan struct{}
	logger *slog.Logger
}

// RunBenchmark measures op with a fresh Harness writing to stdout.
func RunBenchmark(label string, op Operation, parallelism int, runDuration, shutdownGrace time.Duration) Result {
	h := &Harness{
		Parallelism:   parallelism,
		RunDuration:   runDuration,
		ShutdownGrace: shutdownGrace,
		Out:           os.Stdout,
	}
	result, err := h.Run(context.Background(), label, op)
	if err != nil {
		h.logger().Error("benchmark failed", slog.String("label", label), slog.String("error", err.Error()))
	}
	return result
}

// Run executes one benchmark and writes its result line to h.Out.
func (h *Harness) Run(ctx context.Context, label string, op Operation) (Result, error) {
	if h.Parallelism < 1 {
		return Result{}, fmt.Errorf("%w: parallelism must be >= 1, got %d", ErrInvalidConfig, h.Parallelism)
	}
	if h.RunDuration <= 0 || h.ShutdownGrace <= 0 {
		return Result{}, fmt.Errorf("%w: run duration and shutdown grace must be positive", ErrInvalidConfig)
	}

	result := newResult(label, h.Parallelism, h.RunDuration)
	state := &runState{
		done: make([]chan struct{}, h.Parallelism),
		logger: h.logger().With(
			slog.String("label", label),
			slog.String("run_id", result.ID),
		),
	}

	for i := range state.done {
		state.done[i] = make(chan struct{})
		go state.work(i, op)
	}

	interrupted := h.wait(ctx, state)

	result.Completed = state.count.Load()
	state.stop.Store(true)
	result.AbandonedWorkers = state.join(h.ShutdownGrace)
	result.Total = state.count.Load()
	result.FailedWorkers = int(state.failed.Load())
	result.CompletedAt = time.Now()

	if result.AbandonedWorkers > 0 {
		state.logger.Debug("abandoned workers after grace period",
			slog.Int("abandoned", result.AbandonedWorkers),
			slog.Duration("grace", h.ShutdownGrace),
		)
	}

	if interrupted {
		return result, ctx.Err()
	}

	result.Throughput = float64(result.Completed) / h.RunDuration.Seconds()

	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s Threads=%d, Performance=%s per second\n",
		label, h.Parallelism, strconv.FormatFloat(result.Throughput, 'f', -1, 64))

	return result, nil
}

// wait blocks for the run interval and reports whether ctx ended it early.
func (h *Harness) wait(ctx context.Context, state *runState) bool {
	timer := time.NewTimer(h.RunDuration)
	defer timer.Stop()

	var tick <-chan time.Time
	if h.Progress != nil {
		interval := h.TickInterval
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	for {
		select {
		case <-timer.C:
			return false
		case <-ctx.Done():
			return true
		case <-tick:
			h.Progress(time.Since(start), state.count.Load())
		}
	}
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (s *runState) work(id int, op Operation) {
	defer close(s.done[id])
	defer func() {
		if r := recover(); r != nil {
			s.fail(id, fmt.Errorf("panic: %v", r))
		}
	}()

	for !s.stop.Load() {
		if err := op(); err != nil {
			s.fail(id, err)
			return
		}
		s.count.Add(1)
	}
}

func (s *runState) fail(id int, err error) {
	s.failed.Add(1)
	s.logger.Warn("worker stopped early",
		slog.Int("worker", id),
		slog.String("error", err.Error()),
	)
}

// join waits for every worker until one shared deadline and returns how many
// were still running when it passed.
func (s *runState) join(grace time.Duration) int {
	deadline := time.NewTimer(grace)
	defer deadline.Stop()

	abandoned := 0
	expired := false
	for _, done := range s.done {
		if expired {
			select {
			case <-done:
			default:
				abandoned++
			}
			continue
		}
		select {
		case <-done:
		case <-deadline.C:
			expired = true
			abandoned++
		}
	}
	return abandoned
}
