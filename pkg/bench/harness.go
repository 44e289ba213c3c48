// Kunhua Huang 2026

package bench

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Op is one measurable operation: a full pass over some data path that
// yields the path's checksum.
type Op func(ctx context.Context) (byte, error)

// Result holds the timing samples and the last checksum produced by a
// completed benchmark run.
type Result struct {
	Label    string
	Samples  []float64 // seconds per iteration
	Checksum byte
}

func (r *Result) Mean() float64 {
	return Mean(r.Samples)
}

func (r *Result) Stddev() (float64, bool) {
	return Stddev(r.Samples)
}

func (r *Result) String() string {
	stddev, ok := r.Stddev()
	if !ok {
		return fmt.Sprintf("%s: %.3f s ± n/a over %d run(s) (checksum 0x%02x)",
			r.Label, r.Mean(), len(r.Samples), r.Checksum)
	}
	return fmt.Sprintf("%s: %.3f s ± %.3f s over %d runs (checksum 0x%02x)",
		r.Label, r.Mean(), stddev, len(r.Samples), r.Checksum)
}

// Harness times repeated executions of operations.
type Harness struct {
	logger *zap.Logger
}

func NewHarness(logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{logger: logger}
}

// Run executes op sequentially iterations times, recording wall-clock
// duration per run and the final run's checksum. Iterations never
// overlap. Any iteration failure aborts the run and is fatal to this
// operation only; the caller decides whether to continue with others.
func (h *Harness) Run(ctx context.Context, label string, iterations int, op Op) (*Result, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be >= 1, got %d", iterations)
	}

	result := &Result{
		Label:   label,
		Samples: make([]float64, 0, iterations),
	}

	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		sum, err := op(ctx)
		elapsed := time.Since(start)

		if err != nil {
			return nil, fmt.Errorf("%s: iteration %d/%d failed: %w", label, i+1, iterations, err)
		}

		result.Samples = append(result.Samples, elapsed.Seconds())
		result.Checksum = sum

		h.logger.Debug("iteration finished",
			zap.String("label", label),
			zap.Int("iteration", i+1),
			zap.Duration("elapsed", elapsed),
			zap.Uint8("checksum", sum))
	}

	return result, nil
}
