package bench

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStddev(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		wantMean   float64
		wantStddev float64
		wantOK     bool
	}{
		{name: "known samples", samples: []float64{1, 2, 3}, wantMean: 2.0, wantStddev: 1.0, wantOK: true},
		{name: "identical samples", samples: []float64{0.5, 0.5, 0.5, 0.5}, wantMean: 0.5, wantStddev: 0, wantOK: true},
		{name: "two samples", samples: []float64{2, 4}, wantMean: 3.0, wantStddev: 1.4142135623730951, wantOK: true},
		{name: "single sample is undefined", samples: []float64{7}, wantMean: 7.0, wantStddev: 0, wantOK: false},
		{name: "no samples", samples: nil, wantMean: 0, wantStddev: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantMean, Mean(tt.samples), 1e-12)

			stddev, ok := Stddev(tt.samples)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantStddev, stddev, 1e-12)
			}
		})
	}
}

func TestHarnessRun(t *testing.T) {
	h := NewHarness(nil)

	calls := 0
	result, err := h.Run(context.Background(), "read file", 3, func(ctx context.Context) (byte, error) {
		calls++
		return byte(calls), nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, "read file", result.Label)
	assert.Len(t, result.Samples, 3)
	assert.Equal(t, byte(3), result.Checksum, "keeps the last run's checksum")
	for _, s := range result.Samples {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestHarnessRunFailureCarriesLabel(t *testing.T) {
	h := NewHarness(nil)

	opErr := errors.New("pipe burst")
	calls := 0
	_, err := h.Run(context.Background(), "transcode", 5, func(ctx context.Context) (byte, error) {
		calls++
		if calls == 2 {
			return 0, opErr
		}
		return 0, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, opErr)
	assert.Contains(t, err.Error(), "transcode")
	assert.Equal(t, 2, calls, "stops at the failing iteration")
}

func TestHarnessRunInvalidIterations(t *testing.T) {
	h := NewHarness(nil)
	_, err := h.Run(context.Background(), "x", 0, func(ctx context.Context) (byte, error) { return 0, nil })
	require.Error(t, err)
}

func TestHarnessRunCanceledContext(t *testing.T) {
	h := NewHarness(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Run(ctx, "x", 3, func(ctx context.Context) (byte, error) { return 0, nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestResultString(t *testing.T) {
	r := &Result{Label: "read file", Samples: []float64{1, 2, 3}, Checksum: 0x2a}
	s := r.String()
	assert.Contains(t, s, "read file")
	assert.Contains(t, s, "2.000 s")
	assert.Contains(t, s, "± 1.000 s")
	assert.Contains(t, s, "0x2a")

	single := &Result{Label: "once", Samples: []float64{1.5}, Checksum: 0}
	assert.True(t, strings.Contains(single.String(), "± n/a"), "single sample renders undefined stddev")
}
