// Kunhua Huang 2026

package transcode

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ecstasoy/mediabench/pkg/checksum"
)

const defaultBinary = "ffmpeg"

// stderrCap bounds the captured diagnostic text. The stream is still
// drained past the cap so the child never blocks on a full pipe.
const stderrCap = 64 * 1024

// Transcoder runs an external ffmpeg process over a media file and
// checksums the encoded stream it produces.
type Transcoder struct {
	binary string
	argv   func(inputPath string, limit time.Duration) []string
	logger *zap.Logger
}

type Option func(*Transcoder)

func WithBinary(path string) Option {
	return func(t *Transcoder) {
		if path != "" {
			t.binary = path
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Transcoder) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func NewTranscoder(options ...Option) *Transcoder {
	t := &Transcoder{
		binary: defaultBinary,
		argv:   encodeArgs,
		logger: zap.NewNop(),
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// encodeArgs is the fixed encode template; only the duration limit and
// the input path vary. Output goes to stdout as a matroska stream.
func encodeArgs(inputPath string, limit time.Duration) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-t", strconv.FormatFloat(limit.Seconds(), 'f', -1, 64),
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-r", "30",
		"-crf", "26",
		"-f", "matroska",
		"-",
	}
}

// Run transcodes inputPath for at most limit media time and returns the
// checksum of the encoded stream.
//
// Stdout and stderr are drained by concurrent goroutines joined before
// the exit status is read. OS pipe buffers are bounded; draining the
// two streams sequentially can deadlock against a child blocked on a
// full pipe. Both drains always run to completion, even when the exit
// status will later report failure, so the captured diagnostics are
// complete.
func (t *Transcoder) Run(ctx context.Context, inputPath string, limit time.Duration) (byte, error) {
	cmd := exec.CommandContext(ctx, t.binary, t.argv(inputPath, limit)...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn %s: %w", t.binary, err)
	}

	t.logger.Debug("transcode started",
		zap.String("binary", t.binary),
		zap.String("input", inputPath),
		zap.Duration("limit", limit))

	var (
		g         errgroup.Group
		diag      cappedBuffer
		streamSum byte
	)

	g.Go(func() error {
		if _, err := io.Copy(&diag, stderr); err != nil {
			return fmt.Errorf("drain stderr: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sum, err := checksum.Sum(stdout)
		if err != nil {
			return fmt.Errorf("checksum stdout: %w", err)
		}
		streamSum = sum
		return nil
	})

	drainErr := g.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return 0, &ExitError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   diag.String(),
			}
		}
		return 0, fmt.Errorf("wait for %s: %w", t.binary, waitErr)
	}
	if drainErr != nil {
		return 0, drainErr
	}

	return streamSum, nil
}

// cappedBuffer keeps the first stderrCap bytes written and discards the
// rest, always reporting the write as consumed.
type cappedBuffer struct {
	buf       []byte
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := stderrCap - len(c.buf); room > 0 {
		if len(p) > room {
			c.buf = append(c.buf, p[:room]...)
			c.truncated = true
		} else {
			c.buf = append(c.buf, p...)
		}
	} else if len(p) > 0 {
		c.truncated = true
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	if c.truncated {
		return string(c.buf) + "\n[diagnostics truncated]"
	}
	return string(c.buf)
}
