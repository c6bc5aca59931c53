package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// stderrTailLines is how much of stderr an EncodeError keeps.
const stderrTailLines = 12

// ExecOptions controls one ffmpeg run.
type ExecOptions struct {
	// OnProgress receives throttled updates. Nil disables progress parsing;
	// args must then not request -progress pipe:1.
	OnProgress func(Progress)
	// Interval is the minimum time between two OnProgress calls. The final
	// progress=end update is always delivered.
	Interval time.Duration
	// Duration of the input, used for percent and remaining time.
	Duration time.Duration
	// Stderr additionally receives ffmpeg's stderr when non-nil.
	Stderr io.Writer
}

// Executor runs ffmpeg argument lists built by [Build].
type Executor struct {
	now func() time.Time
}

// NewExecutor returns an Executor using the wall clock.
func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

// Execute runs args (args[0] is the binary) and blocks until it exits.
// Cancelling ctx kills the encoder's process group and returns ctx.Err().
// A non-zero exit returns an *EncodeError.
func (e *Executor) Execute(ctx context.Context, args []string, opts ExecOptions) error {
	if len(args) == 0 {
		return errors.New("ffmpeg: empty command")
	}
	now := e.now
	if now == nil {
		now = time.Now
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	setProcessGroup(cmd)

	var stderr bytes.Buffer
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, opts.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	var stdout io.ReadCloser
	if opts.OnProgress != nil {
		var err error
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("ffmpeg stdout pipe: %w", err)
		}
	}

	start := now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}

	// Stdout must be fully read before Wait closes the pipe.
	if stdout != nil {
		t := throttle{interval: opts.Interval}
		_ = ParseProgress(stdout, func(s Sample) {
			ts := now()
			if !t.allow(ts, s.End) {
				return
			}
			opts.OnProgress(Progress{Sample: s, Duration: opts.Duration, Elapsed: ts.Sub(start)})
		})
		// Drain anything left so ffmpeg never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	out := stderr.String()
	return &EncodeError{
		ExitCode: code,
		Stderr:   tail(out, stderrTailLines),
		Hint:     Classify(out),
		Err:      err,
	}
}

// throttle lets one update through per interval; final updates always pass.
type throttle struct {
	interval time.Duration
	last     time.Time
}

func (t *throttle) allow(now time.Time, final bool) bool {
	if final || t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	return false
}
