// Package engine runs external reconstruction and training programs as
// child processes. Failures are returned as values, never as errors: the
// caller decides whether a nonzero exit is fatal or triggers a fallback.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gameview/reconstruct/internal/logging"
)

const tailLines = 20

// ProgressFunc extracts a (current, total) pair from one line of engine
// output. ok is false for lines that carry no progress information.
type ProgressFunc func(line string) (current, total int, ok bool)

// Command describes one engine invocation. When Progress and OnProgress are
// both set, parsed progress is scaled into [ProgressFloor, ProgressCeil]
// and forwarded as it streams.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // appended to the parent environment
	Timeout time.Duration

	Progress      ProgressFunc
	ProgressFloor int
	ProgressCeil  int
	OnProgress    func(pct int, message string)
}

// Result is the outcome of a single invocation. TimedOut distinguishes a
// killed-on-deadline run from an ordinary nonzero exit.
type Result struct {
	Succeeded bool
	ExitCode  int
	TimedOut  bool
	Tail      string
}

// Reason renders the failure for error messages. Empty on success.
func (r Result) Reason() string {
	switch {
	case r.Succeeded:
		return ""
	case r.TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("exit status %d", r.ExitCode)
	}
}

// Runner is what the pipeline depends on; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Executor runs commands for real, streaming combined stdout/stderr
// line-by-line and keeping the last lines for error reporting.
type Executor struct {
	Log *logging.Logger
}

func (e *Executor) Run(ctx context.Context, cmd Command) Result {
	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	tail := make([]string, 0, tailLines)
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if len(tail) == tailLines {
				copy(tail, tail[1:])
				tail = tail[:tailLines-1]
			}
			tail = append(tail, line)

			if e.Log != nil {
				e.Log.Debug("[%s] %s", cmd.Name, line)
			}
			e.forwardProgress(cmd, line)
		}
		// The scanner stops on oversized lines (trainers emit \r-separated
		// progress with no newline). Keep draining so the child's writes
		// never block once scanning gives up.
		_, _ = io.Copy(io.Discard, pr)
	}()

	err := c.Run()
	_ = pw.Close()
	<-done

	res := Result{Tail: strings.Join(tail, "\n")}
	if err == nil {
		res.Succeeded = true
		return res
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		// Start failures (binary missing etc.) surface the error text.
		res.ExitCode = -1
		res.Tail = strings.TrimSpace(res.Tail + "\n" + err.Error())
	}
	return res
}

func (e *Executor) forwardProgress(cmd Command, line string) {
	if cmd.Progress == nil || cmd.OnProgress == nil {
		return
	}
	cur, total, ok := cmd.Progress(line)
	if !ok || total <= 0 {
		return
	}
	span := cmd.ProgressCeil - cmd.ProgressFloor
	pct := cmd.ProgressFloor + int(float64(cur)/float64(total)*float64(span))
	cmd.OnProgress(pct, fmt.Sprintf("%d/%d", cur, total))
}
