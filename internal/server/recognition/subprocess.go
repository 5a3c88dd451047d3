package recognition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevote/internal/logging"
)

// Subprocess runs an external recognition program once per Invoke.
type Subprocess struct {
	path      string
	args      []string
	env       []string
	dir       string
	timeout   time.Duration
	waitDelay time.Duration
	capture   int
	logger    logging.Logger
}

type SubprocessOption func(*Subprocess)

// WithArgs sets leading arguments placed before duration and threshold,
// e.g. the script path when path is an interpreter.
func WithArgs(args ...string) SubprocessOption {
	return func(s *Subprocess) { s.args = slices.Clone(args) }
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) SubprocessOption {
	return func(s *Subprocess) { s.env = append(s.env, env...) }
}

func WithDir(dir string) SubprocessOption {
	return func(s *Subprocess) { s.dir = dir }
}

func WithTimeout(d time.Duration) SubprocessOption {
	return func(s *Subprocess) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithWaitDelay bounds how long pipes stay open after the process group
// has been killed.
func WithWaitDelay(d time.Duration) SubprocessOption {
	return func(s *Subprocess) {
		if d > 0 {
			s.waitDelay = d
		}
	}
}

// WithCaptureLimit caps how many bytes of each output stream are kept.
func WithCaptureLimit(n int) SubprocessOption {
	return func(s *Subprocess) {
		if n > 0 {
			s.capture = n
		}
	}
}

func NewSubprocess(path string, l logging.Logger, opts ...SubprocessOption) *Subprocess {
	s := &Subprocess{
		path:      path,
		timeout:   DefaultTimeout,
		waitDelay: DefaultWaitDelay,
		capture:   DefaultCaptureLimit,
		logger:    l.With("module", "recognition"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Subprocess) Timeout() time.Duration { return s.timeout }

func (s *Subprocess) Invoke(ctx context.Context, req Request) Result {
	if err := req.Validate(); err != nil {
		return Failure(KindSystemError, "invalid request: "+err.Error())
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(slices.Clone(s.args), req.args()...)
	cmd := exec.CommandContext(runCtx, s.path, args...)
	cmd.Dir = s.dir
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}
	isolateProcessGroup(cmd)
	cmd.WaitDelay = s.waitDelay

	stdout := newTailBuffer(s.capture)
	stderr := newHeadBuffer(s.capture)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	tr := Transcript{Command: append([]string{s.path}, args...), ExitCode: -1}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		tr.Elapsed = time.Since(start)
		return s.finish(ctx, Failure(KindSystemError, fmt.Sprintf("failed to start recognizer: %v", err)), tr)
	}
	tr.PID = cmd.Process.Pid

	waitErr := cmd.Wait()
	tr.Elapsed = time.Since(start)
	tr.Stdout = stdout.String()
	tr.Stderr = stderr.String()
	tr.Truncated = stdout.truncated() || stderr.truncated()
	if cmd.ProcessState != nil {
		tr.ExitCode = cmd.ProcessState.ExitCode()
	}

	return s.finish(ctx, s.classify(runCtx, waitErr, tr), tr)
}

// classify applies the precedence rules to a finished process.
func (s *Subprocess) classify(runCtx context.Context, waitErr error, tr Transcript) Result {
	if waitErr != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return Failure(KindTimeout, fmt.Sprintf("recognizer did not finish within %s", s.timeout))
		case runCtx.Err() != nil:
			return Failure(KindSystemError, "recognition cancelled")
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return Failure(KindSystemError, fmt.Sprintf("recognizer exited with status %d", exitErr.ExitCode()))
		}
		return Failure(KindSystemError, "recognizer failed: "+waitErr.Error())
	}

	if tr.Stderr != "" {
		detail := "recognizer wrote to stderr"
		if line := firstLine(strings.TrimSpace(tr.Stderr)); line != "" {
			detail += ": " + line
		}
		return Failure(KindSystemError, detail)
	}

	last, logs := splitOutput(tr.Stdout)
	for _, l := range logs {
		s.logger.Debug(context.Background(), "recognizer output", "line", l)
	}
	return parsePayload(last)
}

func (s *Subprocess) finish(ctx context.Context, res Result, tr Transcript) Result {
	res.Transcript = tr
	s.logger.Debug(ctx, "recognizer finished",
		"kind", res.Kind.String(),
		"pid", tr.PID,
		"exit_code", tr.ExitCode,
		"elapsed", tr.Elapsed,
	)
	return res
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
