// Package recognition runs the external face recognition program and turns
// its output into a typed Result, then into the HTTP response envelope.
//
// The Recognizer interface is the pluggable capability: Subprocess shells
// out to a program, RecognizerFunc adapts an in-process function, and
// Mapped rewrites recognized face labels into voter usernames.
package recognition

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Defaults used by the original deployment: ten seconds of capture at an
// 80% confidence threshold, bounded by a thirty second wall clock.
const (
	DefaultDurationSeconds     = 10
	DefaultConfidenceThreshold = 80
	DefaultTimeout             = 30 * time.Second
	DefaultWaitDelay           = 2 * time.Second
	DefaultCaptureLimit        = 1 << 20
)

// Kind classifies the outcome of one invocation.
type Kind int

const (
	KindSuccess Kind = iota
	KindRecognitionFailed
	KindSystemError
	KindTimeout
	KindParseError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRecognitionFailed:
		return "recognition_failed"
	case KindSystemError:
		return "system_error"
	case KindTimeout:
		return "timeout"
	case KindParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Request carries the two positional parameters handed to the program.
type Request struct {
	DurationSeconds     int
	ConfidenceThreshold int
}

// DefaultRequest returns the parameters used by the face-recognition route.
func DefaultRequest() Request {
	return Request{DurationSeconds: DefaultDurationSeconds, ConfidenceThreshold: DefaultConfidenceThreshold}
}

func (r Request) Validate() error {
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive, got %d", r.DurationSeconds)
	}
	if r.ConfidenceThreshold < 0 || r.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be within [0,100], got %d", r.ConfidenceThreshold)
	}
	return nil
}

func (r Request) args() []string {
	return []string{strconv.Itoa(r.DurationSeconds), strconv.Itoa(r.ConfidenceThreshold)}
}

// Transcript is the raw record of an invocation. It is kept for logging and
// archiving and never reaches the HTTP response.
type Transcript struct {
	Command  []string      `json:"command"`
	PID      int           `json:"pid,omitempty"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Elapsed  time.Duration `json:"elapsed"`
	// Truncated reports that a stream exceeded the capture limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Result is the typed outcome of one invocation. Identity is set only for
// KindSuccess, Detail only for the other kinds.
type Result struct {
	Kind       Kind
	Identity   string
	Detail     string
	Transcript Transcript
}

func (r Result) Succeeded() bool { return r.Kind == KindSuccess }

// Success builds a successful result for identity.
func Success(identity string) Result {
	return Result{Kind: KindSuccess, Identity: identity}
}

// Failure builds a non-success result. Passing KindSuccess is a programming
// error and is reported as a system error instead.
func Failure(kind Kind, detail string) Result {
	if kind == KindSuccess {
		return Result{Kind: KindSystemError, Detail: "success reported without identity"}
	}
	return Result{Kind: kind, Detail: detail}
}

// Recognizer performs exactly one recognition attempt per call. It never
// returns an error: every failure is one of the Kind values.
type Recognizer interface {
	Invoke(ctx context.Context, req Request) Result
}

// RecognizerFunc adapts an ordinary function to Recognizer.
type RecognizerFunc func(ctx context.Context, req Request) Result

func (f RecognizerFunc) Invoke(ctx context.Context, req Request) Result {
	return f(ctx, req)
}
