package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned while a network call of the session is in flight.
	ErrBusy = errors.New("operation in progress")
	// ErrInvalidTransition is returned for an action the current state does
	// not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrEmptyCandidate is returned by Submit for a blank candidate id.
	ErrEmptyCandidate = errors.New("candidate is required")
)

// Failure describes why the session is in the Failed state.
type Failure struct {
	Stage  Stage
	Reason string
	Err    error
}

// Session is a snapshot of the live session.
type Session struct {
	ID       string
	Mode     AuthMode
	State    State
	Identity string
	// Candidate is the last submitted choice. It survives a failed
	// submission so the voter can resubmit it.
	Candidate string
	Failure   *Failure
	Receipt   *Receipt
}

// Observer is called after every transition, outside the workflow lock.
type Observer func(from, to State, s Session)

// Capabilities are the collaborators of a Workflow. Only the authenticator
// matching the mode is required.
type Capabilities struct {
	Biometric   Authenticator
	Standard    Authenticator
	Eligibility EligibilityChecker
	Submitter   VoteSubmitter
}

// Workflow drives one voter through authentication, eligibility, ballot
// casting and completion. Methods are safe for concurrent use; at most one
// network call is in flight at a time.
type Workflow struct {
	mode        AuthMode
	auth        Authenticator
	eligibility EligibilityChecker
	submitter   VoteSubmitter
	logger      logging.Logger
	now         func() time.Time

	mu        sync.Mutex
	session   Session
	token     string
	observers []Observer
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the ballot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithObserver registers o at construction time.
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		if o != nil {
			w.observers = append(w.observers, o)
		}
	}
}

// New builds a workflow in the Idle state. The mode picks the authenticator.
func New(mode AuthMode, c Capabilities, l logging.Logger, opts ...Option) (*Workflow, error) {
	var auth Authenticator
	switch mode {
	case BiometricRequired:
		auth = c.Biometric
	case Standard:
		auth = c.Standard
	default:
		return nil, fmt.Errorf("unknown auth mode %d", int(mode))
	}
	if auth == nil {
		return nil, fmt.Errorf("no authenticator for %s mode", mode)
	}
	if c.Eligibility == nil || c.Submitter == nil {
		return nil, errors.New("eligibility checker and vote submitter are required")
	}

	w := &Workflow{
		mode:        mode,
		auth:        auth,
		eligibility: c.Eligibility,
		submitter:   c.Submitter,
		logger:      l.With("module", "workflow"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.session = w.freshSession()
	return w, nil
}

func (w *Workflow) freshSession() Session {
	return Session{ID: uuid.NewString(), Mode: w.mode, State: Idle}
}

// Mode returns the authentication mode.
func (w *Workflow) Mode() AuthMode { return w.mode }

// Snapshot returns a copy of the live session.
func (w *Workflow) Snapshot() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Session {
	s := w.session
	if s.Failure != nil {
		f := *s.Failure
		s.Failure = &f
	}
	if s.Receipt != nil {
		r := *s.Receipt
		s.Receipt = &r
	}
	return s
}

// Subscribe registers an observer for later transitions.
func (w *Workflow) Subscribe(o Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, o)
}

type change struct {
	from, to State
	snap     Session
}

// fire applies event to the session. The caller holds mu and has already
// made the state changes the event implies.
func (w *Workflow) fire(ctx context.Context, event Event) (change, error) {
	from := w.session.State
	to, ok := transitions[transitionKey{from, event}]
	if !ok {
		return change{}, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, from)
	}
	w.session.State = to
	w.logger.Debug(ctx, "transition", "session", w.session.ID, "event", event.String(), "from", from.String(), "to", to.String())
	return change{from: from, to: to, snap: w.snapshotLocked()}, nil
}

// guard rejects any action while a call is in flight.
func (w *Workflow) guard() error {
	if w.session.State.busy() {
		return fmt.Errorf("%w: %s", ErrBusy, w.session.State)
	}
	return nil
}

func (w *Workflow) notify(changes ...change) {
	w.mu.Lock()
	observers := append([]Observer(nil), w.observers...)
	w.mu.Unlock()

	for _, c := range changes {
		for _, o := range observers {
			o(c.from, c.to, c.snap)
		}
	}
}

// fail moves the session to Failed and returns the failure error.
func (w *Workflow) fail(ctx context.Context, event Event, stage Stage, reason string, err error) error {
	w.mu.Lock()
	w.session.Failure = &Failure{Stage: stage, Reason: reason, Err: err}
	c, ferr := w.fire(ctx, event)
	w.mu.Unlock()
	if ferr != nil {
		return ferr
	}
	w.logger.Warn(ctx, "session failed", "session", c.snap.ID, "stage", stage.String(), "reason", reason)
	w.notify(c)
	return fmt.Errorf("%s failed: %w", stage, err)
}

// Start authenticates the voter and checks eligibility. It returns nil when
// the session reaches Voting and the failure error when it reaches Failed.
func (w *Workflow) Start(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guard(); err != nil {
		w.mu.Unlock()
		return err
	}
	c, err := w.fire(ctx, EventStart)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(c)

	id, err := w.auth.Authenticate(ctx)
	if err == nil && strings.TrimSpace(id.Username) == "" {
		err = errors.New("authenticator returned an empty identity")
	}
	if err != nil {
		return w.fail(ctx, EventAuthFailed, StageAuthentication, err.Error(), err)
	}

	w.mu.Lock()
	w.session.Identity = id.Username
	w.token = id.Token
	c1, err := w.fire(ctx, EventAuthSucceeded)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	c2, err := w.fire(ctx, EventCheckEligibility)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.logger.Info(ctx, "voter authenticated", "session", c1.snap.ID, "username", id.Username, "mode", w.mode.String())
	w.notify(c1, c2)

	elig, err := w.eligibility.Check(ctx, id.Username)
	switch {
	case err != nil:
		return w.fail(ctx, EventIneligible, StageEligibility, err.Error(), err)
	case elig == NotFound:
		return w.fail(ctx, EventIneligible, StageEligibility,
			fmt.Sprintf("User %s Not Found", id.Username),
			fmt.Errorf("%w: %w", common.ErrorIneligible, common.ErrorNotFound))
	case elig != Eligible:
		return w.fail(ctx, EventIneligible, StageEligibility,
			fmt.Sprintf("User %s is not eligible to vote", id.Username), common.ErrorIneligible)
	}

	w.mu.Lock()
	c, err = w.fire(ctx, EventEligible)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(c)
	return nil
}

// Submit builds a ballot for candidate and submits it once.
func (w *Workflow) Submit(ctx context.Context, candidate string) (Receipt, error) {
	candidate = strings.TrimSpace(candidate)

	w.mu.Lock()
	if err := w.guard(); err != nil {
		w.mu.Unlock()
		return Receipt{}, err
	}
	if w.session.State != Voting {
		from := w.session.State
		w.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, EventSubmit, from)
	}
	if candidate == "" {
		w.mu.Unlock()
		return Receipt{}, ErrEmptyCandidate
	}
	ballot := Ballot{
		voter:     w.session.Identity,
		candidate: candidate,
		timestamp: w.now().UTC(),
		token:     w.token,
	}
	w.session.Candidate = candidate
	w.session.Failure = nil
	c, err := w.fire(ctx, EventSubmit)
	w.mu.Unlock()
	if err != nil {
		return Receipt{}, err
	}
	w.notify(c)

	receipt, err := w.submitter.Submit(ctx, ballot)
	if err != nil {
		return Receipt{}, w.fail(ctx, EventSubmitFailed, StageSubmission, err.Error(), err)
	}

	w.mu.Lock()
	w.session.Receipt = &receipt
	c, err = w.fire(ctx, EventSubmitSucceeded)
	w.mu.Unlock()
	if err != nil {
		return Receipt{}, err
	}
	w.logger.Info(ctx, "ballot accepted", "session", c.snap.ID, "ballot", receipt.BallotID)
	w.notify(c)
	return receipt, nil
}

// Retry leaves the Failed state. A failed submission returns to Voting with
// the identity kept; any earlier failure returns to Idle and discards it.
func (w *Workflow) Retry(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guard(); err != nil {
		w.mu.Unlock()
		return err
	}
	event := EventRetryAuthentication
	if f := w.session.Failure; f != nil && f.Stage == StageSubmission {
		event = EventRetrySubmission
	}
	c, err := w.fire(ctx, event)
	if err == nil {
		w.session.Failure = nil
		if event == EventRetryAuthentication {
			w.session.Identity = ""
			w.session.Candidate = ""
			w.token = ""
		}
		c.snap = w.snapshotLocked()
	}
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(c)
	return nil
}

// Abandon drops the session and starts a fresh one in Idle.
func (w *Workflow) Abandon(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guard(); err != nil {
		w.mu.Unlock()
		return err
	}
	c, err := w.fire(ctx, EventAbandon)
	if err == nil {
		w.session = w.freshSession()
		w.token = ""
		c.snap = w.snapshotLocked()
	}
	w.mu.Unlock()
	if err != nil {
		return err
	}
	w.notify(c)
	return nil
}

// Reset discards a completed session and begins a new one. Complete is
// terminal for the session itself; Reset replaces it.
func (w *Workflow) Reset(ctx context.Context) error {
	w.mu.Lock()
	if w.session.State != Complete {
		from := w.session.State
		w.mu.Unlock()
		return fmt.Errorf("%w: reset in state %s", ErrInvalidTransition, from)
	}
	old := w.session.ID
	w.session = w.freshSession()
	w.token = ""
	c := change{from: Complete, to: Idle, snap: w.snapshotLocked()}
	w.mu.Unlock()

	w.logger.Debug(ctx, "session reset", "session", old, "next", c.snap.ID)
	w.notify(c)
	return nil
}
