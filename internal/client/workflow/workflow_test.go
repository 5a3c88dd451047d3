package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	mu    sync.Mutex
	calls int
	id    Identity
	err   error
	// block, when set, holds Authenticate until it is closed.
	block chan struct{}
}

func (f *fakeAuth) Authenticate(ctx context.Context) (Identity, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.id, f.err
}

type fakeChecker struct {
	calls []string
	res   Eligibility
	err   error
}

func (f *fakeChecker) Check(ctx context.Context, username string) (Eligibility, error) {
	f.calls = append(f.calls, username)
	return f.res, f.err
}

type fakeSubmitter struct {
	mu      sync.Mutex
	ballots []Ballot
	receipt Receipt
	err     error
	block   chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, b Ballot) (Receipt, error) {
	f.mu.Lock()
	f.ballots = append(f.ballots, b)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.receipt, f.err
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) observe(from, to State, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		r.states = append(r.states, from)
	}
	r.states = append(r.states, to)
}

func (r *recorder) path() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

type harness struct {
	wf   *Workflow
	auth *fakeAuth
	elig *fakeChecker
	sub  *fakeSubmitter
	rec  *recorder
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*3600))

func newHarness(t *testing.T, mode AuthMode) *harness {
	t.Helper()
	h := &harness{
		auth: &fakeAuth{id: Identity{Username: "alice", Token: "tok"}},
		elig: &fakeChecker{res: Eligible},
		sub:  &fakeSubmitter{receipt: Receipt{BallotID: "b1", Digest: "d1"}},
		rec:  &recorder{},
	}
	caps := Capabilities{Eligibility: h.elig, Submitter: h.sub}
	if mode == BiometricRequired {
		caps.Biometric = h.auth
	} else {
		caps.Standard = h.auth
	}
	wf, err := New(mode, caps, logging.Nop(),
		WithClock(func() time.Time { return fixedNow }),
		WithObserver(h.rec.observe))
	require.NoError(t, err)
	h.wf = wf
	return h
}

func TestNew_Validation(t *testing.T) {
	a := &fakeAuth{}
	c := &fakeChecker{}
	s := &fakeSubmitter{}

	_, err := New(BiometricRequired, Capabilities{Standard: a, Eligibility: c, Submitter: s}, logging.Nop())
	require.Error(t, err)

	_, err = New(Standard, Capabilities{Biometric: a, Eligibility: c, Submitter: s}, logging.Nop())
	require.Error(t, err)

	_, err = New(AuthMode(9), Capabilities{Biometric: a, Standard: a, Eligibility: c, Submitter: s}, logging.Nop())
	require.Error(t, err)

	_, err = New(Standard, Capabilities{Standard: a, Submitter: s}, logging.Nop())
	require.Error(t, err)

	wf, err := New(Standard, Capabilities{Standard: a, Eligibility: c, Submitter: s}, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, Standard, wf.Mode())
	snap := wf.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, Standard, snap.Mode)
	assert.NotEmpty(t, snap.ID)
}

func TestWorkflow_HappyPath(t *testing.T) {
	for _, mode := range []AuthMode{BiometricRequired, Standard} {
		t.Run(mode.String(), func(t *testing.T) {
			h := newHarness(t, mode)
			ctx := context.Background()

			require.NoError(t, h.wf.Start(ctx))
			snap := h.wf.Snapshot()
			assert.Equal(t, Voting, snap.State)
			assert.Equal(t, "alice", snap.Identity)
			assert.Equal(t, 1, h.auth.calls)
			assert.Equal(t, []string{"alice"}, h.elig.calls)

			receipt, err := h.wf.Submit(ctx, "  c1 ")
			require.NoError(t, err)
			assert.Equal(t, Receipt{BallotID: "b1", Digest: "d1"}, receipt)

			require.Len(t, h.sub.ballots, 1)
			b := h.sub.ballots[0]
			assert.Equal(t, "alice", b.Voter())
			assert.Equal(t, "c1", b.Candidate())
			assert.Equal(t, "tok", b.Token())
			assert.True(t, b.Timestamp().Equal(fixedNow))
			assert.Equal(t, time.UTC, b.Timestamp().Location())
			assert.False(t, b.IsZero())

			snap = h.wf.Snapshot()
			assert.Equal(t, Complete, snap.State)
			require.NotNil(t, snap.Receipt)
			assert.Equal(t, "b1", snap.Receipt.BallotID)

			assert.Equal(t, []State{Idle, Authenticating, Authenticated, CheckingEligibility, Voting, Submitting, Complete}, h.rec.path())
		})
	}
}

func TestWorkflow_CompleteIsTerminal(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	ctx := context.Background()
	require.NoError(t, h.wf.Start(ctx))
	_, err := h.wf.Submit(ctx, "c1")
	require.NoError(t, err)

	require.ErrorIs(t, h.wf.Start(ctx), ErrInvalidTransition)
	_, err = h.wf.Submit(ctx, "c2")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, h.wf.Retry(ctx), ErrInvalidTransition)
	require.ErrorIs(t, h.wf.Abandon(ctx), ErrInvalidTransition)
	assert.Len(t, h.sub.ballots, 1)

	id := h.wf.Snapshot().ID
	require.NoError(t, h.wf.Reset(ctx))
	snap := h.wf.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.NotEqual(t, id, snap.ID)
	assert.Empty(t, snap.Identity)
	assert.Nil(t, snap.Receipt)

	require.ErrorIs(t, h.wf.Reset(ctx), ErrInvalidTransition)
}

func TestWorkflow_AuthenticationFailure(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	h.auth.err = errors.New("no match")
	ctx := context.Background()

	err := h.wf.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no match")

	snap := h.wf.Snapshot()
	assert.Equal(t, Failed, snap.State)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, StageAuthentication, snap.Failure.Stage)
	assert.Equal(t, "no match", snap.Failure.Reason)
	assert.Empty(t, snap.Identity)
	assert.Empty(t, h.elig.calls)

	_, err = h.wf.Submit(ctx, "c1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, h.wf.Start(ctx), ErrInvalidTransition)

	require.NoError(t, h.wf.Retry(ctx))
	snap = h.wf.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Failure)

	h.auth.err = nil
	require.NoError(t, h.wf.Start(ctx))
	assert.Equal(t, Voting, h.wf.Snapshot().State)
	assert.Equal(t, 2, h.auth.calls)
}

func TestWorkflow_EmptyIdentityIsAuthFailure(t *testing.T) {
	h := newHarness(t, Standard)
	h.auth.id = Identity{Username: "  "}

	require.Error(t, h.wf.Start(context.Background()))
	snap := h.wf.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, StageAuthentication, snap.Failure.Stage)
	assert.Empty(t, h.elig.calls)
}

// An unregistered user is treated as ineligible and retry
// returns to Idle without the identity.
func TestWorkflow_UnregisteredUserIsIneligible(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	h.auth.id = Identity{Username: "ghost"}
	h.elig.res = NotFound
	ctx := context.Background()

	err := h.wf.Start(ctx)
	require.ErrorIs(t, err, common.ErrorIneligible)
	require.ErrorIs(t, err, common.ErrorNotFound)

	snap := h.wf.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, StageEligibility, snap.Failure.Stage)
	assert.Equal(t, "User ghost Not Found", snap.Failure.Reason)
	assert.Equal(t, "ghost", snap.Identity)

	require.NoError(t, h.wf.Retry(ctx))
	snap = h.wf.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Empty(t, snap.Identity)
	assert.Empty(t, h.sub.ballots)

	assert.Equal(t, []State{Idle, Authenticating, Authenticated, CheckingEligibility, Failed, Idle}, h.rec.path())
}

func TestWorkflow_EligibilityOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		res     Eligibility
		err     error
		wantErr error
	}{
		{name: "ineligible", res: Ineligible, wantErr: common.ErrorIneligible},
		{name: "lookup error", res: Eligible, err: errors.New("connection refused")},
		{name: "unknown value fails closed", res: Eligibility(42), wantErr: common.ErrorIneligible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, BiometricRequired)
			h.elig.res = tt.res
			h.elig.err = tt.err

			err := h.wf.Start(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			}
			snap := h.wf.Snapshot()
			assert.Equal(t, Failed, snap.State)
			assert.Equal(t, StageEligibility, snap.Failure.Stage)

			require.NoError(t, h.wf.Retry(context.Background()))
			assert.Equal(t, Idle, h.wf.Snapshot().State)
		})
	}
}

// A network failure during submission leaves the ballot
// unconsumed and allows resubmission from Voting.
func TestWorkflow_SubmissionFailureAndResubmit(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	ctx := context.Background()
	require.NoError(t, h.wf.Start(ctx))

	netErr := errors.New("network error: connection reset")
	h.sub.err = netErr
	_, err := h.wf.Submit(ctx, "c1")
	require.ErrorIs(t, err, netErr)

	snap := h.wf.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, StageSubmission, snap.Failure.Stage)
	assert.Nil(t, snap.Receipt)
	assert.Equal(t, "alice", snap.Identity)
	assert.Equal(t, "c1", snap.Candidate)

	require.NoError(t, h.wf.Retry(ctx))
	snap = h.wf.Snapshot()
	assert.Equal(t, Voting, snap.State)
	assert.Equal(t, "alice", snap.Identity)
	assert.Nil(t, snap.Failure)

	h.sub.err = nil
	_, err = h.wf.Submit(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, Complete, h.wf.Snapshot().State)

	require.Len(t, h.sub.ballots, 2)
	assert.Equal(t, "c2", h.sub.ballots[1].Candidate())
	assert.Equal(t, "tok", h.sub.ballots[1].Token())
	// authentication and eligibility were not repeated
	assert.Equal(t, 1, h.auth.calls)
	assert.Len(t, h.elig.calls, 1)
}

func TestWorkflow_SubmitRejectsEmptyCandidate(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	ctx := context.Background()
	require.NoError(t, h.wf.Start(ctx))

	_, err := h.wf.Submit(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyCandidate)
	assert.Equal(t, Voting, h.wf.Snapshot().State)
	assert.Empty(t, h.sub.ballots)
}

func TestWorkflow_InvalidTransitionsFromIdle(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	ctx := context.Background()

	_, err := h.wf.Submit(ctx, "c1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, h.wf.Retry(ctx), ErrInvalidTransition)
	assert.Equal(t, Idle, h.wf.Snapshot().State)
}

func TestWorkflow_BusyWhileAuthenticating(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	h.auth.block = make(chan struct{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- h.wf.Start(ctx) }()

	require.Eventually(t, func() bool {
		return h.wf.Snapshot().State == Authenticating
	}, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, h.wf.Start(ctx), ErrBusy)
	require.ErrorIs(t, h.wf.Abandon(ctx), ErrBusy)
	require.ErrorIs(t, h.wf.Retry(ctx), ErrBusy)
	_, err := h.wf.Submit(ctx, "c1")
	require.ErrorIs(t, err, ErrBusy)

	close(h.auth.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.auth.calls)
	assert.Equal(t, Voting, h.wf.Snapshot().State)
}

func TestWorkflow_BusyWhileSubmitting(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	ctx := context.Background()
	require.NoError(t, h.wf.Start(ctx))

	h.sub.block = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := h.wf.Submit(ctx, "c1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return h.wf.Snapshot().State == Submitting
	}, time.Second, 5*time.Millisecond)

	_, err := h.wf.Submit(ctx, "c1")
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, h.wf.Abandon(ctx), ErrBusy)

	close(h.sub.block)
	require.NoError(t, <-done)

	h.sub.mu.Lock()
	defer h.sub.mu.Unlock()
	assert.Len(t, h.sub.ballots, 1)
}

func TestWorkflow_Abandon(t *testing.T) {
	ctx := context.Background()

	t.Run("from voting", func(t *testing.T) {
		h := newHarness(t, BiometricRequired)
		require.NoError(t, h.wf.Start(ctx))
		id := h.wf.Snapshot().ID

		require.NoError(t, h.wf.Abandon(ctx))
		snap := h.wf.Snapshot()
		assert.Equal(t, Idle, snap.State)
		assert.NotEqual(t, id, snap.ID)
		assert.Empty(t, snap.Identity)

		// token is gone with the session
		h.auth.id = Identity{Username: "bob"}
		require.NoError(t, h.wf.Start(ctx))
		_, err := h.wf.Submit(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "bob", h.sub.ballots[0].Voter())
		assert.Empty(t, h.sub.ballots[0].Token())
	})

	t.Run("from failed", func(t *testing.T) {
		h := newHarness(t, BiometricRequired)
		require.NoError(t, h.wf.Start(ctx))
		h.sub.err = errors.New("boom")
		_, err := h.wf.Submit(ctx, "c1")
		require.Error(t, err)

		require.NoError(t, h.wf.Abandon(ctx))
		snap := h.wf.Snapshot()
		assert.Equal(t, Idle, snap.State)
		assert.Nil(t, snap.Failure)
		assert.Empty(t, snap.Candidate)
	})

	t.Run("from idle", func(t *testing.T) {
		h := newHarness(t, BiometricRequired)
		id := h.wf.Snapshot().ID
		require.NoError(t, h.wf.Abandon(ctx))
		assert.NotEqual(t, id, h.wf.Snapshot().ID)
	})
}

func TestWorkflow_SnapshotIsACopy(t *testing.T) {
	h := newHarness(t, BiometricRequired)
	h.auth.err = errors.New("no match")
	_ = h.wf.Start(context.Background())

	snap := h.wf.Snapshot()
	snap.Failure.Reason = "changed"
	assert.Equal(t, "no match", h.wf.Snapshot().Failure.Reason)
}

func TestWorkflow_SubscribeAndObserverSnapshots(t *testing.T) {
	h := newHarness(t, BiometricRequired)

	var got []Session
	h.wf.Subscribe(func(from, to State, s Session) {
		// calling back into the workflow must not deadlock
		_ = h.wf.Snapshot()
		got = append(got, s)
	})

	require.NoError(t, h.wf.Start(context.Background()))
	require.Len(t, got, 4)
	assert.Equal(t, Authenticating, got[0].State)
	assert.Empty(t, got[0].Identity)
	assert.Equal(t, Voting, got[3].State)
	assert.Equal(t, "alice", got[3].Identity)
}
