package workflow

import (
	"context"
	"time"
)

// Identity is an authenticated voter. Token is the voter credential issued
// by the server and is empty in Standard mode.
type Identity struct {
	Username string
	Token    string
}

// Eligibility is the outcome of an eligibility lookup. The zero value is
// Ineligible.
type Eligibility int

const (
	Ineligible Eligibility = iota
	Eligible
	NotFound
)

func (e Eligibility) String() string {
	switch e {
	case Eligible:
		return "eligible"
	case NotFound:
		return "not_found"
	default:
		return "ineligible"
	}
}

// Ballot is a candidate choice ready for submission. Only the workflow can
// build one, and only from the Voting state.
type Ballot struct {
	voter     string
	candidate string
	timestamp time.Time
	token     string
}

func (b Ballot) Voter() string        { return b.voter }
func (b Ballot) Candidate() string    { return b.candidate }
func (b Ballot) Timestamp() time.Time { return b.timestamp }

// Token returns the voter credential to present with the ballot.
func (b Ballot) Token() string { return b.token }

// IsZero reports whether b was not built by a workflow.
func (b Ballot) IsZero() bool { return b.voter == "" }

// Receipt acknowledges an accepted ballot.
type Receipt struct {
	BallotID string
	Digest   string
	// Verified is set when Digest matched the locally computed one.
	Verified bool
}

// Authenticator identifies the voter. One call is one attempt.
type Authenticator interface {
	Authenticate(ctx context.Context) (Identity, error)
}

// EligibilityChecker looks up whether username may vote. A returned error
// is a failed lookup, not an ineligible voter.
type EligibilityChecker interface {
	Check(ctx context.Context, username string) (Eligibility, error)
}

// VoteSubmitter submits a ballot once.
type VoteSubmitter interface {
	Submit(ctx context.Context, b Ballot) (Receipt, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context) (Identity, error) { return f(ctx) }
