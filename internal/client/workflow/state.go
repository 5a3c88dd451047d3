package workflow

import (
	"fmt"
	"strings"
)

// State is a step of the voting session.
type State int

const (
	Idle State = iota
	Authenticating
	Authenticated
	CheckingEligibility
	Voting
	Submitting
	Complete
	Failed
)

var stateNames = [...]string{
	Idle:                "idle",
	Authenticating:      "authenticating",
	Authenticated:       "authenticated",
	CheckingEligibility: "checking_eligibility",
	Voting:              "voting",
	Submitting:          "submitting",
	Complete:            "complete",
	Failed:              "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// busy reports whether a network call is in flight in state s.
func (s State) busy() bool {
	return s == Authenticating || s == CheckingEligibility || s == Submitting
}

// Event drives a transition.
type Event int

const (
	EventStart Event = iota
	EventAuthSucceeded
	EventAuthFailed
	EventCheckEligibility
	EventEligible
	EventIneligible
	EventSubmit
	EventSubmitSucceeded
	EventSubmitFailed
	EventRetryAuthentication
	EventRetrySubmission
	EventAbandon
)

var eventNames = [...]string{
	EventStart:               "start",
	EventAuthSucceeded:       "auth_succeeded",
	EventAuthFailed:          "auth_failed",
	EventCheckEligibility:    "check_eligibility",
	EventEligible:            "eligible",
	EventIneligible:          "ineligible",
	EventSubmit:              "submit",
	EventSubmitSucceeded:     "submit_succeeded",
	EventSubmitFailed:        "submit_failed",
	EventRetryAuthentication: "retry_authentication",
	EventRetrySubmission:     "retry_submission",
	EventAbandon:             "abandon",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

type transitionKey struct {
	from  State
	event Event
}

// transitions is the complete state machine. Anything missing is rejected
// with ErrInvalidTransition.
var transitions = map[transitionKey]State{
	{Idle, EventStart}:                     Authenticating,
	{Authenticating, EventAuthSucceeded}:   Authenticated,
	{Authenticating, EventAuthFailed}:      Failed,
	{Authenticated, EventCheckEligibility}: CheckingEligibility,
	{CheckingEligibility, EventEligible}:   Voting,
	{CheckingEligibility, EventIneligible}: Failed,
	{Voting, EventSubmit}:                  Submitting,
	{Submitting, EventSubmitSucceeded}:     Complete,
	{Submitting, EventSubmitFailed}:        Failed,
	{Failed, EventRetryAuthentication}:     Idle,
	{Failed, EventRetrySubmission}:         Voting,
	{Idle, EventAbandon}:                   Idle,
	{Authenticated, EventAbandon}:          Idle,
	{Voting, EventAbandon}:                 Idle,
	{Failed, EventAbandon}:                 Idle,
}

// Stage names the step a failure happened in. It selects the retry target.
type Stage int

const (
	StageAuthentication Stage = iota
	StageEligibility
	StageSubmission
)

func (s Stage) String() string {
	switch s {
	case StageAuthentication:
		return "authentication"
	case StageEligibility:
		return "eligibility"
	case StageSubmission:
		return "submission"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// AuthMode selects how the voter is identified.
type AuthMode int

const (
	// Standard asks the voter for a username. No credential is checked.
	Standard AuthMode = iota
	// BiometricRequired authenticates through server-side face recognition.
	BiometricRequired
)

func (m AuthMode) String() string {
	switch m {
	case Standard:
		return "standard"
	case BiometricRequired:
		return "biometric"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseAuthMode accepts "standard" and "biometric" in any case.
func ParseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return Standard, nil
	case "biometric", "biometric_required":
		return BiometricRequired, nil
	default:
		return 0, fmt.Errorf("unknown auth mode %q", s)
	}
}
