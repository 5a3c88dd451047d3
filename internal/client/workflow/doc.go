// Package workflow implements the client voting session as a table-driven
// state machine:
//
//	Idle → Authenticating → Authenticated → CheckingEligibility → Voting → Submitting → Complete
//
// Any stage can end in Failed. Retry returns a failed submission to Voting
// and every other failure to Idle. Abandon starts a fresh session.
//
// The workflow calls three capabilities, each at most once per action: an
// Authenticator (face recognition or a plain identity prompt, chosen by
// AuthMode), an EligibilityChecker and a VoteSubmitter. It never retries on
// its own.
package workflow
