package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/facevote/internal/client/workflow"
)

// statusBanner is shown on start when voting requires face recognition.
func statusBanner(m workflow.AuthMode) string {
	if m != workflow.BiometricRequired {
		return ""
	}
	return "Secure Voting Enabled: [Face Recognition Active] Your identity will be verified via facial recognition when voting."
}

func (a *App) state() workflow.State {
	return a.wf.Snapshot().State
}

func (a *App) getStatus() string {
	snap := a.wf.Snapshot()
	parts := []string{}
	if snap.Identity != "" {
		parts = append(parts, snap.Identity)
	}
	parts = append(parts, snap.State.String())
	if m := a.getMode(); m != "" {
		parts = append(parts, string(m))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// report prints errors the transition observer has not already shown.
func (a *App) report(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrBusy):
		printlnFn("Please wait, an operation is in progress")
	case errors.Is(err, workflow.ErrInvalidTransition):
		printlnFn(fmt.Sprintf("Not available in state %s. Type 'help' for commands.", a.state()))
	case errors.Is(err, workflow.ErrEmptyCandidate):
		printlnFn("Usage: vote <candidate>")
	}
	return err
}

func (a *App) Start(ctx context.Context) error {
	return a.report(a.wf.Start(ctx))
}

func (a *App) Vote(ctx context.Context, candidate string) error {
	_, err := a.wf.Submit(ctx, candidate)
	return a.report(err)
}

func (a *App) Retry(ctx context.Context) error {
	return a.report(a.wf.Retry(ctx))
}

func (a *App) Abandon(ctx context.Context) error {
	return a.report(a.wf.Abandon(ctx))
}

func (a *App) NewSession(ctx context.Context) error {
	return a.report(a.wf.Reset(ctx))
}

func (a *App) Status(ctx context.Context) error {
	snap := a.wf.Snapshot()
	printlnFn(fmt.Sprintf("Session %s, mode %s, state %s, server %s", snap.ID, snap.Mode, snap.State, a.getMode()))
	if snap.Identity != "" {
		printlnFn("Voter:", snap.Identity)
	}
	if snap.Failure != nil {
		printlnFn(fmt.Sprintf("Last failure (%s): %s", snap.Failure.Stage, snap.Failure.Reason))
	}
	if snap.Receipt != nil {
		printlnFn(receiptLine(snap.Receipt.BallotID, snap.Receipt.Digest, snap.Receipt.Verified))
	}
	return nil
}

func (a *App) Receipts(ctx context.Context) error {
	voter := a.wf.Snapshot().Identity
	if voter == "" {
		s, err := a.promptUsername(ctx)
		if err != nil {
			return err
		}
		voter = s
	}
	list, err := a.receipts.Receipts(ctx, voter)
	if err != nil {
		a.logger.Error(ctx, "error listing receipts", "error", err)
		printlnFn("Could not read local receipts")
		return err
	}
	if len(list) == 0 {
		printlnFn("No receipts for", voter)
		return nil
	}
	for _, r := range list {
		printlnFn(fmt.Sprintf("%s  %s  %s", r.CastAt.Local().Format("2006-01-02 15:04:05"), r.Candidate, receiptLine(r.BallotID, r.Receipt, r.Verified)))
	}
	return nil
}

func receiptLine(ballotID, digest string, verified bool) string {
	check := "unverified"
	if verified {
		check = "verified"
	}
	return fmt.Sprintf("Ballot %s, receipt %s (%s)", ballotID, digest, check)
}

// onTransition renders the session as it moves between states.
func (a *App) onTransition(from, to workflow.State, s workflow.Session) {
	switch to {
	case workflow.Authenticating:
		if s.Mode == workflow.BiometricRequired {
			printlnFn("Initializing face recognition, look at the camera...")
		}
	case workflow.CheckingEligibility:
		printlnFn(fmt.Sprintf("%s detected. Checking eligibility...", s.Identity))
	case workflow.Voting:
		if from == workflow.Failed {
			printlnFn("You can resubmit your vote:", "vote <candidate>")
		} else {
			printlnFn(fmt.Sprintf("%s is eligible to vote. Cast your vote with: vote <candidate>", s.Identity))
		}
	case workflow.Submitting:
		printlnFn("Submitting vote for", s.Candidate+"...")
	case workflow.Complete:
		printlnFn("Vote recorded.")
		if s.Receipt != nil {
			printlnFn(receiptLine(s.Receipt.BallotID, s.Receipt.Digest, s.Receipt.Verified))
		}
	case workflow.Failed:
		if s.Failure != nil {
			printlnFn(fmt.Sprintf("%s failed: %s", failureTitle(s.Failure.Stage), s.Failure.Reason))
		}
		printlnFn("Type 'retry' to try again or 'abandon' to start over.")
	case workflow.Idle:
		if from != workflow.Idle {
			printlnFn("Ready. Type 'start' to begin.")
		}
	}
}

func failureTitle(st workflow.Stage) string {
	switch st {
	case workflow.StageAuthentication:
		return "Authentication"
	case workflow.StageEligibility:
		return "Eligibility check"
	default:
		return "Vote submission"
	}
}
