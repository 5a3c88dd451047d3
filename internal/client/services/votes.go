package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facevote/internal/client/client"
	"github.com/dmitrijs2005/facevote/internal/client/models"
	"github.com/dmitrijs2005/facevote/internal/client/repositories/receipts"
	"github.com/dmitrijs2005/facevote/internal/client/workflow"
	"github.com/dmitrijs2005/facevote/internal/cryptox"
	"github.com/dmitrijs2005/facevote/internal/logging"
)

// ErrZeroBallot is returned for a ballot not built by a workflow.
var ErrZeroBallot = errors.New("ballot was not built by a voting session")

// VoteService submits ballots and keeps a local receipt of each accepted one.
type VoteService struct {
	client   client.Client
	receipts receipts.Repository
	logger   logging.Logger
}

// NewVoteService returns a submitter. repo may be nil, in which case no
// receipts are stored.
func NewVoteService(c client.Client, repo receipts.Repository, l logging.Logger) *VoteService {
	return &VoteService{client: c, receipts: repo, logger: l.With("module", "votes")}
}

// Submit sends b once. Every failure, including a rejected ballot, wraps
// client.ErrNetwork.
func (s *VoteService) Submit(ctx context.Context, b workflow.Ballot) (workflow.Receipt, error) {
	if b.IsZero() {
		return workflow.Receipt{}, ErrZeroBallot
	}

	req := client.VoteRequest{Voter: b.Voter(), Candidate: b.Candidate(), Timestamp: b.Timestamp()}
	resp, err := s.client.SubmitVote(ctx, req, b.Token())
	if err != nil {
		return workflow.Receipt{}, fmt.Errorf("%w: %w", client.ErrNetwork, err)
	}

	r := workflow.Receipt{
		BallotID: resp.BallotID,
		Digest:   resp.Receipt,
		Verified: cryptox.ReceiptMatches(resp.Receipt, b.Voter(), b.Candidate(), b.Timestamp()),
	}
	if !r.Verified {
		s.logger.Warn(ctx, "receipt does not match ballot", "ballot", r.BallotID)
	}

	if s.receipts != nil {
		rec := &models.Receipt{
			BallotID:  r.BallotID,
			Voter:     b.Voter(),
			Candidate: b.Candidate(),
			CastAt:    b.Timestamp(),
			Receipt:   r.Digest,
			Verified:  r.Verified,
		}
		// the vote is already recorded server-side; a local write failure
		// must not turn it into a failed submission
		if err := s.receipts.Save(ctx, rec); err != nil {
			s.logger.Error(ctx, "failed to save receipt", "ballot", r.BallotID, "error", err)
		}
	}
	return r, nil
}

// Receipts lists the locally stored receipts of voter, newest first.
func (s *VoteService) Receipts(ctx context.Context, voter string) ([]models.Receipt, error) {
	if s.receipts == nil {
		return nil, nil
	}
	return s.receipts.ListByVoter(ctx, voter)
}
