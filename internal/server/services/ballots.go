package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/cryptox"
	"github.com/dmitrijs2005/facevote/internal/dbx"
	"github.com/dmitrijs2005/facevote/internal/server/models"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/repomanager"
)

// maxClockSkew bounds how far in the future a client timestamp may be.
const maxClockSkew = 5 * time.Minute

type BallotService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewBallotService(db *sql.DB, m repomanager.RepositoryManager) *BallotService {
	return &BallotService{db: db, repomanager: m, now: time.Now}
}

// Submit records one ballot for voter. The eligibility check, the has-voted
// flip and the insert run in one transaction, so a voter can never end up
// with two ballots.
//
// Errors: common.ErrorInvalidBallot, common.ErrorIneligible (unknown or
// ineligible voter), common.ErrorAlreadyVoted.
func (s *BallotService) Submit(ctx context.Context, voter, candidate string, castAt time.Time) (*models.Ballot, error) {
	voter = strings.TrimSpace(voter)
	candidate = strings.TrimSpace(candidate)
	if voter == "" || candidate == "" || castAt.IsZero() {
		return nil, common.ErrorInvalidBallot
	}
	if castAt.After(s.now().Add(maxClockSkew)) {
		return nil, common.ErrorInvalidBallot
	}

	var ballot *models.Ballot
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := s.repomanager.Voters(tx).GetByUsername(ctx, voter)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorIneligible
			}
			return err
		}
		if !v.Eligible {
			return common.ErrorIneligible
		}

		voterID, err := s.repomanager.Voters(tx).MarkVoted(ctx, voter)
		if err != nil {
			return err
		}

		b := &models.Ballot{
			ID:        uuid.NewString(),
			VoterID:   voterID,
			Voter:     voter,
			Candidate: candidate,
			CastAt:    castAt.UTC(),
			Receipt:   cryptox.BallotDigest(voter, candidate, castAt),
		}
		ballot, err = s.repomanager.Ballots(tx).Create(ctx, b)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorIneligible), errors.Is(err, common.ErrorAlreadyVoted):
			return nil, err
		default:
			return nil, fmt.Errorf("error recording ballot: %w", err)
		}
	}

	ballot.Voter = voter
	return ballot, nil
}

// Tally returns the number of ballots per candidate.
func (s *BallotService) Tally(ctx context.Context) (map[string]int64, error) {
	res, err := s.repomanager.Ballots(s.db).CountByCandidate(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting ballots: %w", err)
	}
	return res, nil
}
