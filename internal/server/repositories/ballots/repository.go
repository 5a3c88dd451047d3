package ballots

import (
	"context"

	"github.com/dmitrijs2005/facevote/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Ballot) (*models.Ballot, error)
	GetByVoterID(ctx context.Context, voterID string) (*models.Ballot, error)
	CountByCandidate(ctx context.Context) (map[string]int64, error)
}
