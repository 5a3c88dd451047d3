package voters

import (
	"context"

	"github.com/dmitrijs2005/facevote/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.Voter) (*models.Voter, error)
	GetByUsername(ctx context.Context, username string) (*models.Voter, error)
	// MarkVoted flips has_voted for an eligible voter that has not voted
	// yet and returns its id. common.ErrorAlreadyVoted otherwise.
	MarkVoted(ctx context.Context, username string) (string, error)
}
