// Package receipts persists ballot receipts in the local SQLite database.
package receipts

import (
	"context"

	"github.com/dmitrijs2005/facevote/internal/client/models"
)

// Repository stores and lists receipts.
type Repository interface {
	// Save inserts a receipt. Saving the same ballot id twice overwrites it.
	Save(ctx context.Context, r *models.Receipt) error

	// ListByVoter returns the voter's receipts, newest first.
	ListByVoter(ctx context.Context, voter string) ([]models.Receipt, error)

	// GetByBallotID returns a single receipt or common.ErrorNotFound.
	GetByBallotID(ctx context.Context, ballotID string) (*models.Receipt, error)
}
