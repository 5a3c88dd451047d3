package ballots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/dbx"
	"github.com/dmitrijs2005/facevote/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Ballot) (*models.Ballot, error) {
	query :=
		`INSERT INTO ballots (id, voter_id, candidate, cast_at, receipt)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.VoterID, b.Candidate, b.CastAt, b.Receipt).Scan(&b.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

func (r *PostgresRepository) GetByVoterID(ctx context.Context, voterID string) (*models.Ballot, error) {
	query :=
		`SELECT id, voter_id, candidate, cast_at, receipt, created_at FROM ballots
		 WHERE voter_id = $1
		 `

	b := &models.Ballot{}
	err := r.db.QueryRowContext(ctx, query, voterID).Scan(
		&b.ID, &b.VoterID, &b.Candidate, &b.CastAt, &b.Receipt, &b.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return b, nil
}

func (r *PostgresRepository) CountByCandidate(ctx context.Context) (map[string]int64, error) {
	query :=
		`SELECT candidate, COUNT(*) FROM ballots
		 GROUP BY candidate
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := make(map[string]int64)
	for rows.Next() {
		var (
			candidate string
			n         int64
		)
		if err := rows.Scan(&candidate, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res[candidate] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return res, nil
}
