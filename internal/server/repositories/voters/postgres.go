package voters

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

func (r *PostgresRepository) Create(ctx context.Context, v *models.Voter) (*models.Voter, error) {
	query :=
		`INSERT INTO voters (username, first_name, last_name, location, eligible)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		v.Username, v.FirstName, v.LastName, v.Location, v.Eligible).Scan(&v.ID, &v.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Voter, error) {
	query :=
		`SELECT id, username, first_name, last_name, location, eligible, has_voted, created_at FROM voters
		 WHERE username = $1
		 `

	v := &models.Voter{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&v.ID, &v.Username, &v.FirstName, &v.LastName, &v.Location, &v.Eligible, &v.HasVoted, &v.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) MarkVoted(ctx context.Context, username string) (string, error) {
	query :=
		`UPDATE voters SET has_voted = TRUE
		 WHERE username = $1 AND has_voted = FALSE
		 RETURNING id
		 `

	var id string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorAlreadyVoted
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return id, nil
}
