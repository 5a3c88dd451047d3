package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facevote/internal/client/models"
	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (r *SQLiteRepository) Save(ctx context.Context, rc *models.Receipt) error {
	query := `INSERT INTO receipts (ballot_id, voter, candidate, cast_at, receipt, verified, created_at)
			values (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ballot_id) DO UPDATE SET voter = excluded.voter,
				candidate = excluded.candidate,
				cast_at = excluded.cast_at,
				receipt = excluded.receipt,
				verified = excluded.verified
	`
	createdAt := rc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		rc.BallotID, rc.Voter, rc.Candidate, rc.CastAt.UTC().Format(timeLayout),
		rc.Receipt, rc.Verified, createdAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByVoter(ctx context.Context, voter string) ([]models.Receipt, error) {
	query := `select ballot_id, voter, candidate, cast_at, receipt, verified, created_at
		from receipts where voter=? order by created_at desc`
	rows, err := r.db.QueryContext(ctx, query, voter)
	if err != nil {
		return nil, fmt.Errorf("failed to select receipts: %w", err)
	}
	defer rows.Close()

	var result []models.Receipt
	for rows.Next() {
		item, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByBallotID(ctx context.Context, ballotID string) (*models.Receipt, error) {
	query := `select ballot_id, voter, candidate, cast_at, receipt, verified, created_at
		from receipts where ballot_id=?`
	item, err := scanReceipt(r.db.QueryRowContext(ctx, query, ballotID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(s scanner) (*models.Receipt, error) {
	var (
		item              models.Receipt
		castAt, createdAt string
	)
	if err := s.Scan(&item.BallotID, &item.Voter, &item.Candidate, &castAt, &item.Receipt, &item.Verified, &createdAt); err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	var err error
	if item.CastAt, err = time.Parse(timeLayout, castAt); err != nil {
		return nil, fmt.Errorf("bad cast_at %q: %w", castAt, err)
	}
	if item.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return &item, nil
}
