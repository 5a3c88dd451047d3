package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/facevote/internal/dbx"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/ballots"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/voters"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Voters(db dbx.DBTX) voters.Repository
	Ballots(db dbx.DBTX) ballots.Repository
}
