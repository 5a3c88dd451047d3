package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/dbx"
	"github.com/dmitrijs2005/facevote/internal/server/models"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/ballots"
	"github.com/dmitrijs2005/facevote/internal/server/repositories/voters"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeVotersRepo struct {
	byName    map[string]*models.Voter
	getErr    error
	markErr   error
	createErr error
	created   []string
	marked    []string
}

func newFakeVoters(vs ...models.Voter) *fakeVotersRepo {
	f := &fakeVotersRepo{byName: map[string]*models.Voter{}}
	for i := range vs {
		v := vs[i]
		f.byName[v.Username] = &v
	}
	return f
}

func (f *fakeVotersRepo) Create(_ context.Context, v *models.Voter) (*models.Voter, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	v.ID = "id-" + v.Username
	f.byName[v.Username] = v
	f.created = append(f.created, v.Username)
	return v, nil
}

func (f *fakeVotersRepo) GetByUsername(_ context.Context, username string) (*models.Voter, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVotersRepo) MarkVoted(_ context.Context, username string) (string, error) {
	if f.markErr != nil {
		return "", f.markErr
	}
	v, ok := f.byName[username]
	if !ok || v.HasVoted {
		return "", common.ErrorAlreadyVoted
	}
	v.HasVoted = true
	f.marked = append(f.marked, username)
	return v.ID, nil
}

type fakeBallotsRepo struct {
	created   []*models.Ballot
	createErr error
	counts    map[string]int64
	countErr  error
}

func (f *fakeBallotsRepo) Create(_ context.Context, b *models.Ballot) (*models.Ballot, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, b)
	return b, nil
}

func (f *fakeBallotsRepo) GetByVoterID(_ context.Context, voterID string) (*models.Ballot, error) {
	for _, b := range f.created {
		if b.VoterID == voterID {
			return b, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeBallotsRepo) CountByCandidate(context.Context) (map[string]int64, error) {
	return f.counts, f.countErr
}

type fakeRepoManager struct {
	voters  *fakeVotersRepo
	ballots *fakeBallotsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Voters(dbx.DBTX) voters.Repository            { return m.voters }
func (m *fakeRepoManager) Ballots(dbx.DBTX) ballots.Repository          { return m.ballots }
