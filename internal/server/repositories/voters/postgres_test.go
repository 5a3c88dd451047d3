package voters

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/facevote/internal/common"
	"github.com/dmitrijs2005/facevote/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+voters\s*\(username,\s*first_name,\s*last_name,\s*location,\s*eligible\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*username,\s*first_name,\s*last_name,\s*location,\s*eligible,\s*has_voted,\s*created_at\s+FROM\s+voters\s+WHERE\s+username\s*=\s*\$1\s*$`
	markQ   = `(?s)^UPDATE\s+voters\s+SET\s+has_voted\s*=\s*TRUE\s+WHERE\s+username\s*=\s*\$1\s+AND\s+has_voted\s*=\s*FALSE\s+RETURNING\s+id\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "Alice", "Smith", "Riga", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("v-1", now))

	got, err := repo.Create(context.Background(), &models.Voter{
		Username: "alice", FirstName: "Alice", LastName: "Smith", Location: "Riga", Eligible: true,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "v-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected voter: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Voter{Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "first_name", "last_name", "location", "eligible", "has_voted", "created_at"}).
		AddRow("v-1", "alice", "Alice", "Smith", "Riga", true, false, time.Now())
	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != "v-1" || got.Username != "alice" || !got.Eligible || got.HasVoted {
		t.Fatalf("unexpected voter: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnError(errors.New("db err"))

	_, err := repo.GetByUsername(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestMarkVoted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(markQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("v-1"))
	mock.ExpectQuery(markQ).WithArgs("alice").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(markQ).WithArgs("bob").WillReturnError(errors.New("conn reset"))

	id, err := repo.MarkVoted(context.Background(), "alice")
	if err != nil || id != "v-1" {
		t.Fatalf("first MarkVoted = %q, %v", id, err)
	}

	if _, err := repo.MarkVoted(context.Background(), "alice"); !errors.Is(err, common.ErrorAlreadyVoted) {
		t.Fatalf("want common.ErrorAlreadyVoted, got %v", err)
	}

	if _, err := repo.MarkVoted(context.Background(), "bob"); err == nil || errors.Is(err, common.ErrorAlreadyVoted) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
