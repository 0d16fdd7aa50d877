// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/models"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		conn.Close()
	})
	return conn, mock
}

type fakeCatalog struct {
	nominees map[string]models.Nominee
	err      error
}

func (f *fakeCatalog) Category(ctx context.Context, id string) (models.Category, error) {
	return models.Category{ID: id}, nil
}

func (f *fakeCatalog) Nominee(ctx context.Context, id string) (models.Nominee, error) {
	if f.err != nil {
		return models.Nominee{}, f.err
	}
	n, ok := f.nominees[id]
	if !ok {
		return models.Nominee{}, catalog.ErrNotFound
	}
	return n, nil
}

func (f *fakeCatalog) Nominees(ctx context.Context, categoryID string) ([]models.Nominee, error) {
	return nil, nil
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]models.CategoryWithNominees, error) {
	return nil, nil
}

func oneNominee() *fakeCatalog {
	return &fakeCatalog{nominees: map[string]models.Nominee{
		"n1": {ID: "n1", CategoryID: "c1", Name: "A"},
	}}
}

func TestCastVote_StorageDownIsUnavailable(t *testing.T) {
	conn, mock := newMockDB(t)
	l := New(conn, oneNominee(), nil, time.Second)

	mock.ExpectExec("INSERT INTO vote").
		WithArgs(sqlmock.AnyArg(), models.IdentityAuthenticated, "u1", "c1", "n1", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err := l.CastVote(context.Background(), models.Authenticated("u1"), "c1", "n1")
	if !errors.Is(err, models.ErrUnavailable) {
		t.Errorf("CastVote() error = %v, want ErrUnavailable", err)
	}
}

func TestCastVote_CatalogDownIsUnavailable(t *testing.T) {
	conn, _ := newMockDB(t)
	l := New(conn, &fakeCatalog{err: errors.New("timeout")}, nil, time.Second)

	_, err := l.CastVote(context.Background(), models.Authenticated("u1"), "c1", "n1")
	if !errors.Is(err, models.ErrUnavailable) {
		t.Errorf("CastVote() error = %v, want ErrUnavailable", err)
	}
}

func TestCastVote_ZeroRowsIsAlreadyVoted(t *testing.T) {
	conn, mock := newMockDB(t)
	l := New(conn, oneNominee(), nil, time.Second)

	mock.ExpectExec("INSERT INTO vote").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, category_id, nominee_id, created_at").
		WithArgs(models.IdentityAuthenticated, "u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "nominee_id", "created_at"}).
			AddRow("v0", "c1", "n1", time.Now()))

	res, err := l.CastVote(context.Background(), models.Authenticated("u1"), "c1", "n1")
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if res.Outcome != models.OutcomeAlreadyVoted || res.Vote == nil || res.Vote.ID != "v0" {
		t.Errorf("CastVote() = %+v", res)
	}
}

func TestCastVote_ExistingVoteReadFailureStillAlreadyVoted(t *testing.T) {
	conn, mock := newMockDB(t)
	l := New(conn, oneNominee(), nil, time.Second)

	mock.ExpectExec("INSERT INTO vote").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, category_id, nominee_id, created_at").
		WillReturnError(errors.New("read replica gone"))

	res, err := l.CastVote(context.Background(), models.Authenticated("u1"), "c1", "n1")
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if res.Outcome != models.OutcomeAlreadyVoted || res.Vote != nil {
		t.Errorf("CastVote() = %+v", res)
	}
}

func TestVoteFor_StorageDown(t *testing.T) {
	conn, mock := newMockDB(t)
	l := New(conn, oneNominee(), nil, time.Second)

	mock.ExpectQuery("SELECT id, category_id, nominee_id, created_at").
		WillReturnError(errors.New("connection reset"))

	if _, err := l.VoteFor(context.Background(), models.Authenticated("u1"), "c1"); !errors.Is(err, models.ErrUnavailable) {
		t.Errorf("VoteFor() error = %v, want ErrUnavailable", err)
	}
}
