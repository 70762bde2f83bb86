package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, dbx.DialectPostgres), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)$`
	exp := time.Now().Add(time.Hour)
	now := time.Now()

	mock.ExpectExec(q).
		WithArgs("h1", "u1", exp, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.RefreshToken{TokenHash: "h1", AccountID: "u1", ExpiresAt: exp, CreatedAt: now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.RefreshToken{TokenHash: "h1", AccountID: "u1"})
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+token_hash,\s*account_id,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1$`
	expires := time.Now().Add(10 * time.Minute)
	rows := sqlmock.NewRows([]string{"token_hash", "account_id", "expires_at", "created_at"}).
		AddRow("h1", "u1", expires, time.Now())

	mock.ExpectQuery(q).WithArgs("h1").WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountID != "u1" || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+refresh_tokens`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "nope")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1$`).
		WithArgs("h1").
		WillReturnError(errors.New("boom"))

	_, err := repo.Delete(context.Background(), "h1")
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSQLite_Lifecycle(t *testing.T) {
	db := storetest.OpenSQLite(t)
	repo := NewSQLRepository(db, dbx.DialectSQLite)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (id, handle, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"u1", "alice", "d", "user", true, now, now)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{TokenHash: "live", AccountID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{TokenHash: "stale", AccountID: "u1", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{TokenHash: "other", AccountID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.Find(ctx, "live")
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))

	deleted, err := repo.Delete(ctx, "live")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, "live")
	require.NoError(t, err, "deleting twice is not an error")
	assert.False(t, deleted)
	_, err = repo.Find(ctx, "live")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.DeleteByAccount(ctx, "u1"))
	_, err = repo.Find(ctx, "other")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_CascadeOnAccountDelete(t *testing.T) {
	db := storetest.OpenSQLite(t)
	repo := NewSQLRepository(db, dbx.DialectSQLite)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx,
		`INSERT INTO accounts (id, handle, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"u1", "alice", "d", "user", true, now, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{TokenHash: "t", AccountID: "u1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	_, err = db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, "u1")
	require.NoError(t, err)

	_, err = repo.Find(ctx, "t")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
