package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

const insertUserQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*hashed_password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at,\s*updated_at$`

func TestPgUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertUserQuery).
		WithArgs("u-1", "ada", "ada@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	u := &model.User{ID: "u-1", Username: "ada", Email: "ada@example.com", HashedPassword: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, created, u.UpdatedAt)
}

func TestPgUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(insertUserQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", Username: "ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestPgUserRepository_Create_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(insertUserQuery).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &model.User{ID: "u-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "pgUserRepository.Create: db down")
}

func TestPgUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,\s*email,\s*hashed_password,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "hashed_password", "created_at", "updated_at"}).
			AddRow("u-1", "ada", "ada@example.com", "hash", now, now))

	u, err := repo.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "hash", u.HashedPassword)
}

func TestPgUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPgUserRepository_FindByUsername_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(`WHERE\s+username\s*=\s*\$1$`).
		WithArgs("ada").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByUsername(context.Background(), "ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pgUserRepository.FindByUsername")
}
