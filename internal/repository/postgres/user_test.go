package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/taskboard-server/internal/model"
)

var userCols = []string{"id", "email", "password_hash", "name", "role", "active", "blocked", "created_at", "updated_at", "deleted_at"}

func testUser() model.User {
	name := "Alice"
	now := time.Now()
	return model.User{
		ID:           uuid.New(),
		Email:        "a@x.com",
		PasswordHash: "$2a$12$hash",
		Name:         &name,
		Role:         model.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRow(rows *pgxmock.Rows, u model.User) *pgxmock.Rows {
	return rows.AddRow(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt, u.DeletedAt)
}

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery(`INSERT INTO users \(id, email, password_hash, name, role, active, blocked, created_at, updated_at, deleted_at\) VALUES`).
		WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	saved, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, saved.ID)
	assert.Equal(t, model.RoleUser, saved.Role)
	assert.Nil(t, saved.DeletedAt)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	u := testUser()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), u)
	require.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs(u.Email).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery(`FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(u.ID).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	mock.ExpectQuery(`FROM users WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(u.ID).
		WillReturnError(assert.AnError)

	_, err = repo.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, assert.AnError)
}

func TestUserRepository_ListByRole(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	first, second := testUser(), testUser()

	rows := pgxmock.NewRows(userCols)
	userRow(rows, first)
	userRow(rows, second)
	mock.ExpectQuery(`FROM users WHERE role = \$1 AND deleted_at IS NULL ORDER BY created_at DESC`).
		WithArgs(model.RoleUser).
		WillReturnRows(rows)

	users, err := repo.ListByRole(context.Background(), model.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, first.ID, users[0].ID)
}

func TestUserRepository_ToggleBlocked(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	u := testUser()
	u.Blocked = true

	mock.ExpectQuery(`UPDATE users SET blocked = NOT blocked, updated_at = NOW\(\) WHERE id = \$1 AND deleted_at IS NULL RETURNING`).
		WithArgs(u.ID).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	got, err := repo.ToggleBlocked(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.Blocked)

	mock.ExpectQuery(`UPDATE users SET blocked = NOT blocked`).
		WithArgs(u.ID).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.ToggleBlocked(context.Background(), u.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_ToggleActive(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	u := testUser()
	u.Active = false

	mock.ExpectQuery(`UPDATE users SET active = NOT active, updated_at = NOW\(\) WHERE id = \$1 AND deleted_at IS NULL RETURNING`).
		WithArgs(u.ID).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	got, err := repo.ToggleActive(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	mock.ExpectQuery(`UPDATE users SET active = NOT active`).
		WithArgs(u.ID).
		WillReturnError(assert.AnError)

	_, err = repo.ToggleActive(context.Background(), u.ID)
	require.ErrorIs(t, err, assert.AnError)
}

func TestUserRepository_CreateWithSession(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	u := testUser()
	s := testSession(u.ID, u.CreatedAt)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertUserQuery)).
		WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))
	mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
		WithArgs(s.ID, s.TokenHash, u.ID, s.ExpiresAt, s.IPAddress, s.UserAgent, s.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	saved, err := repo.CreateWithSession(context.Background(), u, s)
	require.NoError(t, err)
	assert.Equal(t, u.ID, saved.ID)
}

func TestUserRepository_CreateWithSession_RollsBack(t *testing.T) {
	u := testUser()
	s := testSession(u.ID, u.CreatedAt)

	tests := []struct {
		name    string
		expect  func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "session insert fails",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(insertUserQuery)).
					WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt).
					WillReturnRows(userRow(pgxmock.NewRows(userCols), u))
				mock.ExpectExec(regexp.QuoteMeta(insertSessionQuery)).
					WithArgs(s.ID, s.TokenHash, u.ID, s.ExpiresAt, s.IPAddress, s.UserAgent, s.CreatedAt).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			wantErr: assert.AnError,
		},
		{
			name: "email taken",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(insertUserQuery)).
					WithArgs(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Active, u.Blocked, u.CreatedAt, u.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: model.ErrAlreadyExists,
		},
		{
			name: "begin fails",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockConnection(t)
			repo := NewUserRepository(db)
			tt.expect(mock)

			_, err := repo.CreateWithSession(context.Background(), u, s)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserRepository_SoftDelete(t *testing.T) {
	db, mock := newMockConnection(t)
	repo := NewUserRepository(db)
	u := testUser()
	at := time.Now()
	u.DeletedAt = &at

	mock.ExpectQuery(`UPDATE users SET deleted_at = \$2, updated_at = \$2 WHERE id = \$1 AND deleted_at IS NULL RETURNING`).
		WithArgs(u.ID, at).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), u))

	got, err := repo.SoftDelete(context.Background(), u.ID, at)
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Equal(t, u.Email, got.Email)

	mock.ExpectQuery(`UPDATE users SET deleted_at`).
		WithArgs(u.ID, at).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.SoftDelete(context.Background(), u.ID, at)
	require.ErrorIs(t, err, model.ErrNotFound)
}
