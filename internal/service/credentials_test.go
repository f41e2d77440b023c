package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/taskboard-server/internal/mocks"
	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/password"
	"github.com/dtroode/taskboard-server/internal/testutil"
)

func TestCredentials_PrepareUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	name := "Alice"

	tests := []struct {
		name    string
		setup   func(users *mocks.UserStore, hasher *mocks.PasswordHasher)
		wantErr error
	}{
		{
			name: "builds user with defaults",
			setup: func(users *mocks.UserStore, hasher *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(model.User{}, model.ErrNotFound).Once()
				hasher.On("Hash", "secret1").Return("hashed", nil).Once()
			},
		},
		{
			name: "email taken",
			setup: func(users *mocks.UserStore, _ *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(model.User{Email: "a@x.com"}, nil).Once()
			},
			wantErr: ErrEmailTaken,
		},
		{
			name: "lookup fails",
			setup: func(users *mocks.UserStore, _ *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(model.User{}, assert.AnError).Once()
			},
			wantErr: assert.AnError,
		},
		{
			name: "hash fails",
			setup: func(users *mocks.UserStore, hasher *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(model.User{}, model.ErrNotFound).Once()
				hasher.On("Hash", "secret1").Return("", assert.AnError).Once()
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := mocks.NewUserStore(t)
			hasher := mocks.NewPasswordHasher(t)
			tt.setup(users, hasher)

			c := NewCredentials(users, hasher, testutil.MakeNoopLogger())
			user, err := c.PrepareUser(ctx, "a@x.com", "secret1", &name)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, user.ID)
			assert.Equal(t, "a@x.com", user.Email)
			assert.Equal(t, model.RoleUser, user.Role)
			assert.Equal(t, "hashed", user.PasswordHash)
			assert.True(t, user.Active)
			assert.False(t, user.Blocked)
			require.NotNil(t, user.Name)
			assert.Equal(t, "Alice", *user.Name)
			users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCredentials_VerifyLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stored := model.User{Email: "a@x.com", PasswordHash: "hashed", Role: model.RoleUser}
	deleted := stored
	deletedAt := stored.CreatedAt
	deleted.DeletedAt = &deletedAt

	tests := []struct {
		name    string
		setup   func(users *mocks.UserStore, hasher *mocks.PasswordHasher)
		wantErr error
	}{
		{
			name: "valid password",
			setup: func(users *mocks.UserStore, hasher *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()
				hasher.On("Compare", "hashed", "pw").Return(nil).Once()
			},
		},
		{
			name: "unknown user",
			setup: func(users *mocks.UserStore, _ *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(model.User{}, model.ErrNotFound).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "soft-deleted user",
			setup: func(users *mocks.UserStore, _ *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(deleted, nil).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			setup: func(users *mocks.UserStore, hasher *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()
				hasher.On("Compare", "hashed", "pw").Return(password.ErrMismatch).Once()
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "corrupt hash",
			setup: func(users *mocks.UserStore, hasher *mocks.PasswordHasher) {
				users.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()
				hasher.On("Compare", "hashed", "pw").Return(assert.AnError).Once()
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := mocks.NewUserStore(t)
			hasher := mocks.NewPasswordHasher(t)
			tt.setup(users, hasher)

			c := NewCredentials(users, hasher, testutil.MakeNoopLogger())
			user, err := c.VerifyLogin(ctx, "a@x.com", "pw")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.Email, user.Email)
		})
	}
}

func TestCredentials_EnsureAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates admin", func(t *testing.T) {
		t.Parallel()

		users := mocks.NewUserStore(t)
		hasher := mocks.NewPasswordHasher(t)
		users.On("GetByEmail", ctx, "admin@example.com").Return(model.User{}, model.ErrNotFound).Once()
		hasher.On("Hash", "adminpw").Return("hashed", nil).Once()
		users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
			return u.Role == model.RoleAdmin && u.Name != nil && *u.Name == "Root"
		})).Return(func(_ context.Context, u model.User) model.User { return u }, nil).Once()

		c := NewCredentials(users, hasher, testutil.MakeNoopLogger())
		user, created, err := c.EnsureAdmin(ctx, "admin@example.com", "adminpw", "Root")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.RoleAdmin, user.Role)
	})

	t.Run("existing account untouched", func(t *testing.T) {
		t.Parallel()

		users := mocks.NewUserStore(t)
		hasher := mocks.NewPasswordHasher(t)
		users.On("GetByEmail", ctx, "admin@example.com").Return(model.User{Email: "admin@example.com", Role: model.RoleAdmin}, nil).Once()

		c := NewCredentials(users, hasher, testutil.MakeNoopLogger())
		_, created, err := c.EnsureAdmin(ctx, "admin@example.com", "adminpw", "Root")
		require.NoError(t, err)
		assert.False(t, created)
	})
}
