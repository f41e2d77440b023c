package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/password"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// Credentials verifies email/password pairs against stored users.
type Credentials struct {
	users  model.UserStore
	hasher PasswordHasher
	logger *logger.Logger
	now    func() time.Time
}

func NewCredentials(users model.UserStore, hasher PasswordHasher, logger *logger.Logger) *Credentials {
	return &Credentials{users: users, hasher: hasher, logger: logger, now: time.Now}
}

// PrepareUser builds an unsaved USER account with a hashed password. The email
// must not be taken by any user, deleted or not.
func (c *Credentials) PrepareUser(ctx context.Context, email, plain string, name *string) (model.User, error) {
	_, err := c.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		c.logger.Info("Credentials service: email already registered", "email", email)
		return model.User{}, ErrEmailTaken
	case !errors.Is(err, model.ErrNotFound):
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return c.build(email, plain, name, model.RoleUser)
}

// VerifyLogin returns the user owning email if plain matches its password.
// Unknown, soft-deleted and mismatching users all yield ErrInvalidCredentials.
func (c *Credentials) VerifyLogin(ctx context.Context, email, plain string) (model.User, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Deleted() {
		return model.User{}, ErrInvalidCredentials
	}

	if err := c.hasher.Compare(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}

// EnsureAdmin creates an ADMIN account unless email is already registered.
// It reports whether a user was created.
func (c *Credentials) EnsureAdmin(ctx context.Context, email, plain, name string) (model.User, bool, error) {
	existing, err := c.users.GetByEmail(ctx, email)
	if err == nil {
		c.logger.Info("Credentials service: admin already exists", "user_id", existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, false, fmt.Errorf("failed to get user by email: %w", err)
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	user, err := c.create(ctx, email, plain, namePtr, model.RoleAdmin)
	if err != nil {
		return model.User{}, false, err
	}

	c.logger.Info("Credentials service: admin created", "user_id", user.ID)
	return user, true, nil
}

func (c *Credentials) build(email, plain string, name *string, role model.Role) (model.User, error) {
	hash, err := c.hasher.Hash(plain)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := c.now().UTC()
	return model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Active:       true,
		Blocked:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Credentials) create(ctx context.Context, email, plain string, name *string, role model.Role) (model.User, error) {
	user, err := c.build(email, plain, name, role)
	if err != nil {
		return model.User{}, err
	}

	user, err = c.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}
