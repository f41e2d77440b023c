package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// Users implements admin management of regular user accounts.
type Users struct {
	users  model.UserStore
	tokens *TokenService
	events model.EventPublisher
	logger *logger.Logger
	now    func() time.Time
}

func NewUsers(users model.UserStore, tokens *TokenService, events model.EventPublisher, logger *logger.Logger) *Users {
	return &Users{users: users, tokens: tokens, events: events, logger: logger, now: time.Now}
}

// List returns all non-deleted users with role USER.
func (s *Users) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Users) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, s.mapErr("get", err)
	}
	return user, nil
}

// ToggleBlock flips the blocked flag. A newly blocked user loses all sessions.
func (s *Users) ToggleBlock(ctx context.Context, id uuid.UUID) (model.User, error) {
	updated, err := s.users.ToggleBlocked(ctx, id)
	if err != nil {
		return model.User{}, s.mapErr("block", err)
	}

	if updated.Blocked {
		if err := s.tokens.RevokeAll(ctx, id); err != nil {
			return model.User{}, err
		}
		publish(ctx, s.events, s.logger, model.AuthEvent{Type: model.EventUserBlocked, UserID: id, Email: updated.Email})
	}

	s.logger.Info("Users service: block toggled", "user_id", id, "blocked", updated.Blocked)
	return updated, nil
}

// ToggleActive flips the active flag.
func (s *Users) ToggleActive(ctx context.Context, id uuid.UUID) (model.User, error) {
	updated, err := s.users.ToggleActive(ctx, id)
	if err != nil {
		return model.User{}, s.mapErr("activate", err)
	}

	if updated.Active {
		publish(ctx, s.events, s.logger, model.AuthEvent{Type: model.EventUserActivated, UserID: id, Email: updated.Email})
	}

	s.logger.Info("Users service: active toggled", "user_id", id, "active", updated.Active)
	return updated, nil
}

// Delete soft-deletes a user, revokes its sessions and returns the deleted record.
func (s *Users) Delete(ctx context.Context, id uuid.UUID) (model.User, error) {
	deleted, err := s.users.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		return model.User{}, s.mapErr("delete", err)
	}
	if err := s.tokens.RevokeAll(ctx, id); err != nil {
		return model.User{}, err
	}

	publish(ctx, s.events, s.logger, model.AuthEvent{Type: model.EventUserDeleted, UserID: id, Email: deleted.Email})
	s.logger.Info("Users service: user deleted", "user_id", id)
	return deleted, nil
}

func (s *Users) mapErr(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}
