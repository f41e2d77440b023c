package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/taskboard-server/internal/model"
)

// SessionStore is a mock of model.SessionStore.
type SessionStore struct {
	mock.Mock
}

// NewSessionStore creates a SessionStore mock that asserts its expectations on cleanup.
func NewSessionStore(t testingT) *SessionStore {
	m := &SessionStore{}
	register(&m.Mock, t)
	return m
}

func (m *SessionStore) Create(ctx context.Context, session model.RefreshToken) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionStore) FindActive(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) (model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, userID, now)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *SessionStore) Rotate(ctx context.Context, oldID uuid.UUID, next model.RefreshToken, now time.Time) error {
	return m.Called(ctx, oldID, next, now).Error(0)
}

func (m *SessionStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *SessionStore) RevokeOne(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *SessionStore) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Session, error) {
	args := m.Called(ctx, userID, now)
	sessions, _ := args.Get(0).([]model.Session)
	return sessions, args.Error(1)
}

func (m *SessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
