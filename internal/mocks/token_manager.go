package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/taskboard-server/internal/model"
)

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

// NewTokenManager creates a TokenManager mock that asserts its expectations on cleanup.
func NewTokenManager(t testingT) *TokenManager {
	m := &TokenManager{}
	register(&m.Mock, t)
	return m
}

func (m *TokenManager) GenerateAccessToken(claims model.Claims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken(claims model.Claims) (string, time.Time, error) {
	args := m.Called(claims)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *TokenManager) ParseAccessToken(token string) (model.Claims, error) {
	args := m.Called(token)
	return args.Get(0).(model.Claims), args.Error(1)
}

func (m *TokenManager) ParseRefreshToken(token string) (model.Claims, error) {
	args := m.Called(token)
	return args.Get(0).(model.Claims), args.Error(1)
}
