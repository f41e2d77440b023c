package mocks

import (
	"context"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/taskboard-server/internal/model"
)

// PasswordHasher is a mock of service.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

// NewPasswordHasher creates a PasswordHasher mock that asserts its expectations on cleanup.
func NewPasswordHasher(t testingT) *PasswordHasher {
	m := &PasswordHasher{}
	register(&m.Mock, t)
	return m
}

func (m *PasswordHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Compare(hash, plain string) error {
	return m.Called(hash, plain).Error(0)
}

// EventPublisher is a mock of model.EventPublisher.
type EventPublisher struct {
	mock.Mock
}

// NewEventPublisher creates an EventPublisher mock that asserts its expectations on cleanup.
func NewEventPublisher(t testingT) *EventPublisher {
	m := &EventPublisher{}
	register(&m.Mock, t)
	return m
}

func (m *EventPublisher) Publish(ctx context.Context, event model.AuthEvent) error {
	return m.Called(ctx, event).Error(0)
}

// AccessTokenParser is a mock of the access token validator used by middlewares.
type AccessTokenParser struct {
	mock.Mock
}

// NewAccessTokenParser creates an AccessTokenParser mock that asserts its expectations on cleanup.
func NewAccessTokenParser(t testingT) *AccessTokenParser {
	m := &AccessTokenParser{}
	register(&m.Mock, t)
	return m
}

func (m *AccessTokenParser) ParseAccess(token string) (model.Claims, error) {
	args := m.Called(token)
	return args.Get(0).(model.Claims), args.Error(1)
}

// SecurityLayer is a mock of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

// NewSecurityLayer creates a SecurityLayer mock that asserts its expectations on cleanup.
func NewSecurityLayer(t testingT) *SecurityLayer {
	m := &SecurityLayer{}
	register(&m.Mock, t)
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

// ContextManager is a mock of model.ContextManager.
type ContextManager struct {
	mock.Mock
}

// NewContextManager creates a ContextManager mock that asserts its expectations on cleanup.
func NewContextManager(t testingT) *ContextManager {
	m := &ContextManager{}
	register(&m.Mock, t)
	return m
}

func (m *ContextManager) SetClaimsToContext(ctx context.Context, claims model.Claims) context.Context {
	return m.Called(ctx, claims).Get(0).(context.Context)
}

func (m *ContextManager) GetClaimsFromContext(ctx context.Context) (model.Claims, bool) {
	args := m.Called(ctx)
	return args.Get(0).(model.Claims), args.Bool(1)
}
