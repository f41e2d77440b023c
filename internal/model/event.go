package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names an audit event.
type EventType string

const (
	EventRegister       EventType = "auth.register"
	EventLoginSuccess   EventType = "auth.login.success"
	EventLoginFailure   EventType = "auth.login.failure"
	EventRefreshSuccess EventType = "auth.refresh.success"
	EventRefreshFailure EventType = "auth.refresh.failure"
	EventLogout         EventType = "auth.logout"
	EventSessionRevoked EventType = "auth.session.revoked"
	EventUserBlocked    EventType = "user.blocked"
	EventUserActivated  EventType = "user.activated"
	EventUserDeleted    EventType = "user.deleted"
)

// AuthEvent is published after a state change in the auth subsystem.
type AuthEvent struct {
	Type       EventType  `json:"type"`
	UserID     uuid.UUID  `json:"userId,omitempty"`
	Email      string     `json:"email,omitempty"`
	SessionID  *uuid.UUID `json:"sessionId,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// EventPublisher delivers audit events.
type EventPublisher interface {
	Publish(ctx context.Context, event AuthEvent) error
}
