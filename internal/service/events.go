package service

import (
	"context"
	"time"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// publish sends event and only logs delivery failures.
func publish(ctx context.Context, events model.EventPublisher, log *logger.Logger, event model.AuthEvent) {
	if events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := events.Publish(ctx, event); err != nil {
		log.Warn("failed to publish auth event",
			"type", string(event.Type),
			"user_id", event.UserID,
			"error", err.Error())
	}
}
