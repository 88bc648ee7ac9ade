package events

import (
	"context"

	"go.uber.org/zap"
)

// NoopPublisher drops every event. It is used when no event sink is configured.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (p NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	if p.Logger != nil {
		p.Logger.Debug("event dropped, no sink configured", zap.String("topic", topic))
	}
	return nil
}

func (NoopPublisher) Close() error { return nil }
