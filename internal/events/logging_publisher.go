package events

import (
	"context"

	"directory_backend/internal/logger"
)

// LoggingPublisher - приемник по умолчанию, когда kafka не настроена
type LoggingPublisher struct{}

func NewLoggingPublisher() *LoggingPublisher {
	return &LoggingPublisher{}
}

func (p *LoggingPublisher) Publish(ctx context.Context, ev Event) error {
	logger.CtxInfo(ctx, "domain event",
		"event_id", ev.ID,
		"type", ev.Type,
		"topic", ev.Topic,
		"key", ev.Key,
	)
	return nil
}

func (p *LoggingPublisher) Close() error {
	return nil
}
