package services

import (
	"context"
	"errors"

	"directory_backend/internal/dedup"
	"directory_backend/internal/logger"
	"directory_backend/pkg/apperrors"
)

// EventEmitter - публикация доменных событий (events.Bus)
type EventEmitter interface {
	Emit(ctx context.Context, eventType, topic, key string, payload any) error
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, string, string, any) error { return nil }

// emit публикует событие; ошибка доставки не ломает операцию
func emit(ctx context.Context, emitter EventEmitter, eventType, topic, key string, payload any) {
	if emitter == nil {
		return
	}
	if err := emitter.Emit(ctx, eventType, topic, key, payload); err != nil {
		logger.CtxWarn(ctx, "Event publish failed", "event", eventType, "key", key, "error", err)
	}
}

// runOnce выполняет действие не более одного раза одновременно по ключу.
// Дубликат получает результат первого вызова, поэтому key обязан включать
// все параметры, влияющие на результат.
func runOnce[T any](ctx context.Context, guard *dedup.Guard, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	return runGuarded(ctx, guard, key, false, fn)
}

// runExclusive - как runOnce, но чужой результат не отдается: дубликат получает 409.
// Для действий, чей результат принадлежит вызывающему (сессия, загруженный файл).
func runExclusive[T any](ctx context.Context, guard *dedup.Guard, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	return runGuarded(ctx, guard, key, true, fn)
}

func runGuarded[T any](ctx context.Context, guard *dedup.Guard, key string, exclusive bool, fn func(ctx context.Context) (T, error)) (T, error) {
	if guard == nil {
		return fn(ctx)
	}
	v, err, shared := guard.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	var zero T
	if exclusive && shared {
		return zero, apperrors.ErrDuplicateRequest
	}
	if err != nil {
		if errors.Is(err, dedup.ErrInFlight) {
			return zero, apperrors.ErrDuplicateRequest
		}
		return zero, err
	}
	return v.(T), nil
}
