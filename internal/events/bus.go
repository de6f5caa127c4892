package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"directory_backend/internal/logger"

	"github.com/google/uuid"
)

// Bus доставляет событие локальным подписчикам и пересылает во внешние sinks
type Bus struct {
	instanceID string
	timeout    time.Duration

	mu       sync.RWMutex
	handlers map[string][]Handler // по типу события; "*" - все
	sinks    []Publisher
}

func NewBus(sinks ...Publisher) *Bus {
	return &Bus{
		instanceID: uuid.NewString(),
		timeout:    3 * time.Second,
		handlers:   make(map[string][]Handler),
		sinks:      sinks,
	}
}

// InstanceID - идентификатор процесса; по нему отбрасываются собственные события из redis
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// AddSink подключает внешний приемник
func (b *Bus) AddSink(p Publisher) {
	b.mu.Lock()
	b.sinks = append(b.sinks, p)
	b.mu.Unlock()
}

// Subscribe регистрирует обработчик для типа события ("*" - все типы)
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
	b.mu.Unlock()
}

// Emit строит событие из payload и публикует его
func (b *Bus) Emit(ctx context.Context, eventType, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return b.Publish(ctx, Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Topic:      topic,
		Key:        key,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	})
}

// Publish доставляет локально и во все sinks. Ошибки sinks логируются и возвращаются
// объединенными, локальная доставка от них не зависит.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if ev.Origin == "" {
		ev.Origin = b.instanceID
	}
	b.Deliver(ctx, ev)

	b.mu.RLock()
	sinks := append([]Publisher(nil), b.sinks...)
	b.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		err := s.Publish(sctx, ev)
		cancel()
		if err != nil {
			logger.CtxWarn(ctx, "event sink publish failed", "type", ev.Type, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver - только локальная доставка (события, пришедшие из других инстансов)
func (b *Bus) Deliver(ctx context.Context, ev Event) {
	b.mu.RLock()
	hs := append(append([]Handler(nil), b.handlers[ev.Type]...), b.handlers["*"]...)
	b.mu.RUnlock()

	for _, h := range hs {
		h(ctx, ev)
	}
}

// Close закрывает все sinks
func (b *Bus) Close() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var errs []error
	for _, s := range b.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
