package events

import (
	"context"
	"encoding/json"
	"errors"

	"directory_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel - канал, через который инстансы обмениваются событиями
const DefaultRedisChannel = "directory:events"

// RedisPublisher публикует события в redis pub/sub
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Close - клиент redis принадлежит приложению
func (p *RedisPublisher) Close() error {
	return nil
}

// RedisRelay слушает канал и доставляет локально события других инстансов
type RedisRelay struct {
	client  *redis.Client
	channel string
	bus     *Bus
}

func NewRedisRelay(client *redis.Client, channel string, bus *Bus) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisRelay{client: client, channel: channel, bus: bus}
}

// Run блокируется до отмены ctx
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("redis event relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			r.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		logger.Warn("redis relay: bad event payload", "error", err)
		return
	}
	if ev.Origin == r.bus.InstanceID() {
		return
	}
	r.bus.Deliver(ctx, ev)
}
