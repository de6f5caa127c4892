// Package dedup схлопывает повторные одновременные вызовы одного действия.
// Внутри процесса дубликат получает результат первого вызова (singleflight),
// между инстансами действие защищено блокировкой в redis.
// Ключ должен однозначно задавать действие вместе с его параметрами
// (см. Fingerprint), иначе дубликат получит результат чужого запроса.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"directory_backend/internal/logger"

	"golang.org/x/sync/singleflight"
)

// ErrInFlight - то же действие уже выполняется другим инстансом
var ErrInFlight = errors.New("action already in progress")

// Locker - распределенная блокировка по ключу
type Locker interface {
	// Acquire возвращает release и ok=false, если ключ уже занят
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type Guard struct {
	group  singleflight.Group
	locker Locker
	ttl    time.Duration
}

// NewGuard; locker может быть nil - тогда защита только внутри процесса
func NewGuard(locker Locker, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Guard{locker: locker, ttl: ttl}
}

// Do выполняет fn не более одного раза одновременно для key.
// shared=true, если результат получен от чужого вызова; вызов, который
// сам выполнил fn, всегда получает shared=false.
// fn работает на контексте, отвязанном от отмены вызывающего, с таймаутом ttl:
// отключение первого клиента не роняет дубликаты.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error, bool) {
	ctx = logger.WithActionKey(ctx, key)
	owner := false
	v, err, _ := g.group.Do(key, func() (any, error) {
		owner = true
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.ttl)
		defer cancel()
		return g.run(runCtx, key, fn)
	})
	if !owner {
		logger.CtxDebug(ctx, "duplicate action collapsed")
	}
	return v, err, !owner
}

func (g *Guard) run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if g.locker == nil {
		return fn(ctx)
	}
	release, ok, err := g.locker.Acquire(ctx, key, g.ttl)
	if err != nil {
		// redis недоступен: продолжаем с защитой только внутри процесса
		logger.CtxWarn(ctx, "dedup lock unavailable", "error", err)
		return fn(ctx)
	}
	if !ok {
		return nil, ErrInFlight
	}
	defer release()
	return fn(ctx)
}

// Fingerprint - короткий хеш параметров действия для ключа Do
func Fingerprint(parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
