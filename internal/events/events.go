// Package events - доменные события: локальная доставка подписчикам процесса
// и пересылка во внешние шины (kafka, redis pub/sub).
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Типы событий
const (
	TypeSiteStatusChanged     = "site_status.changed"
	TypeProfileChanged        = "profile.changed"
	TypeProfileDeleted        = "profile.deleted"
	TypeSessionChanged        = "session.changed"
	TypeUserRegistered        = "user.registered"
	TypeUserBanned            = "user.banned"
	TypeVerificationSubmitted = "verification.submitted"
	TypeVerificationReviewed  = "verification.reviewed"
)

// Топики realtime-подписок
const (
	TopicSiteStatus    = "site_status"
	TopicProfilePrefix = "profile:"
	TopicSessionPrefix = "session:"
	TopicModeration    = "moderation"
)

// ProfileTopic - изменения одной карточки
func ProfileTopic(profileID string) string {
	return TopicProfilePrefix + profileID
}

// SessionTopic - изменения сессии пользователя
func SessionTopic(userID string) string {
	return TopicSessionPrefix + userID
}

// Event - единица доставки
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
	Origin     string          `json:"origin"`
}

// Publisher - внешний приемник событий
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Handler - локальный подписчик; не должен блокироваться
type Handler func(ctx context.Context, ev Event)
