// Package realtime - websocket-лента изменений по топикам (site_status, profile:<id>, session:<user>).
package realtime

import (
	"context"
	"strings"

	"directory_backend/internal/events"
	"directory_backend/internal/logger"
	"directory_backend/internal/metrics"
)

// Message - то, что уходит клиенту
type Message struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

type publication struct {
	topic string
	msg   Message
}

// Hub владеет картой клиентов; все изменения идут через каналы
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	publish    chan publication
	count      chan chan int
	// done закрывается, когда Run завершился; после этого хаб никого не ждет
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan publication, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run обслуживает хаб до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.RealtimeClients.Set(float64(len(h.clients)))
			logger.Debug("realtime client registered", "client_id", c.id, "total", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
				metrics.RealtimeClients.Set(float64(len(h.clients)))
				logger.Debug("realtime client unregistered", "client_id", c.id, "total", len(h.clients))
			}

		case p := <-h.publish:
			for c := range h.clients {
				if !c.subscribed(p.topic) {
					continue
				}
				select {
				case c.send <- p.msg:
				default:
					// Медленный клиент отключается
					close(c.send)
					delete(h.clients, c)
					logger.Warn("realtime client dropped: send buffer full", "client_id", c.id)
				}
			}

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Broadcast ставит сообщение в очередь; при переполнении сообщение отбрасывается
func (h *Hub) Broadcast(topic string, msg Message) {
	select {
	case h.publish <- publication{topic: topic, msg: msg}:
	default:
		logger.Warn("realtime publish queue full, message dropped", "topic", topic)
	}
}

// ClientCount - число подключенных клиентов
func (h *Hub) ClientCount(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	case <-h.done:
		return 0
	}
}

// HandleEvent - подписчик шины событий
func (h *Hub) HandleEvent(ctx context.Context, ev events.Event) {
	if ev.Topic == "" {
		return
	}
	h.Broadcast(ev.Topic, Message{Type: ev.Type, Topic: ev.Topic, Payload: ev.Payload})
}

// AllowedTopic решает, может ли клиент подписаться на топик
func AllowedTopic(topic, userID string, isAdmin bool) bool {
	switch {
	case topic == events.TopicSiteStatus:
		return true
	case strings.HasPrefix(topic, events.TopicProfilePrefix):
		return len(topic) > len(events.TopicProfilePrefix)
	case strings.HasPrefix(topic, events.TopicSessionPrefix):
		return userID != "" && topic == events.SessionTopic(userID)
	case topic == events.TopicModeration:
		return isAdmin
	}
	return false
}
