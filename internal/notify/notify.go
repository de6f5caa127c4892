package notify

import (
	"context"
	"errors"

	"directory_backend/internal/logger"
)

// Notification - уведомление администраторам
type Notification struct {
	Subject  string
	Text     string
	Template string
	Data     map[string]interface{}
}

// Notifier доставляет уведомления администраторам
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi рассылает уведомление по всем каналам, ошибки собираются
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop ничего не делает
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }

// Async отправляет уведомление в фоне, ошибки только логируются
func Async(ctx context.Context, n Notifier, notification Notification) {
	if n == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := n.Notify(ctx, notification); err != nil {
			logger.CtxWarn(ctx, "Notification failed", "subject", notification.Subject, "error", err)
		}
	}()
}

// plainText - текстовое представление для каналов без шаблонов
func plainText(n Notification) string {
	if n.Text != "" {
		return n.Text
	}
	return n.Subject
}
