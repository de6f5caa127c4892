package notify

import (
	"context"

	"directory_backend/internal/email"
)

// EmailNotifier шлет уведомления на адреса администраторов
type EmailNotifier struct {
	sender     email.Sender
	recipients []string
}

func NewEmailNotifier(sender email.Sender, recipients []string) *EmailNotifier {
	return &EmailNotifier{sender: sender, recipients: recipients}
}

func (n *EmailNotifier) Notify(_ context.Context, msg Notification) error {
	if len(n.recipients) == 0 {
		return nil
	}
	if msg.Template != "" {
		return n.sender.SendTemplate(n.recipients, msg.Subject, msg.Template, email.TemplateData(msg.Data))
	}
	return n.sender.Send(&email.Email{
		To:      n.recipients,
		Subject: msg.Subject,
		Body:    plainText(msg),
	})
}
