package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directory_backend/internal/email"
)

type recordingNotifier struct {
	got []Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

type fakeSender struct {
	templates []string
	plain     []*email.Email
}

func (f *fakeSender) Send(e *email.Email) error {
	f.plain = append(f.plain, e)
	return nil
}

func (f *fakeSender) SendTemplate(to []string, subject, name string, data email.TemplateData) error {
	f.templates = append(f.templates, name)
	return nil
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("smtp down")}

	err := Multi{failing, ok}.Notify(context.Background(), Notification{Subject: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
}

func TestEmailNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, []string{"admin@test"})

	require.NoError(t, n.Notify(context.Background(), Notification{Subject: "a", Template: email.TemplateVerificationSubmitted}))
	require.NoError(t, n.Notify(context.Background(), Notification{Subject: "b", Text: "hello"}))

	assert.Equal(t, []string{email.TemplateVerificationSubmitted}, sender.templates)
	require.Len(t, sender.plain, 1)
	assert.Equal(t, "hello", sender.plain[0].Body)

	empty := NewEmailNotifier(sender, nil)
	assert.NoError(t, empty.Notify(context.Background(), Notification{Subject: "ignored"}))
	assert.Len(t, sender.plain, 1)
}

func TestTelegramNotifier(t *testing.T) {
	bot := &fakeBot{}
	n := &TelegramNotifier{bot: bot, chatID: 42}

	require.NoError(t, n.Notify(context.Background(), Notification{Subject: "New proof", Text: "jane"}))

	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Equal(t, "New proof\n\njane", bot.sent[0].Text)
}
