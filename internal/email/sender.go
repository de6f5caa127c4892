package email

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Sender отправляет письма
type Sender interface {
	Send(email *Email) error
	SendTemplate(to []string, subject, templateName string, data TemplateData) error
}

// SMTPConfig - параметры SMTP
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Validate проверяет конфигурацию SMTP
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", c.Port)
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// dialer - то, что нужно от gomail.Dialer (подменяется в тестах)
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// GomailSender - отправка через gopkg.in/gomail.v2
type GomailSender struct {
	cfg       SMTPConfig
	dialer    dialer
	templates *TemplateManager
}

func NewGomailSender(cfg SMTPConfig, templates *TemplateManager) (*GomailSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}
	if templates == nil {
		templates = NewTemplateManager()
	}
	return &GomailSender{
		cfg:       cfg,
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		templates: templates,
	}, nil
}

// Send отправляет письмо
func (s *GomailSender) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	return s.dialer.DialAndSend(s.buildMessage(email))
}

// SendTemplate рендерит шаблон и отправляет
func (s *GomailSender) SendTemplate(to []string, subject, templateName string, data TemplateData) error {
	html, err := s.templates.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return s.Send(&Email{To: to, Subject: subject, HTMLBody: html})
}

func (s *GomailSender) buildMessage(email *Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)

	switch {
	case email.HTMLBody != "" && email.Body != "":
		m.SetBody("text/plain", email.Body)
		m.AddAlternative("text/html", email.HTMLBody)
	case email.HTMLBody != "":
		m.SetBody("text/html", email.HTMLBody)
	default:
		m.SetBody("text/plain", email.Body)
	}

	for _, a := range email.Attachments {
		content := a.Content
		m.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(content))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return m
}
