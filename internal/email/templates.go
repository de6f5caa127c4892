package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// Имена встроенных шаблонов
const (
	TemplateVerificationSubmitted = "verification_submitted"
	TemplateSiteStatusChanged     = "site_status_changed"
)

var builtinTemplates = map[string]string{
	TemplateVerificationSubmitted: `<p>New payment proof from <b>{{.Username}}</b> ({{.Reference}}).</p>
<p>Country: {{.Country}}, amount: {{.Amount}}.</p>
<p><a href="{{.ProofURL}}">View proof</a></p>`,
	TemplateSiteStatusChanged: `<p>Site is now <b>{{if .IsOnline}}online{{else}}offline{{end}}</b>.</p>
{{if .Message}}<p>{{.Message}}</p>{{end}}`,
}

// TemplateManager - потокобезопасный набор html-шаблонов
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		// встроенные шаблоны валидны, ошибка здесь - баг
		if err := tm.AddTemplate(name, body); err != nil {
			panic(err)
		}
	}
	return tm
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()
	return nil
}
