package email

// Attachment - вложение письма
type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

// Email - письмо
type Email struct {
	To          []string
	Subject     string
	Body        string
	HTMLBody    string
	Attachments []Attachment
}

// TemplateData - данные для шаблонов писем
type TemplateData map[string]interface{}
