package core

import (
	"bytes"
	htmltmpl "html/template"
	"net/mail"
	"path"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/darasa-app/darasa/fs"
)

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
	tmplInitErr   error
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData wraps template data with app-level context.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TextContent != "" || m.HTMLContent != ""
}

func loadTemplates() {
	tmplInit.Do(func() {
		textTemplates, tmplInitErr = texttmpl.ParseFS(appfs.FS, "templates/*.txt")
		if tmplInitErr != nil {
			tmplInitErr = errors.Wrap(tmplInitErr, "parsing text templates")
			return
		}
		htmlTemplates, tmplInitErr = htmltmpl.ParseFS(appfs.FS, "templates/*.html")
		if tmplInitErr != nil {
			tmplInitErr = errors.Wrap(tmplInitErr, "parsing html templates")
		}
	})
}

// Render resolves the message's TemplateName into its TextContent and
// HTMLContent. Messages with an empty TemplateName are left untouched.
func (m *EmailMessage) Render(conf *Config) error {
	if m.TemplateName == "" {
		return nil
	}
	loadTemplates()
	if tmplInitErr != nil {
		return tmplInitErr
	}

	data := ContextData{
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, m.TemplateName+".txt", data); err != nil {
		return errors.Wrapf(err, "executing template %s.txt", m.TemplateName)
	}
	m.TextContent = text.String()

	htmlName := m.TemplateName + ".html"
	if htmlTemplates.Lookup(path.Base(htmlName)) != nil {
		var html bytes.Buffer
		if err := htmlTemplates.ExecuteTemplate(&html, htmlName, data); err != nil {
			return errors.Wrapf(err, "executing template %s", htmlName)
		}
		m.HTMLContent = html.String()
	}
	return nil
}
