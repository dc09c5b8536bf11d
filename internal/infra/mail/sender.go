package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/products-cms/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var publishedTmpl = template.Must(template.ParseFS(templateFS, "templates/published.html"))

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From       string
	To         []string
	ConsoleURL string
	dialer     Dialer
}

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		From:   from,
		To:     to,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

// NewEmailSenderWithDialer is used when the transport is provided by the caller.
func NewEmailSenderWithDialer(d Dialer, from string, to []string) *EmailSender {
	return &EmailSender{From: from, To: to, dialer: d}
}

func (s *EmailSender) SendPublished(event *entity.AuditEvent) error {
	data := PublishedEmailData{
		ProductName: event.ProductName,
		ProductID:   event.ProductID.String(),
		Actor:       event.Actor,
		PublishedAt: event.OccurredAt.Format("2006-01-02 15:04 MST"),
		ConsoleURL:  s.ConsoleURL,
	}

	var body bytes.Buffer
	if err := publishedTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render published email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Subject", fmt.Sprintf("Product live: %s", event.ProductName))
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send published email: %w", err)
	}
	return nil
}
