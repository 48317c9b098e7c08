package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"automindmap/shared/config"
)

//go:embed reset_email.html
var resetTemplateText string

var resetTemplate = template.Must(template.New("reset").Parse(resetTemplateText))

// PasswordReset is the data rendered into the reset email.
type PasswordReset struct {
	FirstName string
	ResetURL  string
	ExpiresIn time.Duration
}

func (p PasswordReset) ExpiresInMinutes() int {
	return int(p.ExpiresIn / time.Minute)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config config.EmailConfig
	send   sendFunc
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// Enabled reports whether SMTP is configured.
func (s *Sender) Enabled() bool {
	return s.config.Enabled()
}

func (s *Sender) SendPasswordReset(to string, reset PasswordReset) error {
	if !s.Enabled() {
		return fmt.Errorf("email sending is not configured")
	}

	body, err := RenderPasswordReset(reset)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(to, "Reset your AutoMindMap password", body)
}

// SendHTML sends an email with custom HTML content.
func (s *Sender) SendHTML(to, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, to, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func RenderPasswordReset(reset PasswordReset) (string, error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, reset); err != nil {
		return "", err
	}
	return buf.String(), nil
}
