package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"automindmap/shared/config"
)

func TestRenderPasswordReset(t *testing.T) {
	body, err := RenderPasswordReset(PasswordReset{
		FirstName: "Ada <script>",
		ResetURL:  "https://app.example.com/reset-password?token=abc123",
		ExpiresIn: time.Hour,
	})
	if err != nil {
		t.Fatalf("RenderPasswordReset() error: %v", err)
	}

	if !strings.Contains(body, `href="https://app.example.com/reset-password?token=abc123"`) {
		t.Errorf("reset link missing from body:\n%s", body)
	}
	if !strings.Contains(body, "expires in 60 minutes") {
		t.Errorf("expiry missing from body")
	}
	if strings.Contains(body, "<script>") {
		t.Errorf("first name should be escaped")
	}

	anon, err := RenderPasswordReset(PasswordReset{ResetURL: "https://x", ExpiresIn: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(anon, "Hi there,") {
		t.Errorf("expected generic greeting")
	}
}

func TestSendPasswordReset(t *testing.T) {
	cfg := config.EmailConfig{
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "mailer",
		Password:   "secret",
		FromEmail:  "noreply@example.com",
	}
	sender := NewSender(cfg)

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	sender.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		if from != "noreply@example.com" {
			t.Errorf("from = %q", from)
		}
		return nil
	}

	err := sender.SendPasswordReset("ada@example.com", PasswordReset{FirstName: "Ada", ResetURL: "https://x/reset", ExpiresIn: 30 * time.Minute})
	if err != nil {
		t.Fatalf("SendPasswordReset() error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "ada@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Reset your AutoMindMap password") || !strings.Contains(msg, "Content-Type: text/html") {
		t.Errorf("unexpected headers:\n%s", msg)
	}

	sender.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	if err := sender.SendPasswordReset("ada@example.com", PasswordReset{ResetURL: "https://x"}); err == nil {
		t.Error("expected send error")
	}
}

func TestSendPasswordResetDisabled(t *testing.T) {
	sender := NewSender(config.EmailConfig{})
	if sender.Enabled() {
		t.Fatal("sender without credentials should be disabled")
	}
	if err := sender.SendPasswordReset("ada@example.com", PasswordReset{}); err == nil {
		t.Error("expected error when email is not configured")
	}
}
