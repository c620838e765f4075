package notify

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// API delivers a short operator facing message.
//
// note: fault injection point
type API interface {
	Notify(subject, body string) error
}

// Discard drops every message, it is used when no smtp server is configured.
type Discard struct{}

func (Discard) Notify(string, string) error {
	return nil
}

type SMTPConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// Enabled reports whether there is enough configuration to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != "" && len(c.To) > 0
}

// SMTP sends notifications as plain text e-mails.
type SMTP struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return SMTP{cfg: cfg}
}

func (s SMTP) Notify(subject, body string) error {
	mail := email.NewEmail()
	mail.From = s.cfg.From
	mail.To = s.cfg.To
	mail.Subject = subject
	mail.Text = []byte(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	err := mail.Send(fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), auth)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// FromConfig returns an SMTP notifier when cfg is usable and Discard otherwise.
func FromConfig(cfg SMTPConfig) API {
	if !cfg.Enabled() {
		return Discard{}
	}
	return NewSMTP(cfg)
}
