// Package notify delivers one-time codes to users.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"opticart/internal/config"
	"opticart/internal/model"
)

// Notifier sends a one-time code to an email address.
type Notifier interface {
	SendOTP(ctx context.Context, to, code string, purpose model.OTPPurpose) error
}

// New picks the SMTP notifier when a mail host is configured and the log notifier otherwise.
func New(cfg config.SMTPConfig, log *slog.Logger) Notifier {
	if cfg.Host == "" {
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg)
}

var subjects = map[model.OTPPurpose]string{
	model.OTPPurposeRegistration:  "Verify your email address",
	model.OTPPurposeLogin:         "Your login code",
	model.OTPPurposePasswordReset: "Reset your password",
}

var otpTemplate = template.Must(template.New("otp").Parse(`<p>Hello,</p>
<p>{{.Intro}}</p>
<h2 style="letter-spacing:4px">{{.Code}}</h2>
<p>The code expires shortly and can be used once. If you did not request it, ignore this email.</p>`))

var intros = map[model.OTPPurpose]string{
	model.OTPPurposeRegistration:  "Use this code to finish creating your account:",
	model.OTPPurposeLogin:         "Use this code to sign in:",
	model.OTPPurposePasswordReset: "Use this code to set a new password:",
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends HTML mail through an SMTP relay.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send sendFunc
}

// NewSMTPNotifier creates an SMTP notifier.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// SendOTP renders the code email and hands it to the relay.
func (n *SMTPNotifier) SendOTP(ctx context.Context, to, code string, purpose model.OTPPurpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	err := otpTemplate.Execute(&body, struct{ Intro, Code string }{intros[purpose], code})
	if err != nil {
		return fmt.Errorf("render otp mail: %w", err)
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := n.cfg.Host + ":" + n.cfg.Port
	msg := buildMessage(n.from(), to, subjects[purpose], body.String())
	if err := n.send(addr, auth, n.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) from() string {
	if n.cfg.FromName == "" {
		return n.cfg.From
	}
	return fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.From)
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

// LogNotifier writes codes to the log. Development only.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier that logs instead of mailing.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendOTP(ctx context.Context, to, code string, purpose model.OTPPurpose) error {
	n.log.InfoContext(ctx, "otp issued", "to", to, "purpose", string(purpose), "code", code)
	return nil
}
