package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticart/internal/config"
	"opticart/internal/model"
)

func TestSMTPNotifier_SendOTP(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{
		Host: "smtp.example.com", Port: "587",
		Username: "user", Password: "pw",
		From: "shop@example.com", FromName: "Opticart",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, n.SendOTP(context.Background(), "a@x.com", "123456", model.OTPPurposeRegistration))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "From: Opticart <shop@example.com>\r\n")
	assert.Contains(t, string(gotMsg), "Subject: Verify your email address\r\n")
	assert.Contains(t, string(gotMsg), "123456")
}

func TestSMTPNotifier_SendFailure(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: "25", From: "shop@example.com"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := n.SendOTP(context.Background(), "a@x.com", "123456", model.OTPPurposeLogin)
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPNotifier_CanceledContext(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: "25"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.SendOTP(ctx, "a@x.com", "1", model.OTPPurposeLogin), context.Canceled)
}

func TestNew_PicksImplementation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.IsType(t, &LogNotifier{}, New(config.SMTPConfig{}, log))
	assert.IsType(t, &SMTPNotifier{}, New(config.SMTPConfig{Host: "smtp"}, log))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.SendOTP(context.Background(), "a@x.com", "654321", model.OTPPurposePasswordReset))
	assert.Contains(t, buf.String(), "code=654321")
	assert.Contains(t, buf.String(), "purpose=password_reset")
}
