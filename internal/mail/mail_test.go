package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"procurement/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func TestMailerSendsResetLink(t *testing.T) {
	capture := &captureSender{}
	m := NewMailer(Config{From: "noreply@example.com", FrontendURL: "https://app.example.com/"})
	m.dialer = capture

	u := &models.User{ID: 1, Name: "Vera", Email: "vera@example.com"}
	require.NoError(t, m.SendPasswordReset(context.Background(), u, "abc123"))
	require.Len(t, capture.sent, 1)

	msg := capture.sent[0]
	assert.Equal(t, []string{"vera@example.com"}, msg.GetHeader("To"))

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Subject: Password reset")

	assert.Equal(t, "https://app.example.com/reset-password?token=abc123", m.resetLink("abc123"))
}

func TestMailerPropagatesSendError(t *testing.T) {
	m := NewMailer(Config{From: "noreply@example.com"})
	m.dialer = &captureSender{err: errors.New("connection refused")}

	err := m.SendPasswordReset(context.Background(), &models.User{Email: "a@b.c"}, "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLogNotifierDoesNotLogToken(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.SendPasswordReset(context.Background(), &models.User{ID: 7, Email: "o@example.com"}, "secret-token"))
	require.Equal(t, 1, logs.Len())
	for _, v := range logs.All()[0].ContextMap() {
		assert.NotEqual(t, "secret-token", v)
	}
}
