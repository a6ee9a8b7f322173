package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"procurement/models"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	FrontendURL string
}

// sender покрывает gomail.Dialer, в тестах подменяется
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from        string
	frontendURL string
	dialer      sender
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		from:        cfg.From,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>`))

func (m *Mailer) resetLink(token string) string {
	return m.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, u *models.User, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	err := resetTemplate.Execute(&body, struct{ Name, Link string }{u.Name, m.resetLink(token)})
	if err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", u.Email)
	msg.SetHeader("Subject", "Password reset")
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// LogNotifier используется, когда SMTP не настроен
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, u *models.User, _ string) error {
	n.log.Info("password reset requested, smtp disabled",
		zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
