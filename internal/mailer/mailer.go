package mailer

import (
	"fmt"

	"storefront/internal/logger"

	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"
)

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// パスワード再設定リンクを送る
func (m *SMTPMailer) SendPasswordReset(to string, name string, link string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")

	body := fmt.Sprintf(
		"Hi %s,\n\nUse the link below to reset your password:\n%s\n\nThe link expires in 1 hour. If you did not request this, you can ignore this mail.",
		name, link,
	)
	msg.SetBody("text/plain", body)

	d := mail.NewDialer(m.host, m.port, m.username, m.password)
	if err := d.DialAndSend(msg); err != nil {
		logger.Logger.Error("password reset mail failed", zap.Error(err))
		return err
	}
	return nil
}
