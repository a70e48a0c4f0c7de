package service

import (
	"fmt"
	"html"
	"time"

	"catblog-backend/config"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

type EmailService struct {
	smtpHost    string
	smtpPort    int
	username    string
	password    string
	frontendURL string
	send        func(m *mail.Message) error
}

func NewEmailService() *EmailService {
	s := &EmailService{
		smtpHost:    config.AppConfig.SMTPHost,
		smtpPort:    config.AppConfig.SMTPPort,
		username:    config.AppConfig.SMTPUsername,
		password:    config.AppConfig.SMTPPassword,
		frontendURL: config.AppConfig.FrontendURL,
	}
	s.send = s.dialAndSend
	return s
}

// SendWelcomeEmail 异步发送，失败只记录日志
func (s *EmailService) SendWelcomeEmail(email, username string) {
	m := s.welcomeMessage(email, username)
	go func() {
		if err := s.send(m); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", email))
		}
	}()
}

func (s *EmailService) welcomeMessage(to, username string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to Cat Blog")
	m.SetBody("text/html", fmt.Sprintf(`<p>Hi %s,</p>
<p>Your Cat Blog account is ready. Share your first cat at <a href="%s">%s</a>.</p>`,
		html.EscapeString(username), html.EscapeString(s.frontendURL), html.EscapeString(s.frontendURL)))
	return m
}

func (s *EmailService) dialAndSend(m *mail.Message) error {
	util.Logger.Info("开始发送邮件",
		zap.Strings("to", m.GetHeader("To")),
		zap.String("SMTPHost", s.smtpHost),
		zap.Int("SMTPPort", s.smtpPort))

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	// 465 端口使用隐式 TLS，其他端口走 STARTTLS
	d.SSL = s.smtpPort == 465

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.Strings("to", m.GetHeader("To")))
	return nil
}
