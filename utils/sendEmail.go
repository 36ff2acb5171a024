package utils

import (
	"errors"
	"fmt"
	"utility-billing-backend/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailSender delivers one message; SMTPMailer is the production implementation.
type EmailSender interface {
	Send(to, subject, plainBody, htmlBody string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailerFromEnv builds the mailer from SMTP_HOST, SMTP_PORT, SMTP_USER,
// SMTP_PASSWORD and SMTP_FROM.
func NewSMTPMailerFromEnv() *SMTPMailer {
	port := config.GetEnvInt("SMTP_PORT", 25)
	mailer := &SMTPMailer{
		dialer: gomail.NewDialer(
			config.GetEnv("SMTP_HOST"),
			port,
			config.GetEnv("SMTP_USER"),
			config.GetEnv("SMTP_PASSWORD"),
		),
		from: config.GetEnv("SMTP_FROM"),
	}
	config.Logger.Info("Mailer initialized successfully", zap.Int("port", port))
	return mailer
}

// NewEmailMessage builds a multipart message with a plain-text body and an optional HTML
// alternative.
func NewEmailMessage(from, to, subject, plainBody, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}
	return m
}

func (s *SMTPMailer) Send(to, subject, plainBody, htmlBody string) error {
	if s == nil || s.dialer == nil {
		err := errors.New("mailer is not initialized")
		config.Logger.Error("Email send failed: mailer is not initialized",
			zap.String("to_email", to),
			zap.String("subject", subject))
		return err
	}

	if err := s.dialer.DialAndSend(NewEmailMessage(s.from, to, subject, plainBody, htmlBody)); err != nil {
		config.Logger.Error("Failed to send email via SMTP",
			zap.String("to_email", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	config.Logger.Info("Email sent successfully",
		zap.String("to_email", to),
		zap.String("subject", subject))
	return nil
}
