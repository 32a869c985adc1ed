package mailservice

import (
	"context"
	"fmt"
	"net/smtp"

	mailtypes "github.com/mkwiatek/mailfan/internal/mailservice/types"
)

// StandardEmailService sends notification mail over plain SMTP, for setups
// without AWS credentials.
type StandardEmailService struct {
	config *mailtypes.StandardSenderConfig
}

func NewStandardMailService(cfg *mailtypes.StandardSenderConfig) (*StandardEmailService, error) {
	return &StandardEmailService{
		config: cfg,
	}, nil
}

func (s *StandardEmailService) Send(_ context.Context, mailConfig mailtypes.MessageConfig) (any, error) {
	fromHeader := fmt.Sprintf("From: Mailfan Reports <%s>\r\n", mailConfig.From)
	toHeader := fmt.Sprintf("To: %s\r\n", mailConfig.To)
	subjectHeader := fmt.Sprintf("Subject: %s\r\n", mailConfig.Subject)
	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n"

	msg := []byte(fromHeader + toHeader + subjectHeader + mime + "\r\n" + mailConfig.Body)
	auth := smtp.PlainAuth("", s.config.SmtpUsername, s.config.SmtpPassword, s.config.SmtpHost)

	if err := smtp.SendMail(s.config.SmtpHost+":"+s.config.SmtpPort, auth, mailConfig.From, mailConfig.To, msg); err != nil {
		return nil, err
	}

	return nil, nil
}
