package types

import (
	"context"

	"golang.org/x/oauth2"
)

// RawSender submits one fully encoded message through the provider's send
// API using the signed-in user's own credentials.
type RawSender interface {
	// SendRaw takes the base64url transport envelope of a raw MIME message
	// and returns the provider's message id.
	SendRaw(ctx context.Context, tok *oauth2.Token, encodedMessage string) (string, error)
}

// EmailSender sends fixed-sender notification mail, such as batch
// completion reports.
type EmailSender interface {
	Send(ctx context.Context, mailConfig MessageConfig) (any, error)
}

type MessageConfig struct {
	From    string
	To      []string
	Subject string
	Body    string
}

type StandardSenderConfig struct {
	SmtpHost     string
	SmtpPort     string
	SmtpUsername string
	SmtpPassword string
}

// MailData feeds the completion report template.
type MailData struct {
	UserName string
	Subject  string
	Total    int
	Sent     int
	Failed   int
	Failures []FailureInfo
}

type FailureInfo struct {
	Email string
	Error string
}
