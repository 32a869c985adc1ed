package mailservice

import (
	"context"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender sends raw messages through the Gmail API on behalf of the
// signed-in user, refreshing their token through the OAuth config as needed.
type GmailSender struct {
	oauthConfig *oauth2.Config
}

func NewGmailSender(oauthConfig *oauth2.Config) *GmailSender {
	return &GmailSender{oauthConfig: oauthConfig}
}

// SendRaw submits a base64url-encoded MIME message as the authenticated
// user and returns the Gmail message id.
func (g *GmailSender) SendRaw(ctx context.Context, tok *oauth2.Token, encodedMessage string) (string, error) {
	svc, err := gmail.NewService(ctx,
		option.WithTokenSource(g.oauthConfig.TokenSource(ctx, tok)),
	)
	if err != nil {
		return "", err
	}

	res, err := svc.Users.Messages.Send("me", &gmail.Message{
		Raw: encodedMessage,
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return res.Id, nil
}
