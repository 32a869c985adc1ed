package mail

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mkwiatek/mailfan/internal/dispatch"
	templates "github.com/mkwiatek/mailfan/internal/mailservice/templates"
	mailtypes "github.com/mkwiatek/mailfan/internal/mailservice/types"
)

// Notifier emails the signed-in user a summary after their batch finishes.
type Notifier struct {
	emailSender mailtypes.EmailSender
	sender      string
}

func NewMailNotifier(es mailtypes.EmailSender, sender string) Notifier {
	return Notifier{
		emailSender: es,
		sender:      sender,
	}
}

// Enabled reports whether a report sender is configured.
func (n *Notifier) Enabled() bool {
	return n.emailSender != nil
}

// SendBatchReport renders and sends the completion report. Report failures
// are logged by the caller and never affect the batch outcome.
func (n *Notifier) SendBatchReport(ctx context.Context, userEmail, userName, subject string, results []dispatch.SendResult) error {
	sent, failed := 0, 0
	var failures []mailtypes.FailureInfo
	for _, r := range results {
		if r.Status == dispatch.StatusSent {
			sent++
			continue
		}
		failed++
		failures = append(failures, mailtypes.FailureInfo{Email: r.Email, Error: r.Error})
	}

	htmlBody, err := templates.RenderMailTemplate("report", mailtypes.MailData{
		UserName: userName,
		Subject:  subject,
		Total:    len(results),
		Sent:     sent,
		Failed:   failed,
		Failures: failures,
	})
	if err != nil {
		return err
	}

	output, err := n.emailSender.Send(ctx, mailtypes.MessageConfig{
		From:    n.sender,
		To:      []string{userEmail},
		Subject: fmt.Sprintf("Bulk send finished: %s", subject),
		Body:    htmlBody,
	})
	if err != nil {
		return err
	}

	log.Info("completion report sent", "to", userEmail, "output", output)

	return nil
}
