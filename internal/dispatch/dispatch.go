// Package dispatch runs the per-request send loop: one message per
// recipient, strictly sequential, paced to stay under the provider's rate
// limit.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/mkwiatek/mailfan/internal/attachment"
	mailtypes "github.com/mkwiatek/mailfan/internal/mailservice/types"
	"github.com/mkwiatek/mailfan/internal/message"
	"github.com/mkwiatek/mailfan/internal/session"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// SendResult is the recorded outcome for one recipient.
type SendResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Request is one validated bulk-send request.
type Request struct {
	Subject     string
	HTMLBody    string
	Recipients  []string
	Attachments []*attachment.File
}

// Dispatcher sends a request's message to every recipient through a
// RawSender.
type Dispatcher struct {
	sender mailtypes.RawSender
	pacing time.Duration
}

// New creates a Dispatcher pacing sends at one per interval. An interval of
// zero or less disables pacing.
func New(sender mailtypes.RawSender, pacing time.Duration) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		pacing: pacing,
	}
}

// Run sends req's message to every recipient in order and returns one result
// per recipient. A provider failure for one recipient is recorded and the
// loop continues. Attachment bytes are read once and reused for every
// recipient. A failure before the first send, or a cancelled context, aborts
// the whole batch with no partial results.
func (d *Dispatcher) Run(ctx context.Context, sess *session.Session, req Request) ([]SendResult, error) {
	atts := make([]message.Attachment, 0, len(req.Attachments))
	for _, f := range req.Attachments {
		data, err := f.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to load attachments: %w", err)
		}
		atts = append(atts, message.Attachment{
			Filename: f.OriginalName,
			Content:  data,
		})
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.pacing > 0 {
		// burst 1 lets the first send go out immediately; every later send
		// waits out the pacing interval
		limiter = rate.NewLimiter(rate.Every(d.pacing), 1)
	}

	encoder := message.NewEncoder()
	total := len(req.Recipients)
	results := make([]SendResult, 0, total)

	for i, recipient := range req.Recipients {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		log.Info("sending email", "to", recipient, "progress", fmt.Sprintf("%d/%d", i+1, total))

		raw, err := encoder.Build(sess.Email, recipient, req.Subject, req.HTMLBody, atts)
		if err != nil {
			log.Error("failed to encode message", "to", recipient, "error", err)
			results = append(results, SendResult{Email: recipient, Status: StatusFailed, Error: err.Error()})
			continue
		}

		if _, err := d.sender.SendRaw(ctx, sess.OAuthToken, message.Envelope(raw)); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Error("failed to send email", "to", recipient, "error", err)
			results = append(results, SendResult{Email: recipient, Status: StatusFailed, Error: err.Error()})
			continue
		}

		log.Info("email sent", "to", recipient)
		results = append(results, SendResult{Email: recipient, Status: StatusSent})
	}

	return results, nil
}
