// Package message builds the raw RFC 822 payloads submitted to the Gmail
// API, one per recipient.
package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"
)

// base64LineLength is the RFC 2045 maximum encoded line length.
const base64LineLength = 76

// Attachment is one file carried by every message in a batch.
type Attachment struct {
	Filename string
	Content  []byte
}

// Encoder assembles multipart MIME messages. The boundary is fixed at
// construction so that, within one batch, two encoded messages differ only
// in their To header.
type Encoder struct {
	boundary string
}

// NewEncoder creates an Encoder with a fresh boundary.
func NewEncoder() *Encoder {
	return &Encoder{
		boundary: fmt.Sprintf("boundary_%d", time.Now().UnixNano()),
	}
}

// Build produces the raw MIME message for one recipient: headers, a
// base64-encoded text/html body part, then one part per attachment.
func (e *Encoder) Build(from, to, subject, htmlBody string, atts []Attachment) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", e.boundary)

	writer := multipart.NewWriter(&buf)
	if err := writer.SetBoundary(e.boundary); err != nil {
		return nil, fmt.Errorf("failed to set boundary: %w", err)
	}

	bodyHeader := make(textproto.MIMEHeader)
	bodyHeader.Set("Content-Type", "text/html; charset=UTF-8")
	bodyHeader.Set("Content-Transfer-Encoding", "base64")
	part, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	writeBase64(part, []byte(htmlBody))

	for _, att := range atts {
		attHeader := make(textproto.MIMEHeader)
		attHeader.Set("Content-Type", TypeByFilename(att.Filename))
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		attHeader.Set("Content-Transfer-Encoding", "base64")
		part, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part for %s: %w", att.Filename, err)
		}
		writeBase64(part, att.Content)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}

	return buf.Bytes(), nil
}

// Envelope encodes a raw MIME message into the base64url form (padding
// stripped) the Gmail API expects in the send request's raw field.
func Envelope(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// writeBase64 writes data base64-encoded, wrapped at the RFC 2045 line length.
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := min(len(encoded), base64LineLength)
		fmt.Fprintf(w, "%s\r\n", encoded[:n])
		encoded = encoded[n:]
	}
}
