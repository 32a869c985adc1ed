package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mkwiatek/mailfan/internal/attachment"
	"github.com/mkwiatek/mailfan/internal/dispatch"
	"github.com/mkwiatek/mailfan/internal/recipients"
	"github.com/mkwiatek/mailfan/internal/session"
	"github.com/mkwiatek/mailfan/internal/userdata"
)

// multipartMemLimit is how much of a parsed form is kept in memory before
// spilling to disk.
const multipartMemLimit = 32 << 20

// sendForm carries the scalar fields of an upload-and-send request.
type sendForm struct {
	Subject      string
	Message      string
	EmailMethod  string
	ManualEmails string
}

func (f sendForm) validate() error {
	if f.Subject == "" || f.Message == "" {
		return &recipients.ValidationError{Message: "Subject and message are required"}
	}
	return nil
}

func (s *APIServer) uploadAndSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		JSON(w, map[string]any{"error": "bad_request"})
		return
	}

	sess, ok := r.Context().Value(userdata.SessionContextKey).(*session.Session)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		JSON(w, map[string]any{"error": "Not authenticated"})
		return
	}

	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		JSON(w, map[string]any{"error": "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := sendForm{
		Subject:      r.FormValue("subject"),
		Message:      r.FormValue("message"),
		EmailMethod:  r.FormValue("emailMethod"),
		ManualEmails: r.FormValue("manualEmails"),
	}
	if err := form.validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		JSON(w, map[string]any{"error": err.Error()})
		return
	}

	listFile, attachments, err := s.saveUploads(r)

	// every temp file goes away no matter how the request ends
	defer func() {
		attachment.Cleanup(attachments...)
		attachment.Cleanup(listFile)
	}()

	if err != nil {
		var verr *recipients.ValidationError
		if errors.As(err, &verr) {
			w.WriteHeader(http.StatusBadRequest)
			JSON(w, map[string]any{"error": verr.Message})
			return
		}
		log.Error("failed to save uploads", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		JSON(w, map[string]any{"error": "Internal server error: " + err.Error()})
		return
	}

	emails, err := recipients.Resolve(form.EmailMethod, listFile, form.ManualEmails)

	// the list file is consumed by resolution, delete it right away
	attachment.Cleanup(listFile)

	if err != nil {
		var verr *recipients.ValidationError
		var perr *recipients.ParseError
		switch {
		case errors.As(err, &verr):
			w.WriteHeader(http.StatusBadRequest)
			JSON(w, map[string]any{"error": verr.Message})
		case errors.As(err, &perr):
			w.WriteHeader(http.StatusBadRequest)
			JSON(w, map[string]any{"error": perr.Error()})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			JSON(w, map[string]any{"error": "Internal server error: " + err.Error()})
		}
		return
	}

	log.Info("starting bulk send",
		"user", sess.Email,
		"totalEmails", len(emails),
		"attachmentCount", len(attachments),
	)

	results, err := s.dispatcher.Run(r.Context(), sess, dispatch.Request{
		Subject:     form.Subject,
		HTMLBody:    s.backendConfig.HTMLSanitizationPolicy.Sanitize(form.Message),
		Recipients:  emails,
		Attachments: attachments,
	})
	if err != nil {
		log.Error("bulk send aborted", "user", sess.Email, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		JSON(w, map[string]any{"error": "Internal server error: " + err.Error()})
		return
	}

	if s.notifier.Enabled() {
		// report failures never affect the batch response
		if err := s.notifier.SendBatchReport(context.WithoutCancel(r.Context()), sess.Email, sess.Name, form.Subject, results); err != nil {
			log.Error("failed to send completion report", "user", sess.Email, "error", err)
		}
	}

	JSON(w, map[string]any{
		"success":         true,
		"totalEmails":     len(emails),
		"results":         results,
		"attachmentCount": len(attachments),
	})
}

// saveUploads spools the email list file and every attachment_* part to the
// upload dir. Files saved before an error are returned so the caller can
// clean them up.
func (s *APIServer) saveUploads(r *http.Request) (*attachment.File, []*attachment.File, error) {
	var (
		listFile    *attachment.File
		attachments []*attachment.File
	)

	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	for field, headers := range r.MultipartForm.File {
		if field != "emailList" && !strings.HasPrefix(field, "attachment_") {
			continue
		}
		for _, header := range headers {
			if header.Size > s.backendConfig.MaxUploadSize {
				return listFile, attachments, &recipients.ValidationError{
					Message: "file too large: " + header.Filename,
				}
			}

			part, err := header.Open()
			if err != nil {
				return listFile, attachments, err
			}

			saved, err := attachment.Save(s.backendConfig.UploadDir, field, part, header)
			part.Close()
			if err != nil {
				return listFile, attachments, err
			}

			if field == "emailList" {
				listFile = saved
			} else {
				attachments = append(attachments, saved)
			}
		}
	}

	// form fields iterate in map order; attachment_0, attachment_1, ...
	// defines the order attachments appear in the message
	sort.Slice(attachments, func(i, j int) bool {
		return attachments[i].FieldName < attachments[j].FieldName
	})

	return listFile, attachments, nil
}
