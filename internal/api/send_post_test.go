package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mkwiatek/mailfan/internal/api/mail"
	"github.com/mkwiatek/mailfan/internal/config"
	"github.com/mkwiatek/mailfan/internal/session"
)

type fakeRawSender struct {
	sent       []string
	failOnCall map[int]error // 1-based call number
}

func (f *fakeRawSender) SendRaw(_ context.Context, _ *oauth2.Token, encodedMessage string) (string, error) {
	f.sent = append(f.sent, encodedMessage)
	if err := f.failOnCall[len(f.sent)]; err != nil {
		return "", err
	}
	return "msg-id", nil
}

func newTestServer(t *testing.T, sender *fakeRawSender) (*APIServer, string, string) {
	t.Helper()

	store := session.NewMemoryStore(10)
	token, err := store.Create("user@example.com", "Test User", &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)

	uploadDir := t.TempDir()
	s := NewAPIServer(config.BackendConfig{
		ListenPort:             ":0",
		FrontendEndpoint:       "http://localhost:5173",
		BackendEndpoint:        "http://localhost:3000",
		UploadDir:              uploadDir,
		MaxUploadSize:          25 << 20,
		SendPacing:             0,
		HTMLSanitizationPolicy: bluemonday.UGCPolicy(),
	}, sender, store, mail.NewMailNotifier(nil, ""), &oauth2.Config{})

	return s, token, uploadDir
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files []formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-and-send", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type sendResponse struct {
	Success         bool   `json:"success"`
	TotalEmails     int    `json:"totalEmails"`
	AttachmentCount int    `json:"attachmentCount"`
	Error           string `json:"error"`
	Results         []struct {
		Email  string `json:"email"`
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"results"`
}

func decodeSendResponse(t *testing.T, body io.Reader) sendResponse {
	t.Helper()
	var resp sendResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestUploadAndSendRequiresAuth(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer(t, &fakeRawSender{})

	req := multipartRequest(t, map[string]string{"subject": "Hi", "message": "<p>hi</p>"}, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAndSendManual(t *testing.T) {
	t.Parallel()

	sender := &fakeRawSender{}
	s, token, _ := newTestServer(t, sender)

	req := multipartRequest(t, map[string]string{
		"subject":      "Hi",
		"message":      "<p>hi</p>",
		"emailMethod":  "manual",
		"manualEmails": `["a@x.com","b@x.com"]`,
	}, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeSendResponse(t, rec.Body)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalEmails)
	assert.Equal(t, 0, resp.AttachmentCount)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a@x.com", resp.Results[0].Email)
	assert.Equal(t, "sent", resp.Results[0].Status)
	assert.Equal(t, "b@x.com", resp.Results[1].Email)
	assert.Equal(t, "sent", resp.Results[1].Status)
	assert.Len(t, sender.sent, 2)
}

func TestUploadAndSendMissingSubject(t *testing.T) {
	t.Parallel()

	s, token, _ := newTestServer(t, &fakeRawSender{})

	req := multipartRequest(t, map[string]string{
		"message":      "<p>hi</p>",
		"emailMethod":  "manual",
		"manualEmails": `["a@x.com"]`,
	}, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeSendResponse(t, rec.Body)
	assert.Equal(t, "Subject and message are required", resp.Error)
}

func TestUploadAndSendFileMethodWithAttachments(t *testing.T) {
	t.Parallel()

	sender := &fakeRawSender{failOnCall: map[int]error{2: errors.New("quota exceeded")}}
	s, token, uploadDir := newTestServer(t, sender)

	req := multipartRequest(t, map[string]string{
		"subject":     "Hi",
		"message":     "<p>hi</p>",
		"emailMethod": "file",
	}, []formFile{
		{field: "emailList", filename: "list.csv", content: []byte("a@x.com\nbad-row\nb@x.com\n")},
		{field: "attachment_0", filename: "notes.txt", content: []byte("notes")},
		{field: "attachment_1", filename: "img.png", content: []byte{0x89, 'P', 'N', 'G'}},
	})
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeSendResponse(t, rec.Body)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalEmails)
	assert.Equal(t, 2, resp.AttachmentCount)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "sent", resp.Results[0].Status)
	assert.Equal(t, "failed", resp.Results[1].Status)
	assert.Equal(t, "quota exceeded", resp.Results[1].Error)

	// every temp file is gone once the request is done
	assert.Empty(t, dirEntries(t, uploadDir))
}

func TestUploadAndSendNoValidEmails(t *testing.T) {
	t.Parallel()

	s, token, uploadDir := newTestServer(t, &fakeRawSender{})

	req := multipartRequest(t, map[string]string{
		"subject":     "Hi",
		"message":     "<p>hi</p>",
		"emailMethod": "file",
	}, []formFile{
		{field: "emailList", filename: "list.csv", content: []byte("Email\nbad-row\n")},
		{field: "attachment_0", filename: "notes.txt", content: []byte("notes")},
	})
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeSendResponse(t, rec.Body)
	assert.Equal(t, "no valid emails found", resp.Error)

	// temp files are cleaned up on failure paths too
	assert.Empty(t, dirEntries(t, uploadDir))
}

func TestUploadAndSendMissingListFile(t *testing.T) {
	t.Parallel()

	s, token, _ := newTestServer(t, &fakeRawSender{})

	req := multipartRequest(t, map[string]string{
		"subject":     "Hi",
		"message":     "<p>hi</p>",
		"emailMethod": "file",
	}, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeSendResponse(t, rec.Body)
	assert.Equal(t, "no email list file uploaded", resp.Error)
}
