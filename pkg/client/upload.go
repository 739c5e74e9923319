package client

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/localvault/localvault/pkg/domain"
)

// Server-side upload limits, enforced before sending.
const (
	MaxFileSize = 20 << 20 // 20 MB
	MaxTextSize = 1000000  // 1 MB of text
)

// allowedFileTypes mirrors the server's upload allow-list.
var allowedFileTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/svg+xml",
	"application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain", "text/csv", "text/html", "text/css", "text/javascript",
	"application/json", "application/xml",
	"application/zip", "application/x-rar-compressed", "application/x-7z-compressed",
	"application/octet-stream",
}

// UploadText stores a text snippet. Title is optional.
func (c *Client) UploadText(ctx context.Context, text, title string) (*domain.Content, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("client.UploadText: %w", ErrNothingToUpload)
	}
	if len(text) > MaxTextSize {
		return nil, fmt.Errorf("client.UploadText: %w", ErrTextTooLarge)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("text_content", text); err != nil {
		return nil, fmt.Errorf("client.UploadText: write field: %w", err)
	}
	if err := writeTitle(mw, title); err != nil {
		return nil, fmt.Errorf("client.UploadText: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.UploadText: close form: %w", err)
	}

	var created domain.Content
	if err := c.doRequest(ctx, multipartRequest(body.Bytes(), mw.FormDataContentType()), &created); err != nil {
		return nil, fmt.Errorf("client.UploadText: %w", err)
	}
	return &created, nil
}

// UploadFile stores the file at path. Title defaults to the file name on the server.
func (c *Client) UploadFile(ctx context.Context, path, title string) (*domain.Content, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("client.UploadFile: %s is a directory: %w", path, ErrNothingToUpload)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("client.UploadFile: %w", ErrFileTooLarge)
	}

	mediaType, err := DetectFileType(path)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: read: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(path))))
	h.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("client.UploadFile: create part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("client.UploadFile: write part: %w", err)
	}
	if err := writeTitle(mw, title); err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client.UploadFile: close form: %w", err)
	}

	var created domain.Content
	if err := c.doRequest(ctx, multipartRequest(body.Bytes(), mw.FormDataContentType()), &created); err != nil {
		return nil, fmt.Errorf("client.UploadFile: %w", err)
	}
	return &created, nil
}

// DetectFileType sniffs the media type of the file at path (without
// parameters) and rejects types the server would refuse.
func DetectFileType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type: %w", err)
	}
	for _, allowed := range allowedFileTypes {
		if mt.Is(allowed) {
			base, _, perr := mime.ParseMediaType(mt.String())
			if perr != nil {
				return allowed, nil
			}
			return base, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

func writeTitle(mw *multipart.Writer, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if err := mw.WriteField("title", title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	return nil
}

// multipartRequest wraps an encoded form so every replay gets a fresh reader.
func multipartRequest(body []byte, contentType string) RequestFunc {
	return func(ctx context.Context, baseURL string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+pathUpload, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
