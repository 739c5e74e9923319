package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/localvault/localvault/pkg/domain"
)

// API paths, relative to the server base URL.
const (
	PathRequestOTP   = "/api/v1/auth/request-otp"
	PathVerifyOTP    = "/api/v1/auth/verify-otp"
	PathRefresh      = "/api/v1/auth/refresh"
	PathAuthValidity = "/api/v1/auth/auth-validity"
	PathMe           = "/api/v1/auth/me"
	PathLogout       = "/api/v1/auth/logout"

	pathContent      = "/api/v1/content"
	pathContentList  = "/api/v1/content/list"
	pathUpload       = "/api/v1/content/upload"
	pathDownload     = "/api/v1/content/download/"
	pathContentStats = "/api/v1/content/stats/summary"
)

// RequestFunc builds a fresh request against baseURL. It may be called more
// than once for the same logical request (a replay after a token refresh), so
// it must not consume shared state such as a one-shot body reader.
type RequestFunc func(ctx context.Context, baseURL string) (*http.Request, error)

// Doer executes requests with the caller's credentials attached.
// session.Manager is the production implementation.
type Doer interface {
	Do(ctx context.Context, build RequestFunc) (*http.Response, error)
}

// JSONRequest returns a RequestFunc for method+path with body encoded as JSON.
// A nil body sends no payload.
func JSONRequest(method, path string, body any) RequestFunc {
	return func(ctx context.Context, baseURL string) (*http.Request, error) {
		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal body: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

// ListOptions filters a content listing.
type ListOptions struct {
	Type   domain.ContentType
	Search string
	Limit  int
	Offset int
}

// Client is the LocalVault content API client.
type Client struct {
	doer Doer
}

// New creates a new API client that sends every request through d.
func New(d Doer) *Client {
	return &Client{doer: d}
}

// ListContent returns one page of the user's content, newest first.
func (c *Client) ListContent(ctx context.Context, opts ListOptions) (*domain.ContentList, error) {
	params := url.Values{}
	if opts.Type != "" {
		params.Set("content_type", string(opts.Type))
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	path := pathContentList
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var list domain.ContentList
	if err := c.get(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("client.ListContent: %w", err)
	}
	if list.Contents == nil {
		list.Contents = []domain.Content{}
	}
	return &list, nil
}

// GetContent fetches a single item by ID.
func (c *Client) GetContent(ctx context.Context, id string) (*domain.Content, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("client.GetContent: %w", err)
	}
	var content domain.Content
	if err := c.get(ctx, pathContent+"/"+url.PathEscape(id), &content); err != nil {
		return nil, fmt.Errorf("client.GetContent: %w", err)
	}
	return &content, nil
}

// DeleteContent deletes an item and its stored file.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("client.DeleteContent: %w", err)
	}
	if err := c.doRequest(ctx, JSONRequest(http.MethodDelete, pathContent+"/"+url.PathEscape(id), nil), nil); err != nil {
		return fmt.Errorf("client.DeleteContent: %w", err)
	}
	return nil
}

// Stats returns the content summary for the current user.
func (c *Client) Stats(ctx context.Context) (*domain.ContentStats, error) {
	var stats domain.ContentStats
	if err := c.get(ctx, pathContentStats, &stats); err != nil {
		return nil, fmt.Errorf("client.Stats: %w", err)
	}
	return &stats, nil
}

// Download describes a file written by Client.Download.
type Download struct {
	Filename string
	MimeType string
	Size     int64
}

// Download streams the file content of id into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (*Download, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("client.Download: %w", err)
	}
	path := pathDownload + url.PathEscape(id)
	build := func(ctx context.Context, baseURL string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		return req, nil
	}
	resp, err := c.doer.Do(ctx, build)
	if err != nil {
		return nil, fmt.Errorf("client.Download: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("client.Download: %w", ErrorFromResponse(resp))
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client.Download: copy body: %w", err)
	}
	mediaType := resp.Header.Get("Content-Type")
	if mt, _, perr := mime.ParseMediaType(mediaType); perr == nil {
		mediaType = mt
	}
	return &Download{
		Filename: filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		MimeType: mediaType,
		Size:     n,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, JSONRequest(http.MethodGet, path, nil), out)
}

func (c *Client) doRequest(ctx context.Context, build RequestFunc, out any) error {
	resp, err := c.doer.Do(ctx, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return ErrorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// filenameFromDisposition extracts the filename parameter. The server does
// not quote it, so names with spaces defeat mime.ParseMediaType.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	_, after, ok := strings.Cut(header, "filename=")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(after), `"`)
}

// FormatFileSize renders a byte count as "0 B", "512 B", "1.5 KB", "20 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	s := strconv.FormatFloat(size, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + units[i]
}
