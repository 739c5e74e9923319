package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Client-side validation failures. No request is sent when one of these is returned.
var (
	ErrNothingToUpload = errors.New("no content to upload")
	ErrTextTooLarge    = errors.New("text content too large, maximum size is 1MB")
	ErrFileTooLarge    = errors.New("file too large, maximum size allowed is 20MB")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrInvalidID       = errors.New("invalid content id")
)

// ErrorFromResponse drains resp.Body and builds an HTTPError from it. The
// server reports failures as {"detail": ...} (framework errors) or
// {"status": "error", "message": ...} (handler errors).
func ErrorFromResponse(resp *http.Response) *HTTPError {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}
	if msg := messageFromBody(respBody); msg != "" {
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	msg := strings.TrimSpace(string(respBody))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

func messageFromBody(body []byte) string {
	var apiErr struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) != nil {
		return ""
	}
	if len(apiErr.Detail) > 0 {
		var s string
		if json.Unmarshal(apiErr.Detail, &s) == nil && s != "" {
			return s
		}
		// Request validation failures carry a list of {loc, msg}.
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(apiErr.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return apiErr.Error
}
