package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/localvault/localvault/pkg/client"
)

// Kind classifies a failure so the UI can react to it without parsing messages.
type Kind int

const (
	// KindValidation is bad input caught before any network call.
	KindValidation Kind = iota + 1
	// KindNotConfigured means no server URL (or phone number) is set.
	KindNotConfigured
	// KindServer is a non-2xx answer other than an authentication failure.
	KindServer
	// KindTransport means the server could not be reached: offline, DNS, timeout.
	KindTransport
	// KindAuth is a definitive authentication failure; tokens have been cleared.
	KindAuth
	// KindStorage is a failure reading or writing the local session store.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotConfigured:
		return "not_configured"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindStorage:
		return "storage"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrNotConfigured  = errors.New("server not configured")
	ErrInvalidOTP     = errors.New("otp must be exactly 6 digits")
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrUnauthorized   = errors.New("unauthorized after token refresh")
	// ErrSessionReset means the session was cleared while a refresh was in flight.
	ErrSessionReset = errors.New("session reset during refresh")
)

// Error is returned by every Manager operation. Message is fit to show a user.
type Error struct {
	Kind    Kind
	Status  int // HTTP status when the server answered, else 0
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a session Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// Message returns the user-facing message carried by err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

func notConfiguredError() *Error {
	return &Error{Kind: KindNotConfigured, Message: "Server not configured", Err: ErrNotConfigured}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: "Cannot reach the server, check your connection", Err: err}
}

func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Could not save session state", Err: err}
}

// serverError reads resp into an Error carrying the server's own message,
// falling back to fallback when the body has none.
func serverError(resp *http.Response, fallback string) *Error {
	httpErr := client.ErrorFromResponse(resp)
	msg := httpErr.Message
	if msg == "" || msg == http.StatusText(resp.StatusCode) {
		msg = fallback
	}
	return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg, Err: httpErr}
}

func authError(status int, msg string, err error) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg, Err: err}
}
