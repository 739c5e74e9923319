package domain

import (
	"strings"
	"time"
)

// ServerConfig is the server a device is bound to and the phone number it logs in with.
type ServerConfig struct {
	BaseURL     string `json:"base_url"`
	PhoneNumber string `json:"phone_number"`
}

// Configured reports whether a server URL has been set.
func (c ServerConfig) Configured() bool {
	return c.BaseURL != ""
}

// NormalizeBaseURL trims whitespace and any trailing slashes from a server URL.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// TokenPair is the credential pair issued by verify-otp.
// Either both tokens are set or neither is.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the client-side validity window has passed.
// A zero ExpiresAt never expires.
func (p TokenPair) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// Session is a point-in-time view of the client's authentication state.
type Session struct {
	Config        ServerConfig `json:"config"`
	HasTokens     bool         `json:"has_tokens"`
	ExpiresAt     time.Time    `json:"expires_at,omitempty"`
	Authenticated bool         `json:"authenticated"`
}
