package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/localvault/localvault/internal/store"
	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidOTP reports whether code is exactly six digits.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// RequestOTP registers this device and asks the server to text an OTP to
// phoneNumber. An empty phoneNumber uses the configured one; a different one
// replaces it, since VerifyOTP always verifies the configured number.
func (m *Manager) RequestOTP(ctx context.Context, phoneNumber string) error {
	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()
	if !cfg.Configured() {
		return notConfiguredError()
	}

	phone := strings.TrimSpace(phoneNumber)
	if phone == "" {
		phone = cfg.PhoneNumber
	}
	if phone == "" {
		return validationError("Phone number is required", nil)
	}
	if phone != cfg.PhoneNumber {
		m.mu.Lock()
		err := store.Set(m.store, store.KeyPhoneNumber, phone)
		if err == nil {
			m.cfg.PhoneNumber = phone
		}
		m.mu.Unlock()
		if err != nil {
			return storageError(err)
		}
	}

	deviceID, err := m.DeviceID()
	if err != nil {
		return err
	}
	body := domain.RequestOTPRequest{
		DeviceName:  m.deviceName,
		DeviceType:  m.deviceType,
		PhoneNumber: phone,
		DeviceID:    deviceID,
	}
	resp, err := m.send(ctx, client.JSONRequest(http.MethodPost, client.PathRequestOTP, body), cfg.BaseURL, "")
	if err != nil {
		m.log.Warn("request otp failed", "err", err)
		return sendError(err)
	}
	defer drainClose(resp)
	if resp.StatusCode >= 300 {
		return serverError(resp, "Failed to send OTP")
	}
	m.log.Info("otp requested")
	return nil
}

// ResendOTP requests a new OTP for the configured phone number.
func (m *Manager) ResendOTP(ctx context.Context) error {
	return m.RequestOTP(ctx, "")
}

// VerifyOTP exchanges code for a token pair. The code is checked locally
// first; a malformed one never reaches the server. On any failure the
// session stays unauthenticated.
func (m *Manager) VerifyOTP(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !ValidOTP(code) {
		return validationError("Please enter a valid 6-digit OTP", ErrInvalidOTP)
	}

	m.mu.Lock()
	cfg := m.cfg
	m.mu.Unlock()
	if !cfg.Configured() || cfg.PhoneNumber == "" {
		return notConfiguredError()
	}

	body := domain.VerifyOTPRequest{PhoneNumber: cfg.PhoneNumber, OTP: code}
	resp, err := m.send(ctx, client.JSONRequest(http.MethodPost, client.PathVerifyOTP, body), cfg.BaseURL, "")
	if err != nil {
		m.log.Warn("verify otp failed", "err", err)
		return sendError(err)
	}
	defer drainClose(resp)
	if resp.StatusCode >= 300 {
		return serverError(resp, "OTP verification failed")
	}

	var tok domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "Invalid response format", Err: err}
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "Invalid response format",
			Err: fmt.Errorf("response missing access or refresh token")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.BaseURL != cfg.BaseURL {
		return &Error{Kind: KindAuth, Message: "Server changed during login", Err: ErrSessionReset}
	}
	if err := m.setTokensLocked(domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    m.now().Add(m.ttl),
	}); err != nil {
		return err
	}
	m.log.Info("logged in")
	return nil
}

// IsAuthenticated checks the session locally and then with the server.
//
//	(true, nil)   the server accepted the access token, possibly after one refresh
//	(false, nil)  definitely logged out: no tokens, expired, or refresh rejected
//	(false, err)  cannot tell: err is a KindTransport or KindServer Error
//
// An expired pair is cleared without any network call.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	m.mu.Lock()
	cfg, tokens := m.cfg, m.tokens
	m.mu.Unlock()

	if tokens == nil || !cfg.Configured() {
		return false, nil
	}
	if tokens.Expired(m.now()) {
		m.log.Info("token pair expired")
		if err := m.ClearTokensOnly(); err != nil {
			return false, err
		}
		return false, nil
	}

	resp, err := m.send(ctx, client.JSONRequest(http.MethodGet, client.PathAuthValidity, nil), cfg.BaseURL, tokens.AccessToken)
	if err != nil {
		return false, sendError(err)
	}
	defer drainClose(resp)

	switch {
	case resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		err := m.refreshAfter(ctx, tokens.AccessToken)
		if err == nil {
			return true, nil
		}
		if IsKind(err, KindAuth) {
			return false, nil
		}
		return false, err
	default:
		return false, serverError(resp, "Could not verify session")
	}
}

// Me returns the current user.
func (m *Manager) Me(ctx context.Context) (*domain.User, error) {
	resp, err := m.Do(ctx, client.JSONRequest(http.MethodGet, client.PathMe, nil))
	if err != nil {
		return nil, err
	}
	defer drainClose(resp)
	if resp.StatusCode >= 300 {
		return nil, serverError(resp, "Failed to get user info")
	}
	var u domain.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: "Invalid response format", Err: err}
	}
	return &u, nil
}
