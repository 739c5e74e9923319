// Package session owns the client's authentication state: the server it is
// bound to, the access/refresh token pair, and the single refresh-and-retry
// applied to requests the server rejects with 401.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/localvault/localvault/internal/store"
	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

// DefaultTokenTTL is the client-side validity window of a new token pair.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) { m.hc = hc }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenTTL sets the validity window stamped on new token pairs.
func WithTokenTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithDevice sets the device name and type reported when requesting an OTP.
func WithDevice(name, kind string) Option {
	return func(m *Manager) {
		m.deviceName = name
		m.deviceType = kind
	}
}

// NewHTTPClient returns a client whose timeout bounds connection setup and
// the wait for response headers but not the body, so large downloads are
// not cut off.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = timeout
	t.TLSHandshakeTimeout = timeout
	return &http.Client{Transport: t}
}

// Manager is the only reader and writer of persisted session state.
// It is safe for concurrent use.
type Manager struct {
	store      store.Store
	hc         *http.Client
	log        *slog.Logger
	now        func() time.Time
	ttl        time.Duration
	deviceName string
	deviceType string

	mu     sync.Mutex
	cfg    domain.ServerConfig
	tokens *domain.TokenPair
	// gen increments whenever tokens are replaced or cleared; a refresh
	// started under an older generation must not write its result.
	gen uint64

	flight singleflight.Group
}

// New builds a Manager and loads any persisted server config and tokens from st.
func New(st store.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:      st,
		hc:         &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default(),
		now:        time.Now,
		ttl:        DefaultTokenTTL,
		deviceName: "LocalVault CLI",
		deviceType: "desktop",
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	return m, nil
}

func (m *Manager) load() error {
	get := func(key string) (string, error) {
		v, _, err := m.store.Get(key)
		return v, err
	}
	var vals [5]string
	for i, key := range []string{
		store.KeyServerURL, store.KeyPhoneNumber,
		store.KeyAccessToken, store.KeyRefreshToken, store.KeyTokenExpiry,
	} {
		v, err := get(key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		vals[i] = v
	}
	serverURL, phone, access, refresh, expiry := vals[0], vals[1], vals[2], vals[3], vals[4]

	m.cfg = domain.ServerConfig{BaseURL: domain.NormalizeBaseURL(serverURL), PhoneNumber: phone}

	switch {
	case access != "" && refresh != "":
		pair := domain.TokenPair{AccessToken: access, RefreshToken: refresh}
		if ms, err := strconv.ParseInt(expiry, 10, 64); err == nil && ms > 0 {
			pair.ExpiresAt = time.UnixMilli(ms)
		}
		m.tokens = &pair
	case access != "" || refresh != "":
		m.log.Warn("discarding half-present token pair")
		if err := m.store.Delete(store.KeyAccessToken, store.KeyRefreshToken, store.KeyTokenExpiry); err != nil {
			return fmt.Errorf("clear tokens: %w", err)
		}
	}
	return nil
}

// Config returns the current server configuration.
func (m *Manager) Config() domain.ServerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Snapshot returns the local view of the session without contacting the server.
// Authenticated here means "has unexpired tokens"; use IsAuthenticated for a live check.
func (m *Manager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Session{Config: m.cfg}
	if m.tokens != nil {
		s.HasTokens = true
		s.ExpiresAt = m.tokens.ExpiresAt
		s.Authenticated = m.cfg.Configured() && !m.tokens.Expired(m.now())
	}
	return s
}

// Configure binds the client to a server and phone number. A trailing slash
// on baseURL is dropped. Switching to a different server drops the tokens
// issued by the old one.
func (m *Manager) Configure(baseURL, phoneNumber string) error {
	norm := domain.NormalizeBaseURL(baseURL)
	if norm == "" {
		return validationError("Server URL is required", nil)
	}
	u, err := url.Parse(norm)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validationError("Server URL must look like https://host[:port]", err)
	}
	phone := strings.TrimSpace(phoneNumber)
	if phone == "" {
		return validationError("Phone number is required", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens != nil && m.cfg.BaseURL != "" && m.cfg.BaseURL != norm {
		if err := m.clearTokensLocked(); err != nil {
			return err
		}
		m.log.Info("server changed, tokens cleared", "server", norm)
	}
	if err := m.store.SetMany(map[string]string{
		store.KeyServerURL:   norm,
		store.KeyPhoneNumber: phone,
	}); err != nil {
		return storageError(err)
	}
	m.cfg = domain.ServerConfig{BaseURL: norm, PhoneNumber: phone}
	return nil
}

// DeviceID returns the persistent id of this device, creating it on first use.
func (m *Manager) DeviceID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok, err := m.store.Get(store.KeyDeviceID)
	if err != nil {
		return "", storageError(err)
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := store.Set(m.store, store.KeyDeviceID, id); err != nil {
		return "", storageError(err)
	}
	return id, nil
}

// ClearTokensOnly drops the token pair but keeps the server URL and phone
// number, so the user can log in again without re-entering them.
func (m *Manager) ClearTokensOnly() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearTokensLocked()
}

func (m *Manager) clearTokensLocked() error {
	m.gen++
	m.tokens = nil
	if err := m.store.Delete(store.KeyAccessToken, store.KeyRefreshToken, store.KeyTokenExpiry); err != nil {
		return storageError(err)
	}
	return nil
}

// clearTokensIf clears tokens only if no other writer has replaced them since gen.
func (m *Manager) clearTokensIf(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if err := m.clearTokensLocked(); err != nil {
		m.log.Error("clear tokens", "err", err)
	}
}

// setTokensLocked installs and persists a new pair.
func (m *Manager) setTokensLocked(pair domain.TokenPair) error {
	if err := m.store.SetMany(map[string]string{
		store.KeyAccessToken:  pair.AccessToken,
		store.KeyRefreshToken: pair.RefreshToken,
		store.KeyTokenExpiry:  strconv.FormatInt(pair.ExpiresAt.UnixMilli(), 10),
	}); err != nil {
		return storageError(err)
	}
	m.gen++
	m.tokens = &pair
	return nil
}

// Logout tells the server (best effort) and then forgets everything except
// the device id.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	cfg, tokens := m.cfg, m.tokens
	m.mu.Unlock()

	if cfg.Configured() && tokens != nil {
		resp, err := m.send(ctx, client.JSONRequest(http.MethodPost, client.PathLogout, nil), cfg.BaseURL, tokens.AccessToken)
		if err != nil {
			m.log.Warn("server logout failed", "err", err)
		} else {
			if resp.StatusCode >= 300 {
				m.log.Warn("server logout rejected", "status", resp.StatusCode)
			}
			drainClose(resp)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.tokens = nil
	m.cfg = domain.ServerConfig{}
	if err := m.store.Delete(
		store.KeyAccessToken, store.KeyRefreshToken, store.KeyTokenExpiry,
		store.KeyServerURL, store.KeyPhoneNumber,
	); err != nil {
		return storageError(err)
	}
	m.log.Info("logged out")
	return nil
}

// send builds a request and sends it with access as the bearer token.
// An empty access sends no Authorization header.
func (m *Manager) send(ctx context.Context, build client.RequestFunc, baseURL, access string) (*http.Response, error) {
	req, err := build(ctx, baseURL)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "Could not build request", Err: err}
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	} else {
		req.Header.Del("Authorization")
	}
	return m.hc.Do(req)
}

// sendError keeps Errors produced by send and classifies everything else
// as a transport failure.
func sendError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return transportError(err)
}

func drainClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10)) //nolint:errcheck // best-effort drain
	resp.Body.Close()                                       //nolint:errcheck // best-effort close
}
