package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

const refreshKey = "refresh"

// RefreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share one request. A rejected refresh token clears the
// pair; an unreachable server leaves it in place.
func (m *Manager) RefreshAccessToken(ctx context.Context) error {
	return m.refreshAfter(ctx, "")
}

// refreshAfter refreshes unless the access token has already moved on from
// stale, in which case a concurrent caller did the work and the current
// token is ready for use.
func (m *Manager) refreshAfter(ctx context.Context, stale string) error {
	if stale != "" && m.replacedSince(stale) {
		return nil
	}
	// The shared call must outlive any one waiter's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(refreshKey, func() (any, error) {
		return nil, m.refreshOnce(shared, stale)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return transportError(ctx.Err())
	}
}

func (m *Manager) replacedSince(stale string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens != nil && m.tokens.AccessToken != stale
}

func (m *Manager) refreshOnce(ctx context.Context, stale string) error {
	m.mu.Lock()
	cfg, tokens, gen := m.cfg, m.tokens, m.gen
	m.mu.Unlock()

	if tokens == nil || tokens.RefreshToken == "" {
		return authError(0, "Session expired, please log in again", ErrNoRefreshToken)
	}
	if stale != "" && tokens.AccessToken != stale {
		return nil
	}
	if !cfg.Configured() {
		return notConfiguredError()
	}

	m.log.Debug("refreshing access token")
	body := domain.RefreshRequest{RefreshToken: tokens.RefreshToken}
	resp, err := m.send(ctx, client.JSONRequest(http.MethodPost, client.PathRefresh, body), cfg.BaseURL, "")
	if err != nil {
		m.log.Warn("token refresh unreachable", "err", err)
		return sendError(err)
	}
	defer drainClose(resp)

	if resp.StatusCode >= 500 {
		return serverError(resp, "Token refresh failed")
	}
	if resp.StatusCode >= 300 {
		httpErr := client.ErrorFromResponse(resp)
		m.log.Info("refresh token rejected, clearing tokens", "status", resp.StatusCode)
		m.clearTokensIf(gen)
		return authError(resp.StatusCode, "Session expired, please log in again", httpErr)
	}

	var tok domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		if err == nil {
			err = fmt.Errorf("response missing access_token")
		}
		m.log.Info("invalid refresh response, clearing tokens", "err", err)
		m.clearTokensIf(gen)
		return authError(resp.StatusCode, "Token refresh failed", err)
	}

	next := domain.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		m.log.Info("discarding refresh result, session changed")
		return authError(0, "Session changed during refresh", ErrSessionReset)
	}
	next.ExpiresAt = m.now().Add(m.ttl)
	if err := m.setTokensLocked(next); err != nil {
		return err
	}
	m.log.Info("access token refreshed")
	return nil
}

// Do sends the request built by build with the current access token. A 401
// answer triggers one token refresh and one replay; a second 401 is terminal
// and clears the tokens. Responses other than 401 are returned as they are,
// and the caller closes the body.
func (m *Manager) Do(ctx context.Context, build client.RequestFunc) (*http.Response, error) {
	m.mu.Lock()
	cfg, tokens := m.cfg, m.tokens
	m.mu.Unlock()
	if !cfg.Configured() {
		return nil, notConfiguredError()
	}

	access := ""
	if tokens != nil {
		access = tokens.AccessToken
	}
	resp, err := m.send(ctx, build, cfg.BaseURL, access)
	if err != nil {
		return nil, sendError(err)
	}
	if resp.StatusCode != http.StatusUnauthorized || isRefreshCall(resp) {
		return resp, nil
	}
	drainClose(resp)

	if err := m.refreshAfter(ctx, access); err != nil {
		return nil, err
	}

	m.mu.Lock()
	cfg, tokens = m.cfg, m.tokens
	m.mu.Unlock()
	if tokens == nil || !cfg.Configured() {
		return nil, authError(http.StatusUnauthorized, "Session expired, please log in again", ErrSessionReset)
	}

	resp, err = m.send(ctx, build, cfg.BaseURL, tokens.AccessToken)
	if err != nil {
		return nil, sendError(err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		httpErr := client.ErrorFromResponse(resp)
		resp.Body.Close() //nolint:errcheck // body already drained
		m.log.Info("401 after refresh, clearing tokens")
		if err := m.ClearTokensOnly(); err != nil {
			m.log.Error("clear tokens", "err", err)
		}
		return nil, authError(http.StatusUnauthorized, "Session expired, please log in again",
			fmt.Errorf("%w: %w", ErrUnauthorized, httpErr))
	}
	return resp, nil
}

func isRefreshCall(resp *http.Response) bool {
	return resp.Request != nil && resp.Request.URL != nil &&
		strings.HasSuffix(resp.Request.URL.Path, client.PathRefresh)
}
