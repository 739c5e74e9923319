package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/domain"
)

func newTestApp(s *fakeSession, v *fakeVault, start Screen) App {
	a := NewApp(s, v, Options{Version: "test", DownloadDir: "/tmp/lv", Start: start})
	model, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App)
}

func TestSetupSubmitMovesToOTP(t *testing.T) {
	s := &fakeSession{}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenSetup)

	m, _ = m.Update(runes("https://vault.test/"))
	m, _ = m.Update(keyOf(tea.KeyEnter))
	m = typeString(m, "+1000")
	m, cmd := m.Update(keyOf(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command on submit")
	}
	m = drain(m, cmd, 1)

	a := m.(App)
	if a.screen != ScreenOTP {
		t.Fatalf("screen = %v, want ScreenOTP", a.screen)
	}
	if s.cfg.BaseURL != "https://vault.test" {
		t.Errorf("configured URL = %q", s.cfg.BaseURL)
	}
	if len(s.requested) != 1 || s.requested[0] != "+1000" {
		t.Errorf("requested = %v", s.requested)
	}
	if view := a.View(); !strings.Contains(view, "Code sent to +1000") {
		t.Errorf("expected code-sent notice, got:\n%s", view)
	}
}

func TestSetupRequiresFields(t *testing.T) {
	var m tea.Model = newTestApp(&fakeSession{}, &fakeVault{}, ScreenSetup)

	m, _ = m.Update(keyOf(tea.KeyEnter))
	m, cmd := m.Update(keyOf(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command with empty fields")
	}
	if view := m.View(); !strings.Contains(view, "Server URL is required") {
		t.Errorf("expected validation message, got:\n%s", view)
	}
}

func TestSetupRequestFailureStaysOnSetup(t *testing.T) {
	s := &fakeSession{
		cfg:        domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"},
		requestErr: &session.Error{Kind: session.KindServer, Status: 429, Message: "Too many OTP requests"},
	}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenSetup)

	m, cmd := m.Update(keyOf(tea.KeyEnter)) // prefilled, focus starts on phone
	m = drain(m, cmd, 1)

	a := m.(App)
	if a.screen != ScreenSetup {
		t.Fatalf("screen = %v, want ScreenSetup", a.screen)
	}
	if view := a.View(); !strings.Contains(view, "Too many OTP requests") {
		t.Errorf("expected server message, got:\n%s", view)
	}
}

func TestOTPInvalidCodeStaysLocal(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenOTP)

	m = typeString(m, "12a3")
	m, cmd := m.Update(keyOf(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command for a short code")
	}
	if len(s.verified) != 0 {
		t.Errorf("VerifyOTP called with %v", s.verified)
	}
	a := m.(App)
	if a.otp.code != "123" {
		t.Errorf("code = %q, want non-digits dropped", a.otp.code)
	}
	if view := a.View(); !strings.Contains(view, "valid 6-digit OTP") {
		t.Errorf("expected local validation message, got:\n%s", view)
	}
}

func TestOTPVerifyGoesHome(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	v := &fakeVault{list: &domain.ContentList{
		Contents:   []domain.Content{{ID: "a", ContentType: domain.ContentText, Title: "groceries"}},
		TotalCount: 1,
	}}
	var m tea.Model = newTestApp(s, v, ScreenOTP)

	m = typeString(m, "1234567") // seventh digit ignored
	m, cmd := m.Update(keyOf(tea.KeyEnter))
	m = drain(m, cmd, 3)

	a := m.(App)
	if len(s.verified) != 1 || s.verified[0] != "123456" {
		t.Errorf("verified = %v", s.verified)
	}
	if a.screen != ScreenHome {
		t.Fatalf("screen = %v, want ScreenHome", a.screen)
	}
	if view := a.View(); !strings.Contains(view, "groceries") {
		t.Errorf("expected list on home, got:\n%s", view)
	}
}

func TestOTPVerifyFailureShowsMessage(t *testing.T) {
	s := &fakeSession{
		cfg:       domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"},
		verifyErr: &session.Error{Kind: session.KindServer, Status: 400, Message: "Invalid or expired OTP"},
	}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenOTP)

	m = typeString(m, "000000")
	m, cmd := m.Update(keyOf(tea.KeyEnter))
	m = drain(m, cmd, 1)

	a := m.(App)
	if a.screen != ScreenOTP {
		t.Fatalf("screen = %v, want ScreenOTP", a.screen)
	}
	if !strings.Contains(a.View(), "Invalid or expired OTP") {
		t.Errorf("expected server message, got:\n%s", a.View())
	}
}

func TestOTPResend(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenOTP)

	m, cmd := m.Update(keyOf(tea.KeyCtrlR))
	m = drain(m, cmd, 1)

	if s.resends != 1 {
		t.Errorf("resends = %d, want 1", s.resends)
	}
	if !strings.Contains(m.View(), "New code sent") {
		t.Errorf("expected resend notice, got:\n%s", m.View())
	}
}

func TestOTPEscReturnsToSetup(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenOTP)

	m, cmd := m.Update(keyOf(tea.KeyEsc))
	m = drain(m, cmd, 1)

	a := m.(App)
	if a.screen != ScreenSetup {
		t.Fatalf("screen = %v, want ScreenSetup", a.screen)
	}
	if a.setup.url != "https://vault.test" {
		t.Errorf("setup url = %q, want prefilled", a.setup.url)
	}
}

func TestQuitKeys(t *testing.T) {
	home := newTestApp(&fakeSession{}, &fakeVault{}, ScreenHome)
	_, cmd := home.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q' at home")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' at home did not quit")
	}

	setup := newTestApp(&fakeSession{}, &fakeVault{}, ScreenSetup)
	model, cmd := setup.Update(runes("q"))
	if cmd != nil {
		t.Error("'q' on setup should type, not quit")
	}
	if model.(App).setup.url != "q" {
		t.Errorf("url = %q, want %q", model.(App).setup.url, "q")
	}
	_, cmd = setup.Update(keyOf(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("expected quit command on ctrl+c")
	}
}

func TestHomeAuthFailureReturnsToOTP(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	v := &fakeVault{listErr: &session.Error{Kind: session.KindAuth, Status: 401, Message: "Session expired, please log in again"}}
	var m tea.Model = newTestApp(s, v, ScreenHome)

	a := m.(App)
	m = drain(m, a.home.Init(), 2)

	a = m.(App)
	if a.screen != ScreenOTP {
		t.Fatalf("screen = %v, want ScreenOTP", a.screen)
	}
	if !strings.Contains(a.View(), "Session expired") {
		t.Errorf("expected expiry notice, got:\n%s", a.View())
	}
}

func TestLogoutReturnsToSetup(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	var m tea.Model = newTestApp(s, &fakeVault{}, ScreenHome)

	m, cmd := m.Update(runes("L"))
	m = drain(m, cmd, 1)

	a := m.(App)
	if !s.loggedOut {
		t.Error("Logout not called")
	}
	if a.screen != ScreenSetup {
		t.Fatalf("screen = %v, want ScreenSetup", a.screen)
	}
	if a.setup.url != "" {
		t.Errorf("setup url = %q, want empty after logout", a.setup.url)
	}
}

func TestStartNoticeOnHome(t *testing.T) {
	s := &fakeSession{cfg: domain.ServerConfig{BaseURL: "https://vault.test", PhoneNumber: "+1000"}}
	a := NewApp(s, &fakeVault{}, Options{Start: ScreenHome, Notice: "offline: Cannot reach the server"})

	if !strings.Contains(a.View(), "offline: Cannot reach the server") {
		t.Errorf("expected offline banner, got:\n%s", a.View())
	}
	if !strings.Contains(a.View(), "vault.test · +1000") {
		t.Errorf("expected server label in header, got:\n%s", a.View())
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"session error", &session.Error{Kind: session.KindTransport, Message: "Cannot reach the server"}, "Cannot reach the server"},
		{"plain", errOffline, errOffline.Error()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := describe(tc.err); got != tc.want {
				t.Errorf("describe() = %q, want %q", got, tc.want)
			}
		})
	}
}
