package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/localvault/localvault/pkg/domain"
)

func TestRenderShimmerLogoContainsLetters(t *testing.T) {
	for _, frame := range []int{0, 7, 500} {
		logo := renderShimmerLogo(frame)
		for _, r := range "LOCALVAULT" {
			if !strings.ContainsRune(logo, r) {
				t.Errorf("frame %d: logo missing %q: %q", frame, r, logo)
			}
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-3, 0},
		{0, 0},
		{127.9, 127},
		{300, 255},
	}
	for _, tc := range tests {
		if got := clampByte(tc.in); got != tc.want {
			t.Errorf("clampByte(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHelpBar(t *testing.T) {
	got := helpBar("j/k", "nav", "q", "quit")
	for _, want := range []string{"j/k", "nav", "q", "quit"} {
		if !strings.Contains(got, want) {
			t.Errorf("helpBar missing %q: %q", want, got)
		}
	}
	if helpBar("dangling") != " " {
		t.Errorf("helpBar with odd args = %q", helpBar("dangling"))
	}
}

func TestCentered(t *testing.T) {
	got := centered("abcd", 10)
	if got != "   abcd" {
		t.Errorf("centered() = %q", got)
	}
	if centered("too wide", 3) != "too wide" {
		t.Error("centered should not pad when text is wider than width")
	}
	if w := lipgloss.Width(centered(accentStyle.Render("x"), 5)); w != 3 {
		t.Errorf("styled centered width = %d, want 3", w)
	}
}

func TestServerLabel(t *testing.T) {
	tests := []struct {
		cfg  domain.ServerConfig
		want string
	}{
		{domain.ServerConfig{BaseURL: "https://vault.example:8443", PhoneNumber: "+1000"}, "vault.example:8443 · +1000"},
		{domain.ServerConfig{BaseURL: "http://10.0.0.2"}, "10.0.0.2"},
	}
	for _, tc := range tests {
		if got := serverLabel(tc.cfg); got != tc.want {
			t.Errorf("serverLabel(%+v) = %q, want %q", tc.cfg, got, tc.want)
		}
	}
}
