package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/pkg/domain"
)

const (
	fieldURL = iota
	fieldPhone
)

// setupModel collects the server URL and phone number, then requests an OTP.
type setupModel struct {
	session Session
	url     string
	phone   string
	focus   int
	busy    bool
	err     string
}

func newSetupModel(s Session, cfg domain.ServerConfig) setupModel {
	m := setupModel{session: s, url: cfg.BaseURL, phone: cfg.PhoneNumber}
	if m.url != "" {
		m.focus = fieldPhone
	}
	return m
}

func (m setupModel) Update(msg tea.Msg) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case otpSentMsg:
		m.busy = false
		if msg.err != nil {
			m.err = describe(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			m.focus = 1 - m.focus
		case "enter":
			if m.focus == fieldURL {
				m.focus = fieldPhone
				return m, nil
			}
			return m.submit()
		default:
			m.err = ""
			if m.focus == fieldURL {
				m.url = editKey(m.url, msg)
			} else {
				m.phone = editKey(m.phone, msg)
			}
		}
	}
	return m, nil
}

func (m setupModel) submit() (setupModel, tea.Cmd) {
	if strings.TrimSpace(m.url) == "" {
		m.err = "Server URL is required"
		m.focus = fieldURL
		return m, nil
	}
	if strings.TrimSpace(m.phone) == "" {
		m.err = "Phone number is required"
		return m, nil
	}
	m.busy = true
	m.err = ""
	s, rawURL, phone := m.session, m.url, strings.TrimSpace(m.phone)
	return m, func() tea.Msg {
		if err := s.Configure(rawURL, phone); err != nil {
			return otpSentMsg{phone: phone, err: err}
		}
		return otpSentMsg{phone: phone, err: s.RequestOTP(context.Background(), phone)}
	}
}

func (m setupModel) View(frame int) string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Connect to your LocalVault server") + "\n\n")
	b.WriteString(renderField("Server URL", m.url, "https://vault.example.com", m.focus == fieldURL && !m.busy, frame) + "\n")
	b.WriteString(renderField("Phone", m.phone, "+15551234567", m.focus == fieldPhone && !m.busy, frame) + "\n\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("sending code...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}
