package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/internal/session"
)

const otpLength = 6

// otpModel collects the one-time code and exchanges it for tokens.
type otpModel struct {
	session Session
	phone   string
	code    string
	busy    bool
	notice  string
	err     string
}

func newOTPModel(s Session, phone string) otpModel {
	return otpModel{session: s, phone: phone}
}

func (m otpModel) Update(msg tea.Msg) (otpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case otpSentMsg:
		m.busy = false
		if msg.err != nil {
			m.err = describe(msg.err)
		} else {
			m.err = ""
			m.notice = "New code sent"
		}
		return m, nil

	case verifiedMsg:
		m.busy = false
		m.code = ""
		if msg.err != nil {
			m.err = describe(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return backToSetupMsg{} }
		case "ctrl+r":
			m.busy = true
			m.err = ""
			s := m.session
			return m, func() tea.Msg {
				return otpSentMsg{phone: s.Config().PhoneNumber, err: s.ResendOTP(context.Background())}
			}
		case "enter":
			if !session.ValidOTP(m.code) {
				m.err = "Please enter a valid 6-digit OTP"
				return m, nil
			}
			m.busy = true
			m.err = ""
			s, code := m.session, m.code
			return m, func() tea.Msg {
				return verifiedMsg{err: s.VerifyOTP(context.Background(), code)}
			}
		default:
			m.code = editDigits(m.code, msg.String(), otpLength)
		}
	}
	return m, nil
}

func (m otpModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Enter the code sent to "+m.phone) + "\n\n")
	b.WriteString("   " + renderCode(m.code, otpLength) + "\n\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("checking...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	case m.notice != "":
		b.WriteString(" " + okStyle.Render(m.notice) + "\n")
	}
	return b.String()
}
