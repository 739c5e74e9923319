package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// pageSize is the number of items fetched for the home list.
const pageSize = 50

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 512

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// editKey applies a key press to text. Pasted runes are appended whole.
func editKey(text string, msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
		if utf8.RuneCountInString(text)+len(msg.Runes) > maxInputLen {
			return text
		}
		return text + string(msg.Runes)
	}
	return editRune(text, msg.String())
}

// editDigits is editRune restricted to ASCII digits and at most max of them.
func editDigits(text, key string, max int) string {
	if key == "backspace" {
		return editRune(text, key)
	}
	if len(key) != 1 || key[0] < '0' || key[0] > '9' || len(text) >= max {
		return text
	}
	return text + key
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderField renders one labelled form input with a blinking cursor when focused.
func renderField(label, value, placeholder string, focused bool, frame int) string {
	prompt := "  "
	if focused {
		prompt = inputPromptStyle.Render("> ")
	}
	var body string
	switch {
	case value == "" && !focused:
		body = inputPlaceholderStyle.Render(placeholder)
	case focused:
		cursor := " "
		if (frame/4)%2 == 0 {
			cursor = accentStyle.Render("█")
		}
		body = selectedStyle.Render(value) + cursor
	default:
		body = normalStyle.Render(value)
	}
	return " " + prompt + labelStyle.Render(label) + body
}

// renderCode renders OTP digits as boxes: "[1][2][3][ ][ ][ ]".
func renderCode(code string, length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		d := " "
		if i < len(code) {
			d = string(code[i])
		}
		b.WriteString(metaStyle.Render("[") + selectedStyle.Render(d) + metaStyle.Render("]"))
	}
	return b.String()
}
