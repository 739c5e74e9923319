package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("L O C A L V A U L T")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Your files and snippets, on your own server.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"localvault", "Open the vault (interactive TUI)"},
		{"localvault setup <url> <phone>", "Connect to a server and text a login code"},
		{"localvault login [--code C]", "Log in with the code (--resend for a new one)"},
		{"localvault status", "Show server and session state"},
		{"localvault whoami", "Show the logged-in account"},
		{"localvault push [text...]", "Push text (--clipboard, --file PATH, --title T)"},
		{"localvault list", "List items (--type, --search, --limit)"},
		{"localvault pull <id>", "Save a file or print a text item (--out, --open)"},
		{"localvault rm <id>", "Delete an item"},
		{"localvault stats", "Show storage summary"},
		{"localvault logout", "Forget the server and tokens"},
		{"localvault --version", "Show version"},
		{"localvault help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n  %s\n\n  Commands:\n", title, tagline) //nolint:errcheck
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-32s", c.cmd)), descStyle.Render(c.desc)) //nolint:errcheck
	}
	env := descStyle.Render("Settings: ~/.localvault/config.yaml or LOCALVAULT_* environment variables")
	fmt.Fprintf(w, "\n  %s\n\n", env) //nolint:errcheck
}
