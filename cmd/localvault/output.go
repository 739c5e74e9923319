package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/client"
)

// ANSI color constants for command output (no lipgloss, so piped output stays plain text).
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiGreen = "\033[38;2;74;222;128m"  // #4ade80
	ansiAmber = "\033[38;2;245;158;11m"  // #f59e0b
	ansiRed   = "\033[38;2;248;113;113m" // #f87171
	ansiSlate = "\033[38;2;136;144;160m" // #8890a0
)

func printOK(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s✓%s %s\n", ansiGreen, ansiReset, msg) //nolint:errcheck
}

func printWarn(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s!%s %s\n", ansiAmber, ansiReset, msg) //nolint:errcheck
}

func printHint(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s%s%s\n", ansiSlate, msg, ansiReset) //nolint:errcheck
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s%-8s%s %s%s%s\n", ansiSlate, label, ansiReset, ansiBold, value, ansiReset) //nolint:errcheck
}

// printError writes err the way a user should read it, with a next step
// when one is obvious.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%serror:%s %s\n", ansiRed, ansiReset, errorText(err)) //nolint:errcheck
	switch {
	case session.IsKind(err, session.KindAuth):
		printHint(w, "run: localvault login --resend")
	case session.IsKind(err, session.KindNotConfigured), errors.Is(err, session.ErrNotConfigured):
		printHint(w, "run: localvault setup <server-url> <phone-number>")
	case session.IsKind(err, session.KindTransport):
		printHint(w, "check the server URL with: localvault status")
	}
}

func errorText(err error) string {
	var se *session.Error
	if errors.As(err, &se) {
		return se.Message
	}
	var he *client.HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	for _, known := range []error{
		client.ErrNothingToUpload, client.ErrTextTooLarge, client.ErrFileTooLarge,
		client.ErrUnsupportedType, client.ErrInvalidID,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
