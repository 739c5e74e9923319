package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/localvault/localvault/internal/browser"
	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

// Replaced in tests.
var (
	readClipboard = clipboard.ReadAll
	openTarget    = browser.Open
)

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// cmdSetup binds the client to a server and texts an OTP.
func (a *app) cmdSetup(ctx context.Context, args []string) error {
	fs := a.flags("setup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: localvault setup <server-url> <phone-number>")
	}
	if err := a.session.Configure(fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	cfg := a.session.Config()
	if err := a.session.RequestOTP(ctx, ""); err != nil {
		return err
	}
	printOK(a.out, "Code sent to "+cfg.PhoneNumber)
	printHint(a.out, "next: localvault login")
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	code := fs.StringP("code", "c", "", "6-digit code (prompted when omitted)")
	resend := fs.Bool("resend", false, "send a new code first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.session.Config().Configured() {
		return session.ErrNotConfigured
	}
	if *resend {
		if err := a.session.ResendOTP(ctx); err != nil {
			return err
		}
		printOK(a.out, "New code sent to "+a.session.Config().PhoneNumber)
	}
	if *code == "" {
		fmt.Fprint(a.out, "Enter the 6-digit code: ") //nolint:errcheck
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read code: %w", err)
		}
		*code = strings.TrimSpace(line)
	}
	if err := a.session.VerifyOTP(ctx, *code); err != nil {
		return err
	}
	printOK(a.out, "Logged in")
	return nil
}

func (a *app) cmdStatus(ctx context.Context, args []string) error {
	if err := a.flags("status").Parse(args); err != nil {
		return err
	}
	snap := a.session.Snapshot()
	if !snap.Config.Configured() {
		printWarn(a.out, "Not configured")
		printHint(a.out, "run: localvault setup <server-url> <phone-number>")
		return nil
	}
	printField(a.out, "server", snap.Config.BaseURL)
	printField(a.out, "phone", snap.Config.PhoneNumber)
	if snap.HasTokens && !snap.ExpiresAt.IsZero() {
		printField(a.out, "expires", snap.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}

	ok, err := a.session.IsAuthenticated(ctx)
	switch {
	case err != nil:
		printWarn(a.out, "Cannot reach server: "+session.Message(err))
	case ok:
		printOK(a.out, "Authenticated")
	default:
		printWarn(a.out, "Logged out")
		printHint(a.out, "run: localvault login --resend")
	}
	return nil
}

func (a *app) cmdWhoami(ctx context.Context, args []string) error {
	if err := a.flags("whoami").Parse(args); err != nil {
		return err
	}
	u, err := a.session.Me(ctx)
	if err != nil {
		return err
	}
	printField(a.out, "name", u.DisplayName())
	printField(a.out, "phone", u.PhoneNumber)
	if u.Email != nil && *u.Email != "" {
		printField(a.out, "email", *u.Email)
	}
	if !u.ProfileComplete() {
		printHint(a.out, "profile incomplete")
	}
	return nil
}

func (a *app) cmdPush(ctx context.Context, args []string) error {
	fs := a.flags("push")
	title := fs.StringP("title", "t", "", "title for the item")
	fromClipboard := fs.Bool("clipboard", false, "push the clipboard text")
	file := fs.StringP("file", "f", "", "push a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		item *domain.Content
		err  error
	)
	switch {
	case *file != "":
		item, err = a.client.UploadFile(ctx, *file, *title)
	case *fromClipboard:
		text, cerr := readClipboard()
		if cerr != nil {
			return fmt.Errorf("read clipboard: %w", cerr)
		}
		item, err = a.client.UploadText(ctx, text, *title)
	default:
		item, err = a.client.UploadText(ctx, strings.Join(fs.Args(), " "), *title)
	}
	if err != nil {
		return err
	}
	printOK(a.out, fmt.Sprintf("Pushed %s (%s)", item.DisplayName(), item.ID))
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := a.flags("list")
	kind := fs.String("type", "", "only file or text")
	search := fs.StringP("search", "s", "", "search titles and text")
	limit := fs.IntP("limit", "n", 20, "maximum items")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ct := domain.ContentType(*kind)
	if ct != "" && !ct.Valid() {
		return fmt.Errorf("--type must be file or text, got %q", *kind)
	}

	list, err := a.client.ListContent(ctx, client.ListOptions{Type: ct, Search: *search, Limit: *limit})
	if err != nil {
		return err
	}
	if len(list.Contents) == 0 {
		printHint(a.out, "vault is empty")
		return nil
	}
	fmt.Fprintln(a.out, contentTable(list.Contents)) //nolint:errcheck
	if list.TotalCount > len(list.Contents) {
		printHint(a.out, fmt.Sprintf("showing %d of %d", len(list.Contents), list.TotalCount))
	}
	return nil
}

func contentTable(items []domain.Content) string {
	header := lipgloss.NewStyle().Bold(true)
	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TYPE", "NAME", "SIZE", "CREATED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.PaddingRight(2)
			}
			return cell
		})
	for _, c := range items {
		size := ""
		if c.IsFile() {
			size = client.FormatFileSize(c.FileSize)
		}
		created := ""
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(c.ID, string(c.ContentType), truncate(strings.Join(strings.Fields(c.DisplayName()), " "), 48), size, created)
	}
	return t.String()
}

func (a *app) cmdPull(ctx context.Context, args []string) error {
	fs := a.flags("pull")
	outDir := fs.StringP("out", "o", "", "directory to save files in (default: download_dir)")
	open := fs.Bool("open", false, "open the file after saving")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: localvault pull <id> [--out DIR] [--open]")
	}
	id := fs.Arg(0)

	item, err := a.client.GetContent(ctx, id)
	if err != nil {
		return err
	}
	if !item.IsFile() {
		fmt.Fprintln(a.out, item.TextContent) //nolint:errcheck
		return nil
	}

	dir := *outDir
	if dir == "" {
		dir = a.cfg.DownloadDir
	}
	path, err := a.client.DownloadTo(ctx, id, dir)
	if err != nil {
		return err
	}
	printOK(a.out, "Saved "+path)
	if *open {
		if err := openTarget(path); err != nil {
			a.log.Warn("open downloaded file", "path", path, "err", err)
			printWarn(a.out, "could not open file: "+err.Error())
		}
	}
	return nil
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	fs := a.flags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: localvault rm <id>")
	}
	if err := a.client.DeleteContent(ctx, fs.Arg(0)); err != nil {
		return err
	}
	printOK(a.out, "Deleted "+fs.Arg(0))
	return nil
}

func (a *app) cmdStats(ctx context.Context, args []string) error {
	if err := a.flags("stats").Parse(args); err != nil {
		return err
	}
	s, err := a.client.Stats(ctx)
	if err != nil {
		return err
	}
	printField(a.out, "items", fmt.Sprintf("%d", s.TotalContent))
	printField(a.out, "text", fmt.Sprintf("%d", s.TextContent))
	printField(a.out, "files", fmt.Sprintf("%d", s.FileContent))
	printField(a.out, "storage", fmt.Sprintf("%.2f MB", s.TotalFileSizeMB))
	return nil
}

func (a *app) cmdLogout(ctx context.Context, args []string) error {
	if err := a.flags("logout").Parse(args); err != nil {
		return err
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	printOK(a.out, "Logged out")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
