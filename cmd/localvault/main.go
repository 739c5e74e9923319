package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/internal/config"
	"github.com/localvault/localvault/internal/logging"
	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/internal/store"
	"github.com/localvault/localvault/internal/tui"
	"github.com/localvault/localvault/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a subcommand needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	session *session.Manager
	client  *client.Client
	in      io.Reader
	out     io.Writer
}

// newApp loads config, opens the log file and the session store, and builds
// the session manager. The returned func closes the log file.
func newApp(in io.Reader, out io.Writer) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create home: %w", err)
	}
	log, logFile, err := logging.OpenFile(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	closeLog := func() { logFile.Close() } //nolint:errcheck // best-effort close

	st, err := store.OpenFile(cfg.Home)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	mgr, err := session.New(st,
		session.WithHTTPClient(session.NewHTTPClient(cfg.Timeout)),
		session.WithLogger(log),
		session.WithTokenTTL(cfg.TokenTTL),
		session.WithDevice(cfg.DeviceName, cfg.DeviceType),
	)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	log.Debug("started", "version", version, "home", cfg.Home)
	return &app{
		cfg:     cfg,
		log:     log,
		session: mgr,
		client:  client.New(mgr),
		in:      in,
		out:     out,
	}, closeLog, nil
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("localvault " + version)
			return nil
		case "help", "--help", "-h":
			printHelp(os.Stdout)
			return nil
		}
	}

	a, closeFn, err := newApp(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(args) == 0 {
		return a.runTUI(ctx)
	}
	return a.dispatch(ctx, args[0], args[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "setup":
		return a.cmdSetup(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "status":
		return a.cmdStatus(ctx, args)
	case "whoami":
		return a.cmdWhoami(ctx, args)
	case "push":
		return a.cmdPush(ctx, args)
	case "list", "ls":
		return a.cmdList(ctx, args)
	case "pull":
		return a.cmdPull(ctx, args)
	case "rm":
		return a.cmdRemove(ctx, args)
	case "stats":
		return a.cmdStats(ctx, args)
	case "logout":
		return a.cmdLogout(ctx, args)
	default:
		return fmt.Errorf("unknown command %q, see: localvault help", cmd)
	}
}

// startScreen picks the first TUI screen from the live session state.
func (a *app) startScreen(ctx context.Context) (tui.Screen, string) {
	cfg := a.session.Config()
	if !cfg.Configured() {
		return tui.ScreenSetup, ""
	}
	ok, err := a.session.IsAuthenticated(ctx)
	switch {
	case err != nil:
		// Cannot tell: keep the user on home and let it retry.
		a.log.Warn("session check failed", "err", err)
		return tui.ScreenHome, "offline: " + session.Message(err)
	case !ok:
		return tui.ScreenOTP, "Press ctrl+r to send a code to " + cfg.PhoneNumber
	default:
		return tui.ScreenHome, ""
	}
}

func (a *app) runTUI(ctx context.Context) error {
	start, notice := a.startScreen(ctx)
	m := tui.NewApp(a.session, a.client, tui.Options{
		Version:     version,
		DownloadDir: a.cfg.DownloadDir,
		Start:       start,
		Notice:      notice,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
