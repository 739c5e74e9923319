package tui

import (
	"context"
	"errors"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

// Session is the authentication surface the TUI drives. *session.Manager implements it.
type Session interface {
	Config() domain.ServerConfig
	Configure(baseURL, phoneNumber string) error
	RequestOTP(ctx context.Context, phoneNumber string) error
	ResendOTP(ctx context.Context) error
	VerifyOTP(ctx context.Context, code string) error
	Logout(ctx context.Context) error
}

// Vault is the content API used by the home screen. *client.Client implements it.
type Vault interface {
	ListContent(ctx context.Context, opts client.ListOptions) (*domain.ContentList, error)
	GetContent(ctx context.Context, id string) (*domain.Content, error)
	Stats(ctx context.Context) (*domain.ContentStats, error)
	UploadText(ctx context.Context, text, title string) (*domain.Content, error)
	DownloadTo(ctx context.Context, id, dir string) (string, error)
	DeleteContent(ctx context.Context, id string) error
}

// Screen selects which screen the app shows.
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenOTP
	ScreenHome
)

// Options configures a new App.
type Options struct {
	Version     string
	DownloadDir string
	Start       Screen
	// Notice is shown on the start screen, e.g. an offline warning.
	Notice string
}

// otpSentMsg reports the result of Configure+RequestOTP or ResendOTP.
type otpSentMsg struct {
	phone string
	err   error
}

type verifiedMsg struct {
	err error
}

// sessionExpiredMsg is sent when an action fails with an auth error that
// survived a token refresh.
type sessionExpiredMsg struct{}

type loggedOutMsg struct {
	err error
}

type backToSetupMsg struct{}

// App is the root Bubbletea model.
type App struct {
	session Session
	vault   Vault
	opts    Options
	screen  Screen
	setup   setupModel
	otp     otpModel
	home    homeModel
	width   int
	height  int
	frame   int // logo shimmer animation frame
}

// NewApp creates a new TUI application.
func NewApp(s Session, v Vault, opts Options) App {
	cfg := s.Config()
	a := App{
		session: s,
		vault:   v,
		opts:    opts,
		screen:  opts.Start,
		setup:   newSetupModel(s, cfg),
		otp:     newOTPModel(s, cfg.PhoneNumber),
		home:    newHomeModel(v, s, opts.DownloadDir),
	}
	switch opts.Start {
	case ScreenSetup:
		a.setup.err = opts.Notice
	case ScreenOTP:
		a.otp.notice = opts.Notice
	case ScreenHome:
		if opts.Notice != "" {
			a.home.setStatus(statusOffline, opts.Notice)
		}
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.screen == ScreenHome {
		return tea.Batch(shimmerTickCmd(), a.home.Init())
	}
	return shimmerTickCmd()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + blank(1) + status(1) + help(1)
		a.home, _ = a.home.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5})
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case otpSentMsg:
		if msg.err == nil && a.screen == ScreenSetup {
			a.screen = ScreenOTP
			a.otp = newOTPModel(a.session, msg.phone)
			a.otp.notice = "Code sent to " + msg.phone
			return a, nil
		}

	case verifiedMsg:
		if msg.err == nil {
			a.screen = ScreenHome
			a.home = newHomeModel(a.vault, a.session, a.opts.DownloadDir)
			a.home, _ = a.home.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height - 5})
			return a, a.home.Init()
		}

	case sessionExpiredMsg:
		a.screen = ScreenOTP
		a.otp = newOTPModel(a.session, a.session.Config().PhoneNumber)
		a.otp.notice = "Session expired. Press ctrl+r to get a new code."
		return a, nil

	case loggedOutMsg:
		a.screen = ScreenSetup
		a.setup = newSetupModel(a.session, a.session.Config())
		if msg.err != nil {
			a.setup.err = describe(msg.err)
		}
		return a, nil

	case backToSetupMsg:
		a.screen = ScreenSetup
		a.setup = newSetupModel(a.session, a.session.Config())
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.screen == ScreenHome {
				return a, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenSetup:
		a.setup, cmd = a.setup.Update(msg)
	case ScreenOTP:
		a.otp, cmd = a.otp.Update(msg)
	case ScreenHome:
		a.home, cmd = a.home.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	header := centered(renderShimmerLogo(a.frame), a.width) + "\n"
	if cfg := a.session.Config(); cfg.Configured() {
		header += centered(metaStyle.Render(serverLabel(cfg)), a.width)
	}

	var body, help string
	switch a.screen {
	case ScreenSetup:
		body = a.setup.View(a.frame)
		help = helpBar("tab", "next field", "enter", "continue", "ctrl+c", "quit")
	case ScreenOTP:
		body = a.otp.View()
		help = helpBar("enter", "verify", "ctrl+r", "resend", "esc", "back", "ctrl+c", "quit")
	case ScreenHome:
		body = a.home.View()
		help = helpBar("j/k", "nav", "enter", "save/copy", "p", "push clipboard", "c", "copy",
			"d", "delete", "r", "reload", "L", "logout", "q", "quit")
	}

	body = truncateToHeight(body, a.height-5)
	return header + "\n\n" + body + "\n" + help
}

// serverLabel renders "host · phone" for the header.
func serverLabel(cfg domain.ServerConfig) string {
	host := cfg.BaseURL
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	if cfg.PhoneNumber == "" {
		return host
	}
	return host + " · " + cfg.PhoneNumber
}

// describe extracts the message worth showing a user from err.
func describe(err error) string {
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
