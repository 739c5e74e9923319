package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

// Clipboard access, replaced in tests.
var (
	readClipboard  = clipboard.ReadAll
	writeClipboard = clipboard.WriteAll
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusError
	statusOffline
)

type homeLoadedMsg struct {
	list  *domain.ContentList
	stats *domain.ContentStats
	err   error
}

type pushedMsg struct {
	item *domain.Content
	err  error
}

type copiedMsg struct {
	name string
	err  error
}

type downloadedMsg struct {
	path string
	err  error
}

type deletedMsg struct {
	id  string
	err error
}

type homeModel struct {
	vault         Vault
	session       Session
	downloadDir   string
	items         []domain.Content
	total         int
	stats         *domain.ContentStats
	cursor        int
	loading       bool
	busy          bool
	confirmDelete string // id armed by the first "d"
	status        string
	statusKind    statusKind
	width         int
	height        int
}

func newHomeModel(v Vault, s Session, downloadDir string) homeModel {
	return homeModel{vault: v, session: s, downloadDir: downloadDir, loading: true}
}

func (m homeModel) Init() tea.Cmd {
	return m.load()
}

// load fetches the list and the summary in parallel.
func (m homeModel) load() tea.Cmd {
	v := m.vault
	return func() tea.Msg {
		var (
			list  *domain.ContentList
			stats *domain.ContentStats
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			list, err = v.ListContent(ctx, client.ListOptions{Limit: pageSize})
			return err
		})
		g.Go(func() error {
			var err error
			stats, err = v.Stats(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return homeLoadedMsg{err: err}
		}
		return homeLoadedMsg{list: list, stats: stats}
	}
}

func (m *homeModel) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// fail routes err: auth failures leave the screen, transport failures mark
// the app offline, anything else is shown as an error.
func (m homeModel) fail(err error) (homeModel, tea.Cmd) {
	switch {
	case session.IsKind(err, session.KindAuth), session.IsKind(err, session.KindNotConfigured):
		return m, func() tea.Msg { return sessionExpiredMsg{} }
	case session.IsKind(err, session.KindTransport):
		m.setStatus(statusOffline, "offline: "+describe(err))
	default:
		m.setStatus(statusError, "error: "+describe(err))
	}
	return m, nil
}

func (m homeModel) selected() (domain.Content, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return domain.Content{}, false
	}
	return m.items[m.cursor], true
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case homeLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.items = msg.list.Contents
		m.total = msg.list.TotalCount
		m.stats = msg.stats
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
		if m.statusKind != statusInfo {
			m.setStatus(statusInfo, "")
		}
		return m, nil

	case pushedMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.setStatus(statusInfo, "pushed "+truncStr(msg.item.DisplayName(), 40))
		m.cursor = 0
		return m, m.load()

	case copiedMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.setStatus(statusInfo, "copied "+truncStr(msg.name, 40))
		return m, nil

	case downloadedMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.setStatus(statusInfo, "saved "+msg.path)
		return m, nil

	case deletedMsg:
		m.busy = false
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.setStatus(statusInfo, "deleted")
		return m, m.load()

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		key := msg.String()
		if key != "d" {
			m.confirmDelete = ""
		}
		switch key {
		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.load()
		case "p":
			m.busy = true
			m.setStatus(statusInfo, "pushing clipboard...")
			return m, m.pushClipboard()
		case "c":
			if item, ok := m.selected(); ok && !item.IsFile() {
				m.busy = true
				return m, m.copyText(item)
			}
		case "enter":
			item, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.busy = true
			if item.IsFile() {
				m.setStatus(statusInfo, "downloading "+truncStr(item.DisplayName(), 40)+"...")
				return m, m.download(item)
			}
			return m, m.copyText(item)
		case "d":
			item, ok := m.selected()
			if !ok {
				return m, nil
			}
			if m.confirmDelete != item.ID {
				m.confirmDelete = item.ID
				m.setStatus(statusInfo, "press d again to delete "+truncStr(item.DisplayName(), 40))
				return m, nil
			}
			m.confirmDelete = ""
			m.busy = true
			v, id := m.vault, item.ID
			return m, func() tea.Msg {
				return deletedMsg{id: id, err: v.DeleteContent(context.Background(), id)}
			}
		case "L":
			m.busy = true
			s := m.session
			return m, func() tea.Msg {
				return loggedOutMsg{err: s.Logout(context.Background())}
			}
		}
	}
	return m, nil
}

func (m homeModel) pushClipboard() tea.Cmd {
	v := m.vault
	return func() tea.Msg {
		text, err := readClipboard()
		if err != nil {
			return pushedMsg{err: fmt.Errorf("read clipboard: %w", err)}
		}
		item, err := v.UploadText(context.Background(), text, "")
		return pushedMsg{item: item, err: err}
	}
}

// copyText writes a text item to the clipboard, fetching the body when the
// list entry came without it.
func (m homeModel) copyText(item domain.Content) tea.Cmd {
	v := m.vault
	return func() tea.Msg {
		text := item.TextContent
		if text == "" {
			full, err := v.GetContent(context.Background(), item.ID)
			if err != nil {
				return copiedMsg{err: err}
			}
			text = full.TextContent
		}
		if err := writeClipboard(text); err != nil {
			return copiedMsg{err: fmt.Errorf("write clipboard: %w", err)}
		}
		return copiedMsg{name: item.DisplayName()}
	}
}

func (m homeModel) download(item domain.Content) tea.Cmd {
	v, dir := m.vault, m.downloadDir
	return func() tea.Msg {
		path, err := v.DownloadTo(context.Background(), item.ID, dir)
		return downloadedMsg{path: path, err: err}
	}
}

func (m homeModel) View() string {
	var sb strings.Builder

	if m.stats != nil {
		line := fmt.Sprintf("%d items · %d text · %d files · %.1f MB",
			m.stats.TotalContent, m.stats.TextContent, m.stats.FileContent, m.stats.TotalFileSizeMB)
		sb.WriteString(" " + dimStyle.Render(line) + "\n")
	}

	sepW := m.width - 2
	if sepW < 4 {
		sepW = 4
	}
	sb.WriteString(" " + metaStyle.Render(strings.Repeat("─", sepW)) + "\n")

	switch {
	case m.loading && len(m.items) == 0:
		sb.WriteString(" " + dimStyle.Render("loading vault...") + "\n")
	case len(m.items) == 0:
		sb.WriteString(" " + dimStyle.Render("vault is empty, press p to push your clipboard") + "\n")
	default:
		sb.WriteString(m.renderList())
	}

	sb.WriteString("\n" + m.renderStatus())
	return sb.String()
}

func (m homeModel) renderList() string {
	rows := m.height - 4 // stats + separator + blank + status
	if rows < 5 {
		rows = 10
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	nameWidth := m.width - 32
	if nameWidth < 16 {
		nameWidth = 16
	}

	var sb strings.Builder
	for i := start; i < len(m.items) && i < start+rows; i++ {
		item := m.items[i]
		marker := "  "
		name := normalStyle.Render(truncStr(oneLine(item.DisplayName()), nameWidth))
		if i == m.cursor {
			marker = accentStyle.Render("> ")
			name = selectedStyle.Render(truncStr(oneLine(item.DisplayName()), nameWidth))
		}
		badge := textBadgeStyle.Render("text")
		size := ""
		if item.IsFile() {
			badge = fileBadgeStyle.Render("file")
			size = client.FormatFileSize(item.FileSize)
		}
		meta := metaStyle.Render(fmt.Sprintf("%9s  %8s", size, formatTime(item.CreatedAt)))
		fmt.Fprintf(&sb, " %s%s  %s  %s\n", marker, badge, meta, name)
	}
	if m.total > len(m.items) {
		sb.WriteString(" " + metaStyle.Render(fmt.Sprintf("  showing %d of %d", len(m.items), m.total)) + "\n")
	}
	return sb.String()
}

func (m homeModel) renderStatus() string {
	if m.status == "" {
		return ""
	}
	switch m.statusKind {
	case statusError:
		return " " + errorStyle.Render(m.status)
	case statusOffline:
		return " " + offlineStyle.Render(m.status)
	default:
		return " " + okStyle.Render(m.status)
	}
}
