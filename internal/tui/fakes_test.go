package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/pkg/client"
	"github.com/localvault/localvault/pkg/domain"
)

type fakeSession struct {
	cfg          domain.ServerConfig
	configureErr error
	requestErr   error
	verifyErr    error
	requested    []string
	verified     []string
	resends      int
	loggedOut    bool
}

func (s *fakeSession) Config() domain.ServerConfig { return s.cfg }

func (s *fakeSession) Configure(baseURL, phone string) error {
	if s.configureErr != nil {
		return s.configureErr
	}
	s.cfg = domain.ServerConfig{BaseURL: domain.NormalizeBaseURL(baseURL), PhoneNumber: phone}
	return nil
}

func (s *fakeSession) RequestOTP(_ context.Context, phone string) error {
	s.requested = append(s.requested, phone)
	return s.requestErr
}

func (s *fakeSession) ResendOTP(_ context.Context) error {
	s.resends++
	return s.requestErr
}

func (s *fakeSession) VerifyOTP(_ context.Context, code string) error {
	s.verified = append(s.verified, code)
	return s.verifyErr
}

func (s *fakeSession) Logout(_ context.Context) error {
	s.loggedOut = true
	s.cfg = domain.ServerConfig{}
	return nil
}

type fakeVault struct {
	list       *domain.ContentList
	stats      *domain.ContentStats
	listErr    error
	full       map[string]*domain.Content
	uploaded   []string
	deleted    []string
	downloaded []string
	downloadTo string
}

func (v *fakeVault) ListContent(_ context.Context, _ client.ListOptions) (*domain.ContentList, error) {
	if v.listErr != nil {
		return nil, v.listErr
	}
	if v.list == nil {
		return &domain.ContentList{Contents: []domain.Content{}}, nil
	}
	return v.list, nil
}

func (v *fakeVault) GetContent(_ context.Context, id string) (*domain.Content, error) {
	if c, ok := v.full[id]; ok {
		return c, nil
	}
	return nil, &client.HTTPError{StatusCode: 404, Message: "Content not found"}
}

func (v *fakeVault) Stats(_ context.Context) (*domain.ContentStats, error) {
	if v.stats == nil {
		return &domain.ContentStats{}, nil
	}
	return v.stats, nil
}

func (v *fakeVault) UploadText(_ context.Context, text, title string) (*domain.Content, error) {
	if text == "" {
		return nil, client.ErrNothingToUpload
	}
	v.uploaded = append(v.uploaded, text)
	return &domain.Content{ID: "new", ContentType: domain.ContentText, Title: title, TextContent: text}, nil
}

func (v *fakeVault) DownloadTo(_ context.Context, id, dir string) (string, error) {
	v.downloaded = append(v.downloaded, id)
	v.downloadTo = dir
	return dir + "/report.pdf", nil
}

func (v *fakeVault) DeleteContent(_ context.Context, id string) error {
	v.deleted = append(v.deleted, id)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// typeString sends s one key at a time.
func typeString(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(runes(string(r)))
	}
	return m
}

// drain runs cmd and feeds the resulting message back, following at most n hops.
func drain(m tea.Model, cmd tea.Cmd, n int) tea.Model {
	for i := 0; i < n && cmd != nil; i++ {
		msg := cmd()
		if msg == nil {
			return m
		}
		if _, ok := msg.(tea.BatchMsg); ok {
			return m
		}
		m, cmd = m.Update(msg)
	}
	return m
}

var errOffline = errors.New("dial tcp: connection refused")
