package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/localvault/localvault/internal/session"
	"github.com/localvault/localvault/pkg/domain"
)

func newTestHomeModel(v *fakeVault) homeModel {
	m := newHomeModel(v, &fakeSession{}, "/tmp/lv")
	m.width = 100
	m.height = 24
	return m
}

func sampleList() *domain.ContentList {
	return &domain.ContentList{
		Contents: []domain.Content{
			{ID: "t1", ContentType: domain.ContentText, TextContent: "buy\nmilk", CreatedAt: time.Now()},
			{ID: "f1", ContentType: domain.ContentFile, OriginalName: "report.pdf", FileSize: 1536, CreatedAt: time.Now().Add(-2 * time.Hour)},
			{ID: "t2", ContentType: domain.ContentText, Title: "wifi password"},
		},
		TotalCount: 7,
	}
}

func loaded(t *testing.T, v *fakeVault) homeModel {
	t.Helper()
	m := newTestHomeModel(v)
	m, _ = m.Update(m.load()())
	return m
}

func TestHomeLoadedRendersItems(t *testing.T) {
	v := &fakeVault{
		list:  sampleList(),
		stats: &domain.ContentStats{TotalContent: 7, TextContent: 5, FileContent: 2, TotalFileSizeMB: 3.2},
	}
	m := loaded(t, v)

	view := m.View()
	for _, want := range []string{"buy milk", "report.pdf", "1.5 KB", "2h ago", "wifi password", "7 items · 5 text · 2 files · 3.2 MB", "showing 3 of 7"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestHomeEmptyVault(t *testing.T) {
	m := loaded(t, &fakeVault{})
	if view := m.View(); !strings.Contains(view, "vault is empty") {
		t.Errorf("expected empty message, got:\n%s", view)
	}
}

func TestHomeTransportErrorShowsOffline(t *testing.T) {
	m := newTestHomeModel(&fakeVault{})
	m, cmd := m.Update(homeLoadedMsg{err: &session.Error{
		Kind: session.KindTransport, Message: "Cannot reach the server, check your connection", Err: errOffline,
	}})
	if cmd != nil {
		t.Error("transport errors must not leave the home screen")
	}
	if view := m.View(); !strings.Contains(view, "offline: Cannot reach the server") {
		t.Errorf("expected offline status, got:\n%s", view)
	}
}

func TestHomeServerErrorShowsError(t *testing.T) {
	m := newTestHomeModel(&fakeVault{})
	m, _ = m.Update(homeLoadedMsg{err: errors.New("boom")})
	if view := m.View(); !strings.Contains(view, "error: boom") {
		t.Errorf("expected error status, got:\n%s", view)
	}
}

func TestHomeReloadClearsOfflineStatus(t *testing.T) {
	v := &fakeVault{list: sampleList()}
	m := newTestHomeModel(v)
	m.setStatus(statusOffline, "offline: Cannot reach the server")

	m, cmd := m.Update(runes("r"))
	m, _ = m.Update(cmd())

	if strings.Contains(m.View(), "offline") {
		t.Errorf("offline status survived a successful reload:\n%s", m.View())
	}
}

func TestHomeCursorBounds(t *testing.T) {
	m := loaded(t, &fakeVault{list: sampleList()})

	m, _ = m.Update(runes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k at top, want 0", m.cursor)
	}
	for i := 0; i < 5; i++ {
		m, _ = m.Update(runes("j"))
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d after j past end, want 2", m.cursor)
	}
}

func TestHomeDeleteNeedsTwoPresses(t *testing.T) {
	v := &fakeVault{list: sampleList()}
	m := loaded(t, v)

	m, cmd := m.Update(runes("d"))
	if cmd != nil {
		t.Fatal("first d must only arm the delete")
	}
	if !strings.Contains(m.View(), "press d again") {
		t.Errorf("expected confirmation prompt, got:\n%s", m.View())
	}

	// Moving away disarms it.
	m, _ = m.Update(runes("j"))
	m, cmd = m.Update(runes("d"))
	if cmd != nil {
		t.Fatal("d after moving must re-arm, not delete")
	}

	m, cmd = m.Update(runes("d"))
	if cmd == nil {
		t.Fatal("second d must delete")
	}
	m, _ = m.Update(cmd())
	if len(v.deleted) != 1 || v.deleted[0] != "f1" {
		t.Errorf("deleted = %v, want [f1]", v.deleted)
	}
	if !strings.Contains(m.View(), "deleted") {
		t.Errorf("expected deleted status, got:\n%s", m.View())
	}
}

func TestHomePushClipboard(t *testing.T) {
	orig := readClipboard
	t.Cleanup(func() { readClipboard = orig })
	readClipboard = func() (string, error) { return "meeting at 5", nil }

	v := &fakeVault{}
	m := loaded(t, v)

	m, cmd := m.Update(runes("p"))
	if cmd == nil {
		t.Fatal("expected push command")
	}
	m, cmd = m.Update(cmd())
	if len(v.uploaded) != 1 || v.uploaded[0] != "meeting at 5" {
		t.Errorf("uploaded = %v", v.uploaded)
	}
	if cmd == nil {
		t.Error("expected a reload after push")
	}
	if !strings.Contains(m.View(), "pushed meeting at 5") {
		t.Errorf("expected pushed status, got:\n%s", m.View())
	}
}

func TestHomePushEmptyClipboard(t *testing.T) {
	orig := readClipboard
	t.Cleanup(func() { readClipboard = orig })
	readClipboard = func() (string, error) { return "", nil }

	m := loaded(t, &fakeVault{})
	m, cmd := m.Update(runes("p"))
	m, _ = m.Update(cmd())

	if !strings.Contains(m.View(), "error: no content to upload") {
		t.Errorf("expected validation error, got:\n%s", m.View())
	}
}

func TestHomeCopyFetchesFullText(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	var copied string
	writeClipboard = func(s string) error { copied = s; return nil }

	v := &fakeVault{
		list: sampleList(),
		full: map[string]*domain.Content{"t2": {ID: "t2", ContentType: domain.ContentText, TextContent: "hunter2"}},
	}
	m := loaded(t, v)
	m.cursor = 2

	m, cmd := m.Update(runes("c"))
	m, _ = m.Update(cmd())

	if copied != "hunter2" {
		t.Errorf("copied = %q, want %q", copied, "hunter2")
	}
	if !strings.Contains(m.View(), "copied wifi password") {
		t.Errorf("expected copied status, got:\n%s", m.View())
	}
}

func TestHomeCopyIgnoresFiles(t *testing.T) {
	m := loaded(t, &fakeVault{list: sampleList()})
	m.cursor = 1
	if _, cmd := m.Update(runes("c")); cmd != nil {
		t.Error("c on a file item should do nothing")
	}
}

func TestHomeEnterDownloadsFile(t *testing.T) {
	v := &fakeVault{list: sampleList()}
	m := loaded(t, v)
	m.cursor = 1

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected download command")
	}
	m, _ = m.Update(cmd())

	if len(v.downloaded) != 1 || v.downloaded[0] != "f1" || v.downloadTo != "/tmp/lv" {
		t.Errorf("downloaded = %v to %q", v.downloaded, v.downloadTo)
	}
	if !strings.Contains(m.View(), "saved /tmp/lv/report.pdf") {
		t.Errorf("expected saved status, got:\n%s", m.View())
	}
}

func TestHomeIgnoresKeysWhileBusy(t *testing.T) {
	m := loaded(t, &fakeVault{list: sampleList()})
	m.busy = true
	if _, cmd := m.Update(runes("r")); cmd != nil {
		t.Error("expected keys to be ignored while busy")
	}
}
