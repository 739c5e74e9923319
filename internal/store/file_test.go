package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTripAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")

	f, err := OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.SetMany(map[string]string{
		KeyServerURL:   "https://vault.example",
		KeyPhoneNumber: "+1000",
	}))
	require.NoError(t, Set(f, KeyAccessToken, "acc"))

	reopened, err := OpenFile(dir)
	require.NoError(t, err)

	v, ok, err := reopened.Get(KeyServerURL)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://vault.example", v)

	v, ok, _ = reopened.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "acc", v)
}

func TestFileDelete(t *testing.T) {
	f, err := OpenFile(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, f.SetMany(map[string]string{KeyAccessToken: "a", KeyRefreshToken: "r"}))

	require.NoError(t, f.Delete(KeyAccessToken, KeyRefreshToken, "never-set"))

	_, ok, _ := f.Get(KeyAccessToken)
	assert.False(t, ok)

	reopened, err := OpenFile(filepath.Dir(f.Path()))
	require.NoError(t, err)
	_, ok, _ = reopened.Get(KeyRefreshToken)
	assert.False(t, ok)
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	f, err := OpenFile(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Set(f, KeyRefreshToken, "secret"))

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOpenFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0600))

	_, err := OpenFile(dir)
	assert.Error(t, err)
}

func TestOpenFileEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), nil, 0600))

	f, err := OpenFile(dir)
	require.NoError(t, err)
	_, ok, _ := f.Get(KeyServerURL)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, Set(m, KeyDeviceID, "dev"))
	assert.Equal(t, 1, m.Len())

	v, ok, err := m.Get(KeyDeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dev", v)

	require.NoError(t, m.Delete(KeyDeviceID))
	assert.Equal(t, 0, m.Len())
}
