// Package store persists the device-scoped session state: server URL, phone
// number, tokens and the device id.
package store

import "sync"

// Keys used by the session manager.
const (
	KeyServerURL    = "server_url"
	KeyPhoneNumber  = "phone_number"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry" // epoch milliseconds
	KeyDeviceID     = "device_id"
)

// Store is a string key-value store scoped to one device profile.
type Store interface {
	Get(key string) (string, bool, error)
	// SetMany writes all values in one step.
	SetMany(values map[string]string) error
	// Delete removes keys; missing keys are ignored.
	Delete(keys ...string) error
}

// Set writes a single value.
func Set(s Store, key, value string) error {
	return s.SetMany(map[string]string{key: value})
}

// Memory is an in-process Store, used in tests and as a fallback when no
// home directory is available.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) SetMany(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
