package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	service = "cruisemate-cli"
)

// ErrNotFound is returned by Load when no session is stored for a server
var ErrNotFound = errors.New("not authenticated. Please run 'cruisemate login' first")

// getKeyringKey returns a unique key for storing the session record per server
func getKeyringKey(server string) string {
	return fmt.Sprintf("session-%s", serverKey(server))
}

// serverKey reduces a server base URL to host[:port], so "http://h:8000/api/"
// and "http://h:8000/api" share a record.
func serverKey(server string) string {
	if u, err := url.Parse(server); err == nil && u.Host != "" {
		return u.Host
	}
	return strings.TrimSuffix(server, "/")
}

// KeyringStore persists session records in the OS keychain/credential manager
type KeyringStore struct{}

// Save persists the session record securely in the OS keychain/credential manager
func (KeyringStore) Save(server string, data []byte) error {
	if err := keyring.Set(service, getKeyringKey(server), string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves the session record from the OS keychain/credential manager
func (KeyringStore) Load(server string) ([]byte, error) {
	data, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return []byte(data), nil
}

// Delete removes the session record from the OS keychain/credential manager
func (KeyringStore) Delete(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
