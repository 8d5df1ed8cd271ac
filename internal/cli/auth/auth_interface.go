package auth

import (
	"os"
	"strings"
)

// Store defines the durable storage for session records.
// A server holds at most one record; Delete is idempotent.
type Store interface {
	Save(server string, data []byte) error
	Load(server string) ([]byte, error)
	Delete(server string) error
}

// Default picks the session store for this host. CRUISEMATE_SESSION_STORE=file
// selects the file store for machines without a keychain.
func Default() (Store, error) {
	switch strings.ToLower(os.Getenv("CRUISEMATE_SESSION_STORE")) {
	case "file":
		return NewFileStore("")
	case "memory":
		return NewMemoryStore(), nil
	default:
		return KeyringStore{}, nil
	}
}
