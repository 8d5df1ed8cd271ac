package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sessionsDirName = "sessions"

// FileStore keeps one 0600 JSON file per server under the user config directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. An empty dir resolves to
// ~/.config/cruisemate/sessions.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", "cruisemate", sessionsDirName)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(server string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(serverKey(server))
	return filepath.Join(f.dir, name+".json")
}

func (f *FileStore) Save(server string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial record
	tmp, err := os.CreateTemp(f.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(server)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (f *FileStore) Load(server string) ([]byte, error) {
	data, err := os.ReadFile(f.path(server))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

func (f *FileStore) Delete(server string) error {
	if err := os.Remove(f.path(server)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
