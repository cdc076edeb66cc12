// Package identity persists the last known printer identity so the agent
// can auto-reconnect across restarts.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Identity is the persisted printer record. It is created on first
// successful pairing, updated on every successful reconnect (BLE identifiers
// are not stable across OS re-pairing), and deleted only by an explicit
// "forget printer" action.
type Identity struct {
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
	Enabled bool   `yaml:"enabled"`
}

// Store is the durable key-value facility the connection manager needs:
// get/set/delete of one record. Load returns (nil, nil) when no identity
// has been saved.
type Store interface {
	Load() (*Identity, error)
	Save(Identity) error
	Delete() error
}

// FileStore keeps the identity in a YAML file, by default under the same
// config directory as the agent configuration.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Identity, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity: read %s: %w", s.path, err)
	}
	var ident Identity
	if err := yaml.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("identity: parse %s: %w", s.path, err)
	}
	if ident.Name == "" && ident.ID == "" {
		return nil, nil
	}
	return &ident, nil
}

func (s *FileStore) Save(ident Identity) error {
	data, err := yaml.Marshal(ident)
	if err != nil {
		return fmt.Errorf("identity: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("identity: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("identity: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("identity: delete %s: %w", s.path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
