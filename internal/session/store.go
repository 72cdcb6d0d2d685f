package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSession is returned by Load when no session file exists on disk.
var ErrNoSession = errors.New("no active session (run `kpimarks start` first)")

// SessionStore persists the active Session.
type SessionStore interface {
	Save(s *Session) error
	Load() (*Session, error) // returns ErrNoSession if none exists
	Delete() error
}

// diskStore keeps the session as a single JSON file.
type diskStore struct {
	path string
}

// NewSessionStore returns a SessionStore backed by the XDG data directory.
// Path: $XDG_DATA_HOME/kpimarks/session.json or ~/.local/share/kpimarks/session.json
func NewSessionStore() (SessionStore, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	return OpenDir(dir)
}

// OpenDir returns a SessionStore writing session.json under dir, creating
// dir if needed.
func OpenDir(dir string) (SessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "session.json")}, nil
}

// DataDir returns the kpimarks XDG data directory. It also holds debug.log.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "kpimarks"), nil
}

// Update loads the session, applies fn and saves the result. Nothing is
// written if fn fails.
func Update(store SessionStore, fn func(*Session) error) (*Session, error) {
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := store.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (d *diskStore) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	if err := WriteFileAtomic(d.path, data); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

func (d *diskStore) Load() (*Session, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session state %s: %w", d.path, err)
	}
	return &s, nil
}

func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
