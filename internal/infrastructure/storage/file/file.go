// Package file persists the session token pair in a single JSON file.
// The pair is always replaced through a temp-file rename, so readers can
// never observe an access token without its matching refresh token.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openclass/lms-client/internal/core/ports"
)

// storedTokens mirrors the fixed storage key names.
type storedTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a token store backed by the file at path. The file is
// created on first Save with 0600 permissions.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(_ context.Context) (ports.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ports.TokenPair{}, nil
	}
	if err != nil {
		return ports.TokenPair{}, fmt.Errorf("read token file: %w", err)
	}

	var st storedTokens
	if err := json.Unmarshal(raw, &st); err != nil {
		return ports.TokenPair{}, fmt.Errorf("decode token file: %w", err)
	}
	return ports.TokenPair{Access: st.Access, Refresh: st.Refresh}, nil
}

func (s *Store) Save(_ context.Context, pair ports.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(storedTokens{Access: pair.Access, Refresh: pair.Refresh})
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
