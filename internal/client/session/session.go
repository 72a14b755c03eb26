// Package session keeps the last issued token on disk so a new CLI run
// starts logged in.
package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/filex"
)

const tokenFile = "token"

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns the saved token, or "" if there is none.
func (s *Store) Load() (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *Store) Save(token string) error {
	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(dir, tokenFile), []byte(token), 0o600)
}

func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
