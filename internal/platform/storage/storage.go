package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes uploaded files to a single local directory under generated
// names, so user-supplied filenames never touch the filesystem.
type Store struct {
	Dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// Save streams src to disk and returns the stored name.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + safeExtension(originalName)
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) Open(storedName string) (*os.File, error) {
	clean := filepath.Base(storedName)
	if clean != storedName {
		return nil, fmt.Errorf("invalid stored name %q", storedName)
	}
	return os.Open(filepath.Join(s.Dir, clean))
}

func (s *Store) Remove(storedName string) error {
	clean := filepath.Base(storedName)
	if clean != storedName {
		return fmt.Errorf("invalid stored name %q", storedName)
	}
	err := os.Remove(filepath.Join(s.Dir, clean))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func safeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
