// Package media stores vehicle documents and images on disk and hands out
// short-lived signed URLs for them.
package media

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize is the per-file upload limit.
const MaxFileSize = 10 << 20

var ErrInvalidPath = errors.New("invalid storage path")

// Storage keeps files under Root as <kind>/<vehicle id>/<uuid><ext>.
type Storage struct {
	Root string
}

func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media root %s: %w", root, err)
	}
	return &Storage{Root: root}, nil
}

// Save writes content and returns its storage path relative to Root.
func (s *Storage) Save(kind string, vehicleID uint, filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	rel := path.Join(kind, fmt.Sprint(vehicleID), uuid.NewString()+ext)

	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Path returns the absolute file path of a storage path.
func (s *Storage) Path(rel string) (string, error) {
	return s.resolve(rel)
}

// Remove deletes a stored file; a file that is already gone is not an error.
func (s *Storage) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Storage) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if rel == "" || clean == "/" || strings.Contains(rel, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}
