package persist

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileKV stores each key as a JSON file inside a directory
type FileKV struct {
	dir string
}

// NewFileKV creates the directory if needed
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// path maps a key to a file name; keys may contain ':' and '/'
func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *FileKV) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return data, nil
}

// Write atomically replaces the file for key (temp file → rename)
func (f *FileKV) Write(key string, data []byte) error {
	target := f.path(key)
	tempPath := target + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	// Sync to disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
