package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalObjectStore persists uploaded videos, extracted frame images and
// rendered documents on the local filesystem, handing back locator strings.
// The pipeline only ever relies on the locator contract, so a real object
// storage service can replace this without touching the core.
type LocalObjectStore struct {
	rootDir string
}

// NewLocalObjectStore creates an object store rooted at rootDir.
func NewLocalObjectStore(rootDir string) (*LocalObjectStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %v", err)
	}
	return &LocalObjectStore{rootDir: rootDir}, nil
}

// Put writes the contents of r under a dated directory structure
// (root/2025/01/23/...) and returns the locator for the stored object.
func (ls *LocalObjectStore) Put(kind, name string, r io.Reader) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(ls.rootDir, kind,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %v", err)
	}

	path := filepath.Join(dateDir, sanitizeFilename(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create object file: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write object: %v", err)
	}

	return path, nil
}

// PutBytes stores a byte slice, see Put.
func (ls *LocalObjectStore) PutBytes(kind, name string, data []byte) (string, error) {
	return ls.Put(kind, name, bytes.NewReader(data))
}

// Open returns a reader for a previously stored object.
func (ls *LocalObjectStore) Open(locator string) (io.ReadCloser, error) {
	return os.Open(locator)
}

// sanitizeFilename removes invalid characters from filename
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name = replacer.Replace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
