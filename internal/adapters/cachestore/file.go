// Package cachestore persists built knowledge bases keyed by fingerprint.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/ports"
)

// FileExt is the extension of cache entry files.
const FileExt = ".kb"

// ErrInvalidFingerprint is returned for keys that cannot name a cache entry.
var ErrInvalidFingerprint = errors.New("invalid fingerprint")

func checkFingerprint(fp string) error {
	if fp == "" || fp == "." || fp == ".." || strings.ContainsAny(fp, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
	}
	return nil
}

// FileStore implements ports.CacheStore with one file per fingerprint.
type FileStore struct {
	dir     string
	decoder ports.IndexDecoder
}

// NewFileStore creates a store under dir. The directory is created on first save.
func NewFileStore(dir string, decoder ports.IndexDecoder) *FileStore {
	if dir == "" {
		dir = "cache"
	}
	return &FileStore{dir: dir, decoder: decoder}
}

// Path returns the file holding the entry for fp.
func (s *FileStore) Path(fp string) string {
	return filepath.Join(s.dir, fp+FileExt)
}

// Load reads and decodes the entry for fp.
func (s *FileStore) Load(ctx context.Context, fp string) (ports.Index, bool, error) {
	if err := checkFingerprint(fp); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.Path(fp))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	idx, err := s.decoder.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", fp, err)
	}
	return idx, true, nil
}

// Save writes the entry for fp, replacing any previous one. The data goes to
// a temporary file first so readers never see a half-written entry.
func (s *FileStore) Save(ctx context.Context, fp string, idx ports.Index) error {
	if err := checkFingerprint(fp); err != nil {
		return err
	}

	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("serializing index: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, fp+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(fp)); err != nil {
		return fmt.Errorf("replacing cache entry: %w", err)
	}
	return nil
}
