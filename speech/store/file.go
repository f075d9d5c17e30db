package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// FileStore keeps engine state as JSON files under
// <dir>/<documentID>/<key>.json. It backs the CLI and tests; the library
// server uses HTTPStore.
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore creates a file store rooted at dir, expanding a leading "~".
func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("store: expanding %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating %q: %w", expanded, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: expanded, logger: logger}, nil
}

func (s *FileStore) path(documentID, key string) string {
	return filepath.Join(s.dir, url.PathEscape(documentID), key+".json")
}

func (s *FileStore) load(documentID, key string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(documentID, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: reading %s/%s: %w", documentID, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("store: decoding %s/%s: %w", documentID, key, err)
	}
	return true, nil
}

// save writes atomically via a temp file and rename, so a crash mid-write
// never leaves a truncated state file.
func (s *FileStore) save(documentID, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %s/%s: %w", documentID, key, err)
	}

	path := s.path(documentID, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: creating document dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: writing %s/%s: %w", documentID, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: replacing %s/%s: %w", documentID, key, err)
	}

	s.logger.Debug("saved state", "document", documentID, "key", key, "size", humanize.Bytes(uint64(len(data))))
	return nil
}

// LoadIndex reads the persisted sentence index, or nil when absent.
func (s *FileStore) LoadIndex(_ context.Context, documentID string) (*speech.DocumentIndex, error) {
	var idx speech.DocumentIndex
	found, err := s.load(documentID, keyIndex, &idx)
	if err != nil || !found {
		return nil, err
	}
	return &idx, nil
}

// SaveIndex persists the sentence index.
func (s *FileStore) SaveIndex(_ context.Context, documentID string, idx *speech.DocumentIndex) error {
	return s.save(documentID, keyIndex, idx)
}

// LoadBookmark reads the bookmark, or nil when absent.
func (s *FileStore) LoadBookmark(_ context.Context, documentID string) (*speech.Bookmark, error) {
	var bm speech.Bookmark
	found, err := s.load(documentID, keyBookmark, &bm)
	if err != nil || !found {
		return nil, err
	}
	return &bm, nil
}

// SaveBookmark persists the bookmark.
func (s *FileStore) SaveBookmark(_ context.Context, documentID string, b speech.Bookmark) error {
	return s.save(documentID, keyBookmark, b)
}

// LoadSettings reads playback settings, or nil when absent.
func (s *FileStore) LoadSettings(_ context.Context, documentID string) (*speech.PlaybackSettings, error) {
	var ps speech.PlaybackSettings
	found, err := s.load(documentID, keySettings, &ps)
	if err != nil || !found {
		return nil, err
	}
	return &ps, nil
}

// SaveSettings persists playback settings.
func (s *FileStore) SaveSettings(_ context.Context, documentID string, ps speech.PlaybackSettings) error {
	return s.save(documentID, keySettings, ps)
}

var _ speech.Storage = (*FileStore)(nil)
