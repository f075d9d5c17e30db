// Package store persists per-document engine state: the sentence index,
// the last-played bookmark, and playback settings. Implementations are
// pure key/value over a document id; a missing key is a normal "nothing
// saved yet" condition reported as (nil, nil).
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// Keys under which engine state is stored per document.
const (
	keyIndex    = "sentence-index"
	keyBookmark = "bookmark"
	keySettings = "settings"
)

// HTTPStore talks to the library server's per-document key/value
// endpoints: GET/PUT {base}/documents/{id}/speech/{key}.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewHTTPStore creates a store client for the given base URL.
func NewHTTPStore(baseURL string, client *http.Client, logger *log.Logger) *HTTPStore {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPStore{baseURL: baseURL, client: client, logger: logger}
}

func (s *HTTPStore) endpoint(documentID, key string) string {
	return fmt.Sprintf("%s/documents/%s/speech/%s", s.baseURL, url.PathEscape(documentID), key)
}

// load fetches and decodes a value, reporting found=false on 404.
func (s *HTTPStore) load(ctx context.Context, documentID, key string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(documentID, key), nil)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("store: GET %s/%s returned %d: %s", documentID, key, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("store: decoding %s/%s: %w", documentID, key, err)
	}
	return true, nil
}

func (s *HTTPStore) save(ctx context.Context, documentID, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %s/%s: %w", documentID, key, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint(documentID, key), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store: PUT %s/%s returned %d", documentID, key, resp.StatusCode)
	}
	return nil
}

// LoadIndex fetches the persisted sentence index, or nil when absent.
func (s *HTTPStore) LoadIndex(ctx context.Context, documentID string) (*speech.DocumentIndex, error) {
	var idx speech.DocumentIndex
	found, err := s.load(ctx, documentID, keyIndex, &idx)
	if err != nil || !found {
		return nil, err
	}
	return &idx, nil
}

// SaveIndex persists the sentence index.
func (s *HTTPStore) SaveIndex(ctx context.Context, documentID string, idx *speech.DocumentIndex) error {
	return s.save(ctx, documentID, keyIndex, idx)
}

// LoadBookmark fetches the last-played bookmark, or nil when absent.
func (s *HTTPStore) LoadBookmark(ctx context.Context, documentID string) (*speech.Bookmark, error) {
	var bm speech.Bookmark
	found, err := s.load(ctx, documentID, keyBookmark, &bm)
	if err != nil || !found {
		return nil, err
	}
	return &bm, nil
}

// SaveBookmark persists the bookmark. Last write wins.
func (s *HTTPStore) SaveBookmark(ctx context.Context, documentID string, b speech.Bookmark) error {
	return s.save(ctx, documentID, keyBookmark, b)
}

// LoadSettings fetches playback settings, or nil when absent.
func (s *HTTPStore) LoadSettings(ctx context.Context, documentID string) (*speech.PlaybackSettings, error) {
	var ps speech.PlaybackSettings
	found, err := s.load(ctx, documentID, keySettings, &ps)
	if err != nil || !found {
		return nil, err
	}
	return &ps, nil
}

// SaveSettings persists playback settings.
func (s *HTTPStore) SaveSettings(ctx context.Context, documentID string, ps speech.PlaybackSettings) error {
	return s.save(ctx, documentID, keySettings, ps)
}

var _ speech.Storage = (*HTTPStore)(nil)
