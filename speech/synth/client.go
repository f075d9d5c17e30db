// Package synth talks to the library's HTTP speech-synthesis backend and
// memoizes results per (text prefix, voice, rate, volume).
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// DefaultCacheSize bounds the synthesis memo cache.
const DefaultCacheSize = 100

// defaultRequestsPerMinute keeps the backend from throttling us.
const defaultRequestsPerMinute = 120

// Config configures the synthesizer client.
type Config struct {
	// BaseURL of the synthesis backend; requests POST to {BaseURL}/synthesize.
	BaseURL string

	// RequestsPerMinute caps outbound synthesis calls.
	RequestsPerMinute int

	// CacheSize bounds the memo cache (entries, FIFO eviction).
	CacheSize int

	// Voices advertises the backend's configured voice set.
	Voices []string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client is a memoizing synthesizer over the HTTP backend.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *memoCache
	voices  []string
	logger  *log.Logger
}

// synthesisRequest is the backend wire format.
type synthesisRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// New creates a synthesizer client.
func New(cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		cache:   newMemoCache(cfg.CacheSize),
		voices:  cfg.Voices,
		logger:  logger,
	}
}

// Synthesize converts text into audio bytes, consulting the memo cache
// first. Non-2xx backend responses fail with a speech.SynthesisError
// carrying the status and body.
func (c *Client) Synthesize(ctx context.Context, text string, opts speech.SynthesisOptions) ([]byte, error) {
	key := cacheKey(text, opts)
	if data, ok := c.cache.get(key); ok {
		return data, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &speech.SynthesisError{Err: err}
	}

	body, err := json.Marshal(synthesisRequest{
		Text:  text,
		Voice: opts.Voice,
		Speed: opts.Rate,
	})
	if err != nil {
		return nil, &speech.SynthesisError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, &speech.SynthesisError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &speech.SynthesisError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &speech.SynthesisError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &speech.SynthesisError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	c.cache.put(key, data)
	c.logger.Debug("synthesized", "bytes", humanize.Bytes(uint64(len(data))), "voice", opts.Voice)
	return data, nil
}

// Voices returns the configured voice set for the host UI.
func (c *Client) Voices() []string {
	out := make([]string, len(c.voices))
	copy(out, c.voices)
	return out
}

// CacheLen reports the memo cache size, mainly for tests and diagnostics.
func (c *Client) CacheLen() int {
	return c.cache.len()
}

// keyPrefixLength bounds the text part of the cache key. A fixed-size
// prefix is a deliberate trade-off: long near-duplicate sentences can
// collide, which is accepted over hashing every full sentence.
const keyPrefixLength = 50

func cacheKey(text string, opts speech.SynthesisOptions) string {
	runes := []rune(text)
	if len(runes) > keyPrefixLength {
		runes = runes[:keyPrefixLength]
	}
	return fmt.Sprintf("%s|%s|%.2f|%.2f", string(runes), opts.Voice, opts.Rate, opts.Volume)
}

var _ speech.Synthesizer = (*Client)(nil)
