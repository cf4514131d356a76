// Package speech implements the audio generation proxy: it validates a
// synthesis request, picks the voice and forwards the text to the configured
// tts.Provider, optionally through a cache.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fluentnow/fluentnow-api/internal/cache"
	"github.com/fluentnow/fluentnow-api/internal/tts"
)

// ValidationError is a client input problem. Message is safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrTextRequired = &ValidationError{Message: "Text is required"}
	ErrInvalidBody  = &ValidationError{Message: "invalid request body"}
)

// Request is the validated body of POST /generate-audio.
type Request struct {
	Text   string `json:"text"`
	Accent string `json:"accent,omitempty"`
}

// DecodeRequest reads a single JSON object. An empty body is treated like {};
// anything after the object is rejected.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		if !errors.Is(err, io.EOF) {
			return Request{}, ErrInvalidBody
		}
	} else if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Request{}, ErrInvalidBody
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Validate() error {
	if r.Text == "" {
		return ErrTextRequired
	}
	return nil
}

// Cache is the subset of cache.Cache the service needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Options struct {
	// AccentVoices maps a lowercase accent name to a provider voice id.
	// Accents without an entry use the provider's default voice.
	AccentVoices map[string]string
	Cache        Cache
	CacheTTL     time.Duration
}

type Service struct {
	provider tts.Provider
	voices   map[string]string
	cache    Cache
	cacheTTL time.Duration
}

func NewService(provider tts.Provider, opts Options) *Service {
	return &Service{
		provider: provider,
		voices:   opts.AccentVoices,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

// ProviderName reports which backend serves requests.
func (s *Service) ProviderName() string { return s.provider.Name() }

// Generate synthesizes req.Text. Errors are *ValidationError,
// *tts.UpstreamError, or internal failures.
func (s *Service) Generate(ctx context.Context, req Request) (*tts.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	voice := s.voiceFor(req.Accent)
	key := s.cacheKey(voice, req.Text)

	if s.cache != nil {
		var cached tts.Result
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil && len(cached.Audio) > 0:
			slog.Debug("audio cache hit", "provider", s.provider.Name(), "voice", voice)
			return &cached, nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			slog.Warn("audio cache read failed", "error", err)
		}
	}

	result, err := s.provider.Synthesize(ctx, tts.Request{Text: req.Text, Voice: voice})
	if err != nil {
		var upErr *tts.UpstreamError
		if errors.As(err, &upErr) {
			slog.Error("upstream tts error",
				"provider", upErr.Provider,
				"status", upErr.Status,
				"body", upErr.Body,
			)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			slog.Warn("audio cache write failed", "error", err)
		}
	}

	return result, nil
}

func (s *Service) voiceFor(accent string) string {
	if accent == "" {
		return ""
	}
	return s.voices[strings.ToLower(strings.TrimSpace(accent))]
}

func (s *Service) cacheKey(voice, text string) string {
	h := sha256.Sum256([]byte(s.provider.Name() + "|" + voice + "|" + text))
	return hex.EncodeToString(h[:])
}
