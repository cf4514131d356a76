// Package tts wraps the upstream text-to-speech backends behind a single
// Provider interface.
package tts

import (
	"context"
	"fmt"
)

const (
	ContentTypeMPEG = "audio/mpeg"
	ContentTypeWAV  = "audio/wav"
)

// Request holds the parameters for one synthesis call.
// An empty Voice selects the provider's configured default voice.
type Request struct {
	Text  string
	Voice string
}

// Result holds the generated audio and its content type.
type Result struct {
	Audio       []byte `json:"audio"`
	ContentType string `json:"content_type"`
}

// Provider is the interface for text-to-speech backends.
type Provider interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	Name() string
}

// UpstreamError is returned when the upstream service answered with a
// non-success HTTP status. Status and Body are relayed to the caller as-is.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}
