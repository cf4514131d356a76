package tts

import (
	"fmt"

	"github.com/fluentnow/fluentnow-api/internal/config"
)

// NewProvider builds the backend selected by cfg.Backend.
func NewProvider(cfg config.TTSConfig) (Provider, error) {
	switch cfg.Backend {
	case config.BackendElevenLabs:
		return NewElevenLabsTTS(ElevenLabsConfig{
			APIKey:          cfg.ElevenLabs.APIKey,
			BaseURL:         cfg.ElevenLabs.BaseURL,
			VoiceID:         cfg.ElevenLabs.VoiceID,
			ModelID:         cfg.ElevenLabs.ModelID,
			Stability:       cfg.ElevenLabs.Stability,
			SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
			Timeout:         cfg.Timeout,
		}), nil
	case config.BackendOpenAI:
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Voice:   cfg.OpenAI.Voice,
			Timeout: cfg.Timeout,
		}), nil
	case config.BackendEdge:
		return NewEdgeTTS(cfg.Edge.Voice, cfg.Timeout), nil
	case config.BackendLocal:
		return NewLocalTTS(LocalTTSConfig{
			PiperBinPath: cfg.Local.PiperBinPath,
			ModelPath:    cfg.Local.ModelPath,
			SampleRate:   cfg.Local.SampleRate,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
