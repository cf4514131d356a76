package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment does not
// leak into the test. Empty values are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "TTS_BACKEND", "TTS_TIMEOUT", "TTS_ACCENT_VOICES",
		"ELEVENLABS_API_KEY", "ELEVENLABS_BASE_URL", "ELEVENLABS_VOICE_ID", "ELEVENLABS_MODEL_ID",
		"ELEVENLABS_STABILITY", "ELEVENLABS_SIMILARITY_BOOST",
		"OPENAI_API_KEY", "TTS_OPENAI_BASE_URL", "TTS_OPENAI_MODEL", "TTS_OPENAI_VOICE",
		"TTS_EDGE_VOICE", "TTS_LOCAL_PIPER_BIN", "TTS_LOCAL_PIPER_MODEL", "TTS_LOCAL_SAMPLE_RATE",
		"CACHE_ENABLED", "CACHE_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Server.Port", cfg.Server.Port, 5000},
		{"Server.Host", cfg.Server.Host, "0.0.0.0"},
		{"TTS.Backend", cfg.TTS.Backend, BackendElevenLabs},
		{"TTS.Timeout", cfg.TTS.Timeout, 30 * time.Second},
		{"ElevenLabs.VoiceID", cfg.TTS.ElevenLabs.VoiceID, "21m00Tcm4TlvDq8ikWAM"},
		{"ElevenLabs.ModelID", cfg.TTS.ElevenLabs.ModelID, "eleven_multilingual_v2"},
		{"ElevenLabs.Stability", cfg.TTS.ElevenLabs.Stability, 0.5},
		{"ElevenLabs.SimilarityBoost", cfg.TTS.ElevenLabs.SimilarityBoost, 0.75},
		{"Cache.Enabled", cfg.Cache.Enabled, false},
		{"Cache.TTL", cfg.Cache.TTL, 24 * time.Hour},
		{"RateLimit.Burst", cfg.RateLimit.Burst, 10},
		{"CORS.AllowedOrigins", cfg.CORS.AllowedOrigins, []string{"*"}},
		{"Log.Level", cfg.Log.Level, "info"},
		{"AccentVoices", len(cfg.TTS.AccentVoices), 0},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("TTS_BACKEND", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_TIMEOUT", "5s")
	t.Setenv("TTS_ACCENT_VOICES", "British=voice-gb, indian = voice-in")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://fluentnow.app, http://localhost:3000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.TTS.Backend != BackendOpenAI {
		t.Errorf("Backend = %q", cfg.TTS.Backend)
	}
	if cfg.TTS.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.TTS.Timeout)
	}
	wantVoices := map[string]string{"british": "voice-gb", "indian": "voice-in"}
	if !reflect.DeepEqual(cfg.TTS.AccentVoices, wantVoices) {
		t.Errorf("AccentVoices = %v", cfg.TTS.AccentVoices)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "ELEVENLABS_API_KEY=from-file\nPORT=6000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TTS.ElevenLabs.APIKey != "from-file" {
		t.Errorf("APIKey = %q", cfg.TTS.ElevenLabs.APIKey)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("environment should win over the file: Port = %d", cfg.Server.Port)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":              "fivethousand",
		"TTS_TIMEOUT":       "soon",
		"CACHE_ENABLED":     "maybe",
		"RATE_LIMIT_RPS":    "fast",
		"TTS_ACCENT_VOICES": "british",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestValidate_Credentials(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		missing []string
		invalid bool
	}{
		{"elevenlabs without key", func(c *Config) {}, []string{"ELEVENLABS_API_KEY"}, false},
		{"elevenlabs with key", func(c *Config) { c.TTS.ElevenLabs.APIKey = "k" }, nil, false},
		{"openai without key", func(c *Config) { c.TTS.Backend = BackendOpenAI }, []string{"OPENAI_API_KEY"}, false},
		{"edge needs nothing", func(c *Config) { c.TTS.Backend = BackendEdge }, nil, false},
		{"local without model", func(c *Config) { c.TTS.Backend = BackendLocal }, []string{"TTS_LOCAL_PIPER_MODEL"}, false},
		{"unknown backend", func(c *Config) { c.TTS.Backend = "polly" }, nil, true},
		{"port zero", func(c *Config) { c.TTS.Backend = BackendEdge; c.Server.Port = 0 }, nil, true},
		{"port too large", func(c *Config) { c.TTS.Backend = BackendEdge; c.Server.Port = 65536 }, nil, true},
		{"highest port", func(c *Config) { c.TTS.Backend = BackendEdge; c.Server.Port = 65535 }, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)

			err = cfg.Validate()
			if len(tc.missing) == 0 && !tc.invalid {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}

			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if !reflect.DeepEqual(cerr.Missing, tc.missing) {
				t.Errorf("Missing = %v, want %v", cerr.Missing, tc.missing)
			}
			if tc.invalid && len(cerr.Invalid) == 0 {
				t.Error("expected Invalid entries")
			}
		})
	}
}
