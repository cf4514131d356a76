package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values of TTS_BACKEND.
const (
	BackendElevenLabs = "elevenlabs"
	BackendOpenAI     = "openai"
	BackendEdge       = "edge"
	BackendLocal      = "local"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Cache     CacheConfig
	TTS       TTSConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type TTSConfig struct {
	Backend      string // "elevenlabs", "openai", "edge" or "local"
	Timeout      time.Duration
	AccentVoices map[string]string // accent -> backend voice id
	ElevenLabs   ElevenLabsConfig
	OpenAI       OpenAIConfig
	Edge         EdgeConfig
	Local        LocalConfig
}

type ElevenLabsConfig struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

type EdgeConfig struct {
	Voice string
}

type LocalConfig struct {
	PiperBinPath string
	ModelPath    string
	SampleRate   int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ConfigurationError reports settings that prevent the server from starting.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 5000)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "24h")

	v.SetDefault("TTS_BACKEND", BackendElevenLabs)
	v.SetDefault("TTS_TIMEOUT", "30s")
	v.SetDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1")
	v.SetDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2")
	v.SetDefault("ELEVENLABS_STABILITY", 0.5)
	v.SetDefault("ELEVENLABS_SIMILARITY_BOOST", 0.75)
	v.SetDefault("TTS_OPENAI_MODEL", "tts-1")
	v.SetDefault("TTS_OPENAI_VOICE", "alloy")
	v.SetDefault("TTS_EDGE_VOICE", "en-US-AriaNeural")
	v.SetDefault("TTS_LOCAL_PIPER_BIN", "piper")
	v.SetDefault("TTS_LOCAL_SAMPLE_RATE", 22050)

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_MAX_SIZE_MB", 64)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
}

// Load builds the configuration from defaults, an optional dotenv file and
// the process environment, in increasing order of precedence. A missing
// envFile is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}
	v.AutomaticEnv()

	l := loader{v: v}

	accentVoices, err := parseAccentVoices(v.GetString("TTS_ACCENT_VOICES"))
	if err != nil {
		l.fail("TTS_ACCENT_VOICES", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("HOST"),
			Port: l.int("PORT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       l.int("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled: l.bool("CACHE_ENABLED"),
			TTL:     l.duration("CACHE_TTL"),
		},
		TTS: TTSConfig{
			Backend:      strings.ToLower(v.GetString("TTS_BACKEND")),
			Timeout:      l.duration("TTS_TIMEOUT"),
			AccentVoices: accentVoices,
			ElevenLabs: ElevenLabsConfig{
				APIKey:          v.GetString("ELEVENLABS_API_KEY"),
				BaseURL:         v.GetString("ELEVENLABS_BASE_URL"),
				VoiceID:         v.GetString("ELEVENLABS_VOICE_ID"),
				ModelID:         v.GetString("ELEVENLABS_MODEL_ID"),
				Stability:       l.float("ELEVENLABS_STABILITY"),
				SimilarityBoost: l.float("ELEVENLABS_SIMILARITY_BOOST"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  v.GetString("OPENAI_API_KEY"),
				BaseURL: v.GetString("TTS_OPENAI_BASE_URL"),
				Model:   v.GetString("TTS_OPENAI_MODEL"),
				Voice:   v.GetString("TTS_OPENAI_VOICE"),
			},
			Edge: EdgeConfig{
				Voice: v.GetString("TTS_EDGE_VOICE"),
			},
			Local: LocalConfig{
				PiperBinPath: v.GetString("TTS_LOCAL_PIPER_BIN"),
				ModelPath:    v.GetString("TTS_LOCAL_PIPER_MODEL"),
				SampleRate:   l.int("TTS_LOCAL_SAMPLE_RATE"),
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   l.float("RATE_LIMIT_RPS"),
			Burst: l.int("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  l.int("LOG_MAX_SIZE_MB"),
			MaxBackups: l.int("LOG_MAX_BACKUPS"),
			MaxAgeDays: l.int("LOG_MAX_AGE_DAYS"),
		},
	}

	if l.err != nil {
		return nil, l.err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks that the selected TTS backend has what it needs to serve
// requests. It returns a *ConfigurationError or nil.
func (c *Config) Validate() error {
	cerr := &ConfigurationError{}

	switch c.TTS.Backend {
	case BackendElevenLabs:
		if c.TTS.ElevenLabs.APIKey == "" {
			cerr.Missing = append(cerr.Missing, "ELEVENLABS_API_KEY")
		}
	case BackendOpenAI:
		if c.TTS.OpenAI.APIKey == "" {
			cerr.Missing = append(cerr.Missing, "OPENAI_API_KEY")
		}
	case BackendLocal:
		if c.TTS.Local.ModelPath == "" {
			cerr.Missing = append(cerr.Missing, "TTS_LOCAL_PIPER_MODEL")
		}
	case BackendEdge:
	default:
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("TTS_BACKEND=%q", c.TTS.Backend))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		cerr.Invalid = append(cerr.Invalid, fmt.Sprintf("PORT=%d", c.Server.Port))
	}
	if c.TTS.Timeout <= 0 {
		cerr.Invalid = append(cerr.Invalid, "TTS_TIMEOUT must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		cerr.Invalid = append(cerr.Invalid, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}

// loader parses typed values out of viper and keeps the first failure.
type loader struct {
	v   *viper.Viper
	err error
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (l *loader) int(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(l.v.GetString(key)))
	if err != nil {
		l.fail(key, err)
	}
	return n
}

func (l *loader) float(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(l.v.GetString(key)), 64)
	if err != nil {
		l.fail(key, err)
	}
	return f
}

func (l *loader) bool(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(l.v.GetString(key)))
	if err != nil {
		l.fail(key, err)
	}
	return b
}

func (l *loader) duration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(l.v.GetString(key)))
	if err != nil {
		l.fail(key, err)
	}
	return d
}

// parseAccentVoices parses "british=voiceA,indian=voiceB". Accent names are
// matched case-insensitively.
func parseAccentVoices(s string) (map[string]string, error) {
	voices := make(map[string]string)
	for _, pair := range splitList(s) {
		accent, voice, ok := strings.Cut(pair, "=")
		accent = strings.ToLower(strings.TrimSpace(accent))
		voice = strings.TrimSpace(voice)
		if !ok || accent == "" || voice == "" {
			return nil, fmt.Errorf("expected accent=voice, got %q", pair)
		}
		voices[accent] = voice
	}
	return voices, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
