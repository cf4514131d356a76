package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fluentnow/fluentnow-api/internal/api/handlers"
	"github.com/fluentnow/fluentnow-api/internal/api/middleware"
	"github.com/fluentnow/fluentnow-api/internal/config"
	"github.com/fluentnow/fluentnow-api/internal/speech"
)

type Router struct {
	mux    *chi.Mux
	redis  *redis.Client
	cfg    *config.Config
	speech *speech.Service
}

// NewRouter wires the HTTP surface. rdb is nil when the audio cache is off.
func NewRouter(cfg *config.Config, svc *speech.Service, rdb *redis.Client) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		redis:  rdb,
		cfg:    cfg,
		speech: svc,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.CORS.AllowedOrigins))

	health := handlers.NewHealthHandler(rt.redis, rt.speech.ProviderName())
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
	r.Group(func(r chi.Router) {
		r.Use(rl.Limit)

		audioH := handlers.NewAudioHandler(rt.speech)
		r.Post("/generate-audio", audioH.Generate)

		extractH := handlers.NewExtractHandler()
		r.Post("/extract-text", extractH.Extract)
	})

	return r
}
