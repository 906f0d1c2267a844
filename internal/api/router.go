package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neon-rush/internal/leaderboard"
	"neon-rush/internal/sim/journal"
	"neon-rush/internal/store"
)

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Director: director,
//	    Boards:   boards,
//	    Store:    st,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Director owns the live engines (required)
	Director *Director

	// Boards holds the per-mode leaderboards (required)
	Boards *leaderboard.Set

	// Store is the local results/ghost persistence (required)
	Store *store.Store

	// Journal is the optional diagnostics journal, exposed via /api/stats
	Journal *journal.Journal

	// Hub is the optional websocket hub. When nil the /ws route is omitted.
	Hub *WebSocketHub

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, every origin is allowed (static browser client).
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer. The hub's Run
// and StartBroadcastLoop are started by the caller.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	h := &routerHandlers{
		director: cfg.Director,
		deps:     cfg,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Live state
		r.Get("/state/{mode}", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/results", h.handleGetResults)

		// Run control
		r.Post("/runner/start", h.handleRunnerStart)
		r.Post("/elimination/start", h.handleEliminationStart)
		r.Post("/drift/start", h.handleDriftStart)
		r.Post("/input/{mode}", h.handleInput)

		// Static game data
		r.Get("/characters", h.handleGetCharacters)
		r.Get("/modes", h.handleGetModes)
		r.Get("/tracks", h.handleGetTracks)
		r.Get("/ghost/{trackID}", h.handleGetGhost)

		// Admin
		r.Get("/preview.png", h.handlePreview)
	})

	// WebSocket endpoint for live state push and input
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	// Prometheus metrics on the main listener as well, for deployments that
	// cannot reach the localhost debug server
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
