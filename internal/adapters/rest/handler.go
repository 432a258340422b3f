package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewilliams-labs/moodmatch/internal/core/services"
)

// Options tune the HTTP middleware stack. Zero values disable the feature.
type Options struct {
	RequestTimeout    time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc      *services.Orchestrator
	router   chi.Router
	validate *validator.Validate
	opts     Options
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, opts Options) *Handler {
	h := &Handler{
		svc:      svc,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}

	h.middleware()
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) middleware() {
	h.router.Use(middleware.RequestID)
	h.router.Use(middleware.RealIP)
	h.router.Use(requestLogger)
	h.router.Use(middleware.Recoverer)

	if len(h.opts.CORSOrigins) > 0 {
		h.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if h.opts.RequestTimeout > 0 {
		h.router.Use(middleware.Timeout(h.opts.RequestTimeout))
	}
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.Get("/health", h.HealthCheck)
	h.router.Get("/seeds", h.ListSeeds)
	h.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Only the recommendation routes fan out to upstream APIs, so only they are limited.
	h.router.Group(func(r chi.Router) {
		if limiter := h.rateLimiter(); limiter != nil {
			r.Use(limiter)
		}
		r.Post("/recommendations", h.Recommend)
		r.Post("/recommendations/artist", h.RecommendByArtist)
	})
}

func (h *Handler) rateLimiter() func(http.Handler) http.Handler {
	if h.opts.RateLimitRequests <= 0 || h.opts.RateLimitWindow <= 0 {
		return nil
	}
	return httprate.Limit(
		h.opts.RateLimitRequests,
		h.opts.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErrorWithCode(w, http.StatusTooManyRequests, "too many requests", errCodeRateLimited)
		}),
	)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "moodmatch is live"})
}

type seedResponse struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

// ListSeeds handles GET /seeds
func (h *Handler) ListSeeds(w http.ResponseWriter, r *http.Request) {
	seeds := h.svc.Taxonomy().Seeds()
	out := make([]seedResponse, 0, len(seeds))
	for _, s := range seeds {
		variants := s.Variants
		if variants == nil {
			variants = []string{}
		}
		out = append(out, seedResponse{Name: s.Name, Variants: variants})
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeds": out, "count": len(out)})
}
