package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zatekoja/nearbydining/internal/api/handlers"
	"github.com/zatekoja/nearbydining/internal/api/middleware"
	"github.com/zatekoja/nearbydining/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	restaurantHandler *handlers.RestaurantHandler

	metrics        *observability.Metrics
	gatherer       prometheus.Gatherer
	rateLimiter    func(http.Handler) http.Handler
	allowedOrigins []string
}

// RouterOptions carries the optional collaborators of the router.
type RouterOptions struct {
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
	RateLimiter    func(http.Handler) http.Handler
	AllowedOrigins []string
}

// NewRouter creates a new router
func NewRouter(restaurantHandler *handlers.RestaurantHandler, opts RouterOptions) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		restaurantHandler: restaurantHandler,
		metrics:           opts.Metrics,
		gatherer:          opts.Gatherer,
		rateLimiter:       opts.RateLimiter,
		allowedOrigins:    opts.AllowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	if r.gatherer != nil {
		r.mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	var restaurants http.Handler = http.HandlerFunc(r.restaurantHandler.GetRestaurants)
	if r.rateLimiter != nil {
		restaurants = r.rateLimiter(restaurants)
	}
	r.mux.Handle("GET /api/restaurants", restaurants)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)
	// Request IDs must be in context before the logger runs.
	handler = middleware.RequestID(handler)
	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
