package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/nearbydining/internal/adapters/cache"
	"github.com/zatekoja/nearbydining/internal/adapters/providers/places"
	"github.com/zatekoja/nearbydining/internal/api/handlers"
	"github.com/zatekoja/nearbydining/internal/api/middleware"
	"github.com/zatekoja/nearbydining/internal/api/routes"
	"github.com/zatekoja/nearbydining/internal/application/services"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/internal/infrastructure/clients/openai"
	redisclient "github.com/zatekoja/nearbydining/internal/infrastructure/clients/redis"
	"github.com/zatekoja/nearbydining/internal/infrastructure/observability"
	"github.com/zatekoja/nearbydining/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := observability.NewPipelineMetrics()
	if err := pipelineMetrics.Register(registry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register pipeline metrics")
	}

	var placesProvider providers.PlacesProvider
	switch cfg.Places.Provider {
	case "mock":
		log.Warn().Msg("PLACES_PROVIDER=mock; serving fixture restaurants")
		placesProvider = places.NewMockProvider()
	default:
		placesProvider = places.NewGoogleProviderWithOptions(cfg.Places.APIKey, cfg.Places.BaseURL, nil)
	}

	scoringClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize OpenAI client")
	}

	// Rate limiting shares counters through Redis when it is reachable.
	var rateLimiter func(http.Handler) http.Handler
	var redisClient *redisclient.Client
	if cfg.RateLimit.Enabled {
		var store middleware.RateLimitStore
		if cfg.Redis.Enabled {
			redisClient, err = redisclient.NewClient(ctx, &cfg.Redis)
			if err != nil {
				log.Warn().Err(err).Msg("Redis unavailable; rate limiting per instance")
			}
		}
		if redisClient != nil {
			store = middleware.NewCacheRateLimitStore(cache.NewRedisAdapter(redisClient))
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis rate limit store initialized")
		} else {
			local := middleware.NewLocalRateLimitStore()
			go sweepRateLimits(local, cfg.RateLimit.Window)
			store = local
		}
		rateLimiter = middleware.RateLimit(store, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	rankingService := services.NewRestaurantRankingService(placesProvider, scoringClient, cfg.Pipeline, pipelineMetrics)
	restaurantHandler := handlers.NewRestaurantHandler(rankingService)

	router := routes.NewRouter(restaurantHandler, routes.RouterOptions{
		Metrics:        metrics,
		Gatherer:       registry,
		RateLimiter:    rateLimiter,
		AllowedOrigins: middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins),
	})

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Pipeline.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
		}
	}

	log.Info().Msg("Server stopped")
}

func sweepRateLimits(store *middleware.LocalRateLimitStore, window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for range ticker.C {
		store.Cleanup()
	}
}
