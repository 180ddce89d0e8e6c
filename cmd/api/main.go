package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bloodconnect/backend/internal/api/handlers"
	"github.com/bloodconnect/backend/internal/api/middleware"
	"github.com/bloodconnect/backend/internal/api/routes"
	"github.com/bloodconnect/backend/internal/app"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	container, err := app.Build(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}
	defer container.Close()

	if _, err := container.Deliveries.LoadAccepted(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load accepted requests")
	}

	router := routes.NewRouter(
		routes.Handlers{
			Geolocation: handlers.NewGeolocationHandler(container.Resolver),
			Facility:    handlers.NewFacilityHandler(container.Facilities, container.Matcher),
			Route:       handlers.NewRouteHandler(container.Planner),
			Delivery:    handlers.NewDeliveryHandler(container.Deliveries),
			History:     handlers.NewHistoryHandler(container.Histories),
			Auth:        handlers.NewAuthHandler(container.Identity),
			Session:     handlers.NewSessionHandler(container.Sessions),
			SSE:         handlers.NewSSEHandler(container.EventBus),
		},
		middleware.NewCacheMiddleware(container.Cache, middleware.DefaultCacheRoutes()),
		middleware.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins},
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// event streams stay open, so no write timeout
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	container.Deliveries.WaitForRoutes()

	log.Info().Msg("server stopped")
}
