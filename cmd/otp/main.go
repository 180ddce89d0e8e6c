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

	"github.com/bloodconnect/backend/internal/adapters/cache"
	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/api/handlers"
	"github.com/bloodconnect/backend/internal/api/routes"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
	"github.com/bloodconnect/backend/internal/infrastructure/notifications"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("otp-service", cfg.Environment)

	ctx := context.Background()

	if cfg.OTP.SystemAPIKey == "" {
		log.Warn().Msg("SYSTEM_API_KEY is not set; every OTP request will be rejected")
	}

	var store repositories.OTPRepository
	switch cfg.OTP.Store {
	case "redis":
		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Redis client")
		}
		defer client.Close()
		store = cache.NewRedisOTPStore(client)
	default:
		store = memory.NewOTPStore()
	}

	senders, err := buildSenders(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure delivery providers")
	}

	collector, err := observability.NewOTPCollector(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	service, err := services.NewOTPService(store, senders, services.OTPConfig{
		CodeLength:  cfg.OTP.CodeLength,
		TTL:         time.Duration(cfg.OTP.TTLSeconds) * time.Second,
		Cooldown:    time.Duration(cfg.OTP.CooldownSeconds) * time.Second,
		MaxAttempts: cfg.OTP.MaxAttempts,
		HashCost:    cfg.OTP.HashCost,
		TokenSecret: []byte(cfg.OTP.TokenSecret),
		Production:  cfg.IsProduction(),
	}, collector)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create OTP service")
	}

	routerCfg := routes.DefaultOTPRouterConfig(cfg.OTP.SystemAPIKey, cfg.OTP.AllowedOrigin)
	routerCfg.TrustProxy = cfg.OTP.TrustProxy
	handler, err := routes.NewOTPRouter(handlers.NewOTPHandler(service, cfg.IsProduction()), routerCfg, collector)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.OTP.Host, cfg.OTP.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("OTP service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("OTP service failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("OTP service stopped")
}

// buildSenders orders the delivery providers: email, then SMS, then the dev
// echo which the service ignores in production.
func buildSenders(cfg *config.Config) ([]providers.CodeSender, error) {
	var senders []providers.CodeSender
	if cfg.OTP.SMTPHost != "" && cfg.OTP.SMTPUser != "" && cfg.OTP.SMTPPass != "" {
		email, err := notifications.NewSMTPEmailSender(cfg.OTP.SMTPHost, cfg.OTP.SMTPPort, cfg.OTP.SMTPUser, cfg.OTP.SMTPPass, cfg.OTP.SMTPFrom)
		if err != nil {
			return nil, err
		}
		senders = append(senders, email)
	}
	if cfg.OTP.TwilioSID != "" && cfg.OTP.TwilioToken != "" && cfg.OTP.TwilioFrom != "" {
		sms, err := notifications.NewTwilioSMSSender(cfg.OTP.TwilioSID, cfg.OTP.TwilioToken, cfg.OTP.TwilioFrom)
		if err != nil {
			return nil, err
		}
		senders = append(senders, sms)
	}
	return append(senders, notifications.DevEchoSender{}), nil
}
