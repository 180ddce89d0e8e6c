package routes

import (
	"net/http"
	"time"

	"github.com/bloodconnect/backend/internal/api/handlers"
	"github.com/bloodconnect/backend/internal/api/middleware"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
)

const maxTrackedClients = 10000

// OTPRouterConfig configures the one-time-code service surface
type OTPRouterConfig struct {
	APIKey        string
	AllowedOrigin string
	Global        middleware.RateLimitConfig
	Request       middleware.RateLimitConfig
	Verify        middleware.RateLimitConfig
	// TrustProxy keys every limiter on X-Forwarded-For
	TrustProxy bool
}

// DefaultOTPRouterConfig returns the per-IP budgets of the OTP service
func DefaultOTPRouterConfig(apiKey, allowedOrigin string) OTPRouterConfig {
	return OTPRouterConfig{
		APIKey:        apiKey,
		AllowedOrigin: allowedOrigin,
		Global:        middleware.RateLimitConfig{Name: "global", Window: 15 * time.Minute, Max: 100},
		Request: middleware.RateLimitConfig{
			Name:    "request",
			Window:  5 * time.Minute,
			Max:     20,
			Message: "Too many OTP requests. Please slow down.",
		},
		Verify: middleware.RateLimitConfig{
			Name:    "verify",
			Window:  5 * time.Minute,
			Max:     50,
			Message: "Too many OTP verifications. Please slow down.",
		},
	}
}

// NewOTPRouter builds the handler of the OTP service
func NewOTPRouter(otp *handlers.OTPHandler, cfg OTPRouterConfig, collector *observability.OTPCollector) (http.Handler, error) {
	limiters := make([]*middleware.RateLimiter, 0, 3)
	for _, lc := range []middleware.RateLimitConfig{cfg.Global, cfg.Request, cfg.Verify} {
		lc.TrustForwarded = lc.TrustForwarded || cfg.TrustProxy
		limiter, err := middleware.NewRateLimiter(lc, maxTrackedClients)
		if err != nil {
			return nil, err
		}
		limiters = append(limiters, limiter.OnLimit(collector.ObserveRateLimited))
	}
	global, request, verify := limiters[0], limiters[1], limiters[2]
	requireKey := middleware.RequireBearerKey(cfg.APIKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", collector.Handler())
	mux.Handle("POST /request-otp", request.Middleware(requireKey(http.HandlerFunc(otp.RequestOTP))))
	mux.Handle("POST /verify-otp", verify.Middleware(requireKey(http.HandlerFunc(otp.VerifyOTP))))

	var handler http.Handler = mux
	handler = global.Middleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})(handler)

	return handler, nil
}
