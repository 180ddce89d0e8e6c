package routes

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/api/handlers"
	"github.com/bloodconnect/backend/internal/api/middleware"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
)

// Handlers groups the API route handlers. SSE may be nil when no event
// stream is configured.
type Handlers struct {
	Geolocation *handlers.GeolocationHandler
	Facility    *handlers.FacilityHandler
	Route       *handlers.RouteHandler
	Delivery    *handlers.DeliveryHandler
	History     *handlers.HistoryHandler
	Auth        *handlers.AuthHandler
	Session     *handlers.SessionHandler
	SSE         *handlers.SSEHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	handlers        Handlers
	cacheMiddleware *middleware.CacheMiddleware
	cors            middleware.CORSConfig
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(h Handlers, cacheMiddleware *middleware.CacheMiddleware, cors middleware.CORSConfig, metrics *observability.Metrics) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		handlers:        h,
		cacheMiddleware: cacheMiddleware,
		cors:            cors,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	h := r.handlers

	r.mux.HandleFunc("GET /health", handlers.Health)

	// Location and directory
	r.mux.HandleFunc("GET /api/geocode", h.Geolocation.Geocode)
	r.mux.HandleFunc("GET /api/facilities", h.Facility.ListFacilities)
	r.mux.HandleFunc("GET /api/facilities/nearest", h.Facility.Nearest)
	r.mux.HandleFunc("GET /api/facilities/{id...}", h.Facility.GetFacility)
	r.mux.HandleFunc("GET /api/routes", h.Route.PlanRoute)

	// Delivery workflow
	r.mux.HandleFunc("GET /api/deliveries", h.Delivery.ListDeliveries)
	r.mux.HandleFunc("POST /api/deliveries/reload", h.Delivery.Reload)
	r.mux.HandleFunc("GET /api/deliveries/{id}", h.Delivery.GetDelivery)
	r.mux.HandleFunc("POST /api/deliveries/{id}/accept", h.Delivery.Accept)
	r.mux.HandleFunc("POST /api/deliveries/{id}/start", h.Delivery.StartTransit)
	r.mux.HandleFunc("POST /api/deliveries/{id}/deliver", h.Delivery.MarkDelivered)
	r.mux.HandleFunc("POST /api/deliveries/{id}/reject", h.Delivery.Reject)

	// Accepted-request history
	r.mux.HandleFunc("GET /api/history/{bank}", h.History.GetHistory)
	r.mux.HandleFunc("PUT /api/history/{bank}", h.History.ReplaceHistory)
	r.mux.HandleFunc("POST /api/history/{bank}/users", h.History.AcceptUser)
	r.mux.HandleFunc("POST /api/history/{bank}/hospitals", h.History.AcceptHospital)
	r.mux.HandleFunc("POST /api/history/{bank}/donors", h.History.AcceptDonor)

	// Identity and agent sessions
	r.mux.HandleFunc("POST /api/auth/signin", h.Auth.SignIn)
	r.mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	r.mux.HandleFunc("POST /api/sessions", h.Session.StartSession)
	r.mux.HandleFunc("GET /api/sessions/{id}", h.Session.GetSession)
	r.mux.HandleFunc("DELETE /api/sessions/{id}", h.Session.EndSession)

	if h.SSE != nil {
		r.mux.HandleFunc("GET /api/stream/deliveries", h.SSE.StreamDeliveries)
		r.mux.HandleFunc("GET /api/stream/deliveries/{id}", h.SSE.StreamDelivery)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.cors)(handler)

	return handler
}
