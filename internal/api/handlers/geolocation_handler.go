package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
)

// GeolocationHandler handles geocoding requests
type GeolocationHandler struct {
	resolver *services.LocationResolver
}

// NewGeolocationHandler creates a new geolocation handler
func NewGeolocationHandler(resolver *services.LocationResolver) *GeolocationHandler {
	return &GeolocationHandler{resolver: resolver}
}

// Geocode handles GET /api/geocode?q=
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	coordinate, err := h.resolver.Resolve(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, coordinate)
}
